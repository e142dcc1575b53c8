package main

import "voicemail-backend/cmd"

func main() {
	cmd.Run()
}
