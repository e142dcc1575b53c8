package services

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := generateCode()
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeChars, c) {
				t.Fatalf("code %q contains invalid character %q", code, c)
			}
		}
		seen[code] = true
	}
	// 100 draws from a 36^6 space should essentially never collide.
	if len(seen) < 90 {
		t.Errorf("only %d distinct codes out of 100", len(seen))
	}
}

func TestJWTRoundTrip(t *testing.T) {
	s := NewUserService(nil, "test-secret")

	token, err := s.GenerateJWT("user-123")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	userID, err := s.ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("user id = %q, want %q", userID, "user-123")
	}
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	issuer := NewUserService(nil, "secret-a")
	verifier := NewUserService(nil, "secret-b")

	token, err := issuer.GenerateJWT("user-123")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := verifier.ValidateJWT(token); err == nil {
		t.Fatal("expected validation to fail with wrong secret")
	}
}

func TestValidateJWT_Garbage(t *testing.T) {
	s := NewUserService(nil, "test-secret")
	if _, err := s.ValidateJWT("not-a-token"); err == nil {
		t.Fatal("expected validation to fail for malformed token")
	}
}
