package services

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"voicemail-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// userDirectory is the slice of the user repository the digest needs.
type userDirectory interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// letterSource is the slice of the letter repository the digest needs.
type letterSource interface {
	ReceivedSince(ctx context.Context, recipientID string, since time.Time) ([]models.VoiceLetter, error)
}

// mailer delivers one digest email.
type mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// DigestService sends each user a summary email of letters received in the
// trailing 24 hours, at the user's preferred hour. It is driven once per
// hour by the scheduler in cmd.
type DigestService struct {
	users    userDirectory
	letters  letterSource
	mailer   mailer
	inboxURL string

	// now is the invocation clock; replaceable in tests. Hours are matched
	// in this clock's location, with no per-user timezone.
	now func() time.Time
}

// NewDigestService creates a new digest service
func NewDigestService(users userDirectory, letters letterSource, mailer mailer, inboxURL string) *DigestService {
	return &DigestService{
		users:    users,
		letters:  letters,
		mailer:   mailer,
		inboxURL: inboxURL,
		now:      time.Now,
	}
}

// ParseNotificationHour converts a 12-hour clock string such as "3:00 PM" or
// "12:00 AM" into a 24-hour integer hour. "12 AM" is 0 and "12 PM" is 12.
func ParseNotificationHour(pref string) (int, error) {
	parts := strings.Fields(strings.TrimSpace(pref))
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", pref)
	}

	hourStr, _, ok := strings.Cut(parts[0], ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", pref)
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 1 || hour > 12 {
		return 0, fmt.Errorf("invalid hour in %q", pref)
	}

	switch strings.ToUpper(parts[1]) {
	case "AM":
		if hour == 12 {
			return 0, nil
		}
		return hour, nil
	case "PM":
		if hour == 12 {
			return 12, nil
		}
		return hour + 12, nil
	default:
		return 0, fmt.Errorf("invalid meridiem in %q", pref)
	}
}

// Run processes one scheduler tick: every user whose preferred hour matches
// the current hour and who received letters in the last 24 hours gets one
// digest email. A failed email is logged and the loop continues with the
// next user.
func (s *DigestService) Run(ctx context.Context) error {
	now := s.now()
	currentHour := now.Hour()

	users, err := s.users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	log.Info().
		Int("hour", currentHour).
		Int("users", len(users)).
		Msg("Running digest")

	since := now.Add(-24 * time.Hour)
	sent := 0
	for _, user := range users {
		if user.NotificationTime == nil {
			continue
		}
		hour, err := ParseNotificationHour(*user.NotificationTime)
		if err != nil {
			log.Warn().
				Err(err).
				Str("user_id", user.ID).
				Msg("Skipping user with unparseable notification time")
			continue
		}
		if hour != currentHour {
			continue
		}

		letters, err := s.letters.ReceivedSince(ctx, user.ID, since)
		if err != nil {
			log.Error().
				Err(err).
				Str("user_id", user.ID).
				Msg("Failed to query letters for digest")
			continue
		}
		if len(letters) == 0 {
			continue
		}

		subject, body := s.buildDigest(ctx, &user, letters)
		if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
			log.Error().
				Err(err).
				Str("user_id", user.ID).
				Str("email", user.Email).
				Msg("Failed to send digest email")
			continue
		}
		sent++
		log.Info().
			Str("user_id", user.ID).
			Int("letters", len(letters)).
			Msg("Digest email sent")
	}

	log.Info().Int("sent", sent).Msg("Digest run complete")
	return nil
}

// senderName resolves a letter's sender to a display name. The reserved
// system sender renders as "The Creators"; missing profiles fall back to
// "A friend".
func (s *DigestService) senderName(ctx context.Context, senderID string) string {
	if senderID == models.SystemSenderID {
		return "The Creators"
	}
	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil || sender.Username == "" {
		return "A friend"
	}
	return sender.Username
}

// buildDigest renders the subject and HTML body for one user's digest.
// All letters of the window go into a single email.
func (s *DigestService) buildDigest(ctx context.Context, user *models.User, letters []models.VoiceLetter) (string, string) {
	plural := ""
	if len(letters) > 1 {
		plural = "s"
	}
	subject := fmt.Sprintf("You have %d new voice letter%s!", len(letters), plural)

	var items strings.Builder
	for _, letter := range letters {
		name := s.senderName(ctx, letter.SenderID)
		fmt.Fprintf(&items, "<li>A letter from <strong>%s</strong> received at %s.</li>",
			html.EscapeString(name), letter.SentAt.Format("3:04 PM"))
	}

	body := fmt.Sprintf(`
		<html>
		<body>
			<h1>You've received new voice letters!</h1>
			<p>Hi %s, you have %d new letter%s waiting for you in your inbox.</p>
			<ul>%s</ul>
			<p><a href="%s">Go to your inbox</a> to listen to them now!</p>
			<p><em>- The VoiceMail Team</em></p>
		</body>
		</html>
	`, html.EscapeString(user.Username), len(letters), plural, items.String(), s.inboxURL)

	return subject, body
}
