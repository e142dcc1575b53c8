package services

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// EmailService sends outbound email through Resend
type EmailService struct {
	client *resend.Client
	from   string
}

// NewEmailService creates a new email service. The from address carries the
// display name, e.g. "VoiceMail <onboarding@resend.dev>".
func NewEmailService(apiKey, from string) *EmailService {
	return &EmailService{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send delivers one HTML email to a single recipient
func (s *EmailService) Send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
