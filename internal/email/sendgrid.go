package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers mail through SendGrid.
type SendGridSender struct {
	client *sendgrid.Client
	from   string
}

// NewSendGridSender creates a SendGrid provider.
func NewSendGridSender(apiKey, from string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
	}
}

// Name implements Sender.
func (s *SendGridSender) Name() string { return "sendgrid" }

// Send delivers the message via the SendGrid v3 mail API.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail("", s.from)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, "")

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
