// Package email delivers transactional mail through ranked providers.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Message is a single transactional email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Sender delivers one message, or reports why it could not.
type Sender interface {
	// Name identifies the provider in logs.
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Fanout tries each sender in order and stops at the first success.
// Provider outages degrade delivery, never the request that queued it.
type Fanout struct {
	senders []Sender
	logger  *slog.Logger
}

// NewFanout builds a ranked delivery chain. Senders are tried in the
// order given.
func NewFanout(logger *slog.Logger, senders ...Sender) *Fanout {
	return &Fanout{
		senders: senders,
		logger:  logger.With("component", "email"),
	}
}

// Name implements Sender.
func (f *Fanout) Name() string { return "fanout" }

// Send walks the provider chain until one accepts the message.
func (f *Fanout) Send(ctx context.Context, msg Message) error {
	if len(f.senders) == 0 {
		return errors.New("no email providers configured")
	}

	var errs []error
	for _, s := range f.senders {
		err := s.Send(ctx, msg)
		if err == nil {
			f.logger.Info("email sent", "provider", s.Name(), "to", msg.To)
			return nil
		}
		f.logger.Warn("email provider failed", "provider", s.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return fmt.Errorf("all email providers failed: %w", errors.Join(errs...))
}
