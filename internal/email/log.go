package email

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them.
// It is the terminal fallback so authentication keeps working in
// development and when no provider keys are configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only provider.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "email")}
}

// Name implements Sender.
func (s *LogSender) Name() string { return "log" }

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email delivery (log provider)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}
