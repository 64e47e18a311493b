package email

import (
	"context"

	"github.com/hostedid/accounts/internal/logger"
)

// ConsoleSender writes messages to the log instead of delivering them.
// Used in development when no provider is configured.
type ConsoleSender struct {
	log *logger.Logger
}

// NewConsoleSender creates a ConsoleSender
func NewConsoleSender(log *logger.Logger) *ConsoleSender {
	return &ConsoleSender{log: log.WithComponent("email_console")}
}

// Send logs the message
func (c *ConsoleSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	c.log.Info().
		Str("from", msg.From).
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Str("text_body", msg.TextBody).
		Bool("has_html", msg.HTMLBody != "").
		Msg("email would be sent")
	return nil
}
