package email

import (
	"context"
	"fmt"

	"github.com/hostedid/accounts/internal/config"
	"github.com/hostedid/accounts/internal/logger"
)

// NewSender builds the provider selected by cfg.Provider.
func NewSender(ctx context.Context, cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	switch cfg.Provider {
	case "gmail":
		var (
			sender *GmailSender
			err    error
		)
		if cfg.Gmail.RefreshToken != "" {
			sender, err = NewGmailSenderWithToken(ctx,
				cfg.Gmail.ClientID,
				cfg.Gmail.ClientSecret,
				cfg.Gmail.RefreshToken,
				cfg.DefaultFrom,
				cfg.Gmail.SenderName,
			)
		} else {
			sender, err = NewGmailSender(ctx, GmailConfig{
				CredentialsJSON: cfg.Gmail.CredentialsJSON,
				SenderAddress:   cfg.DefaultFrom,
				SenderName:      cfg.Gmail.SenderName,
			})
		}
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "smtp":
		sender, err := NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.DefaultFrom,
		})
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "console":
		return NewConsoleSender(log), nil
	default:
		return nil, fmt.Errorf("email: unknown provider %q", cfg.Provider)
	}
}
