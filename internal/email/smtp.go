package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
)

// ErrSMTPHostPortRequired is returned when Host/Port are missing.
var ErrSMTPHostPortRequired = errors.New("smtp: host and port are required")

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is used when Message.From is empty.
	From string
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	addr        string
	defaultFrom string
	auth        smtp.Auth
	sendMail    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender builds an SMTP-backed sender. Auth is only used when both
// username and password are set.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPSender{
		addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		defaultFrom: cfg.From,
		auth:        auth,
		sendMail:    smtp.SendMail,
	}, nil
}

// Send delivers a message over SMTP.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.From == "" {
		msg.From = s.defaultFrom
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	if err := s.sendMail(s.addr, s.auth, msg.From, msg.To, buildMIME(msg.From, msg)); err != nil {
		return fmt.Errorf("smtp: failed to send email: %w", err)
	}
	return nil
}
