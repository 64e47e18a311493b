package email

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/hostedid/accounts/internal/config"
	"github.com/hostedid/accounts/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want error
	}{
		{name: "ok", msg: Message{From: "f@example.com", To: []string{"t@example.com"}}},
		{name: "no recipients", msg: Message{From: "f@example.com"}, want: ErrNoRecipients},
		{name: "blank recipient", msg: Message{From: "f@example.com", To: []string{""}}, want: ErrNoRecipients},
		{name: "no sender", msg: Message{To: []string{"t@example.com"}}, want: ErrNoSender},
		{name: "plus address", msg: Message{From: "webmaster@localhost", To: []string{"jane+news@example.com"}}},
		{name: "header injection in recipient", msg: Message{From: "f@example.com", To: []string{"a@example.com\r\nBcc: victim@example.com"}}, want: ErrInvalidAddress},
		{name: "newline in recipient", msg: Message{From: "f@example.com", To: []string{"a@example.com\nX-Evil: 1"}}, want: ErrInvalidAddress},
		{name: "display name recipient", msg: Message{From: "f@example.com", To: []string{"Jane <jane@example.com>"}}, want: ErrInvalidAddress},
		{name: "not an address", msg: Message{From: "f@example.com", To: []string{"nope"}}, want: ErrInvalidAddress},
		{name: "header injection in sender", msg: Message{From: "f@example.com\r\nBcc: x@example.com", To: []string{"t@example.com"}}, want: ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

type capturedMail struct {
	addr string
	from string
	to   []string
	raw  string
}

func captureSMTP(s *SMTPSender, err error) *capturedMail {
	captured := &capturedMail{}
	s.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr = addr
		captured.from = from
		captured.to = to
		captured.raw = string(msg)
		return err
	}
	return captured
}

func TestNewSMTPSenderRequiresHost(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{Port: 25})
	assert.ErrorIs(t, err, ErrSMTPHostPortRequired)
}

func TestSMTPSenderSend(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "mail.example.com", Port: 2525, From: "webmaster@example.com"})
	require.NoError(t, err)
	captured := captureSMTP(s, nil)

	err = s.Send(context.Background(), Message{
		To:       []string{"new@example.com"},
		Subject:  "Welcome to Our Platform",
		TextBody: "Hi",
		HTMLBody: "<p>Hi</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "mail.example.com:2525", captured.addr)
	assert.Equal(t, "webmaster@example.com", captured.from)
	assert.Equal(t, []string{"new@example.com"}, captured.to)
	assert.Contains(t, captured.raw, "Subject: Welcome to Our Platform")
	assert.Contains(t, captured.raw, "multipart/alternative")
}

func TestSMTPSenderWrapsTransportError(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "mail.example.com", Port: 25, From: "webmaster@example.com"})
	require.NoError(t, err)
	transportErr := errors.New("connection refused")
	captureSMTP(s, transportErr)

	err = s.Send(context.Background(), Message{To: []string{"a@example.com"}, TextBody: "x"})
	assert.ErrorIs(t, err, transportErr)
}

func TestSMTPSenderRejectsInvalidMessage(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "mail.example.com", Port: 25, From: "webmaster@example.com"})
	require.NoError(t, err)
	captured := captureSMTP(s, nil)

	err = s.Send(context.Background(), Message{TextBody: "x"})
	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.Empty(t, captured.addr)
}

func TestSMTPSenderCancelledContext(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "mail.example.com", Port: 25, From: "webmaster@example.com"})
	require.NoError(t, err)
	captured := captureSMTP(s, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Send(ctx, Message{To: []string{"a@example.com"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, captured.addr)
}

func TestConsoleSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSender(logger.NewWithWriter(&buf, "info", "json"))

	err := s.Send(context.Background(), Message{
		From:     "webmaster@localhost",
		To:       []string{"new@example.com"},
		Subject:  "Welcome to Our Platform",
		TextBody: "Hi",
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "new@example.com"))
	assert.Contains(t, buf.String(), "email would be sent")
}

func TestNewSender(t *testing.T) {
	ctx := context.Background()
	log := logger.Nop()

	s, err := NewSender(ctx, config.EmailConfig{Provider: "console", DefaultFrom: "a@example.com"}, log)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleSender{}, s)

	s, err = NewSender(ctx, config.EmailConfig{
		Provider:    "smtp",
		DefaultFrom: "a@example.com",
		SMTP:        config.SMTPEmailConfig{Host: "localhost", Port: 25},
	}, log)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	_, err = NewSender(ctx, config.EmailConfig{Provider: "gmail", DefaultFrom: "a@example.com"}, log)
	assert.Error(t, err)

	_, err = NewSender(ctx, config.EmailConfig{Provider: "fax"}, log)
	assert.Error(t, err)
}
