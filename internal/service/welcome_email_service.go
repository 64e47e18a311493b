package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hostedid/accounts/internal/email"
	"github.com/hostedid/accounts/internal/logger"
	"github.com/hostedid/accounts/internal/queue"
)

const (
	// WelcomeEmailJobName identifies the welcome email job on the queue.
	WelcomeEmailJobName = "users.send_welcome_email"

	// WelcomeEmailSubject is the subject line of the welcome email.
	WelcomeEmailSubject = "Welcome to Our Platform"
	// WelcomeEmailTemplate is the template rendered for the HTML body.
	WelcomeEmailTemplate = "users/new_user_welcome_email.html"
)

var (
	// ErrEmptyAddress is returned when the welcome email has no recipient.
	ErrEmptyAddress = errors.New("welcome email: address is required")
	// ErrRenderFailed wraps template failures; no mail is sent when it is returned.
	ErrRenderFailed = errors.New("welcome email: render failed")
)

// TemplateRenderer renders a named template with a data map.
type TemplateRenderer interface {
	Render(name string, data map[string]any) (string, error)
}

// WelcomeConfig holds the fixed parts of the welcome email.
type WelcomeConfig struct {
	FromAddress string
	Subject     string
	Template    string
}

// WelcomeEmailService sends the welcome email to newly registered users.
type WelcomeEmailService struct {
	renderer TemplateRenderer
	sender   email.Sender
	cfg      WelcomeConfig
	log      *logger.Logger
}

// NewWelcomeEmailService creates a WelcomeEmailService. Empty Subject and
// Template fall back to the standard welcome email.
func NewWelcomeEmailService(renderer TemplateRenderer, sender email.Sender, cfg WelcomeConfig, log *logger.Logger) *WelcomeEmailService {
	if cfg.Subject == "" {
		cfg.Subject = WelcomeEmailSubject
	}
	if cfg.Template == "" {
		cfg.Template = WelcomeEmailTemplate
	}
	return &WelcomeEmailService{
		renderer: renderer,
		sender:   sender,
		cfg:      cfg,
		log:      log.WithComponent("welcome_email"),
	}
}

// Send renders the welcome template for address and dispatches one email.
// Nothing is sent if rendering fails.
func (s *WelcomeEmailService) Send(ctx context.Context, address string) error {
	if address == "" {
		return ErrEmptyAddress
	}

	htmlBody, err := s.renderer.Render(s.cfg.Template, map[string]any{"email": address})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	msg := email.Message{
		From:     s.cfg.FromAddress,
		To:       []string{address},
		Subject:  s.cfg.Subject,
		TextBody: email.StripTags(htmlBody),
		HTMLBody: htmlBody,
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("welcome email: %w", err)
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	s.log.Info().Str("email", address).Msg("welcome email sent")
	return nil
}

// Enqueue schedules the welcome email for address on d.
func (s *WelcomeEmailService) Enqueue(ctx context.Context, d queue.Dispatcher, address string) error {
	if address == "" {
		return ErrEmptyAddress
	}
	if err := email.ValidateAddress(address); err != nil {
		return err
	}
	desc, err := queue.NewDescriptor(WelcomeEmailJobName, welcomeEmailPayload{Email: address})
	if err != nil {
		return err
	}
	return d.Enqueue(ctx, desc)
}

// Register makes the welcome email job runnable by workers using r.
func (s *WelcomeEmailService) Register(r *queue.Registry) {
	r.Register(WelcomeEmailJobName, func(payload json.RawMessage) (queue.Job, error) {
		var p welcomeEmailPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return &WelcomeEmailJob{Email: p.Email, service: s}, nil
	})
}

type welcomeEmailPayload struct {
	Email string `json:"email"`
}

// WelcomeEmailJob is the queued form of a welcome email.
type WelcomeEmailJob struct {
	Email   string
	service *WelcomeEmailService
}

// Run sends the email. Render failures and a missing or malformed address
// will not succeed on retry and are reported as permanent.
func (j *WelcomeEmailJob) Run(ctx context.Context) error {
	err := j.service.Send(ctx, j.Email)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrEmptyAddress) || errors.Is(err, ErrRenderFailed) || errors.Is(err, email.ErrInvalidAddress) {
		return queue.Permanent(err)
	}
	return err
}
