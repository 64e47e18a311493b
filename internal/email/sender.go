package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
)

var (
	// ErrNoRecipients is returned when a message has no To address.
	ErrNoRecipients = errors.New("email: no recipients")
	// ErrNoSender is returned when a message has no From address.
	ErrNoSender = errors.New("email: no sender")
	// ErrInvalidAddress is returned for an address that is not a bare
	// RFC 5322 addr-spec, including any containing CR or LF.
	ErrInvalidAddress = errors.New("email: invalid address")
)

// Sender is the interface that all email providers must implement.
// This abstraction allows swapping email providers (Gmail, SMTP, console)
// without changing business logic.
type Sender interface {
	// Send dispatches a single message.
	Send(ctx context.Context, msg Message) error
}

// Message represents an email message to be sent.
type Message struct {
	From     string   // sender address
	To       []string // recipient addresses
	Subject  string   // email subject
	TextBody string   // plain-text body, the primary representation
	HTMLBody string   // optional HTML alternative
}

// Validate reports whether the message can be handed to a provider.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	for _, to := range m.To {
		if to == "" {
			return ErrNoRecipients
		}
		if err := ValidateAddress(to); err != nil {
			return err
		}
	}
	if m.From == "" {
		return ErrNoSender
	}
	return ValidateAddress(m.From)
}

// ValidateAddress reports whether address is a bare addr-spec that is safe
// to place in a message header.
func ValidateAddress(address string) error {
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Name != "" || parsed.Address != address {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return nil
}
