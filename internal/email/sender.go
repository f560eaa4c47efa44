package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jagatabuk/inquirybot/internal/config"
)

// Message is a notification ready to send. Text and HTML are alternative
// renderings of the same content; either may be empty, not both.
type Message struct {
	To      string
	From    string
	Subject string
	Text    string
	HTML    string
}

// Result is the outcome of one send attempt
type Result struct {
	Success   bool
	MessageID string
	Error     error
}

type Sender interface {
	Send(ctx context.Context, msg Message) Result
	Name() string
}

func NewSender(cfg config.EmailConfig) (Sender, error) {
	switch cfg.Provider {
	case "", "smtp":
		return NewSMTPSender(cfg.SMTP), nil
	case "resend":
		return NewResendSender(cfg.Resend.APIKey), nil
	case "sendgrid":
		return NewSendGridSender(cfg.SendGrid.APIKey), nil
	}
	return nil, fmt.Errorf("unknown email provider: %s (smtp, resend or sendgrid)", cfg.Provider)
}

// ValidateEmail checks for injection characters and RFC 5322 compliance
func ValidateEmail(email string) error {
	if strings.ContainsAny(email, "\r\n,;") {
		return fmt.Errorf("email contains invalid characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

func validateMessage(msg Message) error {
	if err := ValidateEmail(msg.From); err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if err := ValidateEmail(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	// Reject headers with CRLF to prevent injection
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("subject contains invalid characters")
	}
	if msg.Text == "" && msg.HTML == "" {
		return fmt.Errorf("message has no body")
	}
	return nil
}

func failed(err error) Result {
	return Result{Success: false, Error: err}
}
