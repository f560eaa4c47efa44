package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/jagatabuk/inquirybot/internal/config"
)

// SMTPError wraps a submission failure with whether a retry can help.
// Permanent errors are 5xx replies and configuration problems.
type SMTPError struct {
	Err       error
	Permanent bool
}

func (e *SMTPError) Error() string {
	if e.Permanent {
		return fmt.Sprintf("permanent SMTP failure: %v", e.Err)
	}
	return fmt.Sprintf("temporary SMTP failure: %v", e.Err)
}

func (e *SMTPError) Unwrap() error { return e.Err }

// IsPermanent reports whether err is a 5xx SMTP reply.
func IsPermanent(err error) bool {
	var se *SMTPError
	if errors.As(err, &se) {
		return se.Permanent
	}
	var reply *smtp.SMTPError
	if errors.As(err, &reply) {
		return !reply.Temporary()
	}
	return false
}

type SMTPSender struct {
	config config.SMTPConfig
	now    func() time.Time
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{config: cfg, now: time.Now}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, msg Message) Result {
	if err := validateMessage(msg); err != nil {
		return failed(err)
	}
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	raw, id, err := Compose(msg, s.now())
	if err != nil {
		return failed(err)
	}

	if err := s.submit(msg.From, msg.To, raw); err != nil {
		return failed(err)
	}
	return Result{Success: true, MessageID: id}
}

func (s *SMTPSender) dial() (*smtp.Client, error) {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	tlsConfig := &tls.Config{
		ServerName: s.config.Host,
		MinVersion: tls.VersionTLS12,
	}

	switch {
	case s.config.UseTLS:
		return smtp.DialTLS(addr, tlsConfig)
	case s.config.StartTLS:
		return smtp.DialStartTLS(addr, tlsConfig)
	default:
		if s.config.Username != "" {
			return nil, &SMTPError{Err: fmt.Errorf("SMTP auth requires TLS"), Permanent: true}
		}
		return smtp.Dial(addr)
	}
}

func (s *SMTPSender) submit(from, to string, raw []byte) error {
	c, err := s.dial()
	if err != nil {
		var se *SMTPError
		if errors.As(err, &se) {
			return se
		}
		return &SMTPError{Err: fmt.Errorf("connection failed: %w", sanitizeSMTPError(err)), Permanent: false}
	}
	defer c.Close()

	if s.config.Username != "" {
		auth := sasl.NewPlainClient("", s.config.Username, s.config.Password)
		if err := c.Auth(auth); err != nil {
			return &SMTPError{Err: fmt.Errorf("authentication failed: %w", sanitizeSMTPError(err)), Permanent: true}
		}
	}
	if err := c.Mail(from, nil); err != nil {
		return &SMTPError{Err: fmt.Errorf("sender rejected: %w", err), Permanent: IsPermanent(err)}
	}
	if err := c.Rcpt(to, nil); err != nil {
		return &SMTPError{Err: fmt.Errorf("recipient rejected: %w", err), Permanent: IsPermanent(err)}
	}

	w, err := c.Data()
	if err != nil {
		return &SMTPError{Err: fmt.Errorf("data command failed: %w", err), Permanent: IsPermanent(err)}
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return &SMTPError{Err: fmt.Errorf("message write failed: %w", err)}
	}
	if err := w.Close(); err != nil {
		return &SMTPError{Err: fmt.Errorf("message finalization failed: %w", err), Permanent: IsPermanent(err)}
	}

	// The message is accepted at this point; a failed QUIT changes nothing.
	_ = c.Quit()
	return nil
}

// sanitizeSMTPError keeps credentials and server banners out of the log
func sanitizeSMTPError(err error) error {
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "auth") {
		return fmt.Errorf("SMTP authentication failed")
	}
	if strings.Contains(s, "certificate") {
		return fmt.Errorf("TLS certificate error")
	}
	return err
}
