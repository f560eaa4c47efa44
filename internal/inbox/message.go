package inbox

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/k3a/html2text"
)

// ParseMessage reads an RFC 5322 message and keeps the first text/plain
// and text/html inline parts. Attachments are ignored.
func ParseMessage(r io.Reader) (*Email, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	email := &Email{}
	if subject, err := mr.Header.Subject(); err == nil {
		email.Subject = subject
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		email.From = from[0].Address
	}
	if date, err := mr.Header.Date(); err == nil {
		email.ReceivedAt = date
	}
	if id, err := mr.Header.MessageID(); err == nil {
		email.MessageID = id
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		if ct == "" {
			ct = "text/plain"
		}
		body, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s body: %w", ct, err)
		}

		switch {
		case strings.HasPrefix(ct, "text/plain") && email.Body == "":
			email.Body = string(body)
		case strings.HasPrefix(ct, "text/html") && email.HTMLBody == "":
			email.HTMLBody = string(body)
		}
	}

	if email.Body == "" && email.HTMLBody != "" {
		email.Body = html2text.HTML2Text(email.HTMLBody)
	}
	return email, nil
}
