package inbox

import (
	"context"
	"errors"
	"time"
)

// ErrNotConnected is returned by mailbox operations called before Connect
var ErrNotConnected = errors.New("not connected to IMAP server")

// Email is a message fetched from the mailbox. Body always holds the text
// rendering, converted from HTML when the message had no text/plain part.
type Email struct {
	UID        uint32
	MessageID  string
	From       string
	Subject    string
	Body       string
	HTMLBody   string
	ReceivedAt time.Time
}

// Mailbox is the source of contact-form notifications
type Mailbox interface {
	Connect(ctx context.Context) error
	// UnseenFrom returns the UIDs of unread messages sent by sender
	UnseenFrom(ctx context.Context, sender string) ([]uint32, error)
	// Fetch reads a message without marking it read
	Fetch(ctx context.Context, uid uint32) (*Email, error)
	MarkSeen(ctx context.Context, uid uint32) error
	Disconnect() error
}
