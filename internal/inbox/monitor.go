package inbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"github.com/jagatabuk/inquirybot/internal/config"
)

const commandTimeout = time.Minute

var _ Mailbox = (*Monitor)(nil)

// Monitor reads form notifications from an IMAP mailbox
type Monitor struct {
	config config.InboxConfig
	client *client.Client
	logger *zap.Logger
	dial   func(addr string) (*client.Client, error)
}

func NewMonitor(cfg config.InboxConfig, logger *zap.Logger) *Monitor {
	tlsConfig := &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12}
	return &Monitor{
		config: cfg,
		logger: logger.Named("inbox"),
		dial: func(addr string) (*client.Client, error) {
			return client.DialTLS(addr, tlsConfig)
		},
	}
}

// Connect dials the server over TLS, logs in and selects the folder
func (m *Monitor) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.config.Server, strconv.Itoa(m.config.Port))
	m.logger.Debug("connecting to IMAP server", zap.String("addr", addr))

	c, err := m.dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	c.Timeout = commandTimeout

	if err := c.Login(m.config.Username, m.config.Password); err != nil {
		c.Logout()
		return fmt.Errorf("failed to login: %w", err)
	}

	if _, err := c.Select(m.config.Folder, false); err != nil {
		c.Logout()
		return fmt.Errorf("failed to select mailbox %s: %w", m.config.Folder, err)
	}

	m.client = c
	m.logger.Debug("logged in", zap.String("user", m.config.Username), zap.String("folder", m.config.Folder))
	return nil
}

// Disconnect logs out. It is safe to call when not connected.
func (m *Monitor) Disconnect() error {
	if m.client == nil {
		return nil
	}
	err := m.client.Logout()
	m.client = nil
	return err
}

func (m *Monitor) UnseenFrom(ctx context.Context, sender string) ([]uint32, error) {
	if m.client == nil {
		return nil, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	if sender != "" {
		criteria.Header.Add("From", sender)
	}

	uids, err := m.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search unseen messages: %w", err)
	}
	m.logger.Debug("unseen messages", zap.String("from", sender), zap.Int("count", len(uids)))
	return uids, nil
}

func (m *Monitor) Fetch(ctx context.Context, uid uint32) (*Email, error) {
	if m.client == nil {
		return nil, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	// Peek so a message whose notification fails to send stays unread
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- m.client.UidFetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for fetched := range messages {
		if msg == nil {
			msg = fetched
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %d: %w", uid, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("message %d not found", uid)
	}

	r := msg.GetBody(section)
	if r == nil {
		return nil, fmt.Errorf("message %d has no body", uid)
	}

	email, err := ParseMessage(r)
	if err != nil {
		return nil, fmt.Errorf("message %d: %w", uid, err)
	}
	email.UID = msg.Uid

	if env := msg.Envelope; env != nil {
		if email.Subject == "" {
			email.Subject = env.Subject
		}
		if email.ReceivedAt.IsZero() {
			email.ReceivedAt = env.Date
		}
		if email.From == "" && len(env.From) > 0 {
			email.From = env.From[0].Address()
		}
	}
	return email, nil
}

func (m *Monitor) MarkSeen(ctx context.Context, uid uint32) error {
	if m.client == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := m.client.UidStore(seqSet, item, flags, nil); err != nil {
		return fmt.Errorf("failed to mark message %d as seen: %w", uid, err)
	}
	return nil
}
