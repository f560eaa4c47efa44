package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jagatabuk/inquirybot/internal/email"
	"github.com/jagatabuk/inquirybot/internal/history"
	"github.com/jagatabuk/inquirybot/internal/inbox"
	"github.com/jagatabuk/inquirybot/internal/metrics"
	"github.com/jagatabuk/inquirybot/internal/report"
)

// History receives one record per handled message
type History interface {
	Add(record *history.Record) error
}

type Options struct {
	Operator     string // Receives every analysis
	From         string
	SenderFilter string // Only unseen mail from this address is processed
}

// Outcome summarises one processed batch
type Outcome struct {
	CycleID string `json:"cycle_id"`
	Found   int    `json:"found"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Skipped int    `json:"skipped"`
}

// Processor runs poll cycles against a mailbox. A cycle is Poll followed
// by Process when Poll found messages. It is not safe for concurrent use.
type Processor struct {
	mailbox  inbox.Mailbox
	sender   email.Sender
	renderer *report.Renderer
	history  History
	logger   *zap.Logger
	opts     Options
	now      func() time.Time

	cycleID   string
	pending   []*inbox.Email
	connected bool
}

// New creates a processor. history may be nil.
func New(mailbox inbox.Mailbox, sender email.Sender, renderer *report.Renderer, hist History, opts Options, logger *zap.Logger) *Processor {
	return &Processor{
		mailbox:  mailbox,
		sender:   sender,
		renderer: renderer,
		history:  hist,
		logger:   logger.Named("processor"),
		opts:     opts,
		now:      time.Now,
	}
}

// Poll connects, finds unseen notifications from the configured sender and
// fetches them. It returns the number of messages waiting for Process. The
// connection stays open when that number is positive.
func (p *Processor) Poll(ctx context.Context) (int, error) {
	p.reset()
	p.cycleID = uuid.NewString()
	log := p.logger.With(zap.String("cycle_id", p.cycleID))

	if err := p.mailbox.Connect(ctx); err != nil {
		return 0, transport("connect", err)
	}
	p.connected = true

	uids, err := p.mailbox.UnseenFrom(ctx, p.opts.SenderFilter)
	if err != nil {
		p.disconnect()
		return 0, transport("search", err)
	}
	if len(uids) == 0 {
		log.Debug("no unseen notifications")
		p.disconnect()
		return 0, nil
	}

	for _, uid := range uids {
		msg, err := p.mailbox.Fetch(ctx, uid)
		if err != nil {
			metrics.IncrementMessages("fetch_failed")
			p.disconnect()
			p.pending = nil
			return 0, transport("fetch", fmt.Errorf("uid %d: %w", uid, err))
		}
		p.pending = append(p.pending, msg)
	}

	log.Info("found unseen notifications", zap.Int("count", len(p.pending)))
	return len(p.pending), nil
}

// Process handles the messages fetched by Poll and disconnects. A send
// failure leaves that message unread for the next cycle and moves on.
func (p *Processor) Process(ctx context.Context) (Outcome, error) {
	defer p.reset()

	out := Outcome{CycleID: p.cycleID, Found: len(p.pending)}
	for _, msg := range p.pending {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if err := p.handle(ctx, msg, &out); err != nil {
			return out, err
		}
	}

	p.logger.Info("cycle complete",
		zap.String("cycle_id", out.CycleID),
		zap.Int("found", out.Found),
		zap.Int("sent", out.Sent),
		zap.Int("failed", out.Failed),
		zap.Int("skipped", out.Skipped))
	return out, nil
}

func (p *Processor) handle(ctx context.Context, msg *inbox.Email, out *Outcome) error {
	log := p.logger.With(zap.String("cycle_id", p.cycleID), zap.Uint32("uid", msg.UID))

	prepared, ok, err := Prepare(p.renderer, msg.Body, p.now())
	if err != nil {
		return fmt.Errorf("failed to prepare notification for uid %d: %w", msg.UID, err)
	}

	if !ok {
		log.Warn("no form fields found, skipping", zap.String("subject", msg.Subject))
		out.Skipped++
		metrics.IncrementMessages("skipped")
		p.record(&history.Record{MessageUID: msg.UID, Status: history.StatusSkipped, AnalyzedAt: p.now()})
		return p.markSeen(ctx, msg.UID)
	}

	a := prepared.Analysis
	metrics.IncrementInquiries(string(a.InquiryType))
	record := history.NewRecord(msg.UID, prepared.Fields, a)

	result := p.sender.Send(ctx, email.Message{
		To:      p.opts.Operator,
		From:    p.opts.From,
		Subject: prepared.Notification.Subject,
		Text:    prepared.Notification.Text,
		HTML:    prepared.Notification.HTML,
	})
	metrics.RecordNotification(p.sender.Name(), result.Success)

	if !result.Success {
		log.Error("failed to send analysis, leaving message unread",
			zap.String("provider", p.sender.Name()),
			zap.Error(result.Error))
		out.Failed++
		metrics.IncrementMessages("send_failed")
		record.Status = history.StatusFailed
		if result.Error != nil {
			record.Error = result.Error.Error()
		}
		p.record(record)
		return nil
	}

	log.Info("analysis sent",
		zap.String("inquiry_type", string(a.InquiryType)),
		zap.String("complexity", string(a.Complexity)),
		zap.String("urgency", string(a.Urgency)),
		zap.String("message_id", result.MessageID))
	out.Sent++
	metrics.IncrementMessages("sent")
	record.Status = history.StatusSent
	record.MessageID = result.MessageID
	p.record(record)
	return p.markSeen(ctx, msg.UID)
}

func (p *Processor) markSeen(ctx context.Context, uid uint32) error {
	if err := p.mailbox.MarkSeen(ctx, uid); err != nil {
		return transport("store", fmt.Errorf("uid %d: %w", uid, err))
	}
	return nil
}

// record writes to history. History is informational, so failures are
// logged and never change how the message is handled.
func (p *Processor) record(r *history.Record) {
	if p.history == nil {
		return
	}
	if err := p.history.Add(r); err != nil {
		p.logger.Warn("failed to record history", zap.Uint32("uid", r.MessageUID), zap.Error(err))
	}
}

func (p *Processor) disconnect() {
	if !p.connected {
		return
	}
	p.connected = false
	if err := p.mailbox.Disconnect(); err != nil {
		p.logger.Debug("logout failed", zap.Error(err))
	}
}

func (p *Processor) reset() {
	p.disconnect()
	p.pending = nil
}
