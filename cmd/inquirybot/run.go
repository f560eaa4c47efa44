package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jagatabuk/inquirybot/internal/config"
	"github.com/jagatabuk/inquirybot/internal/email"
	"github.com/jagatabuk/inquirybot/internal/history"
	"github.com/jagatabuk/inquirybot/internal/inbox"
	"github.com/jagatabuk/inquirybot/internal/inquiry"
	"github.com/jagatabuk/inquirybot/internal/logging"
	"github.com/jagatabuk/inquirybot/internal/processor"
	"github.com/jagatabuk/inquirybot/internal/report"
	"github.com/jagatabuk/inquirybot/internal/scheduler"
	"github.com/jagatabuk/inquirybot/internal/web"
)

func runDaemon(once bool) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return err
	}
	renderer, err := report.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load report templates: %w", err)
	}

	var (
		store *history.Store
		hist  processor.History
		reads web.HistorySource
	)
	if cfg.History.Enabled {
		store, err = history.NewStore(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close()
		hist, reads = store, store
	}

	monitor := inbox.NewMonitor(cfg.Inbox, logger)
	proc := processor.New(monitor, sender, renderer, hist, processor.Options{
		Operator:     cfg.Email.To,
		From:         cfg.Email.From,
		SenderFilter: cfg.Inbox.SenderFilter,
	}, logger)
	sched := scheduler.New(proc, cfg.Poll.Interval(), cfg.Poll.Cooldown(), scheduler.RealClock, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("inquirybot starting",
		zap.String("mailbox", cfg.Inbox.Username),
		zap.String("sender_filter", cfg.Inbox.SenderFilter),
		zap.String("operator", cfg.Email.To),
		zap.String("provider", sender.Name()))

	if once {
		out, err := sched.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("poll cycle failed: %w", err)
		}
		fmt.Printf("Processed %d notification(s): %d sent, %d failed, %d skipped\n",
			out.Found, out.Sent, out.Failed, out.Skipped)
		return nil
	}

	if cfg.Metrics.Enabled {
		server := web.NewServer(cfg.Metrics.Addr, sched, reads, logger)
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("status server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	return sched.Run(ctx)
}

type analyzeOutput struct {
	Fields   map[string]string `json:"fields"`
	Analysis inquiry.Analysis  `json:"analysis"`
}

func runAnalyze(in io.Reader, out io.Writer, asJSON, asHTML bool) error {
	body, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read message body: %w", err)
	}

	renderer, err := report.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load report templates: %w", err)
	}

	p, ok, err := processor.Prepare(renderer, string(body), time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no form fields found; this message would be marked read and skipped")
	}

	if asJSON {
		fields := make(map[string]string, len(p.Fields))
		for k, v := range p.Fields {
			fields[string(k)] = v
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analyzeOutput{Fields: fields, Analysis: p.Analysis})
	}

	fmt.Fprintf(out, "Subject: %s\n\n", p.Notification.Subject)
	if asHTML {
		fmt.Fprintln(out, p.Notification.HTML)
	} else {
		fmt.Fprintln(out, p.Notification.Text)
	}
	return nil
}

func runStatus(out io.Writer, limit int) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	stats, err := store.GetStats()
	if err != nil {
		return err
	}
	byType, err := store.CountByType()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "📊 inquirybot Statistics")
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "All Time:")
	fmt.Fprintf(out, "  Notifications handled: %d\n", stats.Total)
	fmt.Fprintf(out, "  Sent: %d\n", stats.Sent)
	fmt.Fprintf(out, "  Failed: %d\n", stats.Failed)
	fmt.Fprintf(out, "  Skipped: %d\n", stats.Skipped)

	if len(byType) > 0 {
		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Strings(types)

		fmt.Fprintln(out)
		fmt.Fprintln(out, "By Type:")
		for _, t := range types {
			fmt.Fprintf(out, "  %s: %d\n", t, byType[t])
		}
	}

	records, err := store.GetRecent(limit)
	if err != nil {
		return err
	}

	if len(records) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "📜 Recent Inquiries (last %d)\n", limit)
		fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		for _, r := range records {
			fmt.Fprintln(out, formatRecord(r))
			if r.Error != "" {
				fmt.Fprintf(out, "   Error: %s\n", r.Error)
			}
		}
	}

	return nil
}

func formatRecord(r history.Record) string {
	status := "✅"
	switch r.Status {
	case history.StatusFailed:
		status = "❌"
	case history.StatusSkipped:
		status = "⏭️"
	}

	when := r.CreatedAt.Local().Format("2006-01-02 15:04")
	if r.Status == history.StatusSkipped {
		return fmt.Sprintf("%s %s - uid %d (no form fields)", status, when, r.MessageUID)
	}

	name := r.ContactName
	if name == "" {
		name = "Unknown"
	}
	return fmt.Sprintf("%s %s - %s: %s, %s complexity, %s urgency (%s h, £%s)",
		status, when, name, r.InquiryType, r.Complexity, r.Urgency, r.EstimatedHours, r.EstimatedCost)
}
