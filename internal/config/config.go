package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultIMAPServer   = "imap.gmail.com"
	defaultIMAPPort     = 993
	defaultSMTPHost     = "smtp.gmail.com"
	defaultSMTPPort     = 587
	defaultAccount      = "ai-assistant@jagatabuk.com"
	defaultSenderFilter = "noreply@formspree.io"
	defaultIntervalSec  = 300
	defaultCooldownSec  = 60
	defaultMetricsAddr  = "127.0.0.1:9464"
)

func checkFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %04o; should be 0600", path, perm)
	}
	return nil
}

type Config struct {
	Inbox   InboxConfig   `yaml:"inbox"`
	Email   EmailConfig   `yaml:"email"`
	Poll    PollConfig    `yaml:"poll"`
	Logging LoggingConfig `yaml:"logging"`
	History HistoryConfig `yaml:"history"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// InboxConfig holds IMAP settings for the mailbox that receives form notifications
type InboxConfig struct {
	Server       string `yaml:"server"`        // e.g., "imap.gmail.com"
	Port         int    `yaml:"port"`          // e.g., 993
	Username     string `yaml:"username"`      // Mailbox login
	Password     string `yaml:"password"`      // App password (not main password)
	Folder       string `yaml:"folder"`        // Folder to poll (default: "INBOX")
	SenderFilter string `yaml:"sender_filter"` // Only unseen mail from this sender is processed
}

type EmailConfig struct {
	Provider string       `yaml:"provider"` // "smtp", "resend" or "sendgrid"
	From     string       `yaml:"from"`
	To       string       `yaml:"to"` // Operator address that receives every analysis
	SMTP     SMTPConfig   `yaml:"smtp,omitempty"`
	Resend   APIKeyConfig `yaml:"resend,omitempty"`
	SendGrid APIKeyConfig `yaml:"sendgrid,omitempty"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UseTLS   bool   `yaml:"use_tls"`   // Implicit TLS (port 465)
	StartTLS bool   `yaml:"start_tls"` // Upgrade a plain connection (port 587)
}

type APIKeyConfig struct {
	APIKey string `yaml:"api_key"`
}

// PollConfig controls the scheduler
type PollConfig struct {
	IntervalSec int `yaml:"interval_sec"` // Pause between cycles, also after mailbox/transport failures
	CooldownSec int `yaml:"cooldown_sec"` // Pause after an unexpected failure
}

func (p PollConfig) Interval() time.Duration { return time.Duration(p.IntervalSec) * time.Second }
func (p PollConfig) Cooldown() time.Duration { return time.Duration(p.CooldownSec) * time.Second }

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

func DefaultConfigPath() string {
	return filepath.Join(dataDir(), "config.yaml")
}

func DefaultHistoryPath() string {
	return filepath.Join(dataDir(), "history.db")
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".inquirybot")
}

// Default returns a config with every default applied and no file or
// environment input.
func Default() *Config {
	cfg := &Config{
		History: HistoryConfig{Enabled: true},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads the config file at path. A missing file is not an error: the
// defaults plus environment overrides are used instead, so the daemon can
// run from environment variables alone.
func Load(path string) (*Config, error) {
	return load(path, os.Getenv)
}

func load(path string, getenv func(string) string) (*Config, error) {
	cfg := &Config{History: HistoryConfig{Enabled: true}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := checkFilePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	overrideFromEnv(cfg, getenv)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Inbox.Server == "" {
		c.Inbox.Server = defaultIMAPServer
	}
	if c.Inbox.Port == 0 {
		c.Inbox.Port = defaultIMAPPort
	}
	if c.Inbox.Username == "" {
		c.Inbox.Username = defaultAccount
	}
	if c.Inbox.Folder == "" {
		c.Inbox.Folder = "INBOX"
	}
	if c.Inbox.SenderFilter == "" {
		c.Inbox.SenderFilter = defaultSenderFilter
	}

	if c.Email.Provider == "" {
		c.Email.Provider = "smtp"
	}
	if c.Email.From == "" {
		c.Email.From = c.Inbox.Username
	}
	if c.Email.Provider == "smtp" {
		if c.Email.SMTP.Host == "" {
			c.Email.SMTP.Host = defaultSMTPHost
			c.Email.SMTP.Port = defaultSMTPPort
			c.Email.SMTP.StartTLS = true
		}
		// Same account for reading and sending unless told otherwise
		if c.Email.SMTP.Username == "" {
			c.Email.SMTP.Username = c.Inbox.Username
		}
		if c.Email.SMTP.Password == "" {
			c.Email.SMTP.Password = c.Inbox.Password
		}
	}

	if c.Poll.IntervalSec <= 0 {
		c.Poll.IntervalSec = defaultIntervalSec
	}
	if c.Poll.CooldownSec <= 0 {
		c.Poll.CooldownSec = defaultCooldownSec
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath()
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = defaultMetricsAddr
	}
}

func overrideFromEnv(cfg *Config, getenv func(string) string) {
	if user := getenv("AI_EMAIL_USER"); user != "" {
		cfg.Inbox.Username = user
		cfg.Email.SMTP.Username = user
	}
	if pass := getenv("AI_EMAIL_PASS"); pass != "" {
		cfg.Inbox.Password = pass
		cfg.Email.SMTP.Password = pass
	}
	if to := getenv("INQUIRYBOT_OPERATOR_EMAIL"); to != "" {
		cfg.Email.To = to
	}
	if interval := getenv("INQUIRYBOT_POLL_INTERVAL"); interval != "" {
		if n, err := strconv.Atoi(interval); err == nil {
			cfg.Poll.IntervalSec = n
		}
	}
	if level := getenv("INQUIRYBOT_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if key := getenv("RESEND_API_KEY"); key != "" {
		cfg.Email.Resend.APIKey = key
	}
	if key := getenv("SENDGRID_API_KEY"); key != "" {
		cfg.Email.SendGrid.APIKey = key
	}
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	if err := c.ValidateInbox(); err != nil {
		return err
	}
	if err := c.ValidateEmail(); err != nil {
		return err
	}
	if c.Poll.IntervalSec <= 0 {
		return fmt.Errorf("poll: interval_sec must be positive")
	}
	return nil
}

// ValidateInbox validates the mailbox settings
func (c *Config) ValidateInbox() error {
	if c.Inbox.Server == "" {
		return fmt.Errorf("inbox: IMAP server is required")
	}
	if c.Inbox.Port == 0 {
		return fmt.Errorf("inbox: IMAP port is required")
	}
	if c.Inbox.Username == "" {
		return fmt.Errorf("inbox: username is required")
	}
	if c.Inbox.Password == "" {
		return fmt.Errorf("inbox: password (app password) is required; set AI_EMAIL_PASS")
	}
	return nil
}

// ValidateEmail validates the notification settings
func (c *Config) ValidateEmail() error {
	if c.Email.To == "" {
		return fmt.Errorf("email: operator address (to) is required")
	}
	if c.Email.From == "" {
		return fmt.Errorf("email: from address is required")
	}

	switch c.Email.Provider {
	case "smtp":
		if c.Email.SMTP.Host == "" {
			return fmt.Errorf("email.smtp: host is required")
		}
		if c.Email.SMTP.Port == 0 {
			return fmt.Errorf("email.smtp: port is required")
		}
		if c.Email.SMTP.UseTLS && c.Email.SMTP.StartTLS {
			return fmt.Errorf("email.smtp: use_tls and start_tls are mutually exclusive")
		}
	case "resend":
		if c.Email.Resend.APIKey == "" {
			return fmt.Errorf("email.resend: api_key is required")
		}
	case "sendgrid":
		if c.Email.SendGrid.APIKey == "" {
			return fmt.Errorf("email.sendgrid: api_key is required")
		}
	default:
		return fmt.Errorf("email: unknown provider %q (smtp, resend or sendgrid)", c.Email.Provider)
	}
	return nil
}
