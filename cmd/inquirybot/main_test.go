package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagatabuk/inquirybot/internal/config"
	"github.com/jagatabuk/inquirybot/internal/history"
)

const janeBody = "Name: Jane Doe\nEmail: jane@x.com\nService: AI Chatbot\nMessage: This is urgent, need a quote for a complex chatbot project.\n"

func TestRunAnalyzeText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runAnalyze(strings.NewReader(janeBody), &out, false, false))

	s := out.String()
	assert.Contains(t, s, "Subject: 🤖 AI Analysis: Contact from Jane Doe")
	for _, want := range []string{"Jane Doe", "Pricing", "High", "50-100", "3000-6000"} {
		assert.Contains(t, s, want)
	}
	assert.NotContains(t, s, "<html")
}

func TestRunAnalyzeJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runAnalyze(strings.NewReader(janeBody), &out, true, false))

	var got struct {
		Fields   map[string]string `json:"fields"`
		Analysis map[string]any    `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "Jane Doe", got.Fields["name"])
	assert.Equal(t, "pricing", got.Analysis["inquiry_type"])
	assert.Equal(t, "3000-6000", got.Analysis["estimated_cost"])
	assert.Contains(t, got.Analysis, "analysis_timestamp")
}

func TestRunAnalyzeUnparseable(t *testing.T) {
	var out bytes.Buffer
	err := runAnalyze(strings.NewReader("just a note"), &out, false, false)
	assert.ErrorContains(t, err, "no form fields")
}

func TestRunInit(t *testing.T) {
	t.Setenv("AI_EMAIL_USER", "")
	t.Setenv("AI_EMAIL_PASS", "")
	t.Setenv("INQUIRYBOT_OPERATOR_EMAIL", "")
	cfgFile = filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { cfgFile = "" })

	in := strings.NewReader("\napp-pass\n\nnot-an-email\nops@example.com\n")
	var out bytes.Buffer
	require.NoError(t, runInit(in, &out))

	info, err := os.Stat(cfgFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := config.Load(cfgFile)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", cfg.Email.To)
	assert.Equal(t, "app-pass", cfg.Inbox.Password)
	assert.Equal(t, "noreply@formspree.io", cfg.Inbox.SenderFilter)
	assert.Contains(t, out.String(), "invalid email format")
}

func TestRunInitRequiresOperator(t *testing.T) {
	cfgFile = filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { cfgFile = "" })

	var out bytes.Buffer
	err := runInit(strings.NewReader(""), &out)
	assert.ErrorContains(t, err, "operator address is required")
	assert.NoFileExists(t, cfgFile)
}

func TestFormatRecord(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 0, 0, time.Local)

	sent := formatRecord(history.Record{
		ContactName: "Jane Doe", InquiryType: "pricing", Complexity: "high", Urgency: "high",
		EstimatedHours: "50-100", EstimatedCost: "3000-6000", Status: history.StatusSent, CreatedAt: at,
	})
	assert.Equal(t, "✅ 2024-05-06 07:08 - Jane Doe: pricing, high complexity, high urgency (50-100 h, £3000-6000)", sent)

	skipped := formatRecord(history.Record{MessageUID: 9, Status: history.StatusSkipped, CreatedAt: at})
	assert.Equal(t, "⏭️ 2024-05-06 07:08 - uid 9 (no form fields)", skipped)
}
