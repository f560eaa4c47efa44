package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagatabuk/inquirybot/internal/inquiry"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	base := time.Date(2024, 5, 6, 7, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s
}

func TestEmptyStore(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)

	recent, err := s.GetRecent(10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	counts, err := s.CountByType()
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestAddAndGetRecent(t *testing.T) {
	s := newTestStore(t)

	fields := inquiry.FieldSet{
		inquiry.FieldName:    "Jane Doe",
		inquiry.FieldEmail:   "jane@x.com",
		inquiry.FieldService: "AI Chatbot",
		inquiry.FieldMessage: "This is urgent, need a quote for a complex chatbot project.",
	}
	analyzedAt := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	sent := NewRecord(42, fields, inquiry.Analyze(fields, analyzedAt))
	sent.Status = StatusSent
	sent.MessageID = "abc@example.com"
	require.NoError(t, s.Add(sent))
	assert.NotEmpty(t, sent.ID)

	skipped := &Record{MessageUID: 43, Status: StatusSkipped}
	require.NoError(t, s.Add(skipped))

	recent, err := s.GetRecent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, skipped.ID, recent[0].ID)
	assert.True(t, recent[0].AnalyzedAt.IsZero())

	got := recent[1]
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, uint32(42), got.MessageUID)
	assert.Equal(t, "Jane Doe", got.ContactName)
	assert.Equal(t, "jane@x.com", got.ContactEmail)
	assert.Equal(t, "AI Chatbot", got.Service)
	assert.Equal(t, "pricing", got.InquiryType)
	assert.Equal(t, "high", got.Complexity)
	assert.Equal(t, "high", got.Urgency)
	assert.Equal(t, "50-100", got.EstimatedHours)
	assert.Equal(t, "3000-6000", got.EstimatedCost)
	assert.Equal(t, StatusSent, got.Status)
	assert.Equal(t, "abc@example.com", got.MessageID)
	assert.True(t, analyzedAt.Equal(got.AnalyzedAt))

	limited, err := s.GetRecent(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStatsAndCountByType(t *testing.T) {
	s := newTestStore(t)

	for _, r := range []*Record{
		{MessageUID: 1, InquiryType: "pricing", Status: StatusSent},
		{MessageUID: 2, InquiryType: "pricing", Status: StatusFailed, Error: "smtp down"},
		{MessageUID: 3, InquiryType: "support", Status: StatusSent},
		{MessageUID: 4, Status: StatusSkipped},
	} {
		require.NoError(t, s.Add(r))
	}

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 4, Sent: 2, Failed: 1, Skipped: 1}, stats)

	counts, err := s.CountByType()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"pricing": 2, "support": 1}, counts)
}
