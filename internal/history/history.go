package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jagatabuk/inquirybot/internal/inquiry"
)

type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped" // Unparseable, marked read without a notification
)

// Record is one processed notification. History is an audit log only:
// the mailbox's read flags decide what gets processed.
type Record struct {
	ID             string    `json:"id"`
	MessageUID     uint32    `json:"message_uid"`
	ContactName    string    `json:"contact_name,omitempty"`
	ContactEmail   string    `json:"contact_email,omitempty"`
	Service        string    `json:"service,omitempty"`
	InquiryType    string    `json:"inquiry_type,omitempty"`
	Complexity     string    `json:"complexity,omitempty"`
	Urgency        string    `json:"urgency,omitempty"`
	EstimatedHours string    `json:"estimated_hours,omitempty"`
	EstimatedCost  string    `json:"estimated_cost,omitempty"`
	Status         Status    `json:"status"`
	MessageID      string    `json:"message_id,omitempty"` // Message-ID of the operator notification
	Error          string    `json:"error,omitempty"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewRecord builds a record from an analysed inquiry
func NewRecord(uid uint32, fields inquiry.FieldSet, a inquiry.Analysis) *Record {
	return &Record{
		MessageUID:     uid,
		ContactName:    fields[inquiry.FieldName],
		ContactEmail:   fields[inquiry.FieldEmail],
		Service:        fields[inquiry.FieldService],
		InquiryType:    string(a.InquiryType),
		Complexity:     string(a.Complexity),
		Urgency:        string(a.Urgency),
		EstimatedHours: a.EstimatedHours,
		EstimatedCost:  a.EstimatedCost,
		AnalyzedAt:     a.AnalyzedAt,
	}
}

// Stats summarises the log by outcome
type Stats struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

const recordColumns = `id, message_uid, contact_name, contact_email, service, inquiry_type,
	complexity, urgency, estimated_hours, estimated_cost, status, message_id, error,
	analyzed_at, created_at`

// scanRecord handles nullable columns when scanning a row
func scanRecord(scanner interface{ Scan(...any) error }) (*Record, error) {
	var r Record
	var analyzedAt, createdAt sql.NullTime
	var messageID, errStr sql.NullString

	err := scanner.Scan(&r.ID, &r.MessageUID, &r.ContactName, &r.ContactEmail, &r.Service,
		&r.InquiryType, &r.Complexity, &r.Urgency, &r.EstimatedHours, &r.EstimatedCost,
		&r.Status, &messageID, &errStr, &analyzedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	r.MessageID = messageID.String
	r.Error = errStr.String
	r.AnalyzedAt = analyzedAt.Time
	r.CreatedAt = createdAt.Time
	return &r, nil
}

func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The processor and the status server share one file
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS inquiries (
		id TEXT PRIMARY KEY,
		message_uid INTEGER NOT NULL,
		contact_name TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		service TEXT NOT NULL DEFAULT '',
		inquiry_type TEXT NOT NULL DEFAULT '',
		complexity TEXT NOT NULL DEFAULT '',
		urgency TEXT NOT NULL DEFAULT '',
		estimated_hours TEXT NOT NULL DEFAULT '',
		estimated_cost TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		message_id TEXT,
		error TEXT,
		analyzed_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_inquiries_created_at ON inquiries(created_at);
	CREATE INDEX IF NOT EXISTS idx_inquiries_status ON inquiries(status);
	CREATE INDEX IF NOT EXISTS idx_inquiries_type ON inquiries(inquiry_type);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Add inserts record, assigning its ID and creation time
func (s *Store) Add(record *Record) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = s.now().UTC()

	var analyzedAt any
	if !record.AnalyzedAt.IsZero() {
		analyzedAt = record.AnalyzedAt.UTC()
	}

	query := `INSERT INTO inquiries (` + recordColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		record.ID,
		record.MessageUID,
		record.ContactName,
		record.ContactEmail,
		record.Service,
		record.InquiryType,
		record.Complexity,
		record.Urgency,
		record.EstimatedHours,
		record.EstimatedCost,
		record.Status,
		record.MessageID,
		record.Error,
		analyzedAt,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// GetRecent returns up to limit records, newest first
func (s *Store) GetRecent(limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM inquiries ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func (s *Store) GetStats() (Stats, error) {
	query := `SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN status='sent' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status='failed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status='skipped' THEN 1 ELSE 0 END), 0)
		FROM inquiries`

	var st Stats
	if err := s.db.QueryRow(query).Scan(&st.Total, &st.Sent, &st.Failed, &st.Skipped); err != nil {
		return Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return st, nil
}

// CountByType counts analysed inquiries per inquiry type. Skipped
// messages have no type and are left out.
func (s *Store) CountByType() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT inquiry_type, COUNT(*) FROM inquiries
		WHERE inquiry_type != '' GROUP BY inquiry_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
