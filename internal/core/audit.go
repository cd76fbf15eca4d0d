package core

// audit.go keeps an in-memory journal of table mutations.
//
// The journal is bounded: once it holds maxEntries entries the oldest are
// dropped. Entries carry the caller's IP address and User-Agent when the
// context has them (see WithRequestMeta).

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionColumnAdd        AuditAction = "column_add"
	ActionColumnVisibility AuditAction = "column_visibility"
	ActionColumnReorder    AuditAction = "column_reorder"
	ActionColumnReset      AuditAction = "column_reset"
	ActionRowAdd           AuditAction = "row_add"
	ActionRowUpdate        AuditAction = "row_update"
	ActionRowDelete        AuditAction = "row_delete"
	ActionRowsReplace      AuditAction = "rows_replace"
	ActionImport           AuditAction = "import"
	ActionExport           AuditAction = "export"
	ActionEditCommit       AuditAction = "edit_commit"
)

// AuditSeverity represents the severity level of an audit entry.
type AuditSeverity string

const (
	SeverityLow      AuditSeverity = "low"
	SeverityMedium   AuditSeverity = "medium"
	SeverityHigh     AuditSeverity = "high"
	SeverityCritical AuditSeverity = "critical"
)

// DefaultAuditEntries is the journal size used when none is configured.
const DefaultAuditEntries = 500

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID           string        `json:"id"`
	Action       AuditAction   `json:"action"`
	Severity     AuditSeverity `json:"severity"`
	RecordID     string        `json:"recordId,omitempty"`
	ColumnKey    string        `json:"columnKey,omitempty"`
	RowsAffected int           `json:"rowsAffected,omitempty"`
	Detail       string        `json:"detail,omitempty"`
	IPAddress    string        `json:"ipAddress,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// AuditLogParams contains parameters for creating an audit log entry.
type AuditLogParams struct {
	Action       AuditAction
	RecordID     string
	ColumnKey    string
	RowsAffected int
	Detail       string
}

// determineSeverity returns the appropriate severity for an action.
func determineSeverity(action AuditAction) AuditSeverity {
	switch action {
	case ActionImport, ActionRowsReplace, ActionRowDelete:
		return SeverityHigh
	case ActionColumnReset:
		return SeverityCritical
	case ActionExport, ActionColumnVisibility, ActionColumnReorder:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// AuditLog is a bounded, concurrency-safe mutation journal.
type AuditLog struct {
	mu         sync.Mutex
	entries    []AuditEntry
	maxEntries int
	now        func() time.Time
}

// NewAuditLog creates a journal keeping at most maxEntries entries.
func NewAuditLog(maxEntries int) *AuditLog {
	if maxEntries <= 0 {
		maxEntries = DefaultAuditEntries
	}
	return &AuditLog{maxEntries: maxEntries, now: time.Now}
}

// Record appends an entry and returns it.
func (l *AuditLog) Record(ctx context.Context, p AuditLogParams) AuditEntry {
	meta := RequestMetaFrom(ctx)
	entry := AuditEntry{
		ID:           uuid.NewString(),
		Action:       p.Action,
		Severity:     determineSeverity(p.Action),
		RecordID:     p.RecordID,
		ColumnKey:    p.ColumnKey,
		RowsAffected: p.RowsAffected,
		Detail:       p.Detail,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		CreatedAt:    l.now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if over := len(l.entries) - l.maxEntries; over > 0 {
		l.entries = append([]AuditEntry(nil), l.entries[over:]...)
	}
	return entry
}

// Entries returns up to limit entries, newest first. limit <= 0 returns all.
func (l *AuditLog) Entries(limit int) []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]AuditEntry, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// AuditLogOptions contains options for querying the journal.
type AuditLogOptions struct {
	Action    AuditAction
	Severity  AuditSeverity
	StartTime time.Time // Inclusive; zero means unbounded
	EndTime   time.Time // Exclusive; zero means unbounded
	Limit     int       // <= 0 returns every match
}

func (o AuditLogOptions) matches(e AuditEntry) bool {
	if o.Action != "" && e.Action != o.Action {
		return false
	}
	if o.Severity != "" && e.Severity != o.Severity {
		return false
	}
	if !o.StartTime.IsZero() && e.CreatedAt.Before(o.StartTime) {
		return false
	}
	if !o.EndTime.IsZero() && !e.CreatedAt.Before(o.EndTime) {
		return false
	}
	return true
}

// Query returns matching entries, newest first. The limit applies after
// filtering.
func (l *AuditLog) Query(opts AuditLogOptions) []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []AuditEntry{}
	for i := len(l.entries) - 1; i >= 0; i-- {
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
		if opts.matches(l.entries[i]) {
			out = append(out, l.entries[i])
		}
	}
	return out
}

var auditCSVHeader = []string{"id", "created_at", "action", "severity", "record_id", "column", "rows", "detail", "ip", "user_agent"}

// WriteAuditCSV writes entries as CSV with a header row.
func WriteAuditCSV(w io.Writer, entries []AuditEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(auditCSVHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{
			e.ID,
			e.CreatedAt.UTC().Format(time.RFC3339),
			string(e.Action),
			string(e.Severity),
			e.RecordID,
			e.ColumnKey,
			strconv.Itoa(e.RowsAffected),
			e.Detail,
			e.IPAddress,
			e.UserAgent,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
