package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/tablekit/internal/logging"
)

// DefaultNamespace is the storage namespace the column registry is kept under.
const DefaultNamespace = "table-manager/columns"

// Options configures a Service. The zero value is usable.
type Options struct {
	Namespace string   // Storage namespace for the column registry
	Seed      bool     // Start with the sample records
	PageSize  int      // Initial rows per page
	Rules     *RuleSet // Validation rules; nil means DefaultRules

	MaxImportSize        int64
	MaxConcurrentImports int
	ImportWait           time.Duration

	Archiver     Archiver // Optional copy of every export
	Observer     Observer // Optional metrics sink
	AuditEntries int      // Journal size; 0 means DefaultAuditEntries
}

// Service owns one table: its column registry, record store, view state
// and edit session. All methods are safe for concurrent use.
//
// Column changes are persisted through the ColumnStore before they become
// visible; records and view state live only in memory.
type Service struct {
	mu      sync.Mutex
	columns Columns
	records Records
	view    ViewState
	session *Session

	store     ColumnStore
	namespace string
	rules     RuleSet

	limiter       *ImportLimiter
	maxImportSize int64
	archiver      Archiver
	observer      Observer
	audit         *AuditLog
	now           func() time.Time

	snapMu       sync.Mutex
	lastSnapshot [32]byte // sha256 of the last archived snapshot
}

// NewService creates a Service, loading the column registry from store.
// A nil store keeps columns in memory only. When nothing is stored yet the
// built-in defaults are used.
func NewService(ctx context.Context, store ColumnStore, opts Options) (*Service, error) {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	rules := DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	if opts.MaxImportSize <= 0 {
		opts.MaxImportSize = DefaultMaxImportSize
	}

	s := &Service{
		columns:       Reset(),
		records:       Records{},
		view:          DefaultViewState().WithPageSize(opts.PageSize),
		session:       NewSession(rules),
		store:         store,
		namespace:     opts.Namespace,
		rules:         rules,
		limiter:       NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWait),
		maxImportSize: opts.MaxImportSize,
		archiver:      opts.Archiver,
		observer:      opts.Observer,
		audit:         NewAuditLog(opts.AuditEntries),
		now:           time.Now,
	}

	if store != nil {
		cols, ok, err := store.LoadColumns(ctx, opts.Namespace)
		if err != nil {
			return nil, fmt.Errorf("load columns: %w", err)
		}
		if ok && len(cols) > 0 {
			s.columns = Columns(cols).Clone()
		}
	}

	if opts.Seed {
		s.records = SeedRecords()
	}
	s.reportCount()

	logging.FromContext(ctx).Info("table service ready",
		"namespace", s.namespace,
		"columns", len(s.columns),
		"rows", len(s.records),
		"rules", s.rules.Columns(),
	)
	return s, nil
}

// Limiter exposes the import limiter so a server can drain it on shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Rules returns the validation rules in use.
func (s *Service) Rules() RuleSet {
	return s.rules
}

// View computes the current page.
func (s *Service) View() ViewResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeView(s.records, s.columns, s.view)
}

// ViewState returns the current query/sort/page state.
func (s *Service) ViewState() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// SetQuery changes the search query and returns to the first page.
func (s *Service) SetQuery(q string) ViewResult {
	return s.updateView(func(v ViewState) ViewState { return v.WithQuery(q) })
}

// ToggleSort sorts by key, flipping the direction when key is already active.
func (s *Service) ToggleSort(key string) ViewResult {
	return s.updateView(func(v ViewState) ViewState { return v.ToggleSort(key) })
}

// SetSort sets the sort key and direction. SortNone clears sorting.
func (s *Service) SetSort(key string, dir SortDirection) ViewResult {
	return s.updateView(func(v ViewState) ViewState { return v.WithSort(key, dir) })
}

// SetPage moves to page i. Pages past the end render empty.
func (s *Service) SetPage(i int) ViewResult {
	return s.updateView(func(v ViewState) ViewState { return v.WithPage(i) })
}

// SetPageSize changes the page size and returns to the first page.
func (s *Service) SetPageSize(n int) ViewResult {
	return s.updateView(func(v ViewState) ViewState { return v.WithPageSize(n) })
}

func (s *Service) updateView(fn func(ViewState) ViewState) ViewResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = fn(s.view)
	return ComputeView(s.records, s.columns, s.view)
}

// Columns returns the full registry, hidden columns included.
func (s *Service) Columns() Columns {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.columns.Clone()
}

// Records returns every record in store order.
func (s *Service) Records() Records {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Clone()
}

// Record returns the record with id, or ErrNotFound.
func (s *Service) Record(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records.Find(id)
	if !ok {
		return Record{}, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

// AuditLog returns up to limit journal entries, newest first.
func (s *Service) AuditLog(limit int) []AuditEntry {
	return s.audit.Entries(limit)
}

// QueryAuditLog returns the journal entries matching opts, newest first.
func (s *Service) QueryAuditLog(opts AuditLogOptions) []AuditEntry {
	return s.audit.Query(opts)
}

// ImportStatus reports the import limiter state.
func (s *Service) ImportStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// setColumns persists next and swaps it in. The caller holds s.mu.
// When persisting fails the registry is left unchanged.
func (s *Service) setColumns(ctx context.Context, next Columns) error {
	if s.columns.Equal(next) {
		return nil
	}
	if s.store != nil {
		if err := s.store.SaveColumns(ctx, s.namespace, next); err != nil {
			return fmt.Errorf("save columns: %w", err)
		}
	}
	s.columns = next
	return nil
}

// setRecords swaps in next. The caller holds s.mu.
func (s *Service) setRecords(next Records) {
	s.records = next
	s.reportCount()
}

func (s *Service) reportCount() {
	if s.observer != nil {
		s.observer.RecordCount(len(s.records))
	}
}

// resultLabel classifies an operation outcome for metrics.
func resultLabel(err error) string {
	var ve ValidationErrors
	var ife *ImportFormatError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ve):
		return "invalid"
	case errors.As(err, &ife):
		return "invalid"
	case errors.Is(err, ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, ErrTooManyImports):
		return "busy"
	default:
		return "error"
	}
}
