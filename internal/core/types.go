package core

import (
	"context"
	"errors"
)

// Value is a single field value. Stored values are string, float64, or nil.
type Value = any

// Fields maps a column key to its value.
type Fields map[string]Value

// Clone returns a shallow copy of the field map.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Record is a row with a fixed identifier and a flexible set of fields.
// The identifier lives outside Fields so it can never be edited or imported.
type Record struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Cell returns the display text for key. Missing and null values read as "".
func (r Record) Cell(key string) string {
	return FormatValue(r.Fields[key])
}

// Column describes one field of the table.
type Column struct {
	Key     string `json:"key"`     // Normalized unique identifier: "phone_number"
	Label   string `json:"label"`   // Display name: "Phone Number"
	Visible bool   `json:"visible"` // Shown in the table and included in exports
}

// SortDirection is the direction of the active sort.
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ViewState is the transient query/sort/page state of a table view.
type ViewState struct {
	Query         string        `json:"query"`
	SortKey       string        `json:"sortKey,omitempty"`
	SortDirection SortDirection `json:"sortDirection,omitempty"`
	PageIndex     int           `json:"pageIndex"`
	PageSize      int           `json:"pageSize"`
}

// ViewResult is one computed page of the table.
type ViewResult struct {
	Rows       []Record  `json:"rows"`
	Columns    []Column  `json:"columns"` // Visible columns in display order
	TotalCount int       `json:"totalCount"`
	PageCount  int       `json:"pageCount"`
	State      ViewState `json:"state"`
}

// ColumnStore persists the column registry under a storage namespace.
// Only column configuration is persisted; records and view state never are.
type ColumnStore interface {
	// LoadColumns returns the stored columns. ok is false when nothing was stored yet.
	LoadColumns(ctx context.Context, namespace string) (cols []Column, ok bool, err error)
	SaveColumns(ctx context.Context, namespace string, cols []Column) error
}

// Archiver stores a copy of an exported file.
type Archiver interface {
	Archive(ctx context.Context, name string, data []byte) error
}

// Observer receives operation outcomes for metrics collection.
type Observer interface {
	ImportFinished(result string, rows int)
	ExportFinished(rows int)
	CommitFinished(result string, rows int)
	RecordCount(n int)
}

// ErrNotFound is returned by lookups that reference a missing record.
// Update and delete never return it; they are silent no-ops instead.
var ErrNotFound = errors.New("record not found")

// ErrEmptyColumnKey is returned when a column key normalizes to "".
var ErrEmptyColumnKey = errors.New("column key is empty")
