package core

// view.go is the view pipeline: filter -> sort -> paginate.
//
// The pipeline is pure. It never mutates the records it is given and its
// output depends only on its inputs, so the same state always renders the
// same page.

import (
	"slices"
	"strings"
)

// DefaultPageSize is the number of rows per page for a new view.
const DefaultPageSize = 10

// DefaultViewState returns the state of a freshly opened table.
func DefaultViewState() ViewState {
	return ViewState{PageSize: DefaultPageSize}
}

// ComputeView runs the full pipeline and returns the requested page.
// TotalCount is the number of rows that survived filtering.
func ComputeView(records Records, columns Columns, state ViewState) ViewResult {
	if state.PageSize <= 0 {
		state.PageSize = DefaultPageSize
	}

	filtered := FilterRecords(records, state.Query)
	sorted := SortRecords(filtered, state.SortKey, state.SortDirection)
	page := Paginate(sorted, state.PageIndex, state.PageSize)

	return ViewResult{
		Rows:       page,
		Columns:    columns.Visible(),
		TotalCount: len(sorted),
		PageCount:  PageCount(len(sorted), state.PageSize),
		State:      state,
	}
}

// FilterRecords keeps records where any field value contains query,
// case-insensitively. A blank query keeps everything.
// Null and non-primitive values never match.
func FilterRecords(records Records, query string) Records {
	if strings.TrimSpace(query) == "" {
		return records
	}
	q := strings.ToLower(query)

	out := make(Records, 0, len(records))
	for _, rec := range records {
		if matchesQuery(rec, q) {
			out = append(out, rec)
		}
	}
	return out
}

// matchesQuery expects q to be lowercased already.
func matchesQuery(rec Record, q string) bool {
	for _, v := range rec.Fields {
		s, ok := primitiveString(v)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// SortRecords returns records stably sorted by the lowercased text of key.
// Without both a key and a direction the input is returned as is.
// Descending inverts the comparison, so equal keys keep their input order
// in both directions.
func SortRecords(records Records, key string, dir SortDirection) Records {
	if key == "" || (dir != SortAsc && dir != SortDesc) {
		return records
	}

	type keyed struct {
		sortKey string
		rec     Record
	}
	items := make([]keyed, len(records))
	for i, rec := range records {
		items[i] = keyed{sortKey: strings.ToLower(rec.Cell(key)), rec: rec}
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		c := strings.Compare(a.sortKey, b.sortKey)
		if dir == SortDesc {
			return -c
		}
		return c
	})

	out := make(Records, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

// Paginate returns the rows of page pageIndex. An out-of-range page is
// empty, never an error.
func Paginate(records Records, pageIndex, pageSize int) Records {
	if pageIndex < 0 || pageSize <= 0 {
		return Records{}
	}
	start := pageIndex * pageSize
	if start >= len(records) {
		return Records{}
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// PageCount returns how many pages total rows fill at pageSize.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// WithQuery sets the search query and returns to the first page.
func (s ViewState) WithQuery(q string) ViewState {
	s.Query = q
	s.PageIndex = 0
	return s
}

// ToggleSort sorts by key. Selecting a new key sorts ascending;
// selecting the current key flips between ascending and descending.
func (s ViewState) ToggleSort(key string) ViewState {
	if s.SortKey != key {
		s.SortKey = key
		s.SortDirection = SortAsc
		return s
	}
	if s.SortDirection == SortAsc {
		s.SortDirection = SortDesc
	} else {
		s.SortDirection = SortAsc
	}
	return s
}

// WithSort sets the sort key and direction directly.
// An empty key or SortNone clears sorting.
func (s ViewState) WithSort(key string, dir SortDirection) ViewState {
	if key == "" || dir == SortNone {
		s.SortKey = ""
		s.SortDirection = SortNone
		return s
	}
	s.SortKey = key
	s.SortDirection = dir
	return s
}

// WithPage moves to page index i. Negative indexes clamp to 0.
func (s ViewState) WithPage(i int) ViewState {
	if i < 0 {
		i = 0
	}
	s.PageIndex = i
	return s
}

// WithPageSize changes the page size and returns to the first page.
// Non-positive sizes fall back to DefaultPageSize.
func (s ViewState) WithPageSize(n int) ViewState {
	if n <= 0 {
		n = DefaultPageSize
	}
	s.PageSize = n
	s.PageIndex = 0
	return s
}

// ParseSortDirection converts "asc"/"desc" (any case) to a SortDirection.
func ParseSortDirection(s string) SortDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc":
		return SortAsc
	case "desc":
		return SortDesc
	default:
		return SortNone
	}
}
