package core

import (
	"reflect"
	"testing"
)

func names(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Cell("name")
	}
	return out
}

func TestComputeView_SearchAndSort(t *testing.T) {
	recs := Records{
		{ID: "1", Fields: Fields{"name": "Alice", "age": 30.0}},
		{ID: "2", Fields: Fields{"name": "Bob", "age": 25.0}},
	}

	res := ComputeView(recs, Reset(), ViewState{Query: "bo", PageSize: 10})
	if got := names(res.Rows); !reflect.DeepEqual(got, []string{"Bob"}) {
		t.Errorf("query bo rows = %v, want [Bob]", got)
	}
	if res.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", res.TotalCount)
	}

	res = ComputeView(recs, Reset(), ViewState{SortKey: "age", SortDirection: SortDesc, PageSize: 10})
	if got := names(res.Rows); !reflect.DeepEqual(got, []string{"Alice", "Bob"}) {
		t.Errorf("age desc rows = %v, want [Alice Bob]", got)
	}
}

func TestFilterRecords(t *testing.T) {
	recs := Records{
		{ID: "r1", Fields: Fields{"name": "Alice", "email": "ALICE@example.com"}},
		{ID: "r2", Fields: Fields{"name": "Bob", "age": 42.0}},
		{ID: "r3", Fields: Fields{"name": nil, "note": "x"}},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query keeps all", "", []string{"r1", "r2", "r3"}},
		{"whitespace query keeps all", "   ", []string{"r1", "r2", "r3"}},
		{"case insensitive", "alice@", []string{"r1"}},
		{"numbers are stringified", "42", []string{"r2"}},
		{"identifier is not searched", "r3", []string{}},
		{"no match", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRecords(recs, tt.query)
			ids := make([]string, len(got))
			for i, r := range got {
				ids[i] = r.ID
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("FilterRecords(%q) = %v, want %v", tt.query, ids, tt.want)
			}
		})
	}
}

func TestSortRecords_StableBothDirections(t *testing.T) {
	recs := Records{
		{ID: "1", Fields: Fields{"name": "x1", "role": "User"}},
		{ID: "2", Fields: Fields{"name": "x2", "role": "admin"}},
		{ID: "3", Fields: Fields{"name": "x3", "role": "user"}},
		{ID: "4", Fields: Fields{"name": "x4"}},
	}

	asc := names(SortRecords(recs, "role", SortAsc))
	if want := []string{"x4", "x2", "x1", "x3"}; !reflect.DeepEqual(asc, want) {
		t.Errorf("asc = %v, want %v", asc, want)
	}

	desc := names(SortRecords(recs, "role", SortDesc))
	if want := []string{"x1", "x3", "x2", "x4"}; !reflect.DeepEqual(desc, want) {
		t.Errorf("desc = %v, want %v", desc, want)
	}

	if got := names(SortRecords(recs, "", SortAsc)); !reflect.DeepEqual(got, names(recs)) {
		t.Errorf("no key changed order: %v", got)
	}
	if got := names(SortRecords(recs, "role", SortNone)); !reflect.DeepEqual(got, names(recs)) {
		t.Errorf("no direction changed order: %v", got)
	}
}

func TestSortRecords_ComparesText(t *testing.T) {
	recs := Records{
		{ID: "1", Fields: Fields{"name": "a", "age": 9.0}},
		{ID: "2", Fields: Fields{"name": "b", "age": 10.0}},
	}
	// "10" < "9" as text.
	if got := names(SortRecords(recs, "age", SortAsc)); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("age asc = %v, want [b a]", got)
	}
}

func TestPaginate(t *testing.T) {
	recs := make(Records, 25)
	for i := range recs {
		recs[i] = Record{ID: string(rune('a' + i))}
	}

	tests := []struct {
		name      string
		pageIndex int
		pageSize  int
		wantLen   int
	}{
		{"first page", 0, 10, 10},
		{"last partial page", 2, 10, 5},
		{"past the end is empty", 3, 10, 0},
		{"far past the end is empty", 100, 10, 0},
		{"negative index is empty", -1, 10, 0},
		{"zero size is empty", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Paginate(recs, tt.pageIndex, tt.pageSize); len(got) != tt.wantLen {
				t.Errorf("Paginate(%d, %d) len = %d, want %d", tt.pageIndex, tt.pageSize, len(got), tt.wantLen)
			}
		})
	}

	if got := PageCount(25, 10); got != 3 {
		t.Errorf("PageCount(25, 10) = %d, want 3", got)
	}
	if got := PageCount(0, 10); got != 0 {
		t.Errorf("PageCount(0, 10) = %d, want 0", got)
	}
}

func TestViewState_Transitions(t *testing.T) {
	s := DefaultViewState().WithPage(3)

	if got := s.WithQuery("bo"); got.PageIndex != 0 || got.Query != "bo" {
		t.Errorf("WithQuery = %+v, want page 0", got)
	}
	if got := s.WithPageSize(25); got.PageIndex != 0 || got.PageSize != 25 {
		t.Errorf("WithPageSize = %+v, want page 0 size 25", got)
	}
	if got := s.WithPageSize(0); got.PageSize != DefaultPageSize {
		t.Errorf("WithPageSize(0).PageSize = %d, want %d", got.PageSize, DefaultPageSize)
	}
	if got := s.WithPage(-2); got.PageIndex != 0 {
		t.Errorf("WithPage(-2).PageIndex = %d, want 0", got.PageIndex)
	}
}

func TestViewState_ToggleSort(t *testing.T) {
	s := DefaultViewState()

	s = s.ToggleSort("age")
	if s.SortKey != "age" || s.SortDirection != SortAsc {
		t.Fatalf("first toggle = %s %s, want age asc", s.SortKey, s.SortDirection)
	}
	s = s.ToggleSort("age")
	if s.SortDirection != SortDesc {
		t.Fatalf("second toggle = %s, want desc", s.SortDirection)
	}
	s = s.ToggleSort("age")
	if s.SortDirection != SortAsc {
		t.Fatalf("third toggle = %s, want asc", s.SortDirection)
	}
	s = s.ToggleSort("name")
	if s.SortKey != "name" || s.SortDirection != SortAsc {
		t.Errorf("new key = %s %s, want name asc", s.SortKey, s.SortDirection)
	}

	if cleared := s.WithSort("", SortDesc); cleared.SortKey != "" || cleared.SortDirection != SortNone {
		t.Errorf("WithSort with empty key = %+v, want cleared", cleared)
	}
}

func TestComputeView_DoesNotMutateInput(t *testing.T) {
	recs := SeedRecords()
	before := names(recs)

	ComputeView(recs, Reset(), ViewState{SortKey: "name", SortDirection: SortDesc, PageSize: 2})

	if got := names(recs); !reflect.DeepEqual(got, before) {
		t.Errorf("input reordered: %v, want %v", got, before)
	}
}

func TestParseSortDirection(t *testing.T) {
	tests := map[string]SortDirection{
		"asc":  SortAsc,
		"DESC": SortDesc,
		" asc": SortAsc,
		"":     SortNone,
		"up":   SortNone,
	}
	for in, want := range tests {
		if got := ParseSortDirection(in); got != want {
			t.Errorf("ParseSortDirection(%q) = %q, want %q", in, got, want)
		}
	}
}
