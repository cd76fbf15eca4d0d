package core

import "testing"

func TestNewRecord(t *testing.T) {
	fields := Fields{"id": "spoofed", "name": "Eve"}
	rec := NewRecord(fields)

	if rec.ID == "" || rec.ID == "spoofed" {
		t.Errorf("ID = %q, want generated identifier", rec.ID)
	}
	if _, ok := rec.Fields["id"]; ok {
		t.Error("id field kept in Fields")
	}
	if _, ok := fields["id"]; !ok {
		t.Error("input fields modified")
	}

	other := NewRecord(Fields{})
	if other.ID == rec.ID {
		t.Error("two records share an identifier")
	}
}

func TestSeedRecords(t *testing.T) {
	seed := SeedRecords()
	if len(seed) != 4 {
		t.Fatalf("len(SeedRecords()) = %d, want 4", len(seed))
	}
	if got := seed[0].Cell("name"); got != "Alice" {
		t.Errorf("first seed name = %q, want Alice", got)
	}
	if got := seed[3].Cell("age"); got != "42" {
		t.Errorf("Dan's age = %q, want 42", got)
	}
}

func TestRecords_Prepend(t *testing.T) {
	recs := SeedRecords()
	added := NewRecord(Fields{"name": "Zed"})

	next := recs.Prepend(added)
	if len(next) != 5 || next[0].ID != added.ID {
		t.Fatalf("Prepend did not place the record first: %v", next[0])
	}
	if len(recs) != 4 {
		t.Errorf("receiver modified: len = %d", len(recs))
	}
}

func TestRecords_Update(t *testing.T) {
	recs := SeedRecords()
	target := recs[1]

	next, ok := recs.Update(Record{ID: target.ID, Fields: Fields{"name": "Robert"}})
	if !ok {
		t.Fatal("Update returned ok=false for an existing record")
	}
	if got := next[1].Cell("name"); got != "Robert" {
		t.Errorf("updated name = %q, want Robert", got)
	}
	if got := recs[1].Cell("name"); got != "Bob" {
		t.Errorf("receiver modified: name = %q", got)
	}

	same, ok := recs.Update(Record{ID: "missing", Fields: Fields{}})
	if ok {
		t.Error("Update on missing id returned ok=true")
	}
	if len(same) != len(recs) || same[0].ID != recs[0].ID {
		t.Error("Update on missing id changed records")
	}
}

func TestRecords_Delete(t *testing.T) {
	recs := SeedRecords()

	next, ok := recs.Delete(recs[0].ID)
	if !ok || len(next) != 3 {
		t.Fatalf("Delete = (%d rows, %v), want (3, true)", len(next), ok)
	}
	if _, found := next.Find(recs[0].ID); found {
		t.Error("deleted record still present")
	}

	same, ok := recs.Delete("missing")
	if ok || len(same) != 4 {
		t.Errorf("Delete(missing) = (%d rows, %v), want (4, false)", len(same), ok)
	}
}

func TestRecord_Cell(t *testing.T) {
	rec := Record{ID: "r1", Fields: Fields{"age": 28.5, "note": nil, "name": "Al"}}

	tests := []struct {
		key  string
		want string
	}{
		{"age", "28.5"},
		{"note", ""},
		{"name", "Al"},
		{"absent", ""},
	}
	for _, tt := range tests {
		if got := rec.Cell(tt.key); got != tt.want {
			t.Errorf("Cell(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
