package core

import (
	"reflect"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name", "name"},
		{"  Phone Number ", "phone_number"},
		{"First\tLast  Name", "first_last_name"},
		{"ID", "id"},
		{"already_snake", "already_snake"},
		{"   ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeKey(tt.in); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLabelFromKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"phone_number", "Phone Number"},
		{"name", "Name"},
		{"a_b_c", "A B C"},
		{"item2_count", "Item2 Count"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := LabelFromKey(tt.in); got != tt.want {
				t.Errorf("LabelFromKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestColumns_Add(t *testing.T) {
	cols := Reset()

	next := cols.Add("phone_number", "Phone Number")
	if len(next) != 5 {
		t.Fatalf("len after Add = %d, want 5", len(next))
	}
	if got := next[4]; got != (Column{Key: "phone_number", Label: "Phone Number", Visible: true}) {
		t.Errorf("added column = %+v", got)
	}
	if len(cols) != 4 {
		t.Errorf("receiver modified: len = %d, want 4", len(cols))
	}

	again := next.Add("phone_number", "Other Label")
	if !again.Equal(next) {
		t.Errorf("duplicate Add changed registry: %v", again.Keys())
	}
}

func TestColumns_Visibility(t *testing.T) {
	cols := Reset()

	hidden := cols.SetVisibility("email", false)
	if hidden[1].Visible {
		t.Error("email still visible after SetVisibility(false)")
	}
	if !cols[1].Visible {
		t.Error("receiver modified by SetVisibility")
	}

	if got := hidden.Visible().Keys(); !reflect.DeepEqual(got, []string{"name", "age", "role"}) {
		t.Errorf("Visible() = %v", got)
	}

	toggled := hidden.ToggleVisibility("email")
	if !toggled[1].Visible {
		t.Error("ToggleVisibility did not show email again")
	}

	if got := cols.ToggleVisibility("missing"); !got.Equal(cols) {
		t.Error("ToggleVisibility on unknown key changed registry")
	}
}

func TestColumns_Reorder(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target string
		want   []string
	}{
		{"forward move lands before target", "name", "role", []string{"email", "age", "name", "role"}},
		{"backward move lands before target", "role", "email", []string{"name", "role", "email", "age"}},
		{"move to front", "age", "name", []string{"age", "name", "email", "role"}},
		{"adjacent forward is a no-op", "name", "email", []string{"name", "email", "age", "role"}},
		{"same key is a no-op", "age", "age", []string{"name", "email", "age", "role"}},
		{"missing source is a no-op", "phone", "name", []string{"name", "email", "age", "role"}},
		{"missing target is a no-op", "name", "phone", []string{"name", "email", "age", "role"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := Reset()
			got := cols.Reorder(tt.source, tt.target).Keys()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reorder(%q, %q) = %v, want %v", tt.source, tt.target, got, tt.want)
			}
			if !cols.Equal(DefaultColumns) {
				t.Errorf("receiver modified: %v", cols.Keys())
			}
		})
	}
}

func TestReset_ReturnsFreshCopy(t *testing.T) {
	cols := Reset()
	cols[0].Visible = false

	if !DefaultColumns[0].Visible {
		t.Fatal("Reset shares storage with DefaultColumns")
	}
	if !Reset().Equal(DefaultColumns) {
		t.Error("Reset() differs from DefaultColumns")
	}
}
