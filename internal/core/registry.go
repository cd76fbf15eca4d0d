package core

// registry.go implements the column registry: the ordered list of column
// definitions that decides which fields exist and which are shown.
//
// Every operation is a value-in/value-out transition. The receiver is never
// modified, so a caller can compute the next registry, persist it, and only
// then swap it in.

import "strings"

// DefaultColumns is the built-in column set restored by Reset.
var DefaultColumns = Columns{
	{Key: "name", Label: "Name", Visible: true},
	{Key: "email", Label: "Email", Visible: true},
	{Key: "age", Label: "Age", Visible: true},
	{Key: "role", Label: "Role", Visible: true},
}

// Columns is an ordered column registry. Order is display order.
type Columns []Column

// NormalizeKey turns user or CSV input into a column key:
// trimmed, lowercased, whitespace runs replaced by a single underscore.
func NormalizeKey(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), "_")
}

// LabelFromKey derives a display label from a key: underscores become
// spaces and the first letter of each word is capitalized.
//
//	LabelFromKey("phone_number") // "Phone Number"
func LabelFromKey(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	var b strings.Builder
	b.Grow(len(s))
	prevWord := false
	for _, r := range s {
		word := isWordRune(r)
		if word && !prevWord && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
		prevWord = word
	}
	return b.String()
}

// isWordRune reports whether r is an ASCII word character.
func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// Reset returns a fresh copy of the built-in defaults, all visible.
func Reset() Columns {
	return DefaultColumns.Clone()
}

// Clone returns a copy that shares no backing array with c.
func (c Columns) Clone() Columns {
	out := make(Columns, len(c))
	copy(out, c)
	return out
}

// Index returns the position of key, or -1.
func (c Columns) Index(key string) int {
	for i, col := range c {
		if col.Key == key {
			return i
		}
	}
	return -1
}

// Has reports whether key is registered.
func (c Columns) Has(key string) bool {
	return c.Index(key) >= 0
}

// Add appends a visible column. key must already be normalized.
// Adding an existing key returns c unchanged.
func (c Columns) Add(key, label string) Columns {
	if c.Has(key) {
		return c
	}
	out := make(Columns, len(c), len(c)+1)
	copy(out, c)
	return append(out, Column{Key: key, Label: label, Visible: true})
}

// SetVisibility sets the visible flag of key. Unknown keys are a no-op.
func (c Columns) SetVisibility(key string, visible bool) Columns {
	i := c.Index(key)
	if i < 0 {
		return c
	}
	out := c.Clone()
	out[i].Visible = visible
	return out
}

// ToggleVisibility flips the visible flag of key. Unknown keys are a no-op.
func (c Columns) ToggleVisibility(key string) Columns {
	i := c.Index(key)
	if i < 0 {
		return c
	}
	return c.SetVisibility(key, !c[i].Visible)
}

// Reorder moves source so it sits immediately before target.
// No-op when either key is missing or they are equal.
func (c Columns) Reorder(source, target string) Columns {
	if source == target {
		return c
	}
	from, to := c.Index(source), c.Index(target)
	if from < 0 || to < 0 {
		return c
	}

	moved := c[from]
	out := make(Columns, 0, len(c))
	out = append(out, c[:from]...)
	out = append(out, c[from+1:]...)

	// Removing source shifts target left when source was in front of it.
	insert := to
	if from < to {
		insert = to - 1
	}
	out = append(out[:insert], append(Columns{moved}, out[insert:]...)...)
	return out
}

// Visible returns the visible columns in registry order.
func (c Columns) Visible() Columns {
	out := make(Columns, 0, len(c))
	for _, col := range c {
		if col.Visible {
			out = append(out, col)
		}
	}
	return out
}

// Keys returns the column keys in registry order.
func (c Columns) Keys() []string {
	keys := make([]string, len(c))
	for i, col := range c {
		keys[i] = col.Key
	}
	return keys
}

// Equal reports whether c and other hold the same columns in the same order.
func (c Columns) Equal(other Columns) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}
