package core

// records.go implements the record store. Like the column registry, every
// operation returns a new Records value and leaves the receiver untouched.

import "github.com/google/uuid"

// Records is the ordered record store.
type Records []Record

// NewRecord creates a record with a fresh identifier and a copy of fields.
// Any "id" entry in fields is discarded.
func NewRecord(fields Fields) Record {
	f := storedFields(fields)
	delete(f, "id")
	return Record{ID: uuid.NewString(), Fields: f}
}

// SeedRecords returns the sample rows a new table starts with.
func SeedRecords() Records {
	return Records{
		NewRecord(Fields{"name": "Alice", "email": "alice@example.com", "age": 28.0, "role": "Admin"}),
		NewRecord(Fields{"name": "Bob", "email": "bob@example.com", "age": 34.0, "role": "User"}),
		NewRecord(Fields{"name": "Carol", "email": "carol@example.com", "age": 25.0, "role": "Manager"}),
		NewRecord(Fields{"name": "Dan", "email": "dan@example.com", "age": 42.0, "role": "User"}),
	}
}

// Clone returns a copy that shares no backing array with r.
func (r Records) Clone() Records {
	out := make(Records, len(r))
	copy(out, r)
	return out
}

// Index returns the position of id, or -1.
func (r Records) Index(id string) int {
	for i, rec := range r {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the record with id.
func (r Records) Find(id string) (Record, bool) {
	i := r.Index(id)
	if i < 0 {
		return Record{}, false
	}
	return r[i], true
}

// Prepend adds rec in front of all existing records.
func (r Records) Prepend(rec Record) Records {
	out := make(Records, 0, len(r)+1)
	out = append(out, rec)
	return append(out, r...)
}

// Update replaces the record sharing rec's identifier.
// ok is false, and r is returned unchanged, when no such record exists.
func (r Records) Update(rec Record) (out Records, ok bool) {
	i := r.Index(rec.ID)
	if i < 0 {
		return r, false
	}
	out = r.Clone()
	out[i] = Record{ID: rec.ID, Fields: rec.Fields.Clone()}
	return out, true
}

// Delete removes the record with id.
// ok is false, and r is returned unchanged, when no such record exists.
func (r Records) Delete(id string) (out Records, ok bool) {
	i := r.Index(id)
	if i < 0 {
		return r, false
	}
	out = make(Records, 0, len(r)-1)
	out = append(out, r[:i]...)
	return append(out, r[i+1:]...), true
}
