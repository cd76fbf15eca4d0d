package core

// session.go implements the edit session: a table-wide Viewing/Editing flag
// plus a lazily created draft per touched row.
//
// Drafts are shadow copies of a record's fields. Edits only ever change
// drafts; committed records change only when Commit succeeds, and Commit is
// all-or-nothing: a single invalid cell in any draft blocks every row.

// Session holds the drafts of one table. It is not safe for concurrent use;
// callers serialize access (Service does so under its mutex).
type Session struct {
	rules   RuleSet
	editing bool
	drafts  map[string]Fields
	order   []string // touch order, used for deterministic commits
}

// NewSession creates a session in the Viewing state.
func NewSession(rules RuleSet) *Session {
	return &Session{
		rules:  rules,
		drafts: make(map[string]Fields),
	}
}

// Editing reports whether the table is in the Editing state.
func (s *Session) Editing() bool {
	return s.editing
}

// Touch enters Editing and seeds a draft for rec from its committed values,
// unless a draft for rec already exists.
func (s *Session) Touch(rec Record) {
	s.editing = true
	if _, ok := s.drafts[rec.ID]; ok {
		return
	}
	s.drafts[rec.ID] = rec.Fields.Clone()
	s.order = append(s.order, rec.ID)
}

// Set changes one field of rec's draft, seeding the draft first if needed.
// Committed data is not touched. Line breaks are stored as LF.
func (s *Session) Set(rec Record, key, value string) {
	s.Touch(rec)
	s.drafts[rec.ID][key] = normalizeNewlines(value)
}

// Draft returns a copy of the draft for id.
func (s *Session) Draft(id string) (Fields, bool) {
	d, ok := s.drafts[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

// Drafts returns all drafts as records, in the order rows were touched.
func (s *Session) Drafts() []Record {
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, Record{ID: id, Fields: s.drafts[id].Clone()})
	}
	return out
}

// CellError returns the inline error for one drafted cell, or "".
// Outside Editing there are no cell errors.
func (s *Session) CellError(id, key string) string {
	if !s.editing {
		return ""
	}
	d, ok := s.drafts[id]
	if !ok {
		return ""
	}
	return s.rules.Check(key, d[key])
}

// Validate checks every ruled column of every draft.
func (s *Session) Validate() ValidationErrors {
	var errs ValidationErrors
	for _, id := range s.order {
		errs = append(errs, s.rules.Validate(id, s.drafts[id])...)
	}
	return errs
}

// Commit validates all drafts and, if every cell passes, writes each draft
// back into records by identifier. Drafts whose record no longer exists are
// skipped. On success the drafts are cleared and the session returns to
// Viewing; on failure records are returned unchanged and drafts are kept.
func (s *Session) Commit(records Records) (Records, int, error) {
	if errs := s.Validate(); len(errs) > 0 {
		return records, 0, errs
	}

	updated := 0
	for _, id := range s.order {
		next, ok := records.Update(Record{ID: id, Fields: s.rules.Coerce(s.drafts[id])})
		if ok {
			updated++
		}
		records = next
	}

	s.reset()
	return records, updated, nil
}

// Cancel discards all drafts and returns to Viewing.
func (s *Session) Cancel() {
	s.reset()
}

func (s *Session) reset() {
	s.editing = false
	s.drafts = make(map[string]Fields)
	s.order = nil
}
