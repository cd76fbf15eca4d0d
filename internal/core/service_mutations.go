package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/tablekit/internal/logging"
)

// AddColumn registers a new visible column. rawKey is normalized; a blank
// label falls back to the label derived from the key. Adding a key that
// already exists is a no-op: added is false and the existing column is
// returned.
func (s *Service) AddColumn(ctx context.Context, rawKey, label string) (col Column, added bool, err error) {
	key := NormalizeKey(rawKey)
	if key == "" {
		return Column{}, false, ErrEmptyColumnKey
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = LabelFromKey(key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.columns.Index(key); i >= 0 {
		return s.columns[i], false, nil
	}
	if err := s.setColumns(ctx, s.columns.Add(key, label)); err != nil {
		return Column{}, false, err
	}

	s.audit.Record(ctx, AuditLogParams{Action: ActionColumnAdd, ColumnKey: key, Detail: label})
	logging.FromContext(ctx).Info("column added", "op", "column_add", "column", key)
	return s.columns[s.columns.Index(key)], true, nil
}

// SetColumnVisibility shows or hides key. Unknown keys are a no-op.
func (s *Service) SetColumnVisibility(ctx context.Context, key string, visible bool) (Columns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeVisibility(ctx, key, s.columns.SetVisibility(key, visible))
}

// ToggleColumn flips the visibility of key. Unknown keys are a no-op.
func (s *Service) ToggleColumn(ctx context.Context, key string) (Columns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changeVisibility(ctx, key, s.columns.ToggleVisibility(key))
}

func (s *Service) changeVisibility(ctx context.Context, key string, next Columns) (Columns, error) {
	if s.columns.Equal(next) {
		return s.columns.Clone(), nil
	}
	if err := s.setColumns(ctx, next); err != nil {
		return s.columns.Clone(), err
	}
	i := s.columns.Index(key)
	s.audit.Record(ctx, AuditLogParams{
		Action:    ActionColumnVisibility,
		ColumnKey: key,
		Detail:    fmt.Sprintf("visible=%t", s.columns[i].Visible),
	})
	logging.FromContext(ctx).Debug("column visibility changed",
		"op", "column_visibility",
		"column", key,
		"visible", s.columns[i].Visible,
	)
	return s.columns.Clone(), nil
}

// ReorderColumns moves source immediately before target.
// Missing keys and source == target are no-ops.
func (s *Service) ReorderColumns(ctx context.Context, source, target string) (Columns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.columns.Reorder(source, target)
	if s.columns.Equal(next) {
		return s.columns.Clone(), nil
	}
	if err := s.setColumns(ctx, next); err != nil {
		return s.columns.Clone(), err
	}
	s.audit.Record(ctx, AuditLogParams{
		Action:    ActionColumnReorder,
		ColumnKey: source,
		Detail:    "before " + target,
	})
	logging.FromContext(ctx).Debug("columns reordered", "op", "column_reorder", "source", source, "target", target)
	return s.columns.Clone(), nil
}

// ResetColumns restores the built-in column set. Record data is untouched.
func (s *Service) ResetColumns(ctx context.Context) (Columns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Reset()
	if s.store != nil {
		// Always written, so a store holding stale columns is overwritten too.
		if err := s.store.SaveColumns(ctx, s.namespace, next); err != nil {
			return s.columns.Clone(), fmt.Errorf("save columns: %w", err)
		}
	}
	s.columns = next

	s.audit.Record(ctx, AuditLogParams{Action: ActionColumnReset, RowsAffected: len(next)})
	logging.FromContext(ctx).Info("columns reset", "op", "column_reset", "columns", len(next))
	return s.columns.Clone(), nil
}

// AddRow creates a record from fields and places it first.
// Any "id" entry in fields is ignored.
func (s *Service) AddRow(ctx context.Context, fields Fields) Record {
	rec := NewRecord(fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRecords(s.records.Prepend(rec))

	s.audit.Record(ctx, AuditLogParams{Action: ActionRowAdd, RecordID: rec.ID, RowsAffected: 1})
	logging.FromContext(ctx).Info("row added", "op", "row_add", "record_id", rec.ID)
	return rec
}

// UpdateRow replaces the fields of the record with rec.ID.
// A missing identifier is a silent no-op; updated reports which happened.
func (s *Service) UpdateRow(ctx context.Context, rec Record) (updated bool) {
	rec.Fields = storedFields(rec.Fields)

	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.records.Update(rec)
	if !ok {
		logging.FromContext(ctx).Debug("update skipped, record not found", "op", "row_update", "record_id", rec.ID)
		return false
	}
	s.setRecords(next)

	s.audit.Record(ctx, AuditLogParams{Action: ActionRowUpdate, RecordID: rec.ID, RowsAffected: 1})
	logging.FromContext(ctx).Info("row updated", "op", "row_update", "record_id", rec.ID)
	return true
}

// DeleteRow removes the record with id. A missing identifier is a silent
// no-op. Drafts for the row are left alone; committing them skips the row.
func (s *Service) DeleteRow(ctx context.Context, id string) (deleted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.records.Delete(id)
	if !ok {
		logging.FromContext(ctx).Debug("delete skipped, record not found", "op", "row_delete", "record_id", id)
		return false
	}
	s.setRecords(next)

	s.audit.Record(ctx, AuditLogParams{Action: ActionRowDelete, RecordID: id, RowsAffected: 1})
	logging.FromContext(ctx).Info("row deleted", "op", "row_delete", "record_id", id)
	return true
}

// ReplaceRows swaps the whole record store for records.
func (s *Service) ReplaceRows(ctx context.Context, records Records) {
	next := records.Clone()
	for i := range next {
		next[i].Fields = storedFields(next[i].Fields)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRecords(next)

	s.audit.Record(ctx, AuditLogParams{Action: ActionRowsReplace, RowsAffected: len(next)})
	logging.FromContext(ctx).Info("rows replaced", "op", "rows_replace", "rows", len(next))
}

// EditState is a snapshot of the edit session for display.
type EditState struct {
	Editing bool         `json:"editing"`
	Drafts  []Record     `json:"drafts"`
	Errors  []FieldError `json:"errors"`
}

// EditState returns the session state with the current cell errors.
func (s *Service) EditState() EditState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editStateLocked()
}

func (s *Service) editStateLocked() EditState {
	errs := s.session.Validate()
	if errs == nil {
		errs = ValidationErrors{}
	}
	return EditState{
		Editing: s.session.Editing(),
		Drafts:  s.session.Drafts(),
		Errors:  errs,
	}
}

// TouchRow enters editing and seeds a draft for id.
func (s *Service) TouchRow(id string) (EditState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records.Find(id)
	if !ok {
		return s.editStateLocked(), fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	s.session.Touch(rec)
	return s.editStateLocked(), nil
}

// EditField changes one drafted cell and returns its inline error, if any.
// Committed records are not touched.
func (s *Service) EditField(id, key, value string) (cellError string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records.Find(id)
	if !ok {
		return "", fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	s.session.Set(rec, key, value)
	return s.session.CellError(id, key), nil
}

// CellError returns the inline error of a drafted cell, or "".
func (s *Service) CellError(id, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.CellError(id, key)
}

// SaveEdits commits every draft. If any cell is invalid nothing is written,
// the drafts are kept and the returned error is a ValidationErrors.
func (s *Service) SaveEdits(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := logging.FromContext(ctx)
	if !s.session.Editing() {
		return 0, nil
	}

	next, updated, err := s.session.Commit(s.records)
	if s.observer != nil {
		s.observer.CommitFinished(resultLabel(err), updated)
	}
	if err != nil {
		logger.Info("save blocked by validation", "op", "edit_commit", "error", err)
		return 0, err
	}
	s.setRecords(next)

	s.audit.Record(ctx, AuditLogParams{Action: ActionEditCommit, RowsAffected: updated})
	logger.Info("edits saved", "op", "edit_commit", "rows", updated)
	return updated, nil
}

// CancelEdits discards every draft and leaves editing.
func (s *Service) CancelEdits(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.session.Drafts())
	s.session.Cancel()
	logging.FromContext(ctx).Debug("edits cancelled", "op", "edit_cancel", "rows", n)
}
