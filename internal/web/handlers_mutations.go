package web

import (
	"net/http"

	"github.com/JonMunkholm/tablekit/internal/core"
	"github.com/go-chi/chi/v5"
)

// Column registry handlers.

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Columns())
}

// handleAddColumn adds a column. An existing key answers 200 with
// added=false; a new key answers 201.
func (s *Server) handleAddColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Label string `json:"label"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}

	col, added, err := s.service.AddColumn(r.Context(), req.Key, req.Label)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"column": col, "added": added})
}

func (s *Server) handleToggleColumn(w http.ResponseWriter, r *http.Request) {
	cols, err := s.service.ToggleColumn(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) handleSetColumnVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible *bool `json:"visible"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if req.Visible == nil {
		respondError(w, r, badRequest("Field \"visible\" is required", nil), 0)
		return
	}

	cols, err := s.service.SetColumnVisibility(r.Context(), chi.URLParam(r, "key"), *req.Visible)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) handleReorderColumns(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}

	cols, err := s.service.ReorderColumns(r.Context(), req.Source, req.Target)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) handleResetColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := s.service.ResetColumns(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

// Edit session handlers.

func (s *Server) handleEditState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.EditState())
}

// handleTouchRow enters editing and seeds a draft for the row.
func (s *Server) handleTouchRow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}

	state, err := s.service.TouchRow(req.ID)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleEditField updates one drafted cell and returns its inline error.
// An invalid value is not a request failure; it is reported in "error".
func (s *Server) handleEditField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID    string `json:"id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if req.Key == "" {
		respondError(w, r, badRequest("Field \"key\" is required", nil), 0)
		return
	}

	cellErr, err := s.service.EditField(req.ID, req.Key, req.Value)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    req.ID,
		"key":   req.Key,
		"error": cellErr,
	})
}

// handleSaveEdits commits all drafts. A blocked commit answers 422 with
// every failing cell in "fields"; the drafts stay in place.
func (s *Server) handleSaveEdits(w http.ResponseWriter, r *http.Request) {
	updated, err := s.service.SaveEdits(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"updated": updated,
		"edit":    s.service.EditState(),
	})
}

func (s *Server) handleCancelEdits(w http.ResponseWriter, r *http.Request) {
	s.service.CancelEdits(r.Context())
	writeJSON(w, http.StatusOK, s.service.EditState())
}

// recordRequest is the body of row create and update calls.
type recordRequest struct {
	Fields map[string]any `json:"fields"`
}

func (req recordRequest) fields() (core.Fields, error) {
	f, err := core.NewFields(req.Fields)
	if err != nil {
		return nil, badRequest("Row fields must be strings, numbers or null", err)
	}
	return f, nil
}
