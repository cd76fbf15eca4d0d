package web

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/tablekit/internal/core"
	"github.com/go-chi/chi/v5"
)

// handleListRows returns every record, unfiltered.
func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Records())
}

func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Record(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleAddRow creates a record with a generated id at the top of the table.
func (s *Server) handleAddRow(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	fields, err := req.fields()
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	rec := s.service.AddRow(r.Context(), fields)
	w.Header().Set("Location", "/api/rows/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

// handleUpdateRow replaces the fields of a record. A missing id is not an
// error: the response reports updated=false.
func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	fields, err := req.fields()
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	id := chi.URLParam(r, "id")
	updated := s.service.UpdateRow(r.Context(), core.Record{ID: id, Fields: fields})
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "updated": updated})
}

// handleDeleteRow removes a record. Deleting a missing id reports
// deleted=false rather than failing.
func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted := s.service.DeleteRow(r.Context(), id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": deleted})
}

// handleImportStatus reports import slot usage.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ImportStatus())
}

// rowsSummary is used in import responses.
func rowsSummary(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
