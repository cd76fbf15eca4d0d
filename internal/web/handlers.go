package web

import (
	"net/http"

	"github.com/JonMunkholm/tablekit/internal/core"
	"github.com/JonMunkholm/tablekit/internal/web/templates"
)

// handlePage renders the HTML table. Query parameters q, sort, dir, page
// and size update the view state before rendering, so links on the page can
// drive it without JavaScript. The sort direction is explicit so reloading
// a sorted page keeps its order; a missing or unknown dir sorts ascending.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("q") {
		s.service.SetQuery(q.Get("q"))
	}
	if key := q.Get("sort"); key != "" {
		dir := core.ParseSortDirection(q.Get("dir"))
		if dir == core.SortNone {
			dir = core.SortAsc
		}
		s.service.SetSort(key, dir)
	}
	if q.Has("size") {
		if n := parseIntParam(r, "size", 0); n > 0 {
			s.service.SetPageSize(n)
		}
	}
	if q.Has("page") {
		s.service.SetPage(parseIntParam(r, "page", 0))
	}

	data := templates.PageData{
		View:    s.service.View(),
		Columns: s.service.Columns(),
		Edit:    s.service.EditState(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"records": len(s.service.Records()),
		"imports": s.service.ImportStatus(),
	})
}

// handleView returns the current page.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.View())
}

// handleSetQuery sets the search text and resets to the first page.
func (s *Server) handleSetQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, s.service.SetQuery(req.Query))
}

// handleSort toggles the sort on key, or sets it explicitly when a
// direction is given ("asc", "desc", or "" to clear).
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key       string              `json:"key"`
		Direction *core.SortDirection `json:"direction"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if req.Direction == nil {
		if req.Key == "" {
			respondError(w, r, badRequest("Sort key is required", nil), 0)
			return
		}
		writeJSON(w, http.StatusOK, s.service.ToggleSort(req.Key))
		return
	}
	switch *req.Direction {
	case core.SortNone, core.SortAsc, core.SortDesc:
	default:
		respondError(w, r, badRequest("Sort direction must be asc, desc or empty", nil), 0)
		return
	}
	writeJSON(w, http.StatusOK, s.service.SetSort(req.Key, *req.Direction))
}

// handleSetPage moves to a page. Pages past the end are allowed and empty.
func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if req.Page < 0 {
		respondError(w, r, badRequest("Page must not be negative", nil), 0)
		return
	}
	writeJSON(w, http.StatusOK, s.service.SetPage(req.Page))
}

// handleSetPageSize changes rows per page and resets to the first page.
func (s *Server) handleSetPageSize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageSize int `json:"pageSize"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if req.PageSize <= 0 {
		respondError(w, r, badRequest("Page size must be positive", nil), 0)
		return
	}
	writeJSON(w, http.StatusOK, s.service.SetPageSize(req.PageSize))
}
