package web

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/tablekit/internal/core"
)

// auditPageSize is the default number of entries returned.
const auditPageSize = 50

// handleAuditLog returns journal entries, newest first, optionally filtered
// by action, severity and a since/until RFC 3339 window. format=csv
// downloads them instead.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := core.AuditLogOptions{
		Action:   core.AuditAction(q.Get("action")),
		Severity: core.AuditSeverity(q.Get("severity")),
		Limit:    parseIntParam(r, "limit", auditPageSize),
	}
	var err error
	if opts.StartTime, err = parseTimeParam(r, "since"); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if opts.EndTime, err = parseTimeParam(r, "until"); err != nil {
		respondError(w, r, err, 0)
		return
	}

	entries := s.service.QueryAuditLog(opts)

	if q.Get("format") == "csv" {
		var buf bytes.Buffer
		if err := core.WriteAuditCSV(&buf, entries); err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", contentDisposition("audit_log.csv"))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		_, _ = buf.WriteTo(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// parseTimeParam reads an optional RFC 3339 query parameter.
func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, badRequest("Invalid "+name+" time, use RFC 3339", err)
	}
	return t, nil
}
