package web

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/tablekit/internal/core"
)

// handleImport replaces the table with an uploaded CSV file. The file is
// either the multipart field "file" or the raw request body. Nothing
// changes unless the whole file parses.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxImportSize+64<<10)

	src, closeFn, err := importSource(r, s.opts.MaxImportSize)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer closeFn()

	summary, err := s.service.Import(r.Context(), src)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":         summary.Rows,
		"addedColumns": summary.AddedColumns,
		"message":      "Imported " + rowsSummary(summary.Rows),
		"view":         s.service.View(),
	})
}

// handleImportPreview reports what an import of the uploaded file would do
// without applying it.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxImportSize+64<<10)

	src, closeFn, err := importSource(r, s.opts.MaxImportSize)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer closeFn()

	preview, err := s.service.PreviewImport(r.Context(), src)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// importSource picks the CSV stream out of the request.
func importSource(r *http.Request, maxSize int64) (io.Reader, func(), error) {
	noop := func() {}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, noop, nil
	}

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, core.ErrFileTooLarge
		}
		return nil, noop, badRequest("Upload could not be read", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, noop, errors.New("no file provided")
	}
	if header.Size > maxSize {
		_ = file.Close()
		return nil, noop, core.ErrFileTooLarge
	}
	return file, func() { _ = file.Close() }, nil
}

// handleExport downloads every record as CSV using the visible columns.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := s.service.Export(r.Context(), &buf); err != nil {
		respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", core.ExportContentType)
	w.Header().Set("Content-Disposition", contentDisposition(core.ExportFileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
