package web

// Shared request parsing helpers.

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxJSONBody bounds JSON request bodies. CSV imports have their own limit.
const maxJSONBody = 1 << 20

// decodeJSON reads a single JSON object from the request body into v.
// Numbers are kept as json.Number so core.NormalizeValue sees them exactly.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("Request body is empty", err)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return badRequest("Request body is not valid JSON", err)
	}
	return nil
}

// parseIntParam parses a non-negative integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// clientIP returns the address TrustedRealIP left in RemoteAddr.
func clientIP(r *http.Request) string {
	return r.RemoteAddr
}

// contentDisposition builds an attachment header for filename.
func contentDisposition(filename string) string {
	return `attachment; filename="` + strings.ReplaceAll(filename, `"`, "") + `"`
}
