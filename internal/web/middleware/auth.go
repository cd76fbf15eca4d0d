package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
)

// APIKeyAuth rejects requests whose X-API-Key header does not match one of
// keys. Missing keys get 401, wrong keys 403.
func APIKeyAuth(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				slog.Warn("auth: missing API key", "path", r.URL.Path, "method", r.Method, "ip", r.RemoteAddr)
				denied(w, http.StatusUnauthorized, "missing API key", "AUTH001")
				return
			}
			if !validKey(apiKey, keys) {
				slog.Warn("auth: invalid API key", "path", r.URL.Path, "method", r.Method, "ip", r.RemoteAddr)
				denied(w, http.StatusForbidden, "invalid API key", "AUTH002")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// validKey compares against every key in constant time.
func validKey(key string, keys []string) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return match == 1
}

func denied(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   message,
		"message": message,
		"code":    code,
	})
}
