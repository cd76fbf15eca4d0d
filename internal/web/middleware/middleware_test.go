package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no proxies strips port", nil, "198.51.100.7:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "198.51.100.7"},
		{"trusted cidr uses X-Real-IP", []string{"10.0.0.0/8"}, "10.1.2.3:80", map[string]string{"X-Real-IP": "203.0.113.5"}, "203.0.113.5"},
		{"trusted single ip uses first XFF hop", []string{"127.0.0.1"}, "127.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.6, 10.0.0.1"}, "203.0.113.6"},
		{"untrusted proxy ignored", []string{"10.0.0.0/8"}, "192.0.2.1:80", map[string]string{"X-Real-IP": "203.0.113.5"}, "192.0.2.1"},
		{"garbage header ignored", []string{"10.0.0.0/8"}, "10.0.0.2:80", map[string]string{"X-Real-IP": "not-an-ip"}, "10.0.0.2"},
		{"invalid cidr skipped", []string{"bogus", "10.0.0.0/8"}, "10.0.0.2:80", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidKey(t *testing.T) {
	keys := []string{"alpha", "beta"}
	tests := []struct {
		key  string
		want bool
	}{
		{"alpha", true},
		{"beta", true},
		{"gamma", false},
		{"alph", false},
	}
	for _, tt := range tests {
		if got := validKey(tt.key, keys); got != tt.want {
			t.Errorf("validKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

type recordingObserver struct {
	route  string
	status int
}

func (o *recordingObserver) ObserveRequest(route, _ string, status int, _ time.Duration) {
	o.route = route
	o.status = status
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	obs := &recordingObserver{}
	r := chi.NewRouter()
	r.Use(Logger(obs))
	r.Get("/api/rows/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/rows/abc", nil))

	if obs.route != "/api/rows/{id}" || obs.status != http.StatusTeapot {
		t.Errorf("observed route=%q status=%d", obs.route, obs.status)
	}
	out := buf.String()
	for _, want := range []string{"status=418", "bytes=5", "path=/api/rows/abc"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}
