package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// value finds the sample of family name whose labels include want.
func value(t *testing.T, c *Collector, name string, want map[string]string) float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if !labelsMatch(m, want) {
				continue
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
			found++
		}
	}
	return found == len(want)
}

func TestCollector_Observer(t *testing.T) {
	c := New(false)

	c.ImportFinished("success", 4)
	c.ImportFinished("success", 2)
	c.ImportFinished("invalid", 0)
	c.ExportFinished(3)
	c.CommitFinished("success", 1)
	c.CommitFinished("invalid", 0)
	c.CommitFinished("invalid", 0)
	c.RecordCount(7)
	c.RecordCount(5)

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"tablekit_imports_total", map[string]string{"result": "success"}, 2},
		{"tablekit_imports_total", map[string]string{"result": "invalid"}, 1},
		{"tablekit_imported_rows_total", nil, 6},
		{"tablekit_exports_total", nil, 1},
		{"tablekit_exported_rows_total", nil, 3},
		{"tablekit_edit_commits_total", map[string]string{"result": "success"}, 1},
		{"tablekit_edit_commits_total", map[string]string{"result": "invalid"}, 2},
		{"tablekit_records", nil, 5},
	}
	for _, tt := range tests {
		if got := value(t, c, tt.name, tt.labels); got != tt.want {
			t.Errorf("%s%v = %v, want %v", tt.name, tt.labels, got, tt.want)
		}
	}
}

func TestCollector_ObserveRequest(t *testing.T) {
	c := New(false)
	c.ObserveRequest("/api/rows/{id}", "DELETE", 200, 15*time.Millisecond)
	c.ObserveRequest("", "GET", 404, time.Millisecond)

	if got := value(t, c, "tablekit_http_requests_total",
		map[string]string{"route": "/api/rows/{id}", "method": "DELETE", "status": "200"}); got != 1 {
		t.Errorf("requests{/api/rows/{id}} = %v, want 1", got)
	}
	if got := value(t, c, "tablekit_http_requests_total",
		map[string]string{"route": "unmatched", "status": "404"}); got != 1 {
		t.Errorf("requests{unmatched} = %v, want 1", got)
	}
	if got := value(t, c, "tablekit_http_request_duration_seconds",
		map[string]string{"route": "/api/rows/{id}"}); got != 1 {
		t.Errorf("latency sample count = %v, want 1", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New(true)
	c.ExportFinished(2)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{"tablekit_exports_total 1", "go_goroutines"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
