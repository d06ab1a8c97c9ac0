package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/hszk-dev/videocatalog/internal/infrastructure/metrics"
)

func newTestRouter(logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(RequestID)
	r.Use(Metrics)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))

	r.Get("/v1/videos/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "id") {
		case "missing":
			w.WriteHeader(http.StatusNotFound)
		case "panic":
			panic("boom")
		default:
			w.Write([]byte("ok"))
		}
	})
	return r
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		lines = append(lines, m)
	}
	return lines
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		path       string
		wantStatus int
		wantLevel  string
	}{
		{path: "/v1/videos/abc", wantStatus: http.StatusOK, wantLevel: "INFO"},
		{path: "/v1/videos/missing", wantStatus: http.StatusNotFound, wantLevel: "WARN"},
		{path: "/v1/videos/panic", wantStatus: http.StatusInternalServerError, wantLevel: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(NewRequestIDHandler(slog.NewJSONHandler(&buf, nil)))

			rec := httptest.NewRecorder()
			newTestRouter(logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Header().Get("X-Request-Id") == "" {
				t.Errorf("X-Request-Id header missing")
			}

			lines := logLines(t, &buf)
			last := lines[len(lines)-1]
			if last["msg"] != "request completed" || last["level"] != tt.wantLevel {
				t.Errorf("log line = %v", last)
			}
			if last["route"] != "/v1/videos/{id}" {
				t.Errorf("route = %v", last["route"])
			}
			if id, _ := last["request_id"].(string); id != rec.Header().Get("X-Request-Id") {
				t.Errorf("request_id = %v, want %q", last["request_id"], rec.Header().Get("X-Request-Id"))
			}
		})
	}
}

func TestMetrics_CountsByRoute(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/v1/videos/{id}", "404")
	before := counterValue(t, counter)

	rec := httptest.NewRecorder()
	newTestRouter(logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/videos/missing", nil))

	if got := counterValue(t, counter) - before; got != 1 {
		t.Errorf("counter delta = %v, want 1", got)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("failed to read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestGetRequestID_Empty(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}

func TestRequestIDHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewRequestIDHandler(slog.NewJSONHandler(&buf, nil))).
		With(slog.String("component", "test")).
		WithGroup("video")

	logger.InfoContext(WithRequestID(context.Background(), "req-1"), "tagged", slog.String("id", "v1"))
	logger.InfoContext(context.Background(), "untagged")

	lines := logLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	if lines[0]["component"] != "test" {
		t.Errorf("component = %v", lines[0]["component"])
	}
	group, _ := lines[0]["video"].(map[string]any)
	if group["request_id"] != "req-1" || group["id"] != "v1" {
		t.Errorf("tagged line = %v", lines[0])
	}
	if _, ok := lines[1]["video"]; ok {
		t.Errorf("untagged line = %v", lines[1])
	}
}
