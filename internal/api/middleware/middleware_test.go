package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/live", "/health/live"},
		{"/health/ready", "/health/ready"},
		{"/metrics", "/metrics"},
		{"/api/v1/info", "/api/v1/info"},
		{"/api/v1/formats", "/api/v1/formats"},
		{"/api/v1/convert", "/api/v1/convert"},
		{"/api/v1/convert/cmVwb3J0LnBkZg", "/api/v1/convert/{id}"},
		{"/api/v1/convert/1b4e28ba-2fa1-11d2-883f-0016d3cca427", "/api/v1/convert/{id}"},
		{"/api/v1/convert/a/b", "other"},
		{"/wp-admin", "other"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидалось %q", tt.path, got, tt.want)
		}
	}
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		level  string
	}{
		{"успех", "/api/v1/convert", http.StatusOK, "level=INFO"},
		{"ошибка клиента", "/api/v1/convert", http.StatusBadRequest, "level=WARN"},
		{"ошибка сервера", "/api/v1/convert", http.StatusInternalServerError, "level=ERROR"},
		{"проба", "/health/live", http.StatusOK, "level=DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

			h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			out := buf.String()
			if !strings.Contains(out, tt.level) {
				t.Errorf("ожидался %s, лог: %s", tt.level, out)
			}
			if !strings.Contains(out, "bytes=4") {
				t.Errorf("размер ответа не записан: %s", out)
			}
		})
	}
}

func TestMetricsMiddleware_PassesThrough(t *testing.T) {
	h := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/info", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("статус: ожидалось 418, получено %d", w.Code)
	}
}
