package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// pathRecorder — health endpoint, запоминающий запрошенные пути.
type pathRecorder struct {
	mu     sync.Mutex
	paths  []string
	status int
}

func (p *pathRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.paths = append(p.paths, r.URL.Path)
	status := p.status
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (p *pathRecorder) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.paths...)
}

func testDephealthOptions(name, healthURL string) DephealthOptions {
	return DephealthOptions{
		Name:          name,
		Group:         "converter",
		DepName:       "system-health",
		HealthURL:     healthURL,
		CheckInterval: time.Second,
	}
}

// waitDependency ждёт, пока запись system-health в Health() примет значение want.
func waitDependency(ds *DephealthService, want bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for key, ok := range ds.Health() {
			if strings.HasPrefix(key, "system-health:") && ok == want {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

func TestHealthCheckPath(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"http://monitor:8080/health", "/health", false},
		{"https://monitor.example.com/api/v1/status", "/api/v1/status", false},
		{"http://monitor:8080", "", false},
		{"http://monitor:8080/", "", false},
		{"ftp://monitor/health", "", true},
		{"://broken", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := healthCheckPath(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ошибка: %v, ожидалась ошибка: %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("путь: %q, ожидалось %q", got, tt.want)
			}
		})
	}
}

func TestNewDephealthService_InvalidOptions(t *testing.T) {
	if _, err := NewDephealthServiceWithRegisterer(testDephealthOptions("cv-empty", ""), testLogger(), prometheus.NewRegistry()); err == nil {
		t.Error("ожидалась ошибка для пустого URL")
	}
	if _, err := NewDephealthServiceWithRegisterer(testDephealthOptions("cv-ftp", "ftp://monitor/health"), testLogger(), prometheus.NewRegistry()); err == nil {
		t.Error("ожидалась ошибка для схемы ftp")
	}
}

func TestDephealthService_ProbesHealthPath(t *testing.T) {
	rec := &pathRecorder{status: http.StatusOK}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	ds, err := NewDephealthServiceWithRegisterer(
		testDephealthOptions("test-cv-01", srv.URL+"/system/health"),
		testLogger(),
		prometheus.NewRegistry(),
	)
	if err != nil {
		t.Fatalf("ошибка создания DephealthService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := ds.Start(ctx); err != nil {
		t.Fatalf("ошибка запуска: %v", err)
	}
	defer ds.Stop()

	if !waitDependency(ds, true, 5*time.Second) {
		t.Fatalf("зависимость отвечает 200, ожидалось состояние ok: %v", ds.Health())
	}

	for _, p := range rec.seen() {
		if p != "/system/health" {
			t.Errorf("проверка пришла на путь %q, ожидался /system/health", p)
		}
	}
}

func TestDephealthService_UnhealthyDependency(t *testing.T) {
	rec := &pathRecorder{status: http.StatusServiceUnavailable}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	ds, err := NewDephealthServiceWithRegisterer(
		testDephealthOptions("test-cv-02", srv.URL+"/health"),
		testLogger(),
		prometheus.NewRegistry(),
	)
	if err != nil {
		t.Fatalf("ошибка создания DephealthService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := ds.Start(ctx); err != nil {
		t.Fatalf("ошибка запуска: %v", err)
	}
	defer ds.Stop()

	// Ждём первой проверки
	deadline := time.Now().Add(5 * time.Second)
	for len(rec.seen()) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if len(rec.seen()) == 0 {
		t.Fatal("проверка зависимости не выполнена")
	}

	if !waitDependency(ds, false, 3*time.Second) {
		t.Errorf("зависимость отвечает 503, ожидалось состояние fail: %v", ds.Health())
	}
}
