package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/converter/internal/config"
)

type pingRoutes struct{}

func (pingRoutes) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

func testConfig() *config.Config {
	return &config.Config{
		Port:             8040,
		HTTPReadTimeout:  time.Second,
		HTTPWriteTimeout: 2 * time.Second,
		HTTPIdleTimeout:  3 * time.Second,
		ShutdownTimeout:  time.Second,
	}
}

func TestNew_RoutesAndMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	srv := New(testConfig(), logger, pingRoutes{}, mw("metrics"), mw("logging"))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusOK || w.Body.String() != "pong" {
		t.Fatalf("ответ: %d %q", w.Code, w.Body.String())
	}
	if len(order) != 2 || order[0] != "metrics" || order[1] != "logging" {
		t.Errorf("порядок middleware: %v", order)
	}

	if srv.httpServer.Addr != ":8040" {
		t.Errorf("Addr: %q", srv.httpServer.Addr)
	}
	if srv.httpServer.ReadTimeout != time.Second || srv.httpServer.WriteTimeout != 2*time.Second {
		t.Errorf("таймауты: %v / %v", srv.httpServer.ReadTimeout, srv.httpServer.WriteTimeout)
	}
	if srv.httpServer.TLSConfig != nil {
		t.Error("TLSConfig задан без сертификата")
	}
}

func TestNew_TLS(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := testConfig()
	cfg.TLSCert = "/tmp/tls.crt"
	cfg.TLSKey = "/tmp/tls.key"

	srv := New(cfg, logger, pingRoutes{})
	if srv.httpServer.TLSConfig == nil {
		t.Fatal("TLSConfig не задан")
	}
}

func TestRun_ShutdownOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := testConfig()
	cfg.Port = 0

	srv := New(cfg, logger, pingRoutes{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run вернул ошибку: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
}

func TestRun_ListenError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := testConfig()
	cfg.Port = -1

	srv := New(cfg, logger, pingRoutes{})
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("ожидалась ошибка прослушивания")
	}
}
