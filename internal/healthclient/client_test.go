package healthclient

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/converter/internal/domain/throttle"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockHealth создаёт mock health endpoint.
func setupMockHealth(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestClient_Status(t *testing.T) {
	server := setupMockHealth(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"warning","uptime":12}`))
	})

	client, err := New(server.URL+"/api/health", 2*time.Second, "", testLogger())
	if err != nil {
		t.Fatal(err)
	}

	sev, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("ошибка Status: %v", err)
	}
	if sev != throttle.SeverityWarning {
		t.Errorf("severity = %q, ожидалось warning", sev)
	}
}

func TestClient_Status_HTTPError(t *testing.T) {
	server := setupMockHealth(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	client, err := New(server.URL, 2*time.Second, "", testLogger())
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Status(context.Background())
	if err == nil {
		t.Fatal("ожидалась ошибка для статуса 502")
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "upstream down") {
		t.Errorf("сообщение ошибки без кода и тела ответа: %v", err)
	}
}

func TestClient_Status_BadJSON(t *testing.T) {
	server := setupMockHealth(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})

	client, err := New(server.URL, 2*time.Second, "", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Status(context.Background()); err == nil {
		t.Fatal("ожидалась ошибка декодирования")
	}
}

func TestClient_Status_Timeout(t *testing.T) {
	server := setupMockHealth(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	client, err := New(server.URL, 50*time.Millisecond, "", testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Status(context.Background()); err == nil {
		t.Fatal("ожидалась ошибка таймаута")
	}
}

func TestNew_MissingCA(t *testing.T) {
	if _, err := New("https://example.invalid", time.Second, "/nonexistent/ca.pem", testLogger()); err == nil {
		t.Fatal("ожидалась ошибка для отсутствующего CA-сертификата")
	}
}
