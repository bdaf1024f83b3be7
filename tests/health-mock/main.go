// Health Mock Server — имитация health endpoint системы для тестовой среды конвертера.
// Отдаёт {"status": ...} по GET /health; состояние меняется через POST /status,
// что позволяет вручную проверить закрытие и открытие шлюза допуска.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
)

// --- Конфигурация ---

// config хранит конфигурацию сервиса из env-переменных.
type config struct {
	Port    string // MOCK_PORT — порт HTTP-сервера (default: 8080)
	TLSCert string // MOCK_TLS_CERT — путь к TLS сертификату (пусто — HTTP)
	TLSKey  string // MOCK_TLS_KEY — путь к TLS приватному ключу (пусто — HTTP)
	Status  string // MOCK_STATUS — начальное состояние (default: healthy)
}

// loadConfig загружает конфигурацию из переменных окружения.
func loadConfig() config {
	return config{
		Port:    envOrDefault("MOCK_PORT", "8080"),
		TLSCert: os.Getenv("MOCK_TLS_CERT"),
		TLSKey:  os.Getenv("MOCK_TLS_KEY"),
		Status:  envOrDefault("MOCK_STATUS", "healthy"),
	}
}

// envOrDefault возвращает значение env-переменной или default.
func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// validStatuses — состояния, которые понимает конвертер.
var validStatuses = map[string]bool{
	"healthy":  true,
	"starting": true,
	"warning":  true,
	"critical": true,
}

// statusBody — тело GET /health и POST /status.
type statusBody struct {
	Status string `json:"status"`
}

// --- Handlers ---

// server хранит текущее состояние.
type server struct {
	mu     sync.RWMutex
	status string
	logger *slog.Logger
}

// handleHealth обрабатывает GET /health — текущее состояние системы.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	status := s.status
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusBody{Status: status})
}

// handleStatus обрабатывает POST /status — смена состояния.
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req statusBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Невалидный JSON: "+err.Error())
		return
	}
	if !validStatuses[req.Status] {
		writeError(w, http.StatusBadRequest, "Неизвестное состояние: "+req.Status)
		return
	}

	s.mu.Lock()
	prev := s.status
	s.status = req.Status
	s.mu.Unlock()

	s.logger.Info("Состояние изменено",
		slog.String("from", prev),
		slog.String("to", req.Status),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(req)
}

// writeError отправляет JSON-ошибку клиенту.
func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

// --- Main ---

func main() {
	cfg := loadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if !validStatuses[cfg.Status] {
		logger.Error("Неизвестное начальное состояние", slog.String("status", cfg.Status))
		os.Exit(1)
	}

	srv := &server{status: cfg.Status, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/status", srv.handleStatus)

	addr := ":" + cfg.Port

	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		logger.Info("Запуск Health Mock Server (HTTPS)",
			slog.String("addr", addr),
			slog.String("status", cfg.Status),
		)
		if err := http.ListenAndServeTLS(addr, cfg.TLSCert, cfg.TLSKey, mux); err != nil {
			logger.Error("Ошибка сервера", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		logger.Info("Запуск Health Mock Server (HTTP)",
			slog.String("addr", addr),
			slog.String("status", cfg.Status),
		)
		fmt.Fprintf(os.Stderr, "ВНИМАНИЕ: TLS не настроен, работаем по HTTP\n")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("Ошибка сервера", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
}
