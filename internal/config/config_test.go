package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bigkaa/goartstore/converter/internal/storage/artifacts"
)

// setEnvVars устанавливает переменные окружения для теста и возвращает
// функцию очистки. Всегда вызывать defer cleanup().
func setEnvVars(t *testing.T, vars map[string]string) func() {
	t.Helper()

	// Сохраняем оригинальные значения
	originals := make(map[string]string)
	origSet := make(map[string]bool)
	for k := range vars {
		if v, ok := os.LookupEnv(k); ok {
			originals[k] = v
			origSet[k] = true
		}
	}

	// Устанавливаем новые
	for k, v := range vars {
		os.Setenv(k, v)
	}

	return func() {
		for k := range vars {
			if origSet[k] {
				os.Setenv(k, originals[k])
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

// allKeys — все переменные окружения, читаемые Load.
var allKeys = []string{
	"CV_ENV_FILE", "CV_PORT", "CV_SERVICE_ID", "CV_MAX_FILE_SIZE",
	"CV_DEFAULT_FORMAT", "CV_DEFAULT_QUALITY",
	"CV_ARTIFACT_RETENTION", "CV_ARTIFACT_MAX_ITEMS",
	"CV_HANDLE_STRATEGY",
	"CV_HEALTH_URL", "CV_HEALTH_INTERVAL", "CV_HEALTH_TIMEOUT", "CV_HEALTH_CA_CERT",
	"CV_DEPHEALTH_CHECK_INTERVAL", "CV_DEPHEALTH_GROUP", "CV_DEPHEALTH_DEP_NAME",
	"CV_DEPHEALTH_TLS_SKIP_VERIFY", "DEPHEALTH_NAME",
	"CV_TLS_CERT", "CV_TLS_KEY",
	"CV_HTTP_READ_TIMEOUT", "CV_HTTP_WRITE_TIMEOUT", "CV_HTTP_IDLE_TIMEOUT",
	"CV_SHUTDOWN_TIMEOUT", "CV_LOG_LEVEL", "CV_LOG_FORMAT",
}

// clearAllCVEnvVars очищает все переменные окружения CV_* для чистого теста.
func clearAllCVEnvVars(t *testing.T) func() {
	t.Helper()
	originals := make(map[string]string)
	origSet := make(map[string]bool)
	for _, k := range allKeys {
		if v, ok := os.LookupEnv(k); ok {
			originals[k] = v
			origSet[k] = true
		}
		os.Unsetenv(k)
	}
	return func() {
		for _, k := range allKeys {
			if origSet[k] {
				os.Setenv(k, originals[k])
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	cleanup := clearAllCVEnvVars(t)
	defer cleanup()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 8040 {
		t.Errorf("Port: ожидалось 8040, получено %d", cfg.Port)
	}
	if cfg.ServiceID != "" {
		t.Errorf("ServiceID: ожидалась пустая строка, получено %q", cfg.ServiceID)
	}
	if cfg.MaxFileSize != 100<<20 {
		t.Errorf("MaxFileSize: ожидалось %d, получено %d", 100<<20, cfg.MaxFileSize)
	}
	if cfg.DefaultFormat != "png" {
		t.Errorf("DefaultFormat: ожидалось png, получено %q", cfg.DefaultFormat)
	}
	if cfg.DefaultQuality != 90 {
		t.Errorf("DefaultQuality: ожидалось 90, получено %d", cfg.DefaultQuality)
	}
	if cfg.ArtifactRetention != time.Hour {
		t.Errorf("ArtifactRetention: ожидалось 1h, получено %v", cfg.ArtifactRetention)
	}
	if cfg.ArtifactMaxItems != 0 {
		t.Errorf("ArtifactMaxItems: ожидалось 0 (без ограничения), получено %d", cfg.ArtifactMaxItems)
	}
	if cfg.HandleStrategy != artifacts.HandleFromName {
		t.Errorf("HandleStrategy: ожидалось name, получено %q", cfg.HandleStrategy)
	}
	if cfg.HealthURL != "" {
		t.Errorf("HealthURL: ожидалась пустая строка, получено %q", cfg.HealthURL)
	}
	if cfg.HealthInterval != 30*time.Second {
		t.Errorf("HealthInterval: ожидалось 30s, получено %v", cfg.HealthInterval)
	}
	if cfg.HealthTimeout != 5*time.Second {
		t.Errorf("HealthTimeout: ожидалось 5s, получено %v", cfg.HealthTimeout)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval: ожидалось 15s, получено %v", cfg.DephealthCheckInterval)
	}
	if cfg.DephealthGroup != "converter" {
		t.Errorf("DephealthGroup: ожидалось converter, получено %q", cfg.DephealthGroup)
	}
	if cfg.DephealthDepName != "system-health" {
		t.Errorf("DephealthDepName: ожидалось system-health, получено %q", cfg.DephealthDepName)
	}
	if cfg.DephealthTLSSkipVerify {
		t.Error("DephealthTLSSkipVerify: ожидалось false")
	}
	if cfg.HTTPReadTimeout != 30*time.Second || cfg.HTTPWriteTimeout != 120*time.Second || cfg.HTTPIdleTimeout != 120*time.Second {
		t.Errorf("HTTP таймауты: %v / %v / %v", cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout, cfg.HTTPIdleTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 10s, получено %v", cfg.ShutdownTimeout)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось INFO, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось 'json', получено %q", cfg.LogFormat)
	}
}

func TestLoad_AllCustomValues(t *testing.T) {
	cleanup := clearAllCVEnvVars(t)
	defer cleanup()

	cleanupVars := setEnvVars(t, map[string]string{
		"CV_PORT":                      "9000",
		"CV_SERVICE_ID":                "cv-test-01",
		"CV_MAX_FILE_SIZE":             "1048576",
		"CV_DEFAULT_FORMAT":            "PDF",
		"CV_DEFAULT_QUALITY":           "75",
		"CV_ARTIFACT_RETENTION":        "15m",
		"CV_ARTIFACT_MAX_ITEMS":        "50",
		"CV_HANDLE_STRATEGY":           "random",
		"CV_HEALTH_URL":                "https://monitor.example.com/health",
		"CV_HEALTH_INTERVAL":           "10s",
		"CV_HEALTH_TIMEOUT":            "2s",
		"CV_HEALTH_CA_CERT":            "/etc/ssl/ca.crt",
		"CV_DEPHEALTH_CHECK_INTERVAL":  "20s",
		"CV_DEPHEALTH_GROUP":           "tools",
		"CV_DEPHEALTH_DEP_NAME":        "monitor",
		"CV_DEPHEALTH_TLS_SKIP_VERIFY": "true",
		"DEPHEALTH_NAME":               "converter-pod",
		"CV_TLS_CERT":                  "/tmp/tls.crt",
		"CV_TLS_KEY":                   "/tmp/tls.key",
		"CV_HTTP_READ_TIMEOUT":         "5s",
		"CV_HTTP_WRITE_TIMEOUT":        "6s",
		"CV_HTTP_IDLE_TIMEOUT":         "7s",
		"CV_SHUTDOWN_TIMEOUT":          "3s",
		"CV_LOG_LEVEL":                 "debug",
		"CV_LOG_FORMAT":                "text",
	})
	defer cleanupVars()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port: ожидалось 9000, получено %d", cfg.Port)
	}
	if cfg.ServiceID != "cv-test-01" {
		t.Errorf("ServiceID: получено %q", cfg.ServiceID)
	}
	if cfg.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize: получено %d", cfg.MaxFileSize)
	}
	if cfg.DefaultFormat != "pdf" {
		t.Errorf("DefaultFormat: ожидалось pdf (в нижнем регистре), получено %q", cfg.DefaultFormat)
	}
	if cfg.DefaultQuality != 75 {
		t.Errorf("DefaultQuality: получено %d", cfg.DefaultQuality)
	}
	if cfg.ArtifactRetention != 15*time.Minute {
		t.Errorf("ArtifactRetention: получено %v", cfg.ArtifactRetention)
	}
	if cfg.ArtifactMaxItems != 50 {
		t.Errorf("ArtifactMaxItems: получено %d", cfg.ArtifactMaxItems)
	}
	if cfg.HandleStrategy != artifacts.HandleRandom {
		t.Errorf("HandleStrategy: получено %q", cfg.HandleStrategy)
	}
	if cfg.HealthURL != "https://monitor.example.com/health" {
		t.Errorf("HealthURL: получено %q", cfg.HealthURL)
	}
	if cfg.HealthInterval != 10*time.Second || cfg.HealthTimeout != 2*time.Second {
		t.Errorf("HealthInterval/HealthTimeout: %v / %v", cfg.HealthInterval, cfg.HealthTimeout)
	}
	if cfg.HealthCACert != "/etc/ssl/ca.crt" {
		t.Errorf("HealthCACert: получено %q", cfg.HealthCACert)
	}
	if cfg.DephealthCheckInterval != 20*time.Second {
		t.Errorf("DephealthCheckInterval: получено %v", cfg.DephealthCheckInterval)
	}
	if cfg.DephealthGroup != "tools" || cfg.DephealthDepName != "monitor" {
		t.Errorf("Dephealth group/dep: %q / %q", cfg.DephealthGroup, cfg.DephealthDepName)
	}
	if !cfg.DephealthTLSSkipVerify {
		t.Error("DephealthTLSSkipVerify: ожидалось true")
	}
	if cfg.DephealthName != "converter-pod" {
		t.Errorf("DephealthName: получено %q", cfg.DephealthName)
	}
	if cfg.TLSCert != "/tmp/tls.crt" || cfg.TLSKey != "/tmp/tls.key" {
		t.Errorf("TLS: %q / %q", cfg.TLSCert, cfg.TLSKey)
	}
	if cfg.HTTPReadTimeout != 5*time.Second || cfg.HTTPWriteTimeout != 6*time.Second || cfg.HTTPIdleTimeout != 7*time.Second {
		t.Errorf("HTTP таймауты: %v / %v / %v", cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout, cfg.HTTPIdleTimeout)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout: получено %v", cfg.ShutdownTimeout)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось DEBUG, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось 'text', получено %q", cfg.LogFormat)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CV_PORT", "0"},
		{"CV_PORT", "70000"},
		{"CV_PORT", "abc"},
		{"CV_MAX_FILE_SIZE", "0"},
		{"CV_MAX_FILE_SIZE", "-1"},
		{"CV_DEFAULT_QUALITY", "0"},
		{"CV_DEFAULT_QUALITY", "101"},
		{"CV_ARTIFACT_RETENTION", "0s"},
		{"CV_ARTIFACT_RETENTION", "час"},
		{"CV_ARTIFACT_MAX_ITEMS", "-1"},
		{"CV_HANDLE_STRATEGY", "sequential"},
		{"CV_HEALTH_INTERVAL", "-5s"},
		{"CV_HEALTH_TIMEOUT", "abc"},
		{"CV_DEPHEALTH_TLS_SKIP_VERIFY", "maybe"},
		{"CV_SHUTDOWN_TIMEOUT", "0"},
		{"CV_LOG_LEVEL", "verbose"},
		{"CV_LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cleanup := clearAllCVEnvVars(t)
			defer cleanup()

			cleanupVars := setEnvVars(t, map[string]string{tt.key: tt.value})
			defer cleanupVars()

			if _, err := Load(); err == nil {
				t.Errorf("ожидалась ошибка для %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_TLSPairRequired(t *testing.T) {
	cleanup := clearAllCVEnvVars(t)
	defer cleanup()

	cleanupVars := setEnvVars(t, map[string]string{"CV_TLS_CERT": "/tmp/tls.crt"})
	defer cleanupVars()

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка: CV_TLS_KEY не задан")
	}
}

func TestLoad_ValidLogLevels(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cleanup := clearAllCVEnvVars(t)
			defer cleanup()

			cleanupVars := setEnvVars(t, map[string]string{"CV_LOG_LEVEL": tt.input})
			defer cleanupVars()

			cfg, err := Load()
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if cfg.LogLevel != tt.expected {
				t.Errorf("LogLevel: ожидалось %v, получено %v", tt.expected, cfg.LogLevel)
			}
		})
	}
}

// TestLoad_EnvFile проверяет загрузку .env файла: значения из файла
// применяются, уже установленные переменные имеют приоритет.
func TestLoad_EnvFile(t *testing.T) {
	cleanup := clearAllCVEnvVars(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "converter.env")
	content := "CV_PORT=8123\nCV_DEFAULT_FORMAT=webp\nCV_LOG_FORMAT=text\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("ошибка записи .env: %v", err)
	}

	cleanupVars := setEnvVars(t, map[string]string{
		"CV_ENV_FILE":       path,
		"CV_DEFAULT_FORMAT": "jpg",
	})
	defer cleanupVars()

	// godotenv выставляет переменные процесса, их сбрасывает cleanup
	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 8123 {
		t.Errorf("Port: ожидалось 8123 из .env, получено %d", cfg.Port)
	}
	if cfg.DefaultFormat != "jpg" {
		t.Errorf("DefaultFormat: переменная окружения должна иметь приоритет, получено %q", cfg.DefaultFormat)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось text из .env, получено %q", cfg.LogFormat)
	}
}

func TestLoad_EnvFileMissing(t *testing.T) {
	cleanup := clearAllCVEnvVars(t)
	defer cleanup()

	cleanupVars := setEnvVars(t, map[string]string{
		"CV_ENV_FILE": filepath.Join(t.TempDir(), "absent.env"),
	})
	defer cleanupVars()

	if _, err := Load(); err == nil {
		t.Error("ожидалась ошибка для отсутствующего CV_ENV_FILE")
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json", "json"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:  slog.LevelInfo,
				LogFormat: tt.format,
			}
			logger := SetupLogger(cfg)
			if logger == nil {
				t.Fatal("SetupLogger вернул nil")
			}
		})
	}
}
