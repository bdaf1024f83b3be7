// Пакет config — загрузка и валидация конфигурации конвертера
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bigkaa/goartstore/converter/internal/storage/artifacts"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации конвертера.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Имя экземпляра в метриках topologymetrics (пусто — из hostname)
	ServiceID string
	// Максимальный размер загружаемого файла в байтах
	MaxFileSize int64
	// Целевой формат, если outputFormat не передан
	DefaultFormat string
	// Качество для форматов с потерями, если quality не передан
	DefaultQuality int

	// Время хранения сконвертированного файла
	ArtifactRetention time.Duration
	// Ёмкость временного хранилища (количество файлов, 0 — без ограничения)
	ArtifactMaxItems int
	// Способ формирования download_id
	HandleStrategy artifacts.HandleStrategy

	// URL health endpoint системы (пусто — шлюз допуска всегда открыт)
	HealthURL string
	// Период опроса health endpoint
	HealthInterval time.Duration
	// Таймаут HTTP-запроса к health endpoint
	HealthTimeout time.Duration
	// Путь к CA-сертификату для health endpoint (опционально)
	HealthCACert string

	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics (CV_DEPHEALTH_GROUP)
	DephealthGroup string
	// Имя зависимости в метриках topologymetrics (CV_DEPHEALTH_DEP_NAME)
	DephealthDepName string
	// Не проверять TLS-сертификат зависимости
	DephealthTLSSkipVerify bool
	// Имя владельца пода для метки name в topologymetrics (DEPHEALTH_NAME)
	DephealthName string

	// Путь к TLS сертификату (пусто — HTTP)
	TLSCert string
	// Путь к TLS приватному ключу
	TLSKey string

	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration

	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// значения и возвращает Config или ошибку.
//
// Если задан CV_ENV_FILE, переменные сначала читаются из указанного
// .env файла. Уже установленные переменные окружения не перезаписываются.
func Load() (*Config, error) {
	if envFile := os.Getenv("CV_ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("CV_ENV_FILE: не удалось загрузить %q: %w", envFile, err)
		}
	}

	cfg := &Config{}
	var err error

	// CV_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("CV_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("CV_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CV_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.ServiceID = getEnvDefault("CV_SERVICE_ID", "")

	// CV_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 100 MB)
	cfg.MaxFileSize, err = getEnvInt64("CV_MAX_FILE_SIZE", 100<<20)
	if err != nil {
		return nil, fmt.Errorf("CV_MAX_FILE_SIZE: %w", err)
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("CV_MAX_FILE_SIZE: значение должно быть положительным")
	}

	cfg.DefaultFormat = strings.ToLower(getEnvDefault("CV_DEFAULT_FORMAT", "png"))

	// CV_DEFAULT_QUALITY — качество по умолчанию (1-100)
	cfg.DefaultQuality, err = getEnvInt("CV_DEFAULT_QUALITY", 90)
	if err != nil {
		return nil, fmt.Errorf("CV_DEFAULT_QUALITY: %w", err)
	}
	if cfg.DefaultQuality < 1 || cfg.DefaultQuality > 100 {
		return nil, fmt.Errorf("CV_DEFAULT_QUALITY: значение %d вне диапазона 1-100", cfg.DefaultQuality)
	}

	cfg.ArtifactRetention, err = getEnvPositiveDuration("CV_ARTIFACT_RETENTION", artifacts.DefaultRetention)
	if err != nil {
		return nil, fmt.Errorf("CV_ARTIFACT_RETENTION: %w", err)
	}

	cfg.ArtifactMaxItems, err = getEnvInt("CV_ARTIFACT_MAX_ITEMS", artifacts.Unbounded)
	if err != nil {
		return nil, fmt.Errorf("CV_ARTIFACT_MAX_ITEMS: %w", err)
	}
	if cfg.ArtifactMaxItems < 0 {
		return nil, fmt.Errorf("CV_ARTIFACT_MAX_ITEMS: значение не может быть отрицательным")
	}

	cfg.HandleStrategy, err = artifacts.ParseHandleStrategy(getEnvDefault("CV_HANDLE_STRATEGY", "name"))
	if err != nil {
		return nil, fmt.Errorf("CV_HANDLE_STRATEGY: %w", err)
	}

	// CV_HEALTH_URL — health endpoint системы (опционально)
	cfg.HealthURL = getEnvDefault("CV_HEALTH_URL", "")
	cfg.HealthCACert = getEnvDefault("CV_HEALTH_CA_CERT", "")

	cfg.HealthInterval, err = getEnvPositiveDuration("CV_HEALTH_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CV_HEALTH_INTERVAL: %w", err)
	}
	cfg.HealthTimeout, err = getEnvPositiveDuration("CV_HEALTH_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CV_HEALTH_TIMEOUT: %w", err)
	}

	// CV_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvPositiveDuration("CV_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CV_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}
	cfg.DephealthGroup = getEnvDefault("CV_DEPHEALTH_GROUP", "converter")
	cfg.DephealthDepName = getEnvDefault("CV_DEPHEALTH_DEP_NAME", "system-health")
	cfg.DephealthTLSSkipVerify, err = getEnvBool("CV_DEPHEALTH_TLS_SKIP_VERIFY", false)
	if err != nil {
		return nil, fmt.Errorf("CV_DEPHEALTH_TLS_SKIP_VERIFY: %w", err)
	}

	// DEPHEALTH_NAME — имя владельца пода для метки name в topologymetrics (без префикса модуля)
	cfg.DephealthName = getEnvDefault("DEPHEALTH_NAME", "")

	// CV_TLS_CERT / CV_TLS_KEY — задаются только парой
	cfg.TLSCert = getEnvDefault("CV_TLS_CERT", "")
	cfg.TLSKey = getEnvDefault("CV_TLS_KEY", "")
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("CV_TLS_CERT и CV_TLS_KEY должны быть заданы вместе")
	}

	cfg.HTTPReadTimeout, err = getEnvPositiveDuration("CV_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CV_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvPositiveDuration("CV_HTTP_WRITE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CV_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvPositiveDuration("CV_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CV_HTTP_IDLE_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout, err = getEnvPositiveDuration("CV_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CV_SHUTDOWN_TIMEOUT: %w", err)
	}

	// CV_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CV_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CV_LOG_LEVEL: %w", err)
	}

	// CV_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CV_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CV_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvPositiveDuration возвращает положительную time.Duration из переменной
// окружения или значение по умолчанию.
func getEnvPositiveDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 6h)", val)
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
