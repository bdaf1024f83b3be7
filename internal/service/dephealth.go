// dephealth.go — мониторинг health endpoint системы через topologymetrics SDK.
//
// Зависимость одна: CV_HEALTH_URL, тот же адрес, что опрашивает HealthProber.
// HealthProber управляет шлюзом допуска, а dephealth публикует состояние
// связи в графе зависимостей:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status / app_dependency_status_detail — категория статуса
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks" // Регистрация фабрик checker-ов (HTTP и др.)
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthOptions — параметры мониторинга зависимости.
type DephealthOptions struct {
	// Name — имя вершины графа текущего приложения
	Name string
	// Group — имя группы в метриках (CV_DEPHEALTH_GROUP)
	Group string
	// DepName — имя зависимости (CV_DEPHEALTH_DEP_NAME)
	DepName string
	// HealthURL — проверяемый URL (CV_HEALTH_URL)
	HealthURL string
	// CheckInterval — период проверки (CV_DEPHEALTH_CHECK_INTERVAL)
	CheckInterval time.Duration
	// TLSSkipVerify — не проверять сертификат (CV_DEPHEALTH_TLS_SKIP_VERIFY)
	TLSSkipVerify bool
}

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh      *dephealth.DepHealth
	depName string
	logger  *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга.
// Метрики регистрируются в глобальном Prometheus registry.
func NewDephealthService(opts DephealthOptions, logger *slog.Logger) (*DephealthService, error) {
	return newDephealthService(opts, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	opts DephealthOptions,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(opts, logger, dephealth.WithRegisterer(registerer))
}

func newDephealthService(opts DephealthOptions, logger *slog.Logger, extraOpts ...dephealth.Option) (*DephealthService, error) {
	if opts.HealthURL == "" {
		return nil, errors.New("не задан URL health endpoint")
	}
	path, err := healthCheckPath(opts.HealthURL)
	if err != nil {
		return nil, err
	}

	depOpts := []dephealth.DependencyOption{
		dephealth.FromURL(opts.HealthURL),
		dephealth.CheckInterval(opts.CheckInterval),
		dephealth.Critical(true),
	}
	if path != "" {
		depOpts = append(depOpts, dephealth.WithHTTPHealthPath(path))
	}
	if opts.TLSSkipVerify {
		depOpts = append(depOpts, dephealth.WithHTTPTLSSkipVerify(true))
	}

	all := make([]dephealth.Option, 0, 2+len(extraOpts))
	all = append(all,
		dephealth.WithLogger(logger),
		dephealth.HTTP(opts.DepName, depOpts...),
	)
	all = append(all, extraOpts...)

	dh, err := dephealth.New(opts.Name, opts.Group, all...)
	if err != nil {
		return nil, fmt.Errorf("инициализация topologymetrics: %w", err)
	}

	return &DephealthService{
		dh:      dh,
		depName: opts.DepName,
		logger:  logger.With(slog.String("component", "dephealth")),
	}, nil
}

// healthCheckPath возвращает путь проверки из URL health endpoint.
// Пустая строка — путь не задан, используется путь SDK по умолчанию.
func healthCheckPath(healthURL string) (string, error) {
	parsed, err := url.Parse(healthURL)
	if err != nil {
		return "", fmt.Errorf("некорректный URL health endpoint %q: %w", healthURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("неподдерживаемая схема URL health endpoint: %q", parsed.Scheme)
	}
	if parsed.Path == "" || parsed.Path == "/" {
		return "", nil
	}
	return parsed.Path, nil
}

// Start запускает периодическую проверку зависимости.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен", slog.String("dependency", ds.depName))
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — "<имя зависимости>:<host>:<port>", значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
