// Точка входа Converter — HTTP-сервиса конвертации файлов.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/goartstore/converter/internal/api/handlers"
	"github.com/bigkaa/goartstore/converter/internal/api/middleware"
	"github.com/bigkaa/goartstore/converter/internal/config"
	"github.com/bigkaa/goartstore/converter/internal/converter"
	"github.com/bigkaa/goartstore/converter/internal/domain/policy"
	"github.com/bigkaa/goartstore/converter/internal/domain/throttle"
	"github.com/bigkaa/goartstore/converter/internal/healthclient"
	"github.com/bigkaa/goartstore/converter/internal/metadata"
	"github.com/bigkaa/goartstore/converter/internal/server"
	"github.com/bigkaa/goartstore/converter/internal/service"
	"github.com/bigkaa/goartstore/converter/internal/storage/artifacts"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Converter запускается",
		slog.String("service_id", cfg.ServiceID),
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("default_format", cfg.DefaultFormat),
		slog.Int64("max_file_size", cfg.MaxFileSize),
	)

	// --- Инициализация компонентов ---

	// 1. Временное хранилище результатов
	store, err := artifacts.New(cfg.ArtifactRetention, cfg.ArtifactMaxItems, logger)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища артефактов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Шлюз допуска
	gate := throttle.New()

	// 3. Политика, стратегии, метаданные
	rules := policy.DefaultRules()
	registry := converter.DefaultRegistry()
	extractor := metadata.New(logger)

	// 4. Сервисы
	convertSvc := service.NewConvertService(
		gate,
		rules,
		registry,
		extractor,
		store,
		cfg.HandleStrategy,
		service.ConvertDefaults{
			Format:      cfg.DefaultFormat,
			Quality:     cfg.DefaultQuality,
			MaxFileSize: cfg.MaxFileSize,
		},
		logger,
	)
	downloadSvc := service.NewDownloadService(store, logger)

	// 5. Фоновые процессы
	ctx := context.Background()

	// 5.1 Опрос состояния системы
	var prober *service.HealthProber
	if cfg.HealthURL != "" {
		client, clientErr := healthclient.New(cfg.HealthURL, cfg.HealthTimeout, cfg.HealthCACert, logger)
		if clientErr != nil {
			logger.Error("Ошибка инициализации health-клиента", slog.String("error", clientErr.Error()))
			os.Exit(1)
		}
		prober = service.NewHealthProber(client, gate, cfg.HealthInterval, logger)
		prober.Start(ctx)
	} else {
		logger.Info("CV_HEALTH_URL не задан, шлюз допуска всегда открыт")
	}

	// 5.2 topologymetrics — мониторинг зависимостей
	var dephealthSvc *service.DephealthService
	var deps handlers.DependencyHealth
	if cfg.HealthURL != "" {
		name := dephealthName(cfg)
		svc, dephealthErr := service.NewDephealthService(service.DephealthOptions{
			Name:          name,
			Group:         cfg.DephealthGroup,
			DepName:       cfg.DephealthDepName,
			HealthURL:     cfg.HealthURL,
			CheckInterval: cfg.DephealthCheckInterval,
			TLSSkipVerify: cfg.DephealthTLSSkipVerify,
		}, logger)
		if dephealthErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dephealthErr.Error()),
			)
		} else if startErr := svc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			dephealthSvc = svc
			deps = svc
			logger.Info("topologymetrics запущен",
				slog.String("name", name),
				slog.String("health_url", cfg.HealthURL),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 6. Handlers
	apiHandler := handlers.NewAPIHandler(
		handlers.NewConvertHandler(convertSvc, downloadSvc, cfg.MaxFileSize, logger),
		handlers.NewFormatsHandler(rules, registry),
		handlers.NewSystemHandler(cfg.ServiceID, gate, store, deps),
		handlers.NewHealthHandler(gate),
	)

	// 7. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")

	if prober != nil {
		prober.Stop()
	}
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Converter остановлен")
}
