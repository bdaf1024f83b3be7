// prober.go — фоновая проверка состояния системы для шлюза допуска.
//
// С периодом CV_HEALTH_INTERVAL опрашивает health endpoint и применяет
// полученный уровень к шлюзу: critical/warning/starting — блокировка,
// healthy — снятие блокировки. Ошибка опроса логируется, состояние
// шлюза при этом не меняется.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/converter/internal/domain/throttle"
)

// Prometheus метрики проверки состояния
var (
	// probesTotal — количество опросов health endpoint по результату.
	probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cv_health_probes_total",
		Help: "Общее количество опросов health endpoint",
	}, []string{"result"})

	// gateThrottled — 1, если шлюз допуска заблокирован.
	gateThrottled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cv_gate_throttled",
		Help: "Состояние шлюза допуска (1 — конвертации отклоняются)",
	})
)

// StatusSource — источник уровня состояния системы.
type StatusSource interface {
	Status(ctx context.Context) (throttle.Severity, error)
}

// HealthProber — сервис периодической проверки состояния системы.
type HealthProber struct {
	source   StatusSource
	gate     *throttle.Gate
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu     sync.Mutex // защита от параллельного запуска RunOnce
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHealthProber создаёт сервис проверки состояния.
func NewHealthProber(
	source StatusSource,
	gate *throttle.Gate,
	interval time.Duration,
	logger *slog.Logger,
) *HealthProber {
	return &HealthProber{
		source:   source,
		gate:     gate,
		interval: interval,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "health_prober")),
	}
}

// Start запускает фоновую горутину опроса с периодическим тикером.
// Вызывается один раз при старте приложения.
func (p *HealthProber) Start(ctx context.Context) {
	probeCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(probeCtx)

	p.logger.Info("Проверка состояния системы запущена",
		slog.String("interval", p.interval.String()),
	)
}

// Stop останавливает фоновый опрос и дожидается завершения горутины.
func (p *HealthProber) Stop() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}
	p.logger.Info("Проверка состояния системы остановлена")
}

// run — основной цикл фоновой горутины.
func (p *HealthProber) run(ctx context.Context) {
	defer close(p.done)

	// Первый опрос — сразу после старта
	_ = p.RunOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один опрос и применяет результат к шлюзу.
// Потокобезопасен: использует mutex для защиты от параллельного запуска.
func (p *HealthProber) RunOnce(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	severity, err := p.source.Status(ctx)
	if err != nil {
		probesTotal.WithLabelValues("error").Inc()
		p.logger.Warn("Опрос health endpoint не удался, состояние шлюза не изменено",
			slog.String("error", err.Error()),
		)
		return err
	}

	if err := p.gate.Apply(severity, p.now()); err != nil {
		probesTotal.WithLabelValues("unknown").Inc()
		p.logger.Warn("Неизвестный уровень состояния, блокировка снята",
			slog.String("severity", string(severity)),
			slog.String("error", err.Error()),
		)
	} else {
		probesTotal.WithLabelValues(string(severity)).Inc()
	}

	st := p.gate.State()
	if st.Active {
		gateThrottled.Set(1)
		p.logger.Warn("Шлюз допуска заблокирован",
			slog.String("severity", string(severity)),
			slog.String("reason", st.Reason),
			slog.Time("until", st.Until),
		)
	} else {
		gateThrottled.Set(0)
		p.logger.Debug("Система в норме", slog.String("severity", string(severity)))
	}

	return nil
}
