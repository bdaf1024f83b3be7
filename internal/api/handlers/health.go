// health.go — обработчики health endpoints конвертера.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (шлюз допуска открыт)
// /metrics — Prometheus метрики
package handlers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/goartstore/converter/internal/config"
	"github.com/bigkaa/goartstore/converter/internal/domain/throttle"
)

// Константы статусов health check.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

// serviceName — имя сервиса в ответах health и info.
const serviceName = "converter"

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	gate        *throttle.Gate
	now         func() time.Time
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
func NewHealthHandler(gate *throttle.Gate) *HealthHandler {
	return &HealthHandler{
		gate:        gate,
		now:         time.Now,
		promHandler: promhttp.Handler(),
	}
}

// healthCheckResult — результат одной проверки.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		Admission healthCheckResult `json:"admission"`
	} `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    statusOK,
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady — readiness probe. Пока шлюз допуска заблокирован,
// возвращает 503 со статусом degraded: новые конвертации отклоняются.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	resp := healthReadyResponse{
		Status:    statusOK,
		Timestamp: now.UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}
	resp.Checks.Admission = healthCheckResult{Status: statusOK}

	status := http.StatusOK
	if d := h.gate.Admit(now); !d.Allowed {
		resp.Status = statusDegraded
		resp.Checks.Admission = healthCheckResult{
			Status:  statusDegraded,
			Message: d.Reason,
		}
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
