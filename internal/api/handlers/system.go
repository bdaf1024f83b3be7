// system.go — обработчик GET /api/v1/info (информация о конвертере).
// Публичный endpoint для мониторинга: версия, состояние шлюза допуска,
// заполненность временного хранилища, состояние зависимостей.
package handlers

import (
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bigkaa/goartstore/converter/internal/config"
	"github.com/bigkaa/goartstore/converter/internal/domain/throttle"
	"github.com/bigkaa/goartstore/converter/internal/storage/artifacts"
)

// DependencyHealth — источник состояния зависимостей (topologymetrics).
type DependencyHealth interface {
	Health() map[string]bool
}

// InfoResponse — ответ GET /api/v1/info.
type InfoResponse struct {
	Service      string          `json:"service"`
	ServiceID    string          `json:"service_id"`
	Version      string          `json:"version"`
	Status       string          `json:"status"`
	Uptime       string          `json:"uptime"`
	Admission    AdmissionInfo   `json:"admission"`
	Artifacts    ArtifactsInfo   `json:"artifacts"`
	Dependencies map[string]bool `json:"dependencies,omitempty"`
}

// AdmissionInfo — состояние шлюза допуска.
type AdmissionInfo struct {
	Throttled        bool   `json:"throttled"`
	Reason           string `json:"reason,omitempty"`
	Until            string `json:"until,omitempty"`
	MinutesRemaining int    `json:"minutes_remaining,omitempty"`
	LastSeverity     string `json:"last_severity,omitempty"`
}

// ArtifactsInfo — заполненность временного хранилища.
type ArtifactsInfo struct {
	Count      int    `json:"count"`
	Bytes      int64  `json:"bytes"`
	BytesHuman string `json:"bytes_human"`
	Retention  string `json:"retention"`
}

// SystemHandler — обработчик системных endpoints.
type SystemHandler struct {
	serviceID string
	gate      *throttle.Gate
	store     *artifacts.Store
	deps      DependencyHealth
	startedAt time.Time
	now       func() time.Time
}

// NewSystemHandler создаёт обработчик системных endpoints.
// deps — источник состояния зависимостей (nil, если мониторинг отключён).
func NewSystemHandler(
	serviceID string,
	gate *throttle.Gate,
	store *artifacts.Store,
	deps DependencyHealth,
) *SystemHandler {
	return &SystemHandler{
		serviceID: serviceID,
		gate:      gate,
		store:     store,
		deps:      deps,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// GetInfo обрабатывает GET /api/v1/info.
func (h *SystemHandler) GetInfo(w http.ResponseWriter, _ *http.Request) {
	now := h.now()

	admission := AdmissionInfo{LastSeverity: string(h.gate.LastSeverity())}
	status := "online"
	if d := h.gate.Admit(now); !d.Allowed {
		status = "throttled"
		st := h.gate.State()
		admission.Throttled = true
		admission.Reason = d.Reason
		admission.Until = st.Until.UTC().Format(time.RFC3339)
		admission.MinutesRemaining = d.MinutesRemaining
	}

	stats := h.store.Stats()
	resp := InfoResponse{
		Service:   serviceName,
		ServiceID: h.serviceID,
		Version:   config.Version,
		Status:    status,
		Uptime:    now.Sub(h.startedAt).Truncate(time.Second).String(),
		Admission: admission,
		Artifacts: ArtifactsInfo{
			Count:      stats.Count,
			Bytes:      stats.Bytes,
			BytesHuman: humanize.IBytes(uint64(stats.Bytes)),
			Retention:  h.store.Retention().String(),
		},
	}
	if h.deps != nil {
		resp.Dependencies = h.deps.Health()
	}

	writeJSON(w, http.StatusOK, resp)
}
