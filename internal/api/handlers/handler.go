// handler.go — APIHandler собирает доменные handler'ы и регистрирует
// их маршруты в chi-роутере.
package handlers

import (
	"github.com/go-chi/chi/v5"
)

// APIHandler — единая точка регистрации всех endpoints конвертера.
type APIHandler struct {
	convert *ConvertHandler
	formats *FormatsHandler
	system  *SystemHandler
	health  *HealthHandler
}

// NewAPIHandler создаёт единый handler для всех endpoints.
func NewAPIHandler(
	convert *ConvertHandler,
	formats *FormatsHandler,
	system *SystemHandler,
	health *HealthHandler,
) *APIHandler {
	return &APIHandler{
		convert: convert,
		formats: formats,
		system:  system,
		health:  health,
	}
}

// Register монтирует маршруты:
//
//	POST /api/v1/convert               — конвертация (multipart)
//	GET  /api/v1/convert/{downloadID}  — скачивание результата
//	GET  /api/v1/convert?id=           — скачивание (совместимая форма)
//	GET  /api/v1/formats               — справочник форматов и правил
//	GET  /api/v1/info                  — состояние сервиса
//	GET  /health/live, /health/ready   — Kubernetes probes
//	GET  /metrics                      — Prometheus
func (h *APIHandler) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/convert", h.convert.Convert)
		r.Get("/convert", h.convert.DownloadByQuery)
		r.Get("/convert/{downloadID}", h.convert.Download)
		r.Get("/formats", h.formats.GetFormats)
		r.Get("/info", h.system.GetInfo)
	})

	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)
}
