// metrics.go — Prometheus HTTP метрики конвертера.
// Регистрирует метрики: cv_http_requests_total, cv_http_request_duration_seconds,
// cv_http_response_size_bytes. Бизнес-метрики (cv_conversions_total,
// cv_artifacts_stored и др.) регистрируются в соответствующих пакетах.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_http_requests_total",
			Help: "Общее количество HTTP-запросов к конвертеру",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cv_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к конвертеру в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpResponseSize — размер тел ответов (скачивания могут быть большими).
	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cv_http_response_size_bytes",
			Help:    "Размер тела HTTP-ответа в байтах",
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		},
		[]string{"path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов, длительность и размер ответа для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (заменяем download_id на {id} для предотвращения кардинальности)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
			httpResponseSize.WithLabelValues(normalizedPath).Observe(float64(wrapped.written))
		})
	}
}

// normalizePath заменяет download_id в пути на {id} и сводит неизвестные
// пути к "other" для предотвращения взрывного роста кардинальности метрик.
// /api/v1/convert/cmVwb3J0LnBkZg → /api/v1/convert/{id}
func normalizePath(path string) string {
	const convertPrefix = "/api/v1/convert/"

	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/info", "/api/v1/formats", "/api/v1/convert":
		return path
	}
	if rest, ok := strings.CutPrefix(path, convertPrefix); ok && rest != "" && !strings.Contains(rest, "/") {
		return convertPrefix + "{id}"
	}
	return "other"
}
