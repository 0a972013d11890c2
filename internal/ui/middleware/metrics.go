// metrics.go — Prometheus HTTP метрики консоли.
// Регистрирует метрики: ss_http_requests_total, ss_http_request_duration_seconds.
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
			Name: "ss_http_requests_total",
			Help: "Общее количество HTTP-запросов к консоли",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ss_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к консоли в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Metrics возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь, чтобы идентификаторы не раздували
			// кардинальность лейблов
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет идентификаторы в пути на {id}.
// /app/admin/users/42/documents/7/raw → /app/admin/users/{id}/documents/{id}/raw
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/", "/homeLogin", "/login", "/logout", "/register", "/registerAssociation",
		"/forgot-password", "/unauthorized", "/set-language",
		"/healthz", "/metrics",
		"/app/associations", "/app/admin/users", "/app/settings":
		return path
	}

	if strings.HasPrefix(path, "/static/") {
		return "/static/*"
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if i == 0 || seg == "" {
			continue
		}
		if isIdentifierSegment(segments, i) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// isIdentifierSegment определяет, является ли сегмент пути идентификатором:
// сегмент, следующий за известным коллекционным сегментом.
func isIdentifierSegment(segments []string, i int) bool {
	switch segments[i-1] {
	case "users", "associations", "documents":
		return true
	}
	return false
}
