// logging.go — структурное логирование HTTP-запросов.
// Каждому запросу присваивается UUID, доступный обработчикам через контекст.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// ContextKeyRequestID — идентификатор запроса в контексте.
	ContextKeyRequestID contextKey = "request_id"
)

// RequestLogger возвращает middleware структурного логирования запросов.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()

			ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestID)
			wrapped := newMetricsResponseWriter(w)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			log.Info("HTTP-запрос",
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// RequestIDFromContext извлекает идентификатор запроса из контекста.
// Возвращает пустую строку, если запрос не прошёл через RequestLogger.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}
