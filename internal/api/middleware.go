package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"regift/internal/logging"
	"regift/internal/services"
)

// requestLogger logs each request with method, path, status, duration, and
// size, and stamps chi's request id onto the context as the correlation id.
func requestLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			if id := middleware.GetReqID(ctx); id != "" {
				ctx = services.WithRequestID(ctx, id)
				r = r.WithContext(ctx)
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logging.WithContext(ctx, logger).Info("request",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", ww.Status()),
				logging.Int64("duration_ms", time.Since(start).Milliseconds()),
				logging.Int("size", ww.BytesWritten()),
			)
		})
	}
}
