package middle

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mstgnz/gocomgate/infra/logger"
)

// RequestLoggingMiddleware writes one structured entry per request.
// Server errors are logged as warnings, everything else at debug.
func RequestLoggingMiddleware(log *logger.SystemLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			ctx := logger.LogContext{
				RequestID: requestID(r),
				Fields: map[string]any{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      status,
					"bytes":       ww.BytesWritten(),
					"duration_ms": time.Since(start).Milliseconds(),
					"client_ip":   GetClientIP(r),
				},
			}

			if status >= http.StatusInternalServerError {
				log.Warn("request failed", ctx)
				return
			}
			log.Debug("request served", ctx)
		})
	}
}
