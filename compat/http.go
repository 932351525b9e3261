// FILE: lixenwraith/logship/compat/http.go
package compat

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
)

// Access log record shape
const (
	accessLogMessage = "request completed"
	accessLogMarker  = "http_request"
)

// HTTPAccessLog returns net/http middleware emitting one INFO record per completed request.
// It fits chi's router.Use.
func HTTPAccessLog(logger InfoLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// Nothing written, net/http replies 200
				status = http.StatusOK
			}
			logAccess(logger, r.Method, r.URL.Path, status, time.Since(start))
		})
	}
}

// logAccess emits the access record, durationMs is float milliseconds
func logAccess(logger InfoLogger, method, path string, status int, elapsed time.Duration) {
	logger.Info(accessLogMessage,
		"marker", accessLogMarker,
		"method", method,
		"path", path,
		"status", status,
		"durationMs", float64(elapsed)/float64(time.Millisecond),
	)
}
