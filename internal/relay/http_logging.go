package relay

import (
	"net/http"
	"time"

	"nexus/internal/logging"
)

const requestIDHeader = "X-Request-Id"

// statusWriter remembers the status code and body size written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

// LoggingMiddleware tags every request with a request id, echoed back in the
// response, and logs one line per request. Server errors are logged at warn.
func LoggingMiddleware(logger logging.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = logging.NewRequestID()
		}
		w.Header().Set(requestIDHeader, reqID)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		fields := []logging.Field{
			logging.F("request_id", reqID),
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", sw.status),
			logging.F("bytes", sw.size),
			logging.F("latency_ms", time.Since(start).Milliseconds()),
		}
		if sw.status >= http.StatusInternalServerError {
			logger.Warn("relay_request", fields...)
			return
		}
		logger.Info("relay_request", fields...)
	})
}
