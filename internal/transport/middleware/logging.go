package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/middleware"
)

// sensitiveFields never make it into the access log verbatim.
var sensitiveFields = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"credential",
}

// LoggingMiddleware emits one structured entry per request and one per
// response, with credentials and tokens masked.
func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := chimw.GetReqID(r.Context())

			var bodyBytes []byte
			if r.Body != nil {
				bodyBytes, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			}

			logger.Info("incoming request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"body", maskBody(bodyBytes),
			)

			ww := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(ww, r)

			status := ww.status
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "response",
				"request_id", reqID,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", ww.size,
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// maskBody replaces sensitive values in a JSON request body. Non-JSON
// bodies that mention a sensitive field are dropped entirely.
func maskBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		lower := strings.ToLower(string(body))
		for _, field := range sensitiveFields {
			if strings.Contains(lower, field) {
				return "[FILTERED]"
			}
		}
		return string(body)
	}

	for key := range data {
		lowerKey := strings.ToLower(key)
		for _, field := range sensitiveFields {
			if strings.Contains(lowerKey, field) {
				data[key] = "[FILTERED]"
				break
			}
		}
	}

	masked, err := json.Marshal(data)
	if err != nil {
		return "[FILTERED]"
	}
	return string(masked)
}
