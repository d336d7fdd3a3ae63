package log

import (
	"time"

	"go.uber.org/zap"
)

// HTTPLogEntry describes one served HTTP request.
type HTTPLogEntry struct {
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int
	RemoteAddr string
	UserAgent  string
	Problem    string
}

// LogHTTPRequest writes an access log line for a served request. Server
// errors are logged at error level.
func LogHTTPRequest(logger *zap.SugaredLogger, e HTTPLogEntry) {
	if logger == nil {
		logger = GetSugaredLogger()
	}
	fields := []any{
		"method", e.Method,
		"path", e.Path,
		"status", e.Status,
		"duration_ms", e.Duration.Milliseconds(),
		"size", e.Size,
		"remote_addr", e.RemoteAddr,
		"user_agent", e.UserAgent,
	}
	if e.Problem != "" {
		fields = append(fields, "problem", e.Problem)
	}
	if e.Status >= 500 {
		logger.Errorw("http request", fields...)
		return
	}
	logger.Infow("http request", fields...)
}
