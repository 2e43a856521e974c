package log

import (
	"context"
	"log/slog"
	"net/http"
)

// StructuredLogger emits the handful of events every component logs the
// same way, so dashboards can key on fixed field sets.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LevelForStatus maps an HTTP status to the level its completion is logged at.
func LevelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// LogHTTPEnd logs the completion of an HTTP request.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.logger.Logger.Log(ctx, LevelForStatus(statusCode), "HTTP request completed", fields.ToSlice()...)
}

// LogReport logs a generated dashboard report.
func (sl *StructuredLogger) LogReport(ctx context.Context, period string, transactions, insights int, cacheHit bool) {
	fields := NewFields().
		WithReport(period, transactions, insights, cacheHit).
		WithOperation(OpReport).
		WithComponent(ComponentService)

	sl.logger.Logger.InfoContext(ctx, "Report generated", fields.ToSlice()...)
}

// LogRefresh logs the outcome of one worker refresh. trigger names what
// asked for it: a message id or "ticker".
func (sl *StructuredLogger) LogRefresh(ctx context.Context, trigger, period string, insights int, err error) {
	fields := NewFields().
		WithOperation(OpRefresh).
		WithComponent(ComponentWorker)
	fields[FieldPeriod] = period
	fields["trigger"] = trigger

	if err != nil {
		sl.logger.Logger.ErrorContext(ctx, "Refresh failed", fields.WithError(err).ToSlice()...)
		return
	}
	fields[FieldInsightCount] = insights
	sl.logger.Logger.InfoContext(ctx, "Refresh completed", fields.ToSlice()...)
}

// LogError logs err with its component and operation.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	all := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.ErrorContext(ctx, msg, all.ToSlice()...)
}
