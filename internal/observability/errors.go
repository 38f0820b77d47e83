package observability

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"keypad-calc/internal/handlers"
)

// Failure describes an error to record against the current request.
type Failure struct {
	Span      trace.Span
	Logger    *zap.Logger
	Counter   metric.Int64Counter
	Operation string
	Message   string
	Status    int
}

// RecordError centralises error handling across all domains: records err on
// the span, increments the failure counter, logs with trace context, and
// writes the JSON error response. The request id travels in the
// X-Request-ID header, not the body.
func RecordError(ctx context.Context, w http.ResponseWriter, f Failure, err error) {
	f.Span.RecordError(err)
	f.Span.SetStatus(codes.Error, f.Message)

	f.Counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", f.Operation),
		attribute.Int("status", f.Status),
	))

	log := f.Logger.Error
	if f.Status < http.StatusInternalServerError {
		log = f.Logger.Warn
	}
	log(f.Message,
		zap.String("operation", f.Operation),
		zap.Int("status", f.Status),
		zap.Error(err),
		zap.String("request_id", RequestIDFromContext(ctx)),
	)

	handlers.WriteError(w, f.Status, f.Message)
}
