package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Telemetry bundles a Logger, Tracer and Metrics collector built from one
// Config. It is the value placed in the engine's service registry.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Config  *Config
}

type telemetryContextKey struct{}

// NewTelemetry builds a Telemetry instance from cfg.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}
	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	return &Telemetry{Logger: logger, Tracer: tracer, Metrics: metrics, Config: cfg}, nil
}

// WithContext stores t (and its logger) in ctx.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	return t.Logger.WithContext(ctx)
}

// FromTelemetryContext retrieves the Telemetry instance stored in ctx, or
// nil if none was stored.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return nil
}

// Shutdown gracefully shuts down the tracer.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.Tracer.Shutdown(ctx)
}

// OperationSpan bundles the span, logger and timer instrumenting one
// operation's lifecycle, returned by StartOperation.
type OperationSpan struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger
	Timer  *Timer
}

// StartOperation begins instrumented tracking of one engine operation:
// a trace span, a logger carrying the operation's id/name, and a timer.
// If ctx carries no Telemetry, it degrades to a bare logger+timer.
func StartOperation(ctx context.Context, operationID, name string) *OperationSpan {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return &OperationSpan{Ctx: ctx, Logger: FromContext(ctx).WithOperationID(operationID), Timer: NewTimer()}
	}

	spanCtx, span := tel.Tracer.StartOperationSpan(ctx, operationID, name)
	logger := tel.Logger.WithOperationID(operationID).WithField("operation_name", name)
	spanCtx = logger.WithContext(spanCtx)

	tel.Metrics.RecordOperationEnqueued(name)

	return &OperationSpan{Ctx: spanCtx, Span: span, Logger: logger, Timer: NewTimer()}
}

// End finishes the instrumented operation, recording its outcome.
func (os *OperationSpan) End(name string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	if os.Span != nil {
		if err != nil {
			RecordError(os.Span, err)
		} else {
			RecordSuccess(os.Span)
		}
		os.Span.End()
	}
	if tel := FromTelemetryContext(os.Ctx); tel != nil {
		tel.Metrics.RecordOperationFinished(name, status, os.Timer.Duration())
	}
}

// RecordDriverCall instruments one process-driver call with a span and
// metrics, in the style of the teacher's RecordProviderOperation helper.
func RecordDriverCall(ctx context.Context, driver, operation string, fn func() error) error {
	tel := FromTelemetryContext(ctx)

	var span trace.Span
	if tel != nil {
		ctx, span = tel.Tracer.StartDriverSpan(ctx, driver, operation)
		defer span.End()
	}

	timer := NewTimer()
	err := fn()

	if tel != nil {
		tel.Metrics.RecordDriverCall(driver, operation, timer.Duration())
		if err != nil {
			tel.Metrics.RecordDriverError(driver, operation)
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
	}

	return err
}
