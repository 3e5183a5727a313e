package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Telemetry bundles the logger, tracer and metrics of one process.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Config  *Config

	server *http.Server
}

type telemetryContextKey struct{}

// NewTelemetry validates cfg and builds every component.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	tracer, err := NewTracer(cfg.Trace, cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: NewMetrics(cfg.Metrics),
		Config:  cfg,
	}, nil
}

// WithContext stores t and its logger in ctx.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	return t.Logger.WithContext(ctx)
}

// FromTelemetryContext returns the Telemetry stored in ctx, or nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	t, _ := ctx.Value(telemetryContextKey{}).(*Telemetry)
	return t
}

// StartMetricsServer serves /metrics when an address is configured.
func (t *Telemetry) StartMetricsServer() {
	t.server = t.Metrics.Serve(t.Logger)
}

// Shutdown stops the metrics server, flushes spans and closes the log file.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.server != nil {
		errs = append(errs, t.server.Shutdown(ctx))
	}
	errs = append(errs, t.Tracer.Shutdown(ctx), t.Logger.Close())
	return errors.Join(errs...)
}

// Operation is a traced and logged unit of work, such as one run.
// Span is never nil.
type Operation struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger

	start time.Time
}

var noopTracer = noop.NewTracerProvider().Tracer("")

// StartOperation opens a span named name. Without Telemetry in ctx the span
// is a no-op and the logger is whatever FromContext returns.
func StartOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) *Operation {
	logger := FromContext(ctx)

	tel := FromTelemetryContext(ctx)
	if tel == nil {
		_, span := noopTracer.Start(ctx, name)
		return &Operation{Ctx: ctx, Span: span, Logger: logger, start: time.Now()}
	}

	ctx, span := tel.Tracer.StartSpan(ctx, name, attrs...)
	logger = logger.WithField("operation", name)
	if sc := span.SpanContext(); sc.IsValid() {
		logger = logger.WithField("trace_id", sc.TraceID().String())
	}

	return &Operation{
		Ctx:    logger.WithContext(ctx),
		Span:   span,
		Logger: logger,
		start:  time.Now(),
	}
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed() time.Duration {
	return time.Since(op.start)
}

// End closes the span, marking it failed when err is non-nil.
func (op *Operation) End(err error) {
	if err != nil {
		RecordError(op.Span, err)
	} else {
		op.Span.SetStatus(codes.Ok, "")
	}
	op.Span.End()
}
