package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/openfroyo/intcode/pkg/intcode"
)

// Span attribute keys for runs.
var (
	AttrRunID       = attribute.Key("run.id")
	AttrRunKind     = attribute.Key("run.kind")
	AttrRunStatus   = attribute.Key("run.status")
	AttrRunResult   = attribute.Key("run.result")
	AttrProgramHash = attribute.Key("program.hash")
	AttrNetworkMode = attribute.Key("network.mode")
	AttrPhases      = attribute.Key("network.phases")
	AttrTrials      = attribute.Key("search.trials")
	AttrErrorCode   = attribute.Key("error.code")
	AttrFaultKind   = attribute.Key("fault.kind")
	AttrFaultIP     = attribute.Key("fault.ip")
)

// Tracer starts spans for runs. With exporter "none" it is a no-op.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracer builds a tracer for cfg and installs it as the global provider
// when spans are exported.
func NewTracer(cfg TraceConfig, serviceName, serviceVersion string) (*Tracer, error) {
	if !cfg.Enabled() {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer(serviceName)}, nil
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s trace exporter: %w", cfg.Exporter, err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
	}, nil
}

func newExporter(cfg TraceConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "stdout":
		// Spans go to stderr next to the logs.
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	case "otlp":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlptracegrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported exporter %q", cfg.Exporter)
	}
}

// StartSpan starts a span named operation.
func (t *Tracer) StartSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
}

// RecordError marks the span failed. Machine faults also set the fault
// kind and instruction pointer.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	if f, ok := intcode.AsFault(err); ok {
		span.SetAttributes(AttrFaultKind.String(string(f.Kind)), AttrFaultIP.Int(f.IP))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Shutdown flushes pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
