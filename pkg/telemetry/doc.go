// Package telemetry provides logging, tracing and metrics for the intcode
// toolchain.
//
// Logs are written with zerolog. Spans go through OpenTelemetry to a stdout
// or OTLP exporter, and metrics live on a private Prometheus registry.
//
// # Usage
//
//	cfg := telemetry.DefaultConfig()
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//	telemetry.FromContext(ctx).WithRunID(id).Info("run started")
//
// Code that receives a context without telemetry still works: FromContext
// returns a logger that discards output and StartOperation skips tracing.
//
// # Metrics
//
//	intcode_runs_completed_total{kind,status}
//	intcode_run_duration_seconds{kind}
//	intcode_trials_total{kind}
//	intcode_instructions_executed_total{kind}
//	intcode_faults_total{fault}
package telemetry
