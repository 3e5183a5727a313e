package telemetry

import (
	"errors"
	"fmt"
)

// Config selects where logs, spans and metrics of the toolchain go.
type Config struct {
	ServiceName    string
	ServiceVersion string

	Log     LogConfig
	Trace   TraceConfig
	Metrics MetricsConfig
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	// Level is a zerolog level name (trace, debug, info, warn, error, fatal).
	Level string

	// Format is console or json.
	Format string

	// Output is stderr, stdout or a file path. Results are printed on
	// stdout, so logs default to stderr.
	Output string

	Caller bool
}

// TraceConfig configures span export. Exporter "none" disables tracing.
type TraceConfig struct {
	Exporter    string
	Endpoint    string
	SampleRatio float64
	Insecure    bool
}

// Enabled reports whether spans are exported.
func (c TraceConfig) Enabled() bool {
	return c.Exporter != "" && c.Exporter != "none"
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Enabled bool

	// Address is the host:port serving /metrics. Empty collects without serving.
	Address string

	Namespace string

	// Buckets are run duration buckets in seconds.
	Buckets []float64
}

// DefaultConfig returns console logging at info level on stderr, no span
// export and an unserved metrics registry.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "intcode",
		ServiceVersion: "dev",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Trace: TraceConfig{
			Exporter:    "none",
			SampleRatio: 1.0,
			Insecure:    true,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "intcode",
			// A diagnostic run takes microseconds, a 10^4 trial sweep seconds.
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
	}
}

var (
	logLevels = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true}
	exporters = map[string]bool{"none": true, "stdout": true, "otlp": true}
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.ServiceName == "" {
		errs = append(errs, errors.New("service name is required"))
	}
	if !logLevels[c.Log.Level] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("invalid log format %q (console or json)", c.Log.Format))
	}
	if !exporters[c.Trace.Exporter] {
		errs = append(errs, fmt.Errorf("invalid trace exporter %q", c.Trace.Exporter))
	}
	if c.Trace.Exporter == "otlp" && c.Trace.Endpoint == "" {
		errs = append(errs, errors.New("otlp exporter needs an endpoint"))
	}
	if c.Trace.SampleRatio < 0 || c.Trace.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("trace sample ratio %v outside [0, 1]", c.Trace.SampleRatio))
	}
	return errors.Join(errs...)
}
