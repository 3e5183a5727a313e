package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/openfroyo/intcode/pkg/engine"
	"github.com/openfroyo/intcode/pkg/telemetry"
)

// Config is the complete tool configuration.
type Config struct {
	// Program is the default program file. Relative paths are resolved
	// against the directory of the configuration file.
	Program string `yaml:"program,omitempty" json:"program,omitempty"`

	Amplifier AmplifierConfig `yaml:"amplifier" json:"amplifier"`
	Sweep     SweepConfig     `yaml:"sweep" json:"sweep"`
	Script    ScriptConfig    `yaml:"script" json:"script"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

// AmplifierConfig configures amplifier networks and phase searches.
type AmplifierConfig struct {
	// Mode is the network mode (series, feedback).
	Mode string `yaml:"mode" json:"mode" validate:"oneof=series feedback"`

	// Phases overrides the default phase set for the mode.
	Phases []int64 `yaml:"phases,omitempty" json:"phases,omitempty" validate:"omitempty,unique,max=9"`

	// Parallelism bounds concurrent trials. Zero uses the number of CPUs.
	Parallelism int `yaml:"parallelism" json:"parallelism" validate:"gte=0"`
}

// SweepConfig configures noun/verb sweeps.
type SweepConfig struct {
	Target     int64 `yaml:"target" json:"target"`
	NounMin    int64 `yaml:"noun_min" json:"noun_min" validate:"gte=0"`
	NounMax    int64 `yaml:"noun_max" json:"noun_max" validate:"gtefield=NounMin"`
	VerbMin    int64 `yaml:"verb_min" json:"verb_min" validate:"gte=0"`
	VerbMax    int64 `yaml:"verb_max" json:"verb_max" validate:"gtefield=VerbMin"`
	NounAddr   int   `yaml:"noun_addr" json:"noun_addr" validate:"gte=0"`
	VerbAddr   int   `yaml:"verb_addr" json:"verb_addr" validate:"gte=0,nefield=NounAddr"`
	ResultAddr int   `yaml:"result_addr" json:"result_addr" validate:"gte=0"`
}

// ScriptConfig configures the Starlark script runner.
type ScriptConfig struct {
	// Timeout bounds a single script execution.
	Timeout time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	// Enabled controls whether runs are recorded.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Path is the SQLite database file.
	Path string `yaml:"path" json:"path" validate:"required_if=Enabled true"`
}

// TelemetryConfig configures logging, metrics and tracing.
type TelemetryConfig struct {
	LogLevel       string `yaml:"log_level" json:"log_level" validate:"oneof=trace debug info warn error fatal"`
	LogFormat      string `yaml:"log_format" json:"log_format" validate:"oneof=console json"`
	MetricsEnabled bool   `yaml:"metrics_enabled" json:"metrics_enabled"`
	MetricsAddress string `yaml:"metrics_address,omitempty" json:"metrics_address,omitempty" validate:"omitempty,hostname_port"`
	TracingEnabled bool   `yaml:"tracing_enabled" json:"tracing_enabled"`
	TraceExporter  string `yaml:"trace_exporter" json:"trace_exporter" validate:"oneof=none stdout otlp"`
	TraceEndpoint  string `yaml:"trace_endpoint,omitempty" json:"trace_endpoint,omitempty" validate:"required_if=TraceExporter otlp"`
}

// ValidationError represents a configuration problem with its location.
type ValidationError struct {
	// File is the source file path.
	File string `json:"file,omitempty"`

	// Line is the line number (1-indexed).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-indexed).
	Column int `json:"column,omitempty"`

	// Path is the field path (e.g., "amplifier.mode").
	Path string `json:"path,omitempty"`

	// Message is the error message.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", e.Line, e.Column)
		}
		b.WriteString(": ")
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// ValidationErrors is a list of configuration problems.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Amplifier: AmplifierConfig{
			Mode: string(engine.NetworkSeries),
		},
		Sweep: SweepConfig{
			Target:     19690720,
			NounMin:    0,
			NounMax:    99,
			VerbMin:    0,
			VerbMax:    99,
			NounAddr:   1,
			VerbAddr:   2,
			ResultAddr: 0,
		},
		Script: ScriptConfig{
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    "intcode.db",
		},
		Telemetry: TelemetryConfig{
			LogLevel:       "info",
			LogFormat:      "console",
			MetricsEnabled: false,
			TraceExporter:  "none",
		},
	}
}

var validate = validator.New()

// Validate checks struct constraints and returns ValidationErrors on failure.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Path:    fieldPath(fe.Namespace()),
			Message: describe(fe),
		})
	}
	return errs
}

// NetworkMode returns the configured amplifier mode.
func (c *Config) NetworkMode() engine.NetworkMode {
	return engine.NetworkMode(c.Amplifier.Mode)
}

// Phases returns the configured phases, or the default set for the mode.
func (c *Config) Phases() []int64 {
	if len(c.Amplifier.Phases) > 0 {
		return append([]int64(nil), c.Amplifier.Phases...)
	}
	return engine.DefaultPhases(c.NetworkMode())
}

// SweepSpec converts the sweep section to an engine.SweepSpec.
func (c *Config) SweepSpec() engine.SweepSpec {
	return engine.SweepSpec{
		Target:     c.Sweep.Target,
		NounMin:    c.Sweep.NounMin,
		NounMax:    c.Sweep.NounMax,
		VerbMin:    c.Sweep.VerbMin,
		VerbMax:    c.Sweep.VerbMax,
		NounAddr:   c.Sweep.NounAddr,
		VerbAddr:   c.Sweep.VerbAddr,
		ResultAddr: c.Sweep.ResultAddr,
	}
}

// TelemetryConfig converts the telemetry section to a telemetry.Config.
func (c *Config) TelemetryConfig(version string) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Log.Level = c.Telemetry.LogLevel
	cfg.Log.Format = c.Telemetry.LogFormat
	cfg.Metrics.Enabled = c.Telemetry.MetricsEnabled
	cfg.Metrics.Address = c.Telemetry.MetricsAddress
	cfg.Trace.Exporter = "none"
	if c.Telemetry.TracingEnabled {
		cfg.Trace.Exporter = c.Telemetry.TraceExporter
		cfg.Trace.Endpoint = c.Telemetry.TraceEndpoint
	}
	return cfg
}

// fieldPath converts "Config.Amplifier.Mode" to "amplifier.mode".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = toSnake(p)
	}
	return strings.Join(parts, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "required_if":
		return "is required"
	case "gtefield":
		return fmt.Sprintf("must be >= %s", toSnake(fe.Param()))
	case "nefield":
		return fmt.Sprintf("must differ from %s", toSnake(fe.Param()))
	case "unique":
		return "must not contain duplicates"
	case "max":
		return fmt.Sprintf("must have at most %s entries", fe.Param())
	default:
		return fmt.Sprintf("failed %q constraint (%s)", fe.Tag(), fe.Param())
	}
}
