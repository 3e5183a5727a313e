package config

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/openfroyo/intcode/pkg/engine"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPath string
	}{
		{name: "bad mode", mutate: func(c *Config) { c.Amplifier.Mode = "ring" }, wantPath: "amplifier.mode"},
		{name: "duplicate phases", mutate: func(c *Config) { c.Amplifier.Phases = []int64{1, 1} }, wantPath: "amplifier.phases"},
		{name: "too many phases", mutate: func(c *Config) { c.Amplifier.Phases = []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9} }, wantPath: "amplifier.phases"},
		{name: "negative parallelism", mutate: func(c *Config) { c.Amplifier.Parallelism = -1 }, wantPath: "amplifier.parallelism"},
		{name: "inverted noun range", mutate: func(c *Config) { c.Sweep.NounMin, c.Sweep.NounMax = 10, 5 }, wantPath: "sweep.noun_max"},
		{name: "same addresses", mutate: func(c *Config) { c.Sweep.VerbAddr = c.Sweep.NounAddr }, wantPath: "sweep.verb_addr"},
		{name: "zero timeout", mutate: func(c *Config) { c.Script.Timeout = 0 }, wantPath: "script.timeout"},
		{name: "store without path", mutate: func(c *Config) { c.Store.Path = "" }, wantPath: "store.path"},
		{name: "otlp without endpoint", mutate: func(c *Config) { c.Telemetry.TraceExporter = "otlp" }, wantPath: "telemetry.trace_endpoint"},
		{name: "bad log level", mutate: func(c *Config) { c.Telemetry.LogLevel = "chatty" }, wantPath: "telemetry.log_level"},
		{name: "bad metrics address", mutate: func(c *Config) { c.Telemetry.MetricsAddress = "nowhere" }, wantPath: "telemetry.metrics_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var errs ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("Validate() error = %v, want ValidationErrors", err)
			}

			found := false
			for _, e := range errs {
				if e.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() error = %v, want path %s", err, tt.wantPath)
			}
		})
	}
}

func TestStoreDisabledNeedsNoPath(t *testing.T) {
	cfg := Default()
	cfg.Store.Enabled = false
	cfg.Store.Path = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfigConversions(t *testing.T) {
	cfg := Default()

	if got := cfg.Phases(); !reflect.DeepEqual(got, []int64{0, 1, 2, 3, 4}) {
		t.Errorf("Phases() = %v", got)
	}
	cfg.Amplifier.Mode = "feedback"
	if got := cfg.Phases(); !reflect.DeepEqual(got, []int64{5, 6, 7, 8, 9}) {
		t.Errorf("Phases() = %v", got)
	}
	cfg.Amplifier.Phases = []int64{3, 1}
	if got := cfg.Phases(); !reflect.DeepEqual(got, []int64{3, 1}) {
		t.Errorf("Phases() = %v", got)
	}
	if cfg.NetworkMode() != engine.NetworkFeedback {
		t.Errorf("NetworkMode() = %s", cfg.NetworkMode())
	}

	if got := cfg.SweepSpec(); got != engine.DefaultSweepSpec(19690720) {
		t.Errorf("SweepSpec() = %+v", got)
	}

	cfg.Telemetry.LogFormat = "json"
	tel := cfg.TelemetryConfig("1.2.3")
	if tel.ServiceVersion != "1.2.3" || tel.Log.Format != "json" {
		t.Errorf("TelemetryConfig() = %+v", tel)
	}
	if err := tel.Validate(); err != nil {
		t.Errorf("TelemetryConfig().Validate() error = %v", err)
	}
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{File: "a.cue", Line: 3, Column: 7, Path: "amplifier.mode", Message: "bad"}
	if got := e.Error(); got != "a.cue:3:7: amplifier.mode: bad" {
		t.Errorf("Error() = %q", got)
	}

	errs := ValidationErrors{{Message: "one"}, {Message: "two"}}
	if got := errs.Error(); !strings.Contains(got, "one; two") {
		t.Errorf("Error() = %q", got)
	}
}
