package config

// configSchema constrains .cue configuration files before decoding.
// Absent fields keep their defaults.
const configSchema = `
#Config: {
	program?: string

	amplifier?: {
		mode?:        "series" | "feedback"
		phases?:      [...int]
		parallelism?: int & >=0
	}

	sweep?: {
		target?:      int
		noun_min?:    int & >=0
		noun_max?:    int & >=0
		verb_min?:    int & >=0
		verb_max?:    int & >=0
		noun_addr?:   int & >=0
		verb_addr?:   int & >=0
		result_addr?: int & >=0
	}

	script?: {
		timeout?: string
	}

	store?: {
		enabled?: bool
		path?:    string
	}

	telemetry?: {
		log_level?:       "trace" | "debug" | "info" | "warn" | "error" | "fatal"
		log_format?:      "console" | "json"
		metrics_enabled?: bool
		metrics_address?: string
		tracing_enabled?: bool
		trace_exporter?:  "none" | "stdout" | "otlp"
		trace_endpoint?:  string
	}
}
`
