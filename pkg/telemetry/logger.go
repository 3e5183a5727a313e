package telemetry

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/openfroyo/intcode/pkg/intcode"
)

// Logger is a zerolog logger carrying run, program and fault fields.
type Logger struct {
	zl     zerolog.Logger
	closer io.Closer
}

type loggerContextKey struct{}

// NewLogger creates a logger writing to cfg.Output. A file output is opened
// for append and released by Close.
func NewLogger(cfg LogConfig) (*Logger, error) {
	switch cfg.Output {
	case "", "stderr":
		return NewLoggerWithWriter(cfg, os.Stderr), nil
	case "stdout":
		return NewLoggerWithWriter(cfg, os.Stdout), nil
	}

	file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	l := NewLoggerWithWriter(cfg, file)
	l.closer = file
	return l, nil
}

// NewLoggerWithWriter creates a logger writing to w.
func NewLoggerWithWriter(cfg LogConfig, w io.Writer) *Logger {
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zctx := zerolog.New(w).Level(level).With().Timestamp()
	if cfg.Caller {
		zctx = zctx.Caller()
	}
	return &Logger{zl: zctx.Logger()}
}

// NopLogger returns a logger that discards everything.
func NopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Close releases the log file, if the logger owns one.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// WithContext stores the logger in ctx.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// FromContext returns the logger stored in ctx, or a NopLogger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(*Logger); ok {
		return l
	}
	return NopLogger()
}

// Zerolog exposes the underlying logger for libraries that take one.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

func (l *Logger) derive(zctx zerolog.Context) *Logger {
	return &Logger{zl: zctx.Logger(), closer: l.closer}
}

func (l *Logger) NewComponentLogger(component string) *Logger {
	return l.derive(l.zl.With().Str("component", component))
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.derive(l.zl.With().Interface(key, value))
}

func (l *Logger) WithRunID(runID string) *Logger {
	return l.derive(l.zl.With().Str("run_id", runID))
}

// WithProgram adds the first 12 hex digits of a program hash.
func (l *Logger) WithProgram(hash string) *Logger {
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return l.derive(l.zl.With().Str("program", hash))
}

func (l *Logger) WithPhases(phases []int64) *Logger {
	return l.derive(l.zl.With().Ints64("phases", phases))
}

// WithError adds err. Machine faults also get their kind, op and ip.
func (l *Logger) WithError(err error) *Logger {
	zctx := l.zl.With().Err(err)
	if f, ok := intcode.AsFault(err); ok {
		zctx = zctx.Str("fault", string(f.Kind)).Str("op", f.Op).Int("ip", f.IP)
	}
	return l.derive(zctx)
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }
