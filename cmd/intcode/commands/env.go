package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openfroyo/intcode/pkg/config"
	"github.com/openfroyo/intcode/pkg/engine"
	"github.com/openfroyo/intcode/pkg/stores"
	"github.com/openfroyo/intcode/pkg/telemetry"
)

// environment holds what a command needs to execute runs.
type environment struct {
	ctx       context.Context
	cfg       *config.Config
	telemetry *telemetry.Telemetry
	logger    *telemetry.Logger
	store     *stores.SQLiteStore
	runner    *engine.Runner
}

// loadConfig loads --config, or the defaults when none is given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.NewLoader().Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	return cfg, nil
}

func newEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.Telemetry.LogLevel = "debug"
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	tel, err := telemetry.NewTelemetry(cfg.TelemetryConfig(version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	tel.StartMetricsServer()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env := &environment{
		ctx:       tel.WithContext(ctx),
		cfg:       cfg,
		telemetry: tel,
		logger:    tel.Logger.NewComponentLogger("cli"),
	}

	var recorder engine.Recorder
	if cfg.Store.Enabled {
		store, err := openStore(env.ctx, cfg.Store.Path)
		if err != nil {
			env.close()
			return nil, err
		}
		env.store = store
		recorder = stores.NewRecorder(store)
	}

	env.runner = engine.NewRunner(cfg.Amplifier.Parallelism, recorder, tel.Metrics)
	return env, nil
}

// openStore opens and migrates the run history database.
func openStore(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func (e *environment) close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.WithError(err).Warn("failed to close store")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.telemetry.Shutdown(ctx); err != nil {
		e.logger.WithError(err).Warn("failed to shut down telemetry")
	}
}

// programPath picks the program argument, falling back to the config.
func programPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Program != "" {
		return cfg.Program, nil
	}
	return "", errors.New("no program given: pass a path or set program in the config")
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinInt64s(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}
