package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/intcode/pkg/config"
)

// DefaultConfigFile is written by init when no path is given.
const DefaultConfigFile = "intcode.yaml"

func newInitCommand() *cobra.Command {
	var (
		force   bool
		program string
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration and create the run history database",
		Long: `Write a configuration file populated with defaults and create the
SQLite run history database it points to.`,
		Example: `  # Write intcode.yaml in the current directory
  intcode init

  # Point the config at a program file
  intcode init --program day07.txt

  # Overwrite an existing file
  intcode init ./configs/intcode.yaml --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := DefaultConfigFile
			switch {
			case len(args) > 0:
				path = args[0]
			case configPath != "":
				path = configPath
			}

			if filepath.Ext(path) != ".yaml" && filepath.Ext(path) != ".yml" {
				return fmt.Errorf("init writes YAML: %s must end in .yaml or .yml", path)
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to stat %s: %w", path, err)
			}

			log.Info().Str("path", path).Msg("Initializing configuration")

			cfg := config.Default()
			cfg.Program = program

			data, err := config.Encode(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Wrote configuration: %s\n", path)

			// Store paths in the file are relative to the file.
			storePath := filepath.Join(filepath.Dir(path), cfg.Store.Path)
			store, err := openStore(cmd.Context(), storePath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.HealthCheck(cmd.Context()); err != nil {
				return fmt.Errorf("store health check failed: %w", err)
			}
			fmt.Fprintf(out, "✓ Initialized run history: %s\n", storePath)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	cmd.Flags().StringVarP(&program, "program", "p", "", "default program file")

	return cmd
}
