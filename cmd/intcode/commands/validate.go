package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/intcode/pkg/config"
	"github.com/openfroyo/intcode/pkg/engine"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "Validate a configuration file",
		Long: `Validate a YAML or CUE configuration file.

This command checks:
  - YAML syntax, or CUE syntax and schema conformance
  - Field constraints (modes, ranges, addresses)
  - That the configured program, if any, loads and parses`,
		Example: `  # Validate the file given with --config
  intcode validate -c intcode.yaml

  # Validate a CUE config
  intcode validate ./intcode.cue`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				path = DefaultConfigFile
			}

			log.Debug().Str("path", path).Msg("Validating configuration")

			out := cmd.OutOrStdout()
			cfg, err := config.NewLoader().Load(path)
			if err != nil {
				var verrs config.ValidationErrors
				if errors.As(err, &verrs) {
					if jsonOutput {
						_ = printJSON(out, verrs)
					} else {
						for _, ve := range verrs {
							fmt.Fprintf(out, "✗ %s\n", ve.Error())
						}
					}
					return fmt.Errorf("%s: %d validation error(s)", path, len(verrs))
				}
				return err
			}

			if cfg.Program != "" {
				program, err := engine.LoadProgram(cfg.Program)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Program %s: %d words\n", cfg.Program, len(program))
			}

			fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
			return nil
		},
	}

	return cmd
}
