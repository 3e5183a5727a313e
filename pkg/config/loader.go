package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("unsupported config format %q (use .yaml, .yml or .cue)", filepath.Ext(path))
	}
}

// Loader reads configuration files.
type Loader struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewLoader creates a new loader.
func NewLoader() *Loader {
	ctx := cuecontext.New()
	schema := ctx.CompileString(configSchema, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Config"))
	return &Loader{
		ctx:    ctx,
		schema: schema,
	}
}

// Load reads, decodes and validates a configuration file. Fields absent
// from the file keep their defaults.
func (l *Loader) Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := l.LoadBytes(data, format, path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	cfg.Program = resolvePath(dir, cfg.Program)
	if cfg.Store.Path != ":memory:" {
		cfg.Store.Path = resolvePath(dir, cfg.Store.Path)
	}
	return cfg, nil
}

// resolvePath resolves a relative path against dir.
func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// LoadBytes decodes and validates configuration content. filename is used
// in error positions only.
func (l *Loader) LoadBytes(data []byte, format Format, filename string) (*Config, error) {
	cfg := Default()

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case FormatCUE:
		if err := l.decodeCUE(data, filename, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	if err := cfg.Validate(); err != nil {
		if errs, ok := err.(ValidationErrors); ok {
			for i := range errs {
				errs[i].File = filename
			}
			return nil, errs
		}
		return nil, err
	}
	return cfg, nil
}

// decodeCUE unifies the source with the schema and decodes the concrete
// result onto cfg.
func (l *Loader) decodeCUE(data []byte, filename string, cfg *Config) error {
	val := l.ctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return convertCUEErrors(err)
	}

	unified := l.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return convertCUEErrors(err)
	}

	// CUE exports JSON, which yaml.v3 decodes onto the defaults.
	exported, err := unified.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to export CUE config: %w", err)
	}
	if err := yaml.Unmarshal(exported, cfg); err != nil {
		return fmt.Errorf("failed to decode CUE config: %w", err)
	}
	return nil
}

// Encode renders cfg as YAML.
func Encode(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// convertCUEErrors converts CUE errors to ValidationErrors.
func convertCUEErrors(err error) ValidationErrors {
	var errs ValidationErrors
	for _, e := range cueerrors.Errors(err) {
		ve := ValidationError{
			Path:    strings.Join(e.Path(), "."),
			Message: cueerrors.Details(e, nil),
		}
		if pos := cueerrors.Positions(e); len(pos) > 0 {
			ve.File = pos[0].Filename()
			ve.Line = pos[0].Line()
			ve.Column = pos[0].Column()
		}
		errs = append(errs, ve)
	}
	return errs
}
