// Package config loads the repository and logging configuration.
//
// A config file is YAML. Before parsing, a .env file in the working
// directory is loaded into the environment (if present) and ${VAR}
// references in the file are expanded. The result is checked against an
// embedded CUE schema, then defaults are applied.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/jsondocs/internal/datasource"
	"github.com/roach88/jsondocs/internal/docstore"
)

//go:embed schema.cue
var schemaSource string

// DefaultRepository is the repository used when none is named.
const DefaultRepository = "default"

// DefaultSQLitePath backs the built-in configuration used without a file.
const DefaultSQLitePath = "jsondocs.db"

// ErrUnknownRepository is returned by Config.Repository for a missing name.
var ErrUnknownRepository = errors.New("unknown repository")

// Config is the decoded configuration file.
type Config struct {
	Repositories []Repository `yaml:"repositories"`
	Log          Log          `yaml:"log"`
}

// Repository describes one named document repository.
type Repository struct {
	Name         string `yaml:"name"`
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	BatchSize    int    `yaml:"batch_size"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with one SQLite repository in the
// working directory.
func Default() *Config {
	cfg := &Config{
		Repositories: []Repository{{
			Name:   DefaultRepository,
			Driver: datasource.DriverSQLite,
			DSN:    DefaultSQLitePath,
		}},
	}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration file at path after loading .env.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// loadDotEnv loads path into the environment. A missing file is not an
// error; variables already set are not overridden.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// Parse validates and decodes YAML configuration text. Environment
// references must already be expanded.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Repositories))
	for _, r := range cfg.Repositories {
		if seen[r.Name] {
			return nil, fmt.Errorf("invalid config: duplicate repository %q", r.Name)
		}
		seen[r.Name] = true
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// validateSchema unifies raw with #Config and requires a concrete result.
func validateSchema(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	if raw == nil {
		raw = map[string]any{}
	}
	data := ctx.Encode(raw)
	if err := data.Err(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %s", strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

func (c *Config) applyDefaults() {
	for i := range c.Repositories {
		if c.Repositories[i].BatchSize == 0 {
			c.Repositories[i].BatchSize = docstore.DefaultBatchSize
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Repository returns the repository called name.
func (c *Config) Repository(name string) (Repository, error) {
	for _, r := range c.Repositories {
		if r.Name == name {
			return r, nil
		}
	}
	return Repository{}, fmt.Errorf("%w: %q", ErrUnknownRepository, name)
}

// Registry registers every repository's data source under its
// conventional name.
func (c *Config) Registry() (*datasource.Registry, error) {
	reg := datasource.NewRegistry()
	for _, r := range c.Repositories {
		err := reg.Register(datasource.NameForRepository(r.Name), datasource.Spec{
			Driver:       r.Driver,
			DSN:          r.DSN,
			MaxOpenConns: r.MaxOpenConns,
		})
		if err != nil {
			return nil, fmt.Errorf("repository %s: %w", r.Name, err)
		}
	}
	return reg, nil
}

// SlogLevel maps Level to a slog level. Unknown values mean info.
func (l Log) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
