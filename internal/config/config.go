// Package config loads rsbrowse settings. Precedence, lowest first: built-in
// defaults, .rsbrowse.toml in the workspace root, RSBROWSE_* environment
// variables, command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/phobologic/rsbrowse/internal/logging"
)

// FileName is the per-workspace configuration file.
const FileName = ".rsbrowse.toml"

// EnvPrefix prefixes environment overrides: RSBROWSE_TOOLCHAIN,
// RSBROWSE_LOG_LEVEL and so on.
const EnvPrefix = "RSBROWSE"

// Generation policies.
const (
	GenerateAuto   = "auto"
	GenerateAlways = "always"
	GenerateNever  = "never"
)

// Output formats.
const (
	FormatTOON = "toon"
	FormatYAML = "yaml"
)

// Config holds the resolved settings.
type Config struct {
	Toolchain string    `mapstructure:"toolchain"`
	Generate  string    `mapstructure:"generate"`
	Workers   int       `mapstructure:"workers"`
	Format    string    `mapstructure:"format"`
	Strict    bool      `mapstructure:"strict"`
	SourceDir string    `mapstructure:"source_dir"`
	Log       LogConfig `mapstructure:"log"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"toolchain":  "toolchain",
	"generate":   "generate",
	"workers":    "workers",
	"format":     "format",
	"strict":     "strict",
	"source-dir": "source_dir",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("toolchain", "")
	v.SetDefault("generate", GenerateAuto)
	v.SetDefault("workers", 0)
	v.SetDefault("format", FormatTOON)
	v.SetDefault("strict", false)
	v.SetDefault("source_dir", "")
	v.SetDefault("log.level", "error")
	v.SetDefault("log.format", "text")
}

// Load resolves the configuration for the workspace at root. flags may be
// nil; only flags the user actually set override lower layers.
func Load(root string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	path := filepath.Join(root, FileName)
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	var file string
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	} else {
		file = path
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Generate {
	case GenerateAuto, GenerateAlways, GenerateNever:
	default:
		return fmt.Errorf("invalid generate policy %q (want auto, always or never)", c.Generate)
	}
	switch c.Format {
	case FormatTOON, FormatYAML:
	default:
		return fmt.Errorf("invalid format %q (want toon or yaml)", c.Format)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers %d", c.Workers)
	}
	return nil
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level, cfg.Level)
	if c.Log.Format != "" {
		cfg.Format = strings.ToLower(c.Log.Format)
	}
	return cfg
}

// SourceRoot returns the directory relative source file names resolve
// against: SourceDir when set (relative to root), else root.
func (c *Config) SourceRoot(root string) string {
	switch {
	case c.SourceDir == "":
		return root
	case filepath.IsAbs(c.SourceDir):
		return c.SourceDir
	default:
		return filepath.Join(root, c.SourceDir)
	}
}

// Template is the commented default configuration written by `rsbrowse init`.
const Template = `# Rust toolchain passed to cargo and rustc as +<toolchain>. Generating
# rustdoc JSON needs a nightly toolchain.
toolchain = "nightly"

# When to regenerate documentation: auto (when sources changed), always, never.
generate = "auto"

# Documents parsed in parallel; 0 uses every CPU.
workers = 0

# Output format: toon or yaml.
format = "toon"

# Panic on inconsistent metadata instead of logging it.
strict = false

# Directory that source file names in the documentation are relative to.
# Defaults to the workspace root.
# source_dir = ""

[log]
level = "error"
format = "text"
`

// Exists reports whether root has a configuration file.
func Exists(root string) bool {
	_, err := os.Stat(filepath.Join(root, FileName))
	return err == nil
}
