package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/rsbrowse/internal/testutil"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("toolchain", "", "")
	fs.String("generate", GenerateAuto, "")
	fs.Int("workers", 0, "")
	fs.String("format", FormatTOON, "")
	fs.Bool("strict", false, "")
	fs.String("log-level", "error", "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Toolchain)
	assert.Equal(t, GenerateAuto, cfg.Generate)
	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, FormatTOON, cfg.Format)
	assert.False(t, cfg.Strict)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Empty(t, cfg.File)
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, FileName, `
toolchain = "nightly-2025-01-01"
generate = "never"
workers = 4
strict = true

[log]
level = "debug"
format = "json"
`)

	cfg, err := Load(root, nil)
	require.NoError(t, err)

	assert.Equal(t, "nightly-2025-01-01", cfg.Toolchain)
	assert.Equal(t, GenerateNever, cfg.Generate)
	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(root, FileName), cfg.File)

	logCfg := cfg.Logging()
	assert.Equal(t, slog.LevelDebug, logCfg.Level)
	assert.Equal(t, "json", logCfg.Format)
}

func TestLoadTemplate(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, FileName, Template)

	cfg, err := Load(root, nil)
	require.NoError(t, err)
	assert.Equal(t, "nightly", cfg.Toolchain)
	assert.Equal(t, GenerateAuto, cfg.Generate)
	assert.Equal(t, FormatTOON, cfg.Format)
}

func TestLoadPrecedence(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, FileName, "toolchain = \"from-file\"\nworkers = 2\nformat = \"yaml\"\n")
	t.Setenv("RSBROWSE_TOOLCHAIN", "from-env")
	t.Setenv("RSBROWSE_WORKERS", "3")
	t.Setenv("RSBROWSE_LOG_LEVEL", "warn")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--workers", "5"}))

	cfg, err := Load(root, flags)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Toolchain, "env beats file")
	assert.Equal(t, 5, cfg.Workers, "flag beats env")
	assert.Equal(t, FormatYAML, cfg.Format, "unset flag does not mask file")
	assert.Equal(t, "warn", cfg.Log.Level, "nested key from env")
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"generate policy", `generate = "sometimes"`, "invalid generate policy"},
		{"format", `format = "xml"`, "invalid format"},
		{"workers", `workers = -1`, "invalid workers"},
		{"syntax", `toolchain = `, "reading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			testutil.WriteFile(t, root, FileName, tt.content)
			_, err := Load(root, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSourceRoot(t *testing.T) {
	root := filepath.Join("ws")
	assert.Equal(t, root, (&Config{}).SourceRoot(root))
	assert.Equal(t, filepath.Join(root, "vendor"), (&Config{SourceDir: "vendor"}).SourceRoot(root))

	abs := t.TempDir()
	assert.Equal(t, abs, (&Config{SourceDir: abs}).SourceRoot(root))
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	assert.False(t, Exists(root))
	testutil.WriteFile(t, root, FileName, "")
	assert.True(t, Exists(root))
}
