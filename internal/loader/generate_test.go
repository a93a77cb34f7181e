package loader

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/rsbrowse/internal/logging"
	"github.com/phobologic/rsbrowse/internal/testutil"
)

func doc(root, name string) string {
	return `{"root": ` + root + `, "index": {"` + strings.Trim(root, `"`) + `": {"id": ` + root +
		`, "name": "` + name + `", "inner": {"module": {"is_crate": true, "items": []}}}}, "paths": {}}`
}

// script writes an executable shell script and returns its path.
func script(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	sysroot := t.TempDir()
	testutil.WriteFile(t, sysroot, "share/doc/rust/json/core.json", doc("0", "core"))

	cargo := script(t, "cargo", `
echo "args: $*"
echo "flags: $RUSTDOCFLAGS" >&2
mkdir -p target/rsbrowse/doc
echo '`+doc(`"0:0"`, "mine")+`' > target/rsbrowse/doc/mine.json`)
	rustc := script(t, "rustc", "echo "+sysroot)

	var stdout, stderr bytes.Buffer
	err := Generate(context.Background(), root, GenerateOptions{
		Toolchain: "nightly",
		Cargo:     cargo,
		Rustc:     rustc,
		Stdout:    &stdout,
		Stderr:    &stderr,
	})
	require.NoError(t, err)

	assert.Equal(t, "args: +nightly doc --workspace --target-dir "+filepath.FromSlash(TargetDir)+"\n", stdout.String())
	assert.Equal(t, "flags: -Z unstable-options --output-format json\n", stderr.String())

	docs, err := Load(root, 0)
	require.NoError(t, err)
	assert.Contains(t, docs, "mine")
	assert.Contains(t, docs, "core")
}

func TestGenerateWithoutSysrootDocs(t *testing.T) {
	root := t.TempDir()
	cargo := script(t, "cargo", "mkdir -p target/rsbrowse/doc")
	rustc := script(t, "rustc", "exit 1")

	var logs bytes.Buffer
	logger := logging.New(logging.Config{Level: slog.LevelWarn, Format: "text", Output: &logs})

	err := Generate(context.Background(), root, GenerateOptions{Cargo: cargo, Rustc: rustc, Logger: logger})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "standard library documents unavailable")
}

func TestGenerateExitStatus(t *testing.T) {
	cargo := script(t, "cargo", "exit 3")

	err := Generate(context.Background(), t.TempDir(), GenerateOptions{Cargo: cargo})

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.False(t, errors.Is(err, ErrSignaled))
}

func TestGenerateSignaled(t *testing.T) {
	cargo := script(t, "cargo", "kill -9 $$")

	err := Generate(context.Background(), t.TempDir(), GenerateOptions{Cargo: cargo})
	assert.ErrorIs(t, err, ErrSignaled)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
}

func TestGenerateToolMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-cargo")

	err := Generate(context.Background(), t.TempDir(), GenerateOptions{Cargo: missing})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "running "+missing), err.Error())

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
	assert.False(t, errors.Is(err, ErrSignaled))
}
