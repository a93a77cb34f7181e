package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/phobologic/rsbrowse/internal/logging"
)

// ErrSignaled is returned by Generate when the documentation tool was killed
// by a signal rather than exiting.
var ErrSignaled = errors.New("documentation tool killed by signal")

// ExitError is returned by Generate when the documentation tool exits with a
// nonzero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("documentation tool exited with status %d", e.Code)
}

// GenerateOptions configures Generate. Zero values select the defaults.
type GenerateOptions struct {
	// Toolchain selects a rustup toolchain ("nightly"); empty uses the
	// workspace default.
	Toolchain string
	// Cargo and Rustc override the tool binaries.
	Cargo string
	Rustc string
	// Stdout and Stderr receive the tool's output; nil discards it.
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func (o *GenerateOptions) defaults() {
	if o.Cargo == "" {
		o.Cargo = "cargo"
	}
	if o.Rustc == "" {
		o.Rustc = "rustc"
	}
	if o.Stdout == nil {
		o.Stdout = io.Discard
	}
	if o.Stderr == nil {
		o.Stderr = io.Discard
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
}

func (o *GenerateOptions) toolchainArgs(args ...string) []string {
	if o.Toolchain == "" {
		return args
	}
	return append([]string{"+" + o.Toolchain}, args...)
}

// Generate runs the documentation tool over the workspace at root, writing
// one JSON document per crate into DocDir(root). Documents for the standard
// library are copied in when the toolchain ships them; failing to do so only
// logs a warning.
func Generate(ctx context.Context, root string, opts GenerateOptions) error {
	opts.defaults()

	args := opts.toolchainArgs("doc", "--workspace", "--target-dir", filepath.FromSlash(TargetDir))
	cmd := exec.CommandContext(ctx, opts.Cargo, args...)
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "RUSTDOCFLAGS=-Z unstable-options --output-format json")
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	opts.Logger.Info("generating documentation", "root", root, "cmd", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.ExitCode() < 0 {
				return ErrSignaled
			}
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("running %s: %w", opts.Cargo, err)
	}

	n, err := copySysrootDocs(ctx, root, &opts)
	if err != nil {
		opts.Logger.Warn("standard library documents unavailable", "error", err)
	} else {
		opts.Logger.Debug("copied standard library documents", "count", n)
	}
	return nil
}

// copySysrootDocs copies the toolchain's prebuilt standard library documents
// (the rust-docs-json component) into the doc directory.
func copySysrootDocs(ctx context.Context, root string, opts *GenerateOptions) (int, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, opts.Rustc, opts.toolchainArgs("--print", "sysroot")...)
	cmd.Dir = root
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("locating sysroot: %w", err)
	}
	sysroot := strings.TrimSpace(out.String())

	src := filepath.Join(sysroot, "share", "doc", "rust", "json")
	paths, err := docFiles(src)
	if err != nil {
		return 0, err
	}

	dst := DocDir(root)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, err
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return 0, err
		}
		if err := os.WriteFile(filepath.Join(dst, filepath.Base(p)), data, 0o644); err != nil {
			return 0, err
		}
	}
	return len(paths), nil
}
