// rsbrowse browses the rustdoc JSON metadata of a Cargo workspace.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/rsbrowse/internal/browser"
	"github.com/phobologic/rsbrowse/internal/config"
	"github.com/phobologic/rsbrowse/internal/discover"
	"github.com/phobologic/rsbrowse/internal/loader"
	"github.com/phobologic/rsbrowse/internal/logging"
	"github.com/phobologic/rsbrowse/internal/store"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// app is the state shared by all subcommands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	workspace string
	root      string
	cfg       *config.Config
	log       *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, log: logging.Nop()}

	cmd := &cobra.Command{
		Use:   "rsbrowse",
		Short: "Browse the rustdoc metadata of a Cargo workspace",
		Long: `rsbrowse generates rustdoc JSON for a Cargo workspace and lets you walk the
resulting item tree: modules, types, fields, impl blocks, trait items and the
types named in function signatures, across crate boundaries.

Items are addressed by package name followed by the labels shown by
"rsbrowse items", for example:

  rsbrowse items mycrate "mod config" "struct Config"
  rsbrowse info mycrate "mod config" "struct Config" "impl Self" "fn load"`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("rsbrowse {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.workspace, "workspace", "w", ".", "Cargo workspace root")
	pf.String("toolchain", "", "rustup toolchain for cargo and rustc (e.g. nightly)")
	pf.String("generate", config.GenerateAuto, "regenerate documentation: auto, always or never")
	pf.Int("workers", 0, "documents parsed in parallel (0 = all CPUs)")
	pf.String("format", config.FormatTOON, "output format: toon or yaml")
	pf.Bool("strict", false, "panic on inconsistent metadata")
	pf.String("source-dir", "", "directory source file names are relative to")
	pf.String("log-level", "error", "log level: debug, info, warn or error")
	pf.String("log-format", "text", "log format: text or json")

	cmd.AddCommand(
		a.generateCmd(),
		a.packagesCmd(),
		a.depsCmd(),
		a.itemsCmd(),
		a.treeCmd(),
		a.infoCmd(),
		a.sourceCmd(),
		a.debugCmd(),
		a.initCmd(),
	)
	return cmd
}

// setup resolves the workspace root and configuration.
func (a *app) setup(cmd *cobra.Command) error {
	root, err := filepath.Abs(a.workspace)
	if err != nil {
		return fmt.Errorf("resolving workspace: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("workspace: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}
	a.root = root

	cfg, err := config.Load(root, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.Logging()
	logCfg.Output = a.stderr
	a.log = logging.New(logCfg)
	if cfg.File != "" {
		a.log.Debug("loaded configuration", "file", cfg.File)
	}
	return nil
}

// session is a loaded workspace.
type session struct {
	store   *store.Store
	browser *browser.Browser
}

// open loads the workspace documentation, generating it first when the
// configured policy asks for it.
func (a *app) open(ctx context.Context) (*session, error) {
	switch a.cfg.Generate {
	case config.GenerateAlways:
		if err := a.generate(ctx); err != nil {
			return nil, err
		}
	case config.GenerateAuto:
		sources, err := discover.Sources(a.root)
		if err != nil {
			return nil, fmt.Errorf("discovering sources: %w", err)
		}
		if !loader.IsFresh(a.root, sources) {
			a.log.Info("documentation is stale", "sources", len(sources))
			if err := a.generate(ctx); err != nil {
				return nil, err
			}
		}
	}

	docs, err := loader.Load(a.root, a.cfg.Workers)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documentation in %s (run rsbrowse generate)", loader.DocDir(a.root))
	}
	a.log.Debug("loaded documentation", "packages", len(docs))

	s := store.New(docs, a.log)
	b := browser.New(s,
		browser.WithSourceRoot(a.cfg.SourceRoot(a.root)),
		browser.WithStrict(a.cfg.Strict),
		browser.WithLogger(a.log),
	)
	return &session{store: s, browser: b}, nil
}

func (a *app) generate(ctx context.Context) error {
	err := loader.Generate(ctx, a.root, loader.GenerateOptions{
		Toolchain: a.cfg.Toolchain,
		Stdout:    a.stderr,
		Stderr:    a.stderr,
		Logger:    a.log,
	})
	var exitErr *loader.ExitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exitErr):
		return fmt.Errorf("generating documentation: cargo doc exited with status %d", exitErr.Code)
	case errors.Is(err, loader.ErrSignaled):
		return fmt.Errorf("generating documentation: cargo doc was interrupted")
	default:
		return fmt.Errorf("generating documentation: %w", err)
	}
}

// emit writes v as YAML, or text when the TOON format is selected.
func (a *app) emit(v any, text string) error {
	if a.cfg.Format == config.FormatYAML {
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	_, err := fmt.Fprintln(a.stdout, text)
	return err
}
