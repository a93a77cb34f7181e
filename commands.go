package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/rsbrowse/internal/browser"
	"github.com/phobologic/rsbrowse/internal/graph"
	"github.com/phobologic/rsbrowse/internal/loader"
	"github.com/phobologic/rsbrowse/internal/model"
	"github.com/phobologic/rsbrowse/internal/ranking"
	"github.com/phobologic/rsbrowse/internal/toon"
	"github.com/phobologic/rsbrowse/internal/workspace"
)

func (a *app) generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate rustdoc JSON for the workspace",
		Long: `Run cargo doc with JSON output for every workspace member, writing documents
to target/rsbrowse/doc. Standard library documents are copied in when the
toolchain has the rust-docs-json component.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.generate(cmd.Context()); err != nil {
				return err
			}
			docs, err := loader.Load(a.root, a.cfg.Workers)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.stdout, "wrote %d documents to %s\n", len(docs), loader.DocDir(a.root))
			return err
		},
	}
}

// workspaceMap ranks the loaded packages and marks workspace members.
func (a *app) workspaceMap(s *session, withDeps bool) *model.WorkspaceMap {
	members := map[string]struct{}{}
	if ms, err := workspace.Members(a.root); err != nil {
		a.log.Warn("reading workspace members", "error", err)
	} else {
		members = workspace.Crates(ms)
	}

	var pkgs []model.Package
	for _, p := range s.browser.ListPackages() {
		_, member := members[p.Label]
		pkgs = append(pkgs, model.Package{Name: p.Label, Member: member})
	}
	deps := graph.Build(s.store)
	graph.Rank(pkgs, deps)

	wm := &model.WorkspaceMap{Root: a.root, Packages: pkgs}
	if withDeps {
		wm.Dependencies = deps
	}
	return wm
}

func (a *app) packagesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List loaded packages, most referenced first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			wm := ranking.SelectPackages(a.workspaceMap(s, false), limit)
			return a.emit(wm, toon.EncodeWorkspace(wm))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum packages to list (0 = all)")
	return cmd
}

func (a *app) depsCmd() *cobra.Command {
	var (
		from   string
		symbol string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "List package dependencies and the symbols each one uses",
		Example: `  rsbrowse deps --from mycrate
  rsbrowse deps --symbol Serialize`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			wm := a.workspaceMap(s, true)
			if from != "" {
				var kept []model.Dependency
				for _, d := range wm.Dependencies {
					if d.Source == from {
						kept = append(kept, d)
					}
				}
				wm.Dependencies = kept
			}
			if symbol != "" {
				wm = ranking.FilterBySymbol(wm, symbol)
			}
			wm = ranking.SelectPackages(wm, limit)
			return a.emit(wm, toon.EncodeWorkspace(wm))
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "only dependencies of this package")
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "", "only symbols whose path contains this (case-insensitive)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum packages to list (0 = all)")
	return cmd
}

func (a *app) itemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items <package> [label...]",
		Short: "List the children of an item",
		Example: `  rsbrowse items mycrate
  rsbrowse items mycrate "mod config" "struct Config"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			t, err := s.navigate(args[0], args[1:])
			if err != nil {
				return err
			}
			l := &model.Listing{
				Package: t.pkg,
				Path:    t.path,
				Entries: toModelEntries(s.browser.ListItems(t.entry.ID)),
			}
			return a.emit(l, toon.EncodeListing(l))
		},
	}
}

func (a *app) treeCmd() *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree <package> [label...]",
		Short: "List the subtree under an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if depth < 1 {
				return fmt.Errorf("--depth must be at least 1")
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			t, err := s.navigate(args[0], args[1:])
			if err != nil {
				return err
			}
			tr := &model.Tree{Package: t.pkg, Path: t.path, Nodes: s.walkTree(t.entry.ID, depth)}
			return a.emit(tr, toon.EncodeTree(tr))
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 2, "levels to expand")
	return cmd
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <package> [label...]",
		Short: "Show an item's documentation, signature and location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			t, err := s.navigate(args[0], args[1:])
			if err != nil {
				return err
			}
			item, err := t.item()
			if err != nil {
				return err
			}

			info := &model.Info{
				Package: t.pkg,
				Path:    t.path,
				Kind:    kindOf(item),
				ID:      t.entry.ID.String(),
				Info:    s.browser.GetInfo(item),
			}
			sig, err := s.browser.Signature(item)
			switch {
			case err == nil:
				info.Signature = sig
			case errors.Is(err, browser.ErrNoSource):
			default:
				a.log.Debug("no signature", "id", info.ID, "error", err)
			}
			return a.emit(info, toon.EncodeInfo(info))
		},
	}
}

func (a *app) sourceCmd() *cobra.Command {
	var around int
	cmd := &cobra.Command{
		Use:   "source <package> [label...]",
		Short: "Print the source file defining an item, with line numbers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			t, err := s.navigate(args[0], args[1:])
			if err != nil {
				return err
			}
			item, err := t.item()
			if err != nil {
				return err
			}

			text, line, ok := s.browser.GetSource(item)
			if !ok {
				if text == "" {
					return fmt.Errorf("%q has no source location", t.entry.Label)
				}
				return errors.New(text)
			}
			_, err = fmt.Fprint(a.stdout, window(text, line, around))
			return err
		},
	}
	cmd.Flags().IntVarP(&around, "context", "C", -1, "lines around the item to print (-1 = whole file)")
	return cmd
}

// window returns the lines of a listing within n lines of line (0-based).
// A negative n keeps the whole listing.
func window(listing string, line, n int) string {
	if n < 0 {
		return listing
	}
	lines := strings.SplitAfter(listing, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	start := max(line-n, 0)
	end := min(line+n+1, len(lines))
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "")
}

func (a *app) debugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug <package> [label...]",
		Short: "Dump an item's raw metadata record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			t, err := s.navigate(args[0], args[1:])
			if err != nil {
				return err
			}
			item, err := t.item()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.stdout, s.browser.GetDebugInfo(item))
			return err
		},
	}
}
