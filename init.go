package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/rsbrowse/internal/config"
)

const (
	sentinelStart = "<!-- rsbrowse:start -->"
	sentinelEnd   = "<!-- rsbrowse:end -->"
)

func (a *app) initCmd() *cobra.Command {
	var (
		dryRun bool
		force  bool
		guide  string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a commented ` + config.FileName + ` to the workspace root.

With --guide, also write an rsbrowse usage section to a markdown file such as
CLAUDE.md or AGENTS.md. The section is wrapped in sentinel comments so it can be
updated in place on subsequent runs without touching surrounding content.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.writeConfig(dryRun, force); err != nil {
				return err
			}
			if guide == "" {
				return nil
			}
			return a.writeGuide(guide, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying files")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cmd.Flags().StringVar(&guide, "guide", "", "markdown file to receive a usage section")
	return cmd
}

func (a *app) writeConfig(dryRun, force bool) error {
	path := filepath.Join(a.root, config.FileName)

	if dryRun {
		_, _ = fmt.Fprint(a.stdout, config.Template)
		return nil
	}
	if config.Exists(a.root) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(a.stderr, "wrote %s\n", path)
	return nil
}

func (a *app) writeGuide(path string, dryRun bool) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.root, path)
	}
	existing, _ := os.ReadFile(path)
	updated := applySection(string(existing), generateSection())

	if dryRun {
		_, _ = fmt.Fprint(a.stdout, updated)
		return nil
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(a.stderr, "wrote rsbrowse section to %s\n", path)
	return nil
}

// generateSection returns the full sentinel-wrapped rsbrowse documentation block.
func generateSection() string {
	body := `## rsbrowse: Rust API browser

Use ` + "`rsbrowse`" + ` via the Bash tool to look up the API of this workspace and its
dependencies instead of reading source files or guessing signatures. It walks
rustdoc metadata, so it sees through re-exports, trait impls and foreign crates.

**Availability:** Check with ` + "`rsbrowse --version`" + ` first; skip gracefully if
not found. Generating metadata needs a nightly toolchain.

**Run it:**
` + "```" + `bash
rsbrowse packages                                   # crates, most referenced first
rsbrowse items mycrate                              # top-level items of a crate
rsbrowse items mycrate "mod config" "struct Config" # fields and impls of a type
rsbrowse info mycrate "mod config" "struct Config" "impl Self" "fn load"
rsbrowse source -C 10 mycrate "mod config" "fn parse"
rsbrowse tree --depth 3 mycrate "mod config"
rsbrowse deps --from mycrate                        # what mycrate uses from other crates
` + "```" + `

**All flags:** ` + "`rsbrowse --help`" + `

**How to use the output:**

1. **Navigate by label.** Every argument after the package is a label exactly as
   printed in the ` + "`entries`" + ` table of the previous level.

2. **Follow signatures.** Listing a function shows its parameters and return
   type; listing one of those follows it to the type's definition, even in
   another crate.

3. **Only fall back to Grep for things rsbrowse cannot answer**, such as
   finding every call site of a function.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
