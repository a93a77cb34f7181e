// Package discover finds the files of a Cargo workspace that feed
// documentation generation.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
)

// Kinds of discovered files.
const (
	KindRust     = "rust"
	KindManifest = "manifest"
	KindLockfile = "lockfile"
)

// FileEntry represents a discovered input file.
type FileEntry struct {
	Path string // Relative to workspace root
	Kind string
}

var skipDirs = map[string]struct{}{
	"target":       {},
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
}

// Classify returns the kind of the file at rel, or "" when it does not
// affect generated documentation.
func Classify(rel string) string {
	switch name := filepath.Base(rel); {
	case filepath.Ext(name) == ".rs":
		return KindRust
	case name == "Cargo.toml":
		return KindManifest
	case name == "Cargo.lock":
		return KindLockfile
	}
	return ""
}

// Sources discovers Rust sources, manifests and lockfiles under root, sorted
// by path. When root is a git checkout, only tracked or unignored files count;
// otherwise the root .gitignore is honored.
func Sources(root string) ([]FileEntry, error) {
	included := ignoreFilter(root)

	var results []FileEntry
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		switch {
		case err != nil:
			return nil // unreadable entries do not affect freshness
		case d.IsDir():
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		case strings.HasPrefix(d.Name(), "."), d.Type()&os.ModeSymlink != 0:
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || !included(rel) {
			return nil
		}
		if kind := Classify(rel); kind != "" {
			results = append(results, FileEntry{Path: rel, Kind: kind})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results, nil
}

func skipDir(name string) bool {
	_, skip := skipDirs[name]
	return skip || strings.HasPrefix(name, ".")
}

// ignoreFilter returns a predicate over root-relative paths: git's view of
// the checkout when available, else the root .gitignore, else everything.
func ignoreFilter(root string) func(rel string) bool {
	if files := gitLsFiles(root); files != nil {
		return func(rel string) bool {
			_, ok := files[filepath.ToSlash(rel)]
			return ok
		}
	}
	if gi := loadGitignore(root); gi != nil {
		return func(rel string) bool { return !gi.MatchesPath(rel) }
	}
	return func(string) bool { return true }
}

// gitLsFiles lists tracked and untracked-but-unignored files, or returns nil
// when root is not a git checkout or git is unavailable.
func gitLsFiles(root string) map[string]struct{} {
	if info, err := os.Stat(filepath.Join(root, ".git")); err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(string(out), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
