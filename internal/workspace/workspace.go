// Package workspace reads Cargo manifests to learn which crates a workspace
// defines.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ManifestFile is the name of a Cargo manifest.
const ManifestFile = "Cargo.toml"

// Manifest is the subset of Cargo.toml rsbrowse needs.
type Manifest struct {
	Package   *PackageSection   `toml:"package"`
	Lib       *TargetSection    `toml:"lib"`
	Workspace *WorkspaceSection `toml:"workspace"`
}

type PackageSection struct {
	Name    string `toml:"name"`
	Version any    `toml:"version"`
}

type TargetSection struct {
	Name string `toml:"name"`
}

type WorkspaceSection struct {
	Members []string `toml:"members"`
	Exclude []string `toml:"exclude"`
}

// Member is one crate of the workspace.
type Member struct {
	// Crate is the crate name as it appears in generated documents.
	Crate string
	// Package is the package name as written in the manifest.
	Package string
	// Dir is the member directory relative to the workspace root.
	Dir string
}

// Read parses dir/Cargo.toml.
func Read(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &m, nil
}

// CrateName returns the crate name for the manifest: the [lib] name when
// set, else the package name with dashes replaced by underscores. It is
// empty for virtual manifests.
func (m *Manifest) CrateName() string {
	if m.Lib != nil && m.Lib.Name != "" {
		return m.Lib.Name
	}
	if m.Package == nil {
		return ""
	}
	return Normalize(m.Package.Name)
}

// Normalize converts a package name into crate form.
func Normalize(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// Members lists the crates of the workspace rooted at root, sorted by crate
// name. A root manifest with a [package] section counts as a member itself.
// Member globs that match directories without a manifest are skipped.
func Members(root string) ([]Member, error) {
	m, err := Read(root)
	if err != nil {
		return nil, err
	}

	var members []Member
	if name := m.CrateName(); name != "" {
		members = append(members, Member{Crate: name, Package: m.Package.Name, Dir: "."})
	}
	if m.Workspace == nil {
		return members, nil
	}

	excluded := make(map[string]struct{}, len(m.Workspace.Exclude))
	for _, e := range m.Workspace.Exclude {
		excluded[filepath.Clean(filepath.FromSlash(e))] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, pattern := range m.Workspace.Members {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("bad member pattern %q: %w", pattern, err)
		}
		for _, dir := range matches {
			rel, err := filepath.Rel(root, dir)
			if err != nil {
				continue
			}
			if _, skip := excluded[rel]; skip {
				continue
			}
			if _, dup := seen[rel]; dup || rel == "." {
				continue
			}
			seen[rel] = struct{}{}

			sub, err := Read(dir)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if sub.Package == nil {
				continue
			}
			members = append(members, Member{Crate: sub.CrateName(), Package: sub.Package.Name, Dir: rel})
		}
	}

	sort.Slice(members, func(i, j int) bool { return members[i].Crate < members[j].Crate })
	return members, nil
}

// Crates returns the set of member crate names.
func Crates(members []Member) map[string]struct{} {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m.Crate] = struct{}{}
	}
	return set
}
