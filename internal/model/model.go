// Package model defines the result rows rsbrowse prints.
package model

// Package is one loaded crate document.
type Package struct {
	Name   string  `yaml:"name"`
	Member bool    `yaml:"member"`
	Rank   float64 `yaml:"rank"`
}

// Dependency represents an edge in the package graph:
// Source references symbols defined in Target.
type Dependency struct {
	Source  string   `yaml:"source"`
	Target  string   `yaml:"target"`
	Symbols []string `yaml:"symbols,flow"`
}

// WorkspaceMap is the package-level view of a workspace.
type WorkspaceMap struct {
	Root         string       `yaml:"root"`
	Packages     []Package    `yaml:"packages"`
	Dependencies []Dependency `yaml:"dependencies,omitempty"`
}

// Entry is one listed child. Kind is empty for entries that lead nowhere.
type Entry struct {
	Label string `yaml:"label"`
	Kind  string `yaml:"kind,omitempty"`
	ID    string `yaml:"id,omitempty"`
}

// Listing is the children of the item reached by following Path from the
// root of Package.
type Listing struct {
	Package string   `yaml:"package"`
	Path    []string `yaml:"path,flow"`
	Entries []Entry  `yaml:"entries"`
}

// TreeNode is one line of a recursive listing.
type TreeNode struct {
	Depth int    `yaml:"depth"`
	Label string `yaml:"label"`
	Kind  string `yaml:"kind,omitempty"`
}

// Tree is a depth-limited recursive listing.
type Tree struct {
	Package string     `yaml:"package"`
	Path    []string   `yaml:"path,flow"`
	Nodes   []TreeNode `yaml:"nodes"`
}

// Info describes one item.
type Info struct {
	Package   string   `yaml:"package"`
	Path      []string `yaml:"path,flow"`
	Kind      string   `yaml:"kind"`
	ID        string   `yaml:"id"`
	Signature string   `yaml:"signature,omitempty"`
	Info      string   `yaml:"info"`
}
