// Package ranking trims a ranked workspace map down to what a reader asked for.
package ranking

import (
	"strings"

	"github.com/phobologic/rsbrowse/internal/model"
)

// SelectPackages returns a new WorkspaceMap with only the top-ranked packages.
// Packages must already be sorted by rank. If maxPackages is <= 0 or >=
// len(packages), the map is returned unchanged.
//
// A dependency survives when its source is selected and its target is either
// selected or not a loaded package at all, so edges into crates without
// documentation are kept.
func SelectPackages(wm *model.WorkspaceMap, maxPackages int) *model.WorkspaceMap {
	if maxPackages <= 0 || maxPackages >= len(wm.Packages) {
		return wm
	}

	selected := wm.Packages[:maxPackages]
	selectedNames := make(map[string]struct{}, maxPackages)
	for i := range selected {
		selectedNames[selected[i].Name] = struct{}{}
	}
	loaded := make(map[string]struct{}, len(wm.Packages))
	for i := range wm.Packages {
		loaded[wm.Packages[i].Name] = struct{}{}
	}

	var deps []model.Dependency
	for i := range wm.Dependencies {
		d := &wm.Dependencies[i]
		if _, ok := selectedNames[d.Source]; !ok {
			continue
		}
		_, tgtSelected := selectedNames[d.Target]
		_, tgtLoaded := loaded[d.Target]
		if tgtSelected || !tgtLoaded {
			deps = append(deps, *d)
		}
	}

	return &model.WorkspaceMap{
		Root:         wm.Root,
		Packages:     selected,
		Dependencies: deps,
	}
}

// FilterBySymbol returns a new WorkspaceMap containing only the dependencies
// that use a symbol whose path contains substr (case-insensitive), with their
// symbol lists trimmed to the matches, and the loaded packages on either end
// of those dependencies. Package order is preserved.
func FilterBySymbol(wm *model.WorkspaceMap, substr string) *model.WorkspaceMap {
	lower := strings.ToLower(substr)

	involved := make(map[string]struct{})
	var deps []model.Dependency
	for i := range wm.Dependencies {
		d := wm.Dependencies[i]
		var symbols []string
		for _, sym := range d.Symbols {
			if strings.Contains(strings.ToLower(sym), lower) {
				symbols = append(symbols, sym)
			}
		}
		if len(symbols) == 0 {
			continue
		}
		d.Symbols = symbols
		deps = append(deps, d)
		involved[d.Source] = struct{}{}
		involved[d.Target] = struct{}{}
	}

	var pkgs []model.Package
	for i := range wm.Packages {
		if _, ok := involved[wm.Packages[i].Name]; ok {
			pkgs = append(pkgs, wm.Packages[i])
		}
	}

	return &model.WorkspaceMap{
		Root:         wm.Root,
		Packages:     pkgs,
		Dependencies: deps,
	}
}
