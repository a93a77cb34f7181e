package main

import (
	"fmt"
	"strings"

	"github.com/phobologic/rsbrowse/internal/browser"
	"github.com/phobologic/rsbrowse/internal/model"
	"github.com/phobologic/rsbrowse/internal/rustdoc"
	"github.com/phobologic/rsbrowse/internal/store"
)

// target is an item reached by following labels from a package root.
type target struct {
	pkg   string
	path  []string
	entry browser.Entry
}

// navigate follows labels from the root of pkg, one ListItems level per
// label. Labels must match exactly.
func (s *session) navigate(pkg string, labels []string) (target, error) {
	var root *browser.Package
	pkgs := s.browser.ListPackages()
	for i := range pkgs {
		if pkgs[i].Label == pkg {
			root = &pkgs[i]
			break
		}
	}
	if root == nil {
		names := make([]string, len(pkgs))
		for i, p := range pkgs {
			names[i] = p.Label
		}
		return target{}, fmt.Errorf("no package %q; available: %s", pkg, strings.Join(names, ", "))
	}

	entry := browser.Entry{Label: root.Label, ID: root.ID}
	if sym, ok := s.store.Resolve(root.ID); ok {
		entry.ID, entry.Item = sym.ID, sym.Item
	}

	for i, label := range labels {
		children := s.browser.ListItems(entry.ID)
		next, ok := find(children, label)
		if !ok {
			where := strings.Join(append([]string{pkg}, labels[:i]...), " / ")
			return target{}, fmt.Errorf("no item %q under %s; available: %s", label, where, quoteLabels(children))
		}
		entry = next
	}
	return target{pkg: pkg, path: labels, entry: entry}, nil
}

func find(entries []browser.Entry, label string) (browser.Entry, bool) {
	for _, e := range entries {
		if e.Label == label {
			return e, true
		}
	}
	return browser.Entry{}, false
}

func quoteLabels(entries []browser.Entry) string {
	if len(entries) == 0 {
		return "(none)"
	}
	quoted := make([]string, len(entries))
	for i, e := range entries {
		quoted[i] = fmt.Sprintf("%q", e.Label)
	}
	return strings.Join(quoted, ", ")
}

// item returns the record of the target, or an error when it leads nowhere.
func (t target) item() (*rustdoc.Item, error) {
	if t.entry.Item == nil {
		return nil, fmt.Errorf("%q does not refer to a loaded item", t.entry.Label)
	}
	return t.entry.Item, nil
}

func kindOf(item *rustdoc.Item) string {
	if item == nil {
		return ""
	}
	return item.Kind().String()
}

func toModelEntries(entries []browser.Entry) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		me := model.Entry{Label: e.Label, Kind: kindOf(e.Item)}
		if !e.ID.IsZero() {
			me.ID = e.ID.String()
		}
		out = append(out, me)
	}
	return out
}

// walkTree lists the subtree under id, depth levels deep. An id already on
// the current path is listed but not expanded again.
func (s *session) walkTree(id store.ID, depth int) []model.TreeNode {
	var nodes []model.TreeNode
	onPath := make(map[store.ID]bool)

	var visit func(id store.ID, level int)
	visit = func(id store.ID, level int) {
		if level >= depth || onPath[id] {
			return
		}
		onPath[id] = true
		defer delete(onPath, id)

		for _, e := range s.browser.ListItems(id) {
			nodes = append(nodes, model.TreeNode{Depth: level, Label: e.Label, Kind: kindOf(e.Item)})
			if !e.ID.IsZero() {
				visit(e.ID, level+1)
			}
		}
	}
	visit(id, 0)
	return nodes
}
