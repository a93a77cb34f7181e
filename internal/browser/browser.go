// Package browser presents the metadata store as a tree of labeled entries:
// one level at a time, with noise filtered out, redundant wrapper levels
// flattened and function signatures expanded into navigable entries.
package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/rsbrowse/internal/logging"
	"github.com/phobologic/rsbrowse/internal/rustdoc"
	"github.com/phobologic/rsbrowse/internal/source"
	"github.com/phobologic/rsbrowse/internal/store"
)

// ErrNoSource is returned by Signature for items without a source location.
var ErrNoSource = errors.New("item has no source location")

// Package is one top-level entry of the browser.
type Package struct {
	Label string
	ID    store.ID
}

// Entry is one labeled child. Item is nil when the entry leads nowhere: a
// signature entry for a primitive or generic type, or a reference to a
// symbol that is not loaded.
type Entry struct {
	Label string
	ID    store.ID
	Item  *rustdoc.Item
}

// Browser is stateless apart from its configuration and safe for concurrent
// use.
type Browser struct {
	store      *store.Store
	sourceRoot string
	strict     bool
	log        *slog.Logger
}

// Option configures a Browser.
type Option func(*Browser)

// WithSourceRoot resolves relative source file names against dir.
func WithSourceRoot(dir string) Option {
	return func(b *Browser) { b.sourceRoot = dir }
}

// WithStrict makes flattening consistency violations panic instead of being
// logged. A field is flattened into the item its type names; a field whose
// type names several items is a violation.
func WithStrict(strict bool) Option {
	return func(b *Browser) { b.strict = strict }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Browser) { b.log = l }
}

// New creates a Browser over s.
func New(s *store.Store, opts ...Option) *Browser {
	b := &Browser{store: s, log: logging.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ListPackages returns every loaded package, sorted by label.
func (b *Browser) ListPackages() []Package {
	ids := b.store.PackageIDs()
	pkgs := make([]Package, 0, len(ids))
	for _, id := range ids {
		pkgs = append(pkgs, Package{Label: id.Package, ID: id})
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Label < pkgs[j].Label })
	return pkgs
}

// ListItems returns the labeled children of id. Unresolvable ids have no
// children.
func (b *Browser) ListItems(id store.ID) []Entry {
	parent, ok := b.store.Resolve(id)
	if !ok {
		return nil
	}
	children := b.visibleChildren(parent)

	switch inner := parent.Item.Inner.(type) {
	case *rustdoc.Variant:
		if _, ok := b.soleTupleField(parent.ID.Package, inner); ok && len(children) == 1 {
			return b.ListItems(children[0].ID)
		}
	case *rustdoc.StructField:
		switch len(children) {
		case 0:
		case 1:
			return b.ListItems(children[0].ID)
		default:
			b.violation("field type refers to more than one item", parent.ID, len(children))
		}
	}

	entries := make([]Entry, 0, len(children))
	for _, child := range children {
		entries = append(entries, Entry{Label: b.Label(child), ID: child.ID, Item: child.Item})
	}
	sortEntries(entries)

	if fn, ok := parent.Item.Inner.(*rustdoc.Function); ok {
		entries = append(b.signatureEntries(parent.ID.Package, fn), entries...)
	}
	return entries
}

// visibleChildren drops impl blocks that carry no inspectable information,
// and impl blocks listed directly under a module (they appear under their
// implementing type instead).
func (b *Browser) visibleChildren(parent store.Symbol) []store.Symbol {
	_, parentIsModule := parent.Item.Inner.(*rustdoc.Module)

	var out []store.Symbol
	for _, child := range b.store.Children(parent.ID) {
		impl, ok := child.Item.Inner.(*rustdoc.Impl)
		if ok && (parentIsModule || hiddenImpl(child.Item, impl)) {
			continue
		}
		out = append(out, child)
	}
	return out
}

func hiddenImpl(item *rustdoc.Item, impl *rustdoc.Impl) bool {
	return impl.IsSynthetic || impl.BlanketImpl != nil || item.HasAttr("automatically_derived")
}

func (b *Browser) violation(msg string, id store.ID, n int) {
	if b.strict {
		panic(fmt.Sprintf("%s: %s (%d candidates)", msg, id, n))
	}
	b.log.Warn(msg, "id", id.String(), "candidates", n)
}

// signatureEntries lists a function's parameters and return type, in
// declaration order. A type referring to several items yields one entry per
// item, numbered; a type referring to none yields one entry leading nowhere.
func (b *Browser) signatureEntries(pkg string, fn *rustdoc.Function) []Entry {
	var entries []Entry
	for _, p := range fn.Sig.Inputs {
		entries = append(entries, b.typeEntries(pkg, p.Name+": "+TypeLabel(p.Type), p.Type)...)
	}
	if out := fn.Sig.Output; out != nil {
		entries = append(entries, b.typeEntries(pkg, "-> "+TypeLabel(*out), *out)...)
	}
	return entries
}

func (b *Browser) typeEntries(pkg, label string, t rustdoc.Type) []Entry {
	ids := store.TypeIDs(t)
	switch len(ids) {
	case 0:
		return []Entry{{Label: label}}
	case 1:
		return []Entry{b.entryFor(label, store.ID{Package: pkg, Local: ids[0]})}
	}
	entries := make([]Entry, 0, len(ids))
	for i, id := range ids {
		entries = append(entries, b.entryFor(fmt.Sprintf("%s (#%d)", label, i), store.ID{Package: pkg, Local: id}))
	}
	return entries
}

func (b *Browser) entryFor(label string, id store.ID) Entry {
	if sym, ok := b.store.Resolve(id); ok {
		return Entry{Label: label, ID: sym.ID, Item: sym.Item}
	}
	return Entry{Label: label, ID: id}
}

// sortEntries orders field-like entries ("name: T") first, then by label.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		fi := strings.Contains(entries[i].Label, ": ")
		fj := strings.Contains(entries[j].Label, ": ")
		if fi != fj {
			return fi
		}
		return entries[i].Label < entries[j].Label
	})
}

// GetInfo returns the item's documentation followed by where it is defined.
func (b *Browser) GetInfo(item *rustdoc.Item) string {
	var sb strings.Builder
	if item.Docs != nil && *item.Docs != "" {
		sb.WriteString(*item.Docs)
		sb.WriteString("\n")
	}
	if m, ok := item.Inner.(*rustdoc.Module); ok && m.IsCrate {
		sb.WriteString("crate root")
		return sb.String()
	}
	if item.Span != nil {
		fmt.Fprintf(&sb, "defined in %q\nstarting on line %d", item.Span.Filename, item.Span.Line())
	}
	return sb.String()
}

// GetDebugInfo returns a complete dump of the item's record.
func (b *Browser) GetDebugInfo(item *rustdoc.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "kind: %s\nname: %s\nid: %s\n---\n", item.Kind(), item.NameOr(unnamed), item.ID)

	var doc yaml.Node
	if err := yaml.Unmarshal(item.Raw, &doc); err != nil {
		fmt.Fprintf(&sb, "<undecodable record: %v>\n%s\n", err, item.Raw)
		return sb.String()
	}
	blockStyle(&doc)
	out, err := yaml.Marshal(&doc)
	if err != nil {
		fmt.Fprintf(&sb, "<unencodable record: %v>\n%s\n", err, item.Raw)
		return sb.String()
	}
	sb.Write(out)
	return sb.String()
}

// blockStyle clears the flow style a JSON document parses with, so the dump
// prints as indented YAML.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// GetSource returns the item's file as line-numbered text and the 0-based
// line the item starts on. ok reports whether line is meaningful: it is false
// for crate roots and items without a source location, and when the file
// cannot be read, in which case text holds the error message instead.
func (b *Browser) GetSource(item *rustdoc.Item) (text string, line int, ok bool) {
	if item.Span == nil {
		return "", 0, false
	}
	if m, ok := item.Inner.(*rustdoc.Module); ok && m.IsCrate {
		return "", 0, false
	}
	text, err := source.Listing(b.sourcePath(item.Span))
	if err != nil {
		return fmt.Sprintf("Error opening source: %v", err), 0, false
	}
	return text, max(item.Span.Line()-1, 0), true
}

// Signature returns the declaration header of the item as written in source.
func (b *Browser) Signature(item *rustdoc.Item) (string, error) {
	if item.Span == nil {
		return "", ErrNoSource
	}
	if m, ok := item.Inner.(*rustdoc.Module); ok && m.IsCrate {
		return "", ErrNoSource
	}
	return source.Signature(b.sourcePath(item.Span), item.Span.Line())
}

func (b *Browser) sourcePath(span *rustdoc.Span) string {
	if b.sourceRoot == "" || filepath.IsAbs(span.Filename) {
		return span.Filename
	}
	return filepath.Join(b.sourceRoot, span.Filename)
}
