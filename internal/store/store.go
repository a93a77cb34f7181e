// Package store indexes loaded rustdoc documents and answers symbol queries:
// what an id refers to, including ids that point into other crates, and which
// symbols are structurally nested under it.
package store

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/phobologic/rsbrowse/internal/logging"
	"github.com/phobologic/rsbrowse/internal/rustdoc"
)

// ID addresses a symbol: a local id within the named package's document.
//
// The zero ID is the empty sentinel and never resolves. An ID with a package
// but no local id stands for that package's root module.
type ID struct {
	Package string
	Local   rustdoc.ID
}

// IsZero reports whether id is the empty sentinel.
func (id ID) IsZero() bool {
	return id.Package == "" && id.Local == ""
}

func (id ID) String() string {
	if id.IsZero() {
		return "<none>"
	}
	if id.Local == "" {
		return id.Package + ":<root>"
	}
	return id.Package + ":" + string(id.Local)
}

// Symbol is a resolved id together with the record it names.
type Symbol struct {
	ID   ID
	Item *rustdoc.Item
}

// Store owns the loaded documents. It is immutable after New and safe for
// concurrent use.
type Store struct {
	docs   map[string]*rustdoc.Crate
	byPath map[string]map[string]rustdoc.ID
	log    *slog.Logger
}

// New indexes docs, keyed by package name. A nil logger discards resolution
// warnings.
func New(docs map[string]*rustdoc.Crate, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Store{
		docs:   docs,
		byPath: make(map[string]map[string]rustdoc.ID, len(docs)),
		log:    logger,
	}
	for name, doc := range docs {
		s.byPath[name] = pathIndex(doc)
	}
	return s
}

// pathIndex maps qualified paths to the ids the document itself defines.
func pathIndex(doc *rustdoc.Crate) map[string]rustdoc.ID {
	idx := make(map[string]rustdoc.ID)
	for id, summary := range doc.Paths {
		if _, ok := doc.Index[id]; !ok {
			continue
		}
		key := pathKey(summary.Path)
		if prev, dup := idx[key]; dup && prev < id {
			// Keep the choice deterministic when two local ids share a path.
			continue
		}
		idx[key] = id
	}
	return idx
}

func pathKey(path []string) string {
	return strings.Join(path, "::")
}

// Packages returns the names of all loaded documents.
func (s *Store) Packages() []string {
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	return names
}

// Document returns the named package's document.
func (s *Store) Document(pkg string) (*rustdoc.Crate, bool) {
	doc, ok := s.docs[pkg]
	return doc, ok
}

// PackageIDs returns the root module id of every loaded package.
// Order is unspecified.
func (s *Store) PackageIDs() []ID {
	var ids []ID
	for name, doc := range s.docs {
		root, ok := doc.Index[doc.Root]
		if !ok || root.CrateID != 0 {
			continue
		}
		if m, ok := root.Inner.(*rustdoc.Module); !ok || !m.IsCrate {
			continue
		}
		ids = append(ids, ID{Package: name, Local: doc.Root})
	}
	return ids
}

// Resolve returns the record id refers to. Ids not defined in their own
// package are followed, by qualified path, into the owning package; this is a
// single hop. Misses are logged and reported as false, never as errors:
// foreign documents may legitimately be absent.
func (s *Store) Resolve(id ID) (Symbol, bool) {
	if id.IsZero() {
		return Symbol{}, false
	}
	doc, ok := s.docs[id.Package]
	if !ok {
		s.log.Warn("unresolved id: package not loaded", "package", id.Package, "id", string(id.Local))
		return Symbol{}, false
	}

	local := id.Local
	if local == "" {
		local = doc.Root
	}
	if item, ok := doc.Index[local]; ok {
		return Symbol{ID: ID{Package: id.Package, Local: local}, Item: item}, true
	}

	summary, ok := doc.Paths[local]
	if !ok {
		s.log.Warn("unresolved id: no path summary", "package", id.Package, "id", string(local))
		return Symbol{}, false
	}
	path := pathKey(summary.Path)

	owner := s.owner(doc, summary)
	target, ok := s.docs[owner]
	if !ok {
		s.log.Warn("unresolved id: owning package not loaded",
			"package", id.Package, "id", string(local), "owner", owner, "path", path)
		return Symbol{}, false
	}
	targetID, ok := s.byPath[owner][path]
	if !ok {
		s.log.Warn("unresolved id: no matching path in owning package",
			"package", id.Package, "id", string(local), "owner", owner, "path", path)
		return Symbol{}, false
	}
	item, ok := target.Index[targetID]
	if !ok {
		s.log.Warn("unresolved id: missing index entry",
			"package", id.Package, "id", string(local), "owner", owner, "path", path)
		return Symbol{}, false
	}
	return Symbol{ID: ID{Package: owner, Local: targetID}, Item: item}, true
}

// owner names the package that defines the item a path summary describes.
func (s *Store) owner(doc *rustdoc.Crate, summary rustdoc.ItemSummary) string {
	if summary.CrateID != 0 {
		if ext, ok := doc.ExternalCrates[strconv.FormatUint(uint64(summary.CrateID), 10)]; ok && ext.Name != "" {
			return ext.Name
		}
	}
	if len(summary.Path) > 0 {
		return summary.Path[0]
	}
	return ""
}

// PathOf returns the qualified path segments recorded for id in its
// package's paths table.
func (s *Store) PathOf(id ID) ([]string, bool) {
	summary, ok := s.summary(id)
	if !ok {
		return nil, false
	}
	return summary.Path, true
}

// Owner returns the name of the package that defines id, according to its
// package's paths table. Ids defined locally without a paths entry belong to
// their own package.
func (s *Store) Owner(id ID) (string, bool) {
	doc, ok := s.docs[id.Package]
	if !ok {
		return "", false
	}
	summary, ok := s.summary(id)
	if !ok {
		if _, local := doc.Index[id.Local]; local {
			return id.Package, true
		}
		return "", false
	}
	if summary.CrateID == 0 {
		return id.Package, true
	}
	return s.owner(doc, summary), true
}

func (s *Store) summary(id ID) (rustdoc.ItemSummary, bool) {
	doc, ok := s.docs[id.Package]
	if !ok {
		return rustdoc.ItemSummary{}, false
	}
	local := id.Local
	if local == "" {
		local = doc.Root
	}
	summary, ok := doc.Paths[local]
	return summary, ok
}
