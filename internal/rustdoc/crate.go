// Package rustdoc defines the rustdoc JSON document format consumed by rsbrowse.
//
// One document describes one crate: an index of the items the crate defines,
// and a paths table summarizing every item (local or foreign) the document
// references. Item payloads and type expressions are closed unions decoded
// into concrete Go types; callers switch on them exhaustively.
package rustdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ID identifies an item within the document that mentions it.
// Older format versions encode ids as strings ("0:12:345"), newer ones as
// integers; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts both string and integer ids.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Crate is one parsed metadata document.
type Crate struct {
	Root            ID                       `json:"root"`
	CrateVersion    *string                  `json:"crate_version"`
	IncludesPrivate bool                     `json:"includes_private"`
	Index           map[ID]*Item             `json:"index"`
	Paths           map[ID]ItemSummary       `json:"paths"`
	ExternalCrates  map[string]ExternalCrate `json:"external_crates"`
	FormatVersion   int                      `json:"format_version"`
}

// ItemSummary is the paths-table entry for an id: its fully qualified path and
// the crate (by document-relative number) that owns it. Crate id 0 is the
// document's own crate.
type ItemSummary struct {
	CrateID uint32   `json:"crate_id"`
	Path    []string `json:"path"`
	Kind    string   `json:"kind"`
}

// ExternalCrate names a crate referenced by number from ItemSummary.CrateID.
type ExternalCrate struct {
	Name        string  `json:"name"`
	HTMLRootURL *string `json:"html_root_url"`
}

// Span is a source location. Begin and End are (line, column), lines 1-based.
type Span struct {
	Filename string `json:"filename"`
	Begin    [2]int `json:"begin"`
	End      [2]int `json:"end"`
}

// Line returns the 1-based starting line.
func (s *Span) Line() int {
	return s.Begin[0]
}

// Item is one entry of a document's index.
type Item struct {
	ID          ID
	CrateID     uint32
	Name        *string
	Span        *Span
	Visibility  json.RawMessage
	Docs        *string
	Attrs       []json.RawMessage
	Deprecation json.RawMessage
	Inner       Inner

	// Raw is the item exactly as it appeared in the document.
	Raw json.RawMessage
}

// UnmarshalJSON decodes an item, including its kind-tagged payload.
// Both the current externally tagged "inner" form and the older
// "kind" + "inner" form are accepted.
func (it *Item) UnmarshalJSON(data []byte) error {
	var p struct {
		ID          ID                `json:"id"`
		CrateID     uint32            `json:"crate_id"`
		Name        *string           `json:"name"`
		Span        *Span             `json:"span"`
		Visibility  json.RawMessage   `json:"visibility"`
		Docs        *string           `json:"docs"`
		Attrs       []json.RawMessage `json:"attrs"`
		Deprecation json.RawMessage   `json:"deprecation"`
		Kind        string            `json:"kind"`
		Inner       json.RawMessage   `json:"inner"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var (
		inner Inner
		err   error
	)
	if p.Kind != "" {
		inner, err = decodeInnerPayload(p.Kind, p.Inner)
	} else {
		inner, err = decodeInner(p.Inner)
	}
	if err != nil {
		return fmt.Errorf("item %s: %w", p.ID, err)
	}

	*it = Item{
		ID:          p.ID,
		CrateID:     p.CrateID,
		Name:        p.Name,
		Span:        p.Span,
		Visibility:  p.Visibility,
		Docs:        p.Docs,
		Attrs:       p.Attrs,
		Deprecation: p.Deprecation,
		Inner:       inner,
		Raw:         append(json.RawMessage(nil), data...),
	}
	return nil
}

// Kind returns the kind of the item's payload.
func (it *Item) Kind() Kind {
	return it.Inner.Kind()
}

// NameOr returns the item's name, or fallback when it has none.
func (it *Item) NameOr(fallback string) string {
	if it.Name == nil || *it.Name == "" {
		return fallback
	}
	return *it.Name
}

// HasAttr reports whether any attribute mentions name, e.g.
// "automatically_derived". Attributes are matched textually because their
// encoding differs between format versions.
func (it *Item) HasAttr(name string) bool {
	for _, a := range it.Attrs {
		if strings.Contains(string(a), name) {
			return true
		}
	}
	return false
}

// Read decodes a document from r.
func Read(r io.Reader) (*Crate, error) {
	var c Crate
	dec := json.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}
	if c.Index == nil {
		return nil, fmt.Errorf("document has no index")
	}
	if _, ok := c.Index[c.Root]; !ok {
		return nil, fmt.Errorf("root %q not present in index", c.Root)
	}
	return &c, nil
}

// ReadFile decodes the document stored at path.
func ReadFile(path string) (*Crate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
