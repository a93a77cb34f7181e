// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/rsbrowse/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// EncodeWorkspace converts a WorkspaceMap into TOON format.
func EncodeWorkspace(wm *model.WorkspaceMap) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(wm.Root)))

	var pkgRows [][]string
	for i := range wm.Packages {
		p := &wm.Packages[i]
		role := "dependency"
		if p.Member {
			role = "member"
		}
		pkgRows = append(pkgRows, []string{
			p.Name,
			role,
			fmt.Sprintf("%.4f", p.Rank),
		})
	}
	parts = append(parts, formatTabular("packages", []string{"name", "role", "rank"}, pkgRows))

	var depRows [][]string
	for i := range wm.Dependencies {
		d := &wm.Dependencies[i]
		depRows = append(depRows, []string{
			d.Source,
			d.Target,
			strings.Join(d.Symbols, " "),
		})
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "target", "symbols"}, depRows))

	return strings.Join(parts, "\n")
}

// EncodeListing converts a Listing into TOON format.
func EncodeListing(l *model.Listing) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("package: %s", encodeValue(l.Package)))
	parts = append(parts, formatList("path", l.Path))

	var rows [][]string
	for i := range l.Entries {
		e := &l.Entries[i]
		rows = append(rows, []string{e.Label, e.Kind, e.ID})
	}
	parts = append(parts, formatTabular("entries", []string{"label", "kind", "id"}, rows))

	return strings.Join(parts, "\n")
}

// EncodeTree converts a Tree into TOON format.
func EncodeTree(tr *model.Tree) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("package: %s", encodeValue(tr.Package)))
	parts = append(parts, formatList("path", tr.Path))

	var rows [][]string
	for i := range tr.Nodes {
		n := &tr.Nodes[i]
		rows = append(rows, []string{fmt.Sprintf("%d", n.Depth), n.Label, n.Kind})
	}
	parts = append(parts, formatTabular("nodes", []string{"depth", "label", "kind"}, rows))

	return strings.Join(parts, "\n")
}

// EncodeInfo converts an Info into TOON format.
func EncodeInfo(info *model.Info) string {
	parts := []string{
		fmt.Sprintf("package: %s", encodeValue(info.Package)),
		formatList("path", info.Path),
		fmt.Sprintf("kind: %s", encodeValue(info.Kind)),
		fmt.Sprintf("id: %s", encodeValue(info.ID)),
	}
	if info.Signature != "" {
		parts = append(parts, fmt.Sprintf("signature: %s", encodeValue(info.Signature)))
	}
	parts = append(parts, fmt.Sprintf("info: %s", encodeValue(info.Info)))
	return strings.Join(parts, "\n")
}

func formatList(name string, values []string) string {
	if len(values) == 0 {
		return name + "[0]:"
	}
	encoded := make([]string, len(values))
	for i, v := range values {
		encoded[i] = encodeValue(v)
	}
	return fmt.Sprintf("%s[%d]: %s", name, len(values), strings.Join(encoded, ","))
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
