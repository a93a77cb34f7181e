// Package source reads Rust source files for display and extracts
// declaration headers from them using tree-sitter.
package source

import (
	"bufio"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

//go:embed queries/rust.scm
var queryFS embed.FS

// ErrNoDeclaration is returned when no declaration starts at or after the
// requested line.
var ErrNoDeclaration = errors.New("no declaration found")

var whitespaceRe = regexp.MustCompile(`\s+`)

var (
	queryOnce sync.Once
	query     *sitter.Query
	queryErr  error
)

// declarationQuery returns the compiled declaration query (safe to share
// across goroutines).
func declarationQuery() (*sitter.Query, error) {
	queryOnce.Do(func() {
		data, err := queryFS.ReadFile("queries/rust.scm")
		if err != nil {
			queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, rust.GetLanguage())
		if err != nil {
			queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		query = q
	})
	return query, queryErr
}

// Listing returns the file at path with every line prefixed by its 1-based
// number: "<n>: <line>\n".
func Listing(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		fmt.Fprintf(&b, "%d: %s\n", n, sc.Text())
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(&b, "%d: <Read Error: %v>\n", n+1, err)
	}
	return b.String(), nil
}

// Signature returns the header of the first declaration in the file at path
// that starts on or after line (1-based).
func Signature(path string, line int) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ExtractSignature(src, line)
}

// ExtractSignature returns the header of the first declaration in src that
// starts on or after line (1-based): its text up to its body, with whitespace
// collapsed.
func ExtractSignature(src []byte, line int) (string, error) {
	if len(src) == 0 {
		return "", ErrNoDeclaration
	}
	q, err := declarationQuery()
	if err != nil {
		return "", err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return "", fmt.Errorf("parsing: %w", err)
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	row := uint32(max(line-1, 0))
	var found *sitter.Node
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range match.Captures {
			n := c.Node
			if n.StartPoint().Row < row {
				continue
			}
			if found == nil || n.StartByte() < found.StartByte() {
				found = n
			}
		}
	}
	if found == nil {
		return "", ErrNoDeclaration
	}
	return header(found, src), nil
}

// header returns a declaration's text up to its body.
func header(node *sitter.Node, src []byte) string {
	end := node.EndByte()
	if body := node.ChildByFieldName("body"); body != nil {
		end = body.StartByte()
	}
	text := collapseWhitespace(string(src[node.StartByte():end]))
	return strings.TrimRight(text, ";, ")
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
