// Package testutil holds rustdoc fixtures shared by package tests.
//
// The fixture workspace has three crates: ext (defines Trait), a (implements
// ext::Trait for m::S) and b (a broader crate exercising every browsing rule).
// fixtures/src holds b's source, matching the spans recorded in b.json.
package testutil

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phobologic/rsbrowse/internal/rustdoc"
)

//go:embed fixtures
var fixtures embed.FS

// Packages lists the fixture package names.
var Packages = []string{"a", "b", "ext"}

// Docs decodes the named fixture documents, or all of them when none are
// named.
func Docs(t testing.TB, names ...string) map[string]*rustdoc.Crate {
	t.Helper()
	if len(names) == 0 {
		names = Packages
	}
	docs := make(map[string]*rustdoc.Crate, len(names))
	for _, name := range names {
		f, err := fixtures.Open("fixtures/" + name + ".json")
		require.NoError(t, err)
		doc, err := rustdoc.Read(f)
		f.Close()
		require.NoError(t, err, "decoding fixture %s", name)
		docs[name] = doc
	}
	return docs
}

// Raw returns the named fixture document's bytes.
func Raw(t testing.TB, name string) []byte {
	t.Helper()
	data, err := fixtures.ReadFile("fixtures/" + name + ".json")
	require.NoError(t, err)
	return data
}

// WriteDocs copies the fixture documents into dir as <name>.json.
func WriteDocs(t testing.TB, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range Packages {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), Raw(t, name), 0o644))
	}
}

// WriteSources copies the fixture source tree into root, so that relative
// span file names resolve against it. It returns root.
func WriteSources(t testing.TB, root string) string {
	t.Helper()
	err := fs.WalkDir(fixtures, "fixtures/src", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fixtures.ReadFile(path)
		if err != nil {
			return err
		}
		dest := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(path, "fixtures/src/")))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dest, data, 0o644)
	})
	require.NoError(t, err)
	return root
}

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t testing.TB, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
