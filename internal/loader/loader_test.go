package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/rsbrowse/internal/discover"
	"github.com/phobologic/rsbrowse/internal/testutil"
)

func TestDocDir(t *testing.T) {
	assert.Equal(t, filepath.Join("ws", "target", "rsbrowse", "doc"), DocDir("ws"))
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	testutil.WriteDocs(t, DocDir(root))
	testutil.WriteFile(t, DocDir(root), "notes.txt", "not a document")
	require.NoError(t, os.MkdirAll(filepath.Join(DocDir(root), "src"), 0o755))

	for _, workers := range []int{0, 1, 8} {
		docs, err := Load(root, workers)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		for _, name := range testutil.Packages {
			require.Contains(t, docs, name)
		}
		assert.Equal(t, "0:0", string(docs["b"].Root))
		assert.Equal(t, "0", string(docs["ext"].Root))
	}
}

func TestLoadEmpty(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(DocDir(root), 0o755))

	docs, err := Load(root, 0)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(t.TempDir(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), filepath.Join("target", "rsbrowse", "doc"))
}

func TestLoadMalformed(t *testing.T) {
	root := t.TempDir()
	testutil.WriteDocs(t, DocDir(root))
	testutil.WriteFile(t, DocDir(root), "broken.json", `{"root": "0:0", "index": [`)

	docs, err := Load(root, 2)
	require.Error(t, err)
	assert.Nil(t, docs)
	assert.Contains(t, err.Error(), "broken.json")
}

func TestIsFresh(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "src/lib.rs", "pub fn f() {}")
	sources := []discover.FileEntry{{Path: filepath.Join("src", "lib.rs")}}

	assert.False(t, IsFresh(root, sources), "no documents yet")

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "src", "lib.rs"), old, old))
	testutil.WriteDocs(t, DocDir(root))
	assert.True(t, IsFresh(root, sources))

	now := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "src", "lib.rs"), now, now))
	assert.False(t, IsFresh(root, sources), "source edited after generation")

	assert.False(t, IsFresh(root, []discover.FileEntry{{Path: "missing.rs"}}))
}
