package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/rsbrowse/internal/testutil"
)

func TestReadPackage(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "Cargo.toml", `
[package]
name = "my-crate"
version = "0.1.0"

[dependencies]
serde = { version = "1", features = ["derive"] }
`)

	m, err := Read(dir)
	require.NoError(t, err)
	require.NotNil(t, m.Package)
	assert.Equal(t, "my-crate", m.Package.Name)
	assert.Equal(t, "my_crate", m.CrateName())
	assert.Nil(t, m.Workspace)
}

func TestCrateNameFromLib(t *testing.T) {
	m := &Manifest{Package: &PackageSection{Name: "my-crate"}, Lib: &TargetSection{Name: "mine"}}
	assert.Equal(t, "mine", m.CrateName())

	assert.Empty(t, (&Manifest{}).CrateName())
}

func TestReadErrors(t *testing.T) {
	_, err := Read(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)

	dir := t.TempDir()
	testutil.WriteFile(t, dir, "Cargo.toml", "[package\nname = ")
	_, err = Read(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestMembers(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "Cargo.toml", `
[package]
name = "top-level"

[workspace]
members = ["crates/*", "tools/cli", "."]
exclude = ["crates/skipped"]
`)
	testutil.WriteFile(t, root, "crates/alpha/Cargo.toml", "[package]\nname = \"alpha-core\"\n")
	testutil.WriteFile(t, root, "crates/beta/Cargo.toml", "[package]\nname = \"beta\"\n[lib]\nname = \"beta_lib\"\n")
	testutil.WriteFile(t, root, "crates/skipped/Cargo.toml", "[package]\nname = \"skipped\"\n")
	testutil.WriteFile(t, root, "crates/README.md", "not a crate")
	testutil.WriteFile(t, root, "tools/cli/Cargo.toml", "[package]\nname = \"cli\"\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "crates", "empty"), 0o755))

	members, err := Members(root)
	require.NoError(t, err)
	assert.Equal(t, []Member{
		{Crate: "alpha_core", Package: "alpha-core", Dir: filepath.Join("crates", "alpha")},
		{Crate: "beta_lib", Package: "beta", Dir: filepath.Join("crates", "beta")},
		{Crate: "cli", Package: "cli", Dir: filepath.Join("tools", "cli")},
		{Crate: "top_level", Package: "top-level", Dir: "."},
	}, members)

	crates := Crates(members)
	assert.Contains(t, crates, "alpha_core")
	assert.NotContains(t, crates, "skipped")
}

func TestMembersVirtualManifest(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "Cargo.toml", "[workspace]\nmembers = [\"a\"]\n")
	testutil.WriteFile(t, root, "a/Cargo.toml", "[package]\nname = \"a\"\n")

	members, err := Members(root)
	require.NoError(t, err)
	assert.Equal(t, []Member{{Crate: "a", Package: "a", Dir: "a"}}, members)
}

func TestMembersBrokenMember(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, "Cargo.toml", "[workspace]\nmembers = [\"a\"]\n")
	testutil.WriteFile(t, root, "a/Cargo.toml", "[package\n")

	_, err := Members(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join("a", "Cargo.toml"))
}
