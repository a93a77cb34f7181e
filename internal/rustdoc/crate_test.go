package rustdoc_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/rsbrowse/internal/rustdoc"
	"github.com/phobologic/rsbrowse/internal/testutil"
)

func TestReadFixtures(t *testing.T) {
	docs := testutil.Docs(t)
	require.Len(t, docs, 3)

	ext := docs["ext"]
	assert.Equal(t, rustdoc.ID("0"), ext.Root, "integer ids decode to their decimal text")
	root := ext.Index[ext.Root]
	require.NotNil(t, root)
	m, ok := root.Inner.(*rustdoc.Module)
	require.True(t, ok)
	assert.True(t, m.IsCrate)
	assert.Equal(t, []rustdoc.ID{"1"}, m.Items)

	b := docs["b"]
	assert.Equal(t, rustdoc.ID("0:0"), b.Root)
	assert.Equal(t, "core", b.ExternalCrates["2"].Name)
	assert.Equal(t, []string{"b", "x", "S"}, b.Paths["0:2"].Path)
}

func TestItemKinds(t *testing.T) {
	b := testutil.Docs(t, "b")["b"]
	tests := []struct {
		id   rustdoc.ID
		kind rustdoc.Kind
	}{
		{"0:0", rustdoc.KindModule},
		{"0:2", rustdoc.KindStruct},
		{"0:3", rustdoc.KindStructField},
		{"0:5", rustdoc.KindImpl},
		{"0:10", rustdoc.KindEnum},
		{"0:11", rustdoc.KindVariant},
		{"0:20", rustdoc.KindFunction},
		{"0:50", rustdoc.KindTrait},
		{"0:61", rustdoc.KindConstant},
		{"0:62", rustdoc.KindStatic},
		{"0:63", rustdoc.KindTypeAlias},
		{"0:64", rustdoc.KindMacro},
		{"0:66", rustdoc.KindUse},
	}
	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			item := b.Index[tt.id]
			require.NotNil(t, item)
			assert.Equal(t, tt.kind, item.Kind())
		})
	}
}

func TestStructAndVariantLayouts(t *testing.T) {
	b := testutil.Docs(t, "b")["b"]

	s := b.Index["0:2"].Inner.(*rustdoc.Struct)
	assert.Equal(t, rustdoc.ShapeNamed, s.Layout.Shape)
	assert.Equal(t, []rustdoc.ID{"0:3", "0:9", "0:4", "0:8", "0:16"}, s.Layout.IDs())

	unit := b.Index["0:31"].Inner.(*rustdoc.Struct)
	assert.Equal(t, rustdoc.ShapeUnit, unit.Layout.Shape)
	assert.Empty(t, unit.Layout.IDs())

	tuple := b.Index["0:17"].Inner.(*rustdoc.Variant)
	assert.Equal(t, rustdoc.ShapeTuple, tuple.Layout.Shape)
	assert.Equal(t, []rustdoc.ID{"0:19"}, tuple.Layout.IDs())

	named := b.Index["0:18"].Inner.(*rustdoc.Variant)
	assert.Equal(t, rustdoc.ShapeNamed, named.Layout.Shape)

	plain := b.Index["0:11"].Inner.(*rustdoc.Variant)
	assert.Equal(t, rustdoc.ShapeUnit, plain.Layout.Shape)
}

func TestFunctionSignature(t *testing.T) {
	b := testutil.Docs(t, "b")["b"]
	f := b.Index["0:20"].Inner.(*rustdoc.Function)

	require.Len(t, f.Sig.Inputs, 2)
	assert.Equal(t, "self", f.Sig.Inputs[0].Name)
	ref, ok := f.Sig.Inputs[0].Type.Expr.(*rustdoc.BorrowedRef)
	require.True(t, ok)
	assert.False(t, ref.IsMutable)
	assert.Equal(t, rustdoc.Generic("Self"), ref.Type.Expr)

	assert.Equal(t, "e_arg", f.Sig.Inputs[1].Name)
	require.NotNil(t, f.Sig.Output)
	out, ok := f.Sig.Output.Expr.(*rustdoc.ResolvedPath)
	require.True(t, ok)
	assert.Equal(t, "S", out.Text())
	assert.Equal(t, rustdoc.ID("0:2"), out.ID)

	pair := b.Index["0:21"].Inner.(*rustdoc.Function)
	assert.Nil(t, pair.Sig.Output)
}

func TestNestedGenericArgs(t *testing.T) {
	b := testutil.Docs(t, "b")["b"]
	field := b.Index["0:8"].Inner.(*rustdoc.StructField)

	box, ok := field.Type.Expr.(*rustdoc.ResolvedPath)
	require.True(t, ok)
	require.NotNil(t, box.Args)
	require.NotNil(t, box.Args.Angle)
	require.Len(t, box.Args.Angle.Args, 1)

	dyn, ok := box.Args.Angle.Args[0].Type.Expr.(*rustdoc.DynTrait)
	require.True(t, ok)
	require.Len(t, dyn.Traits, 1)
	fn := dyn.Traits[0].Trait
	assert.Equal(t, "Fn", fn.Text())
	require.NotNil(t, fn.Args.Parenthesized)
	assert.Len(t, fn.Args.Parenthesized.Inputs, 2)
	require.NotNil(t, fn.Args.Parenthesized.Output)
}

func TestAttrsAndImplFlags(t *testing.T) {
	docs := testutil.Docs(t, "a", "b")

	derived := docs["b"].Index["0:6"]
	assert.True(t, derived.HasAttr("automatically_derived"))

	synthetic := docs["a"].Index["0:5"].Inner.(*rustdoc.Impl)
	assert.True(t, synthetic.IsSynthetic)

	blanket := docs["a"].Index["0:6"].Inner.(*rustdoc.Impl)
	assert.NotNil(t, blanket.BlanketImpl)

	inherent := docs["b"].Index["0:5"].Inner.(*rustdoc.Impl)
	assert.Nil(t, inherent.Trait)
}

func TestLegacyItemForm(t *testing.T) {
	doc := `{
		"root": "0:0",
		"index": {
			"0:0": {"id": "0:0", "crate_id": 0, "name": "old", "kind": "module",
				"inner": {"is_crate": true, "items": ["0:1"]}},
			"0:1": {"id": "0:1", "crate_id": 0, "name": "go", "kind": "method",
				"inner": {"decl": {"inputs": [["x", {"kind": "primitive", "inner": "u8"}]], "output": null}, "has_body": true}},
			"0:2": {"id": "0:2", "crate_id": 0, "name": "Alias", "kind": "typedef",
				"inner": {"type": {"infer": null}}}
		},
		"paths": {}
	}`
	c, err := rustdoc.Read(strings.NewReader(doc))
	// The old type encoding is not supported; only the item envelope is.
	require.Error(t, err)
	assert.Nil(t, c)

	doc = strings.Replace(doc, `{"kind": "primitive", "inner": "u8"}`, `{"primitive": "u8"}`, 1)
	c, err = rustdoc.Read(strings.NewReader(doc))
	require.NoError(t, err)

	fn := c.Index["0:1"].Inner.(*rustdoc.Function)
	require.Len(t, fn.Sig.Inputs, 1)
	assert.Equal(t, rustdoc.PrimitiveType("u8"), fn.Sig.Inputs[0].Type.Expr)

	alias := c.Index["0:2"].Inner.(*rustdoc.TypeAlias)
	assert.Equal(t, rustdoc.Infer{}, alias.Type.Expr)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not json", `{`, "unexpected EOF"},
		{"no index", `{"root": "0:0"}`, "no index"},
		{"missing root", `{"root": "0:9", "index": {}}`, "not present"},
		{"unknown kind", `{"root": "0:0", "index": {"0:0": {"id": "0:0", "inner": {"gizmo": {}}}}}`, `unknown item kind "gizmo"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rustdoc.Read(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRawPreserved(t *testing.T) {
	b := testutil.Docs(t, "b")["b"]
	assert.Contains(t, string(b.Index["0:20"].Raw), `"name": "f"`)
}
