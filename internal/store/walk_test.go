package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/rsbrowse/internal/rustdoc"
	"github.com/phobologic/rsbrowse/internal/testutil"
)

func TestChildrenByKind(t *testing.T) {
	s := newStore(t)
	tests := []struct {
		name   string
		parent ID
		want   []string
	}{
		{"crate root", ID{Package: "b"}, []string{"x", "y", "z", "misc", "Trait"}},
		{"module with impls", ID{Package: "b", Local: "0:1"}, []string{"S", "E", "<impl>", "<impl>"}},
		{"struct fields then impls", ID{Package: "b", Local: "0:2"},
			[]string{"int_field", "string_field", "opt_field", "fn_field", "e_field", "<impl>", "<impl>", "<impl>", "<impl>"}},
		{"enum variants", ID{Package: "b", Local: "0:10"}, []string{"UnitVariant", "TupleVariant", "StructVariant"}},
		{"unit variant", ID{Package: "b", Local: "0:11"}, nil},
		{"tuple variant", ID{Package: "b", Local: "0:17"}, []string{"0"}},
		{"struct variant", ID{Package: "b", Local: "0:18"}, []string{"a"}},
		{"field walks its type", ID{Package: "b", Local: "0:16"}, []string{"E"}},
		{"foreign-only field type", ID{Package: "b", Local: "0:4"}, nil},
		{"trait", ID{Package: "b", Local: "0:50"}, []string{"method"}},
		{"type alias", ID{Package: "b", Local: "0:63"}, []string{"S", "E"}},
		{"function", ID{Package: "b", Local: "0:20"}, nil},
		{"macro", ID{Package: "b", Local: "0:64"}, nil},
		{"unresolvable parent", ID{Package: "b", Local: "2:10"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Children(tt.parent)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestImplChildrenAppendTrait(t *testing.T) {
	s := newStore(t)
	got := s.Children(ID{Package: "a", Local: "0:3"})
	require.Len(t, got, 2)
	assert.Equal(t, ID{Package: "a", Local: "0:4"}, got[0].ID)
	assert.Equal(t, ID{Package: "ext", Local: "1"}, got[1].ID)
}

func TestImplChildrenForeignTraitMissing(t *testing.T) {
	s := newStore(t)
	// core is not loaded, so only the impl's own item survives.
	got := s.Children(ID{Package: "b", Local: "0:12"})
	assert.Equal(t, []string{"fmt"}, names(got))
}

func TestImplDefaultsAndOverrides(t *testing.T) {
	s := newStore(t)
	traitMethod := ID{Package: "b", Local: "0:51"}
	trait := ID{Package: "b", Local: "0:50"}

	overriding := s.Children(ID{Package: "b", Local: "0:34"})
	require.Len(t, overriding, 2)
	assert.Equal(t, ID{Package: "b", Local: "0:35"}, overriding[0].ID)
	assert.Equal(t, "method", *overriding[0].Item.Name)
	assert.Equal(t, trait, overriding[1].ID)

	inheriting := s.Children(ID{Package: "b", Local: "0:42"})
	require.Len(t, inheriting, 2)
	assert.Equal(t, traitMethod, inheriting[0].ID)
	assert.Equal(t, trait, inheriting[1].ID)
}

func TestImplOverrideKeepsSameNamedAssocType(t *testing.T) {
	docs := testutil.Docs(t)
	b := docs["b"]
	name := "method"
	b.Index["0:90"] = &rustdoc.Item{
		ID:    "0:90",
		Name:  &name,
		Inner: &rustdoc.AssocType{Default: &rustdoc.Type{Expr: rustdoc.PrimitiveType("u8")}},
	}
	trait := b.Index["0:50"].Inner.(*rustdoc.Trait)
	trait.Items = append(trait.Items, "0:90")
	s := New(docs, nil)

	// The impl overrides fn method only; type method keeps its default.
	overriding := s.Children(ID{Package: "b", Local: "0:34"})
	require.Len(t, overriding, 3)
	assert.Equal(t, ID{Package: "b", Local: "0:35"}, overriding[0].ID)
	assert.Equal(t, ID{Package: "b", Local: "0:90"}, overriding[1].ID)
	assert.Equal(t, ID{Package: "b", Local: "0:50"}, overriding[2].ID)

	inheriting := s.Children(ID{Package: "b", Local: "0:42"})
	assert.Equal(t, []ID{
		{Package: "b", Local: "0:51"},
		{Package: "b", Local: "0:90"},
		{Package: "b", Local: "0:50"},
	}, ids(inheriting))
}

func ids(syms []Symbol) []ID {
	out := make([]ID, 0, len(syms))
	for _, s := range syms {
		out = append(out, s.ID)
	}
	return out
}

func TestChildrenDeduplicates(t *testing.T) {
	docs := newStore(t).docs
	m := docs["b"].Index["0:1"].Inner.(*rustdoc.Module)
	m.Items = append(m.Items, "0:2", "0:2")
	s := New(docs, nil)

	got := s.Children(ID{Package: "b", Local: "0:1"})
	count := 0
	for _, sym := range got {
		if sym.ID == (ID{Package: "b", Local: "0:2"}) {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestTypeIDs(t *testing.T) {
	b := newStore(t, "b").docs["b"]
	field := func(id rustdoc.ID) rustdoc.Type {
		return b.Index[id].Inner.(*rustdoc.StructField).Type
	}
	fn := func(id rustdoc.ID) *rustdoc.Function {
		return b.Index[id].Inner.(*rustdoc.Function)
	}

	tests := []struct {
		name string
		typ  rustdoc.Type
		want []rustdoc.ID
	}{
		{"primitive", field("0:3"), nil},
		{"path", field("0:16"), []rustdoc.ID{"0:10"}},
		{"nested generics", field("0:4"), []rustdoc.ID{"2:10", "2:11", "3:12"}},
		{"dyn with parenthesized args", field("0:8"), []rustdoc.ID{"4:13", "2:14", "4:15", "2:10"}},
		{"tuple", fn("0:21").Sig.Inputs[1].Type, []rustdoc.ID{"0:2", "0:10"}},
		{"reference to generic", fn("0:21").Sig.Inputs[0].Type, nil},
		{"reference with lifetime arg", fn("0:25").Sig.Inputs[1].Type, []rustdoc.ID{"2:28"}},
		{"empty", rustdoc.Type{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TypeIDs(tt.typ)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeIDsSynthesized(t *testing.T) {
	path := func(id rustdoc.ID) rustdoc.Path { return rustdoc.Path{Written: string(id), ID: id} }
	self := rustdoc.Type{Expr: &rustdoc.ResolvedPath{Path: path("0:1")}}

	tests := []struct {
		name string
		typ  rustdoc.Type
		want []rustdoc.ID
	}{
		{"slice", rustdoc.Type{Expr: &rustdoc.Slice{Elem: self}}, []rustdoc.ID{"0:1"}},
		{"array", rustdoc.Type{Expr: &rustdoc.Array{Type: self, Len: "4"}}, []rustdoc.ID{"0:1"}},
		{"raw pointer", rustdoc.Type{Expr: &rustdoc.RawPointer{Type: self}}, []rustdoc.ID{"0:1"}},
		{"impl trait skips lifetimes", rustdoc.Type{Expr: rustdoc.ImplTrait{
			{TraitBound: &rustdoc.TraitBound{Trait: path("0:2")}},
			{Outlives: new(string)},
		}}, []rustdoc.ID{"0:2"}},
		{"qualified path", rustdoc.Type{Expr: &rustdoc.QualifiedPath{
			Name: "Item", SelfType: self, Trait: &rustdoc.Path{Written: "Iterator", ID: "0:3"},
		}}, []rustdoc.ID{"0:1", "0:3"}},
		{"function pointer", rustdoc.Type{Expr: &rustdoc.FunctionPointer{
			Sig: rustdoc.FnDecl{Inputs: []rustdoc.Param{{Name: "x", Type: self}}},
		}}, nil},
		{"duplicates collapse", rustdoc.Type{Expr: rustdoc.Tuple{self, self}}, []rustdoc.ID{"0:1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TypeIDs(tt.typ)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
