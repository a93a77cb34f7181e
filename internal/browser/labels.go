package browser

import (
	"strings"

	"github.com/phobologic/rsbrowse/internal/rustdoc"
	"github.com/phobologic/rsbrowse/internal/store"
)

const unnamed = "<unnamed>"

// Label returns the display label of a resolved symbol.
func (b *Browser) Label(sym store.Symbol) string {
	item := sym.Item
	name := item.NameOr(unnamed)

	switch inner := item.Inner.(type) {
	case *rustdoc.Module:
		return "mod " + name
	case *rustdoc.ExternCrate:
		return "extern crate " + inner.Name
	case *rustdoc.Use:
		if inner.IsGlob {
			return "use " + inner.Source + "::*"
		}
		return "use " + inner.Source
	case *rustdoc.Union:
		return "union " + name
	case *rustdoc.Struct:
		return "struct " + name
	case *rustdoc.StructField:
		return name + ": " + TypeLabel(inner.Type)
	case *rustdoc.Enum:
		return "enum " + name
	case *rustdoc.Variant:
		if field, ok := b.soleTupleField(sym.ID.Package, inner); ok {
			return "variant " + name + "(" + TypeLabel(field.Type) + ")"
		}
		return "variant " + name
	case *rustdoc.Function:
		return "fn " + name
	case *rustdoc.Trait:
		return "trait " + name
	case *rustdoc.TraitAlias:
		return "trait alias " + name
	case *rustdoc.Impl:
		return b.implLabel(sym.ID.Package, inner)
	case *rustdoc.TypeAlias:
		return "type " + name
	case *rustdoc.OpaqueType:
		return "opaque type " + name
	case *rustdoc.Constant:
		return "const " + name + ": " + TypeLabel(inner.Type)
	case *rustdoc.Static:
		if inner.IsMutable {
			return "static mut " + name + ": " + TypeLabel(inner.Type)
		}
		return "static " + name + ": " + TypeLabel(inner.Type)
	case *rustdoc.ExternType:
		return "extern type " + name
	case *rustdoc.Macro:
		return "macro " + name
	case *rustdoc.ProcMacro:
		return "proc macro " + name
	case *rustdoc.Primitive:
		return "primitive " + name
	case *rustdoc.AssocConst:
		label := "const " + name + ": " + TypeLabel(inner.Type)
		if v := inner.DefaultValue(); v != nil {
			label += " = " + *v
		}
		return label
	case *rustdoc.AssocType:
		if t := inner.DefaultType(); t != nil {
			return "type " + name + " = " + TypeLabel(*t)
		}
		return "type " + name
	default:
		return name
	}
}

// implLabel names the trait an impl block implements: by its short name when
// the trait lives in the same package as the block, by its full path
// otherwise. Inherent blocks are "impl Self".
func (b *Browser) implLabel(pkg string, impl *rustdoc.Impl) string {
	if impl.Trait == nil {
		return "impl Self"
	}
	trait := impl.Trait
	id := store.ID{Package: pkg, Local: trait.ID}

	name := trait.Text()
	owner, ok := b.store.Owner(id)
	if ok && owner == pkg {
		if i := strings.LastIndex(name, "::"); i >= 0 {
			name = name[i+2:]
		}
	} else if path, ok := b.store.PathOf(id); ok && len(path) > 0 {
		name = strings.Join(path, "::")
	}

	var sb strings.Builder
	sb.WriteString("impl ")
	sb.WriteString(name)
	writeArgs(&sb, trait.Args)
	return sb.String()
}

// soleTupleField returns the field of a tuple variant with exactly one
// positional field.
func (b *Browser) soleTupleField(pkg string, v *rustdoc.Variant) (*rustdoc.StructField, bool) {
	if v.Layout.Shape != rustdoc.ShapeTuple || len(v.Layout.Tuple) != 1 || v.Layout.Tuple[0] == nil {
		return nil, false
	}
	sym, ok := b.store.Resolve(store.ID{Package: pkg, Local: *v.Layout.Tuple[0]})
	if !ok {
		return nil, false
	}
	field, ok := sym.Item.Inner.(*rustdoc.StructField)
	return field, ok
}
