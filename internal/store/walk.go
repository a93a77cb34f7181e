package store

import (
	"github.com/phobologic/rsbrowse/internal/rustdoc"
)

// Children returns the symbols structurally nested under parent, resolved
// and deduplicated. Unresolvable children are dropped.
func (s *Store) Children(parent ID) []Symbol {
	sym, ok := s.Resolve(parent)
	if !ok {
		return nil
	}

	var out []Symbol
	seen := make(map[ID]bool)
	for _, id := range s.rawChildren(sym) {
		child, ok := s.Resolve(id)
		if !ok || seen[child.ID] {
			continue
		}
		seen[child.ID] = true
		out = append(out, child)
	}
	return out
}

// rawChildren lists the unresolved child ids of sym according to its kind.
func (s *Store) rawChildren(sym Symbol) []ID {
	pkg := sym.ID.Package
	local := func(ids ...rustdoc.ID) []ID {
		out := make([]ID, 0, len(ids))
		for _, id := range ids {
			out = append(out, ID{Package: pkg, Local: id})
		}
		return out
	}

	switch inner := sym.Item.Inner.(type) {
	case *rustdoc.Module:
		return local(inner.Items...)
	case *rustdoc.Struct:
		return append(local(inner.Layout.IDs()...), local(inner.Impls...)...)
	case *rustdoc.Union:
		return append(local(inner.Fields...), local(inner.Impls...)...)
	case *rustdoc.StructField:
		return local(TypeIDs(inner.Type)...)
	case *rustdoc.Enum:
		return append(local(inner.Variants...), local(inner.Impls...)...)
	case *rustdoc.Variant:
		return local(inner.Layout.IDs()...)
	case *rustdoc.Trait:
		return local(inner.Items...)
	case *rustdoc.Impl:
		return s.implChildren(pkg, inner)
	case *rustdoc.TypeAlias:
		return local(TypeIDs(inner.Type)...)
	case *rustdoc.Constant:
		return local(TypeIDs(inner.Type)...)
	case *rustdoc.Static:
		return local(TypeIDs(inner.Type)...)
	case *rustdoc.Function, *rustdoc.Macro, *rustdoc.ProcMacro, *rustdoc.Primitive,
		*rustdoc.ExternType, *rustdoc.AssocConst, *rustdoc.AssocType,
		*rustdoc.ExternCrate, *rustdoc.Use, *rustdoc.TraitAlias, *rustdoc.OpaqueType:
		return nil
	default:
		s.log.Error("children: unhandled item kind", "id", sym.ID.String(), "kind", sym.Item.Kind().String())
		return nil
	}
}

// memberKey identifies a trait member an impl block can override. Associated
// types and functions live in different namespaces and may share a name.
type memberKey struct {
	kind rustdoc.Kind
	name string
}

func memberKeyOf(item *rustdoc.Item) (memberKey, bool) {
	if item.Name == nil {
		return memberKey{}, false
	}
	return memberKey{kind: item.Kind(), name: *item.Name}, true
}

// implChildren returns an impl block's own items, then the defaulted members
// of its trait that the block does not override, then the trait itself.
func (s *Store) implChildren(pkg string, impl *rustdoc.Impl) []ID {
	ids := make([]ID, 0, len(impl.Items)+1)
	overridden := make(map[memberKey]bool, len(impl.Items))
	for _, local := range impl.Items {
		id := ID{Package: pkg, Local: local}
		ids = append(ids, id)
		if sym, ok := s.Resolve(id); ok {
			if key, ok := memberKeyOf(sym.Item); ok {
				overridden[key] = true
			}
		}
	}
	if impl.Trait == nil || impl.Trait.ID == "" {
		return ids
	}

	traitID := ID{Package: pkg, Local: impl.Trait.ID}
	trait, ok := s.Resolve(traitID)
	if !ok {
		return append(ids, traitID)
	}
	if t, ok := trait.Item.Inner.(*rustdoc.Trait); ok {
		for _, local := range t.Items {
			member, ok := s.Resolve(ID{Package: trait.ID.Package, Local: local})
			if !ok || !hasDefault(member.Item) {
				continue
			}
			if key, ok := memberKeyOf(member.Item); ok && overridden[key] {
				continue
			}
			ids = append(ids, member.ID)
		}
	}
	return append(ids, trait.ID)
}

// hasDefault reports whether a trait member provides a default.
func hasDefault(item *rustdoc.Item) bool {
	switch inner := item.Inner.(type) {
	case *rustdoc.Function:
		return inner.HasBody
	case *rustdoc.AssocConst:
		return inner.DefaultValue() != nil
	case *rustdoc.AssocType:
		return inner.DefaultType() != nil
	default:
		return false
	}
}

// TypeIDs collects the ids of named items a type expression refers to, in
// first-seen order without duplicates. Generics, primitives, inferred types
// and function pointers contribute nothing.
func TypeIDs(t rustdoc.Type) []rustdoc.ID {
	w := &typeWalker{seen: make(map[rustdoc.ID]bool)}
	w.walk(t)
	return w.ids
}

type typeWalker struct {
	ids  []rustdoc.ID
	seen map[rustdoc.ID]bool
}

func (w *typeWalker) add(id rustdoc.ID) {
	if id == "" || w.seen[id] {
		return
	}
	w.seen[id] = true
	w.ids = append(w.ids, id)
}

func (w *typeWalker) walk(t rustdoc.Type) {
	switch e := t.Expr.(type) {
	case *rustdoc.ResolvedPath:
		w.path(&e.Path)
	case *rustdoc.DynTrait:
		for i := range e.Traits {
			w.path(&e.Traits[i].Trait)
		}
	case rustdoc.Tuple:
		for _, elem := range e {
			w.walk(elem)
		}
	case *rustdoc.Slice:
		w.walk(e.Elem)
	case *rustdoc.Array:
		w.walk(e.Type)
	case *rustdoc.RawPointer:
		w.walk(e.Type)
	case *rustdoc.BorrowedRef:
		w.walk(e.Type)
	case *rustdoc.Pat:
		w.walk(e.Type)
	case rustdoc.ImplTrait:
		w.bounds(e)
	case *rustdoc.QualifiedPath:
		w.walk(e.SelfType)
		if e.Trait != nil {
			w.path(e.Trait)
		}
	case rustdoc.Generic, rustdoc.PrimitiveType, rustdoc.Infer, *rustdoc.FunctionPointer, nil:
	}
}

func (w *typeWalker) path(p *rustdoc.Path) {
	w.add(p.ID)
	w.args(p.Args)
}

func (w *typeWalker) bounds(bounds []rustdoc.GenericBound) {
	for _, b := range bounds {
		if b.TraitBound != nil {
			w.path(&b.TraitBound.Trait)
		}
	}
}

func (w *typeWalker) args(args *rustdoc.GenericArgs) {
	if args == nil {
		return
	}
	if p := args.Parenthesized; p != nil {
		for _, in := range p.Inputs {
			w.walk(in)
		}
		if p.Output != nil {
			w.walk(*p.Output)
		}
	}
	if a := args.Angle; a != nil {
		for _, arg := range a.Args {
			if arg.Type != nil {
				w.walk(*arg.Type)
			}
		}
		for _, c := range a.AllConstraints() {
			w.args(c.Args)
			if eq := c.Binding.Equality; eq != nil && eq.Type != nil {
				w.walk(*eq.Type)
			}
			w.bounds(c.Binding.Constraint)
		}
	}
}
