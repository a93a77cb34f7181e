package browser

import (
	"strings"

	"github.com/phobologic/rsbrowse/internal/rustdoc"
)

// TypeLabel renders a type expression the way it would be written in source.
func TypeLabel(t rustdoc.Type) string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func writeType(b *strings.Builder, t rustdoc.Type) {
	switch e := t.Expr.(type) {
	case *rustdoc.ResolvedPath:
		writePath(b, &e.Path)
	case *rustdoc.DynTrait:
		b.WriteString("dyn ")
		for i := range e.Traits {
			if i > 0 {
				b.WriteString(" + ")
			}
			writePath(b, &e.Traits[i].Trait)
		}
		if e.Lifetime != nil {
			b.WriteString(" + ")
			b.WriteString(*e.Lifetime)
		}
	case rustdoc.Generic:
		b.WriteString(string(e))
	case rustdoc.PrimitiveType:
		b.WriteString(string(e))
	case *rustdoc.FunctionPointer:
		b.WriteString("fn(")
		for i, p := range e.Sig.Inputs {
			if i > 0 {
				b.WriteString(", ")
			}
			if p.Name != "" && p.Name != "_" {
				b.WriteString(p.Name)
				b.WriteString(": ")
			}
			writeType(b, p.Type)
		}
		b.WriteString(")")
		if e.Sig.Output != nil {
			b.WriteString(" -> ")
			writeType(b, *e.Sig.Output)
		}
	case rustdoc.Tuple:
		b.WriteString("(")
		for i, elem := range e {
			if i > 0 {
				b.WriteString(", ")
			}
			writeType(b, elem)
		}
		b.WriteString(")")
	case *rustdoc.Slice:
		b.WriteString("[")
		writeType(b, e.Elem)
		b.WriteString("]")
	case *rustdoc.Array:
		b.WriteString("[")
		writeType(b, e.Type)
		b.WriteString("; ")
		b.WriteString(e.Len)
		b.WriteString("]")
	case rustdoc.ImplTrait:
		b.WriteString("impl ")
		writeBounds(b, e)
	case rustdoc.Infer:
		b.WriteString("_")
	case *rustdoc.RawPointer:
		if e.IsMutable {
			b.WriteString("*mut ")
		} else {
			b.WriteString("*const ")
		}
		writeType(b, e.Type)
	case *rustdoc.BorrowedRef:
		b.WriteString("&")
		if e.Lifetime != nil {
			b.WriteString(*e.Lifetime)
			b.WriteString(" ")
		}
		if e.IsMutable {
			b.WriteString("mut ")
		}
		writeType(b, e.Type)
	case *rustdoc.QualifiedPath:
		if e.Trait != nil {
			b.WriteString("<")
			writeType(b, e.SelfType)
			b.WriteString(" as ")
			writePath(b, e.Trait)
			b.WriteString(">")
		} else {
			writeType(b, e.SelfType)
		}
		b.WriteString("::")
		b.WriteString(e.Name)
		writeArgs(b, e.Args)
	case *rustdoc.Pat:
		writeType(b, e.Type)
	case nil:
	}
}

func writePath(b *strings.Builder, p *rustdoc.Path) {
	b.WriteString(p.Text())
	writeArgs(b, p.Args)
}

func writeArgs(b *strings.Builder, args *rustdoc.GenericArgs) {
	if args == nil {
		return
	}
	switch {
	case args.Angle != nil:
		a := args.Angle
		constraints := a.AllConstraints()
		if len(a.Args) == 0 && len(constraints) == 0 {
			return
		}
		b.WriteString("<")
		n := 0
		sep := func() {
			if n > 0 {
				b.WriteString(", ")
			}
			n++
		}
		for _, arg := range a.Args {
			sep()
			writeArg(b, arg)
		}
		for _, c := range constraints {
			sep()
			b.WriteString(c.Name)
			writeArgs(b, c.Args)
			switch {
			case c.Binding.Equality != nil && c.Binding.Equality.Type != nil:
				b.WriteString(" = ")
				writeType(b, *c.Binding.Equality.Type)
			case c.Binding.Equality != nil && c.Binding.Equality.Constant != nil:
				b.WriteString(" = ")
				b.WriteString(c.Binding.Equality.Constant.Expr)
			case len(c.Binding.Constraint) > 0:
				b.WriteString(": ")
				writeBounds(b, c.Binding.Constraint)
			}
		}
		b.WriteString(">")
	case args.Parenthesized != nil:
		p := args.Parenthesized
		b.WriteString("(")
		for i, in := range p.Inputs {
			if i > 0 {
				b.WriteString(", ")
			}
			writeType(b, in)
		}
		b.WriteString(")")
		if p.Output != nil {
			b.WriteString(" -> ")
			writeType(b, *p.Output)
		}
	case args.ReturnTypeNotation:
		b.WriteString("(..)")
	}
}

func writeArg(b *strings.Builder, arg rustdoc.GenericArg) {
	switch {
	case arg.Lifetime != nil:
		b.WriteString(*arg.Lifetime)
	case arg.Type != nil:
		writeType(b, *arg.Type)
	case arg.Const != nil:
		b.WriteString(arg.Const.Expr)
	case arg.Infer:
		b.WriteString("_")
	}
}

func writeBounds(b *strings.Builder, bounds []rustdoc.GenericBound) {
	for i, bound := range bounds {
		if i > 0 {
			b.WriteString(" + ")
		}
		switch {
		case bound.TraitBound != nil:
			switch bound.TraitBound.Modifier {
			case "maybe":
				b.WriteString("?")
			case "maybe_const":
				b.WriteString("~const ")
			}
			writePath(b, &bound.TraitBound.Trait)
		case bound.Outlives != nil:
			b.WriteString(*bound.Outlives)
		case bound.Use != nil:
			b.WriteString("use<..>")
		}
	}
}
