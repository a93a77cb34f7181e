package rustdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Type is a type expression. Expr holds exactly one variant after decoding;
// a zero Type (nil Expr) means no type was given.
type Type struct {
	Expr TypeExpr
}

// TypeExpr is the closed set of type expression variants.
type TypeExpr interface {
	isTypeExpr()
}

type ResolvedPath struct {
	Path
}

type DynTrait struct {
	Traits   []PolyTrait `json:"traits"`
	Lifetime *string     `json:"lifetime"`
}

type PolyTrait struct {
	Trait         Path              `json:"trait"`
	GenericParams []GenericParamDef `json:"generic_params"`
}

type Generic string

type PrimitiveType string

type FunctionPointer struct {
	Sig           FnDecl            `json:"sig"`
	Decl          *FnDecl           `json:"decl"`
	GenericParams []GenericParamDef `json:"generic_params"`
	Header        json.RawMessage   `json:"header"`
}

type Tuple []Type

type Slice struct {
	Elem Type
}

type Array struct {
	Type Type   `json:"type"`
	Len  string `json:"len"`
}

type ImplTrait []GenericBound

type Infer struct{}

type RawPointer struct {
	IsMutable bool `json:"is_mutable"`
	Mutable   bool `json:"mutable"`
	Type      Type `json:"type"`
}

type BorrowedRef struct {
	Lifetime  *string `json:"lifetime"`
	IsMutable bool    `json:"is_mutable"`
	Mutable   bool    `json:"mutable"`
	Type      Type    `json:"type"`
}

type QualifiedPath struct {
	Name     string       `json:"name"`
	Args     *GenericArgs `json:"args"`
	SelfType Type         `json:"self_type"`
	Trait    *Path        `json:"trait"`
}

// Pat is a pattern type (`u32 is 1..`); only the base type is kept.
type Pat struct {
	Type Type `json:"type"`
}

func (*ResolvedPath) isTypeExpr()    {}
func (*DynTrait) isTypeExpr()        {}
func (Generic) isTypeExpr()          {}
func (PrimitiveType) isTypeExpr()    {}
func (*FunctionPointer) isTypeExpr() {}
func (Tuple) isTypeExpr()            {}
func (*Slice) isTypeExpr()           {}
func (*Array) isTypeExpr()           {}
func (ImplTrait) isTypeExpr()        {}
func (Infer) isTypeExpr()            {}
func (*RawPointer) isTypeExpr()      {}
func (*BorrowedRef) isTypeExpr()     {}
func (*QualifiedPath) isTypeExpr()   {}
func (*Pat) isTypeExpr()             {}

// UnmarshalJSON decodes the externally tagged type union.
func (t *Type) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = Type{}
		return nil
	}
	tag, payload, err := decodeTagged(data)
	if err != nil {
		return fmt.Errorf("type: %w", err)
	}

	var expr TypeExpr
	switch tag {
	case "resolved_path":
		expr, err = decodePayload[ResolvedPath](payload)
	case "dyn_trait":
		expr, err = decodePayload[DynTrait](payload)
	case "generic":
		var s string
		err = json.Unmarshal(payload, &s)
		expr = Generic(s)
	case "primitive":
		var s string
		err = json.Unmarshal(payload, &s)
		expr = PrimitiveType(s)
	case "function_pointer":
		var fp *FunctionPointer
		fp, err = decodePayload[FunctionPointer](payload)
		if err == nil && fp.Decl != nil && fp.Sig.Inputs == nil && fp.Sig.Output == nil {
			fp.Sig = *fp.Decl
		}
		expr = fp
	case "tuple":
		var elems []Type
		err = json.Unmarshal(payload, &elems)
		expr = Tuple(elems)
	case "slice":
		var elem Type
		err = json.Unmarshal(payload, &elem)
		expr = &Slice{Elem: elem}
	case "array":
		expr, err = decodePayload[Array](payload)
	case "impl_trait":
		var bounds []GenericBound
		err = json.Unmarshal(payload, &bounds)
		expr = ImplTrait(bounds)
	case "infer":
		expr = Infer{}
	case "raw_pointer":
		var p *RawPointer
		p, err = decodePayload[RawPointer](payload)
		if err == nil {
			p.IsMutable = p.IsMutable || p.Mutable
		}
		expr = p
	case "borrowed_ref":
		var r *BorrowedRef
		r, err = decodePayload[BorrowedRef](payload)
		if err == nil {
			r.IsMutable = r.IsMutable || r.Mutable
		}
		expr = r
	case "qualified_path":
		expr, err = decodePayload[QualifiedPath](payload)
	case "pat":
		expr, err = decodePayload[Pat](payload)
	default:
		return fmt.Errorf("unknown type kind %q", tag)
	}
	if err != nil {
		return fmt.Errorf("type %s: %w", tag, err)
	}
	t.Expr = expr
	return nil
}

// Path is a reference to a named item as written in source, e.g.
// `std::io::Error` or `Option<T>`, together with the id it resolves to.
type Path struct {
	Written string       `json:"path"`
	Name    string       `json:"name"`
	ID      ID           `json:"id"`
	Args    *GenericArgs `json:"args"`
}

// Text returns the path as written. Older format versions call it "name".
func (p *Path) Text() string {
	if p.Written != "" {
		return p.Written
	}
	return p.Name
}

// GenericArgs is `<...>`, `(...) -> ...` or return type notation `(..)`.
type GenericArgs struct {
	Angle              *AngleBracketed
	Parenthesized      *Parenthesized
	ReturnTypeNotation bool
}

type AngleBracketed struct {
	Args        []GenericArg          `json:"args"`
	Constraints []AssocItemConstraint `json:"constraints"`
	Bindings    []AssocItemConstraint `json:"bindings"`
}

// AllConstraints returns constraints under either of their historical names.
func (a *AngleBracketed) AllConstraints() []AssocItemConstraint {
	if len(a.Constraints) > 0 {
		return a.Constraints
	}
	return a.Bindings
}

type Parenthesized struct {
	Inputs []Type `json:"inputs"`
	Output *Type  `json:"output"`
}

func (g *GenericArgs) UnmarshalJSON(data []byte) error {
	tag, payload, err := decodeTagged(data)
	if err != nil {
		return fmt.Errorf("generic args: %w", err)
	}
	*g = GenericArgs{}
	switch tag {
	case "angle_bracketed":
		g.Angle, err = decodePayload[AngleBracketed](payload)
	case "parenthesized":
		g.Parenthesized, err = decodePayload[Parenthesized](payload)
	case "return_type_notation":
		g.ReturnTypeNotation = true
	default:
		return fmt.Errorf("unknown generic args kind %q", tag)
	}
	return err
}

// GenericArg is one of `'a`, a type, a const expression, or `_`.
type GenericArg struct {
	Lifetime *string
	Type     *Type
	Const    *ConstExpr
	Infer    bool
}

func (a *GenericArg) UnmarshalJSON(data []byte) error {
	tag, payload, err := decodeTagged(data)
	if err != nil {
		return fmt.Errorf("generic arg: %w", err)
	}
	*a = GenericArg{}
	switch tag {
	case "lifetime":
		var s string
		err = json.Unmarshal(payload, &s)
		a.Lifetime = &s
	case "type":
		var t Type
		err = json.Unmarshal(payload, &t)
		a.Type = &t
	case "const":
		a.Const, err = decodePayload[ConstExpr](payload)
	case "infer":
		a.Infer = true
	default:
		return fmt.Errorf("unknown generic arg kind %q", tag)
	}
	return err
}

// AssocItemConstraint is `Item = T` or `Item: Bound` inside generic args.
type AssocItemConstraint struct {
	Name    string       `json:"name"`
	Args    *GenericArgs `json:"args"`
	Binding Binding      `json:"binding"`
}

// Binding is the right-hand side of an AssocItemConstraint.
type Binding struct {
	Equality   *Term
	Constraint []GenericBound
}

func (b *Binding) UnmarshalJSON(data []byte) error {
	tag, payload, err := decodeTagged(data)
	if err != nil {
		return fmt.Errorf("binding: %w", err)
	}
	*b = Binding{}
	switch tag {
	case "equality":
		var t Term
		err = json.Unmarshal(payload, &t)
		b.Equality = &t
	case "constraint":
		err = json.Unmarshal(payload, &b.Constraint)
	default:
		return fmt.Errorf("unknown binding kind %q", tag)
	}
	return err
}

// Term is a type or a constant.
type Term struct {
	Type     *Type
	Constant *ConstExpr
}

func (t *Term) UnmarshalJSON(data []byte) error {
	tag, payload, err := decodeTagged(data)
	if err != nil {
		return fmt.Errorf("term: %w", err)
	}
	*t = Term{}
	switch tag {
	case "type":
		var ty Type
		err = json.Unmarshal(payload, &ty)
		t.Type = &ty
	case "constant":
		t.Constant, err = decodePayload[ConstExpr](payload)
	default:
		return fmt.Errorf("unknown term kind %q", tag)
	}
	return err
}

// GenericBound is a trait bound, a lifetime bound, or a `use<..>` capture list.
type GenericBound struct {
	TraitBound *TraitBound
	Outlives   *string
	Use        []json.RawMessage
}

type TraitBound struct {
	Trait         Path              `json:"trait"`
	GenericParams []GenericParamDef `json:"generic_params"`
	Modifier      string            `json:"modifier"`
}

func (g *GenericBound) UnmarshalJSON(data []byte) error {
	tag, payload, err := decodeTagged(data)
	if err != nil {
		return fmt.Errorf("generic bound: %w", err)
	}
	*g = GenericBound{}
	switch tag {
	case "trait_bound":
		g.TraitBound, err = decodePayload[TraitBound](payload)
	case "outlives":
		var s string
		err = json.Unmarshal(payload, &s)
		g.Outlives = &s
	case "use":
		err = json.Unmarshal(payload, &g.Use)
	default:
		return fmt.Errorf("unknown generic bound kind %q", tag)
	}
	return err
}

type Generics struct {
	Params          []GenericParamDef `json:"params"`
	WherePredicates []json.RawMessage `json:"where_predicates"`
}

type GenericParamDef struct {
	Name string          `json:"name"`
	Kind json.RawMessage `json:"kind"`
}

// FnDecl is a function signature.
type FnDecl struct {
	Inputs      []Param `json:"inputs"`
	Output      *Type   `json:"output"`
	IsCVariadic bool    `json:"is_c_variadic"`
}

// Param is one `name: Type` input, encoded as a two-element array.
type Param struct {
	Name string
	Type Type
}

func (p *Param) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("param: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("param: expected [name, type], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &p.Name); err != nil {
		return fmt.Errorf("param name: %w", err)
	}
	return json.Unmarshal(pair[1], &p.Type)
}
