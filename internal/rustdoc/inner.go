package rustdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind is the tag of an item payload.
type Kind int

const (
	KindModule Kind = iota
	KindExternCrate
	KindUse
	KindUnion
	KindStruct
	KindStructField
	KindEnum
	KindVariant
	KindFunction
	KindTrait
	KindTraitAlias
	KindImpl
	KindTypeAlias
	KindOpaqueType
	KindConstant
	KindStatic
	KindExternType
	KindMacro
	KindProcMacro
	KindPrimitive
	KindAssocConst
	KindAssocType
)

var kindNames = [...]string{
	KindModule:      "module",
	KindExternCrate: "extern_crate",
	KindUse:         "use",
	KindUnion:       "union",
	KindStruct:      "struct",
	KindStructField: "struct_field",
	KindEnum:        "enum",
	KindVariant:     "variant",
	KindFunction:    "function",
	KindTrait:       "trait",
	KindTraitAlias:  "trait_alias",
	KindImpl:        "impl",
	KindTypeAlias:   "type_alias",
	KindOpaqueType:  "opaque_ty",
	KindConstant:    "constant",
	KindStatic:      "static",
	KindExternType:  "extern_type",
	KindMacro:       "macro",
	KindProcMacro:   "proc_macro",
	KindPrimitive:   "primitive",
	KindAssocConst:  "assoc_const",
	KindAssocType:   "assoc_type",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Inner is an item payload. The set of implementations is closed; the
// unexported method keeps other packages from adding to it.
type Inner interface {
	Kind() Kind
	isInner()
}

type Module struct {
	IsCrate    bool `json:"is_crate"`
	Items      []ID `json:"items"`
	IsStripped bool `json:"is_stripped"`
}

type ExternCrate struct {
	Name   string  `json:"name"`
	Rename *string `json:"rename"`
}

type Use struct {
	Source string `json:"source"`
	Name   string `json:"name"`
	ID     *ID    `json:"id"`
	IsGlob bool   `json:"is_glob"`
	Glob   bool   `json:"glob"`
}

type Union struct {
	Generics Generics `json:"generics"`
	Fields   []ID     `json:"fields"`
	Impls    []ID     `json:"impls"`
}

type Struct struct {
	Layout   StructKind `json:"kind"`
	Generics Generics   `json:"generics"`
	Impls    []ID       `json:"impls"`
}

// StructField's payload is the field's declared type.
type StructField struct {
	Type Type
}

type Enum struct {
	Generics            Generics `json:"generics"`
	Variants            []ID     `json:"variants"`
	HasStrippedVariants bool     `json:"has_stripped_variants"`
	Impls               []ID     `json:"impls"`
}

type Variant struct {
	Layout       VariantKind   `json:"kind"`
	Discriminant *Discriminant `json:"discriminant"`
}

type Discriminant struct {
	Expr  string `json:"expr"`
	Value string `json:"value"`
}

type Function struct {
	Sig      FnDecl          `json:"sig"`
	Decl     *FnDecl         `json:"decl"`
	Generics Generics        `json:"generics"`
	Header   json.RawMessage `json:"header"`
	HasBody  bool            `json:"has_body"`
}

type Trait struct {
	IsAuto          bool           `json:"is_auto"`
	IsUnsafe        bool           `json:"is_unsafe"`
	Items           []ID           `json:"items"`
	Generics        Generics       `json:"generics"`
	Bounds          []GenericBound `json:"bounds"`
	Implementations []ID           `json:"implementations"`
}

type TraitAlias struct {
	Generics Generics       `json:"generics"`
	Params   []GenericBound `json:"params"`
}

type Impl struct {
	IsUnsafe             bool     `json:"is_unsafe"`
	Generics             Generics `json:"generics"`
	ProvidedTraitMethods []string `json:"provided_trait_methods"`
	Trait                *Path    `json:"trait"`
	For                  Type     `json:"for"`
	Items                []ID     `json:"items"`
	IsNegative           bool     `json:"is_negative"`
	IsSynthetic          bool     `json:"is_synthetic"`
	BlanketImpl          *Type    `json:"blanket_impl"`

	Negative  bool `json:"negative"`
	Synthetic bool `json:"synthetic"`
}

type TypeAlias struct {
	Type     Type     `json:"type"`
	Generics Generics `json:"generics"`
}

type OpaqueType struct {
	Bounds   []GenericBound `json:"bounds"`
	Generics Generics       `json:"generics"`
}

type Constant struct {
	Type      Type       `json:"type"`
	Const     *ConstExpr `json:"const"`
	Expr      string     `json:"expr"`
	Value     *string    `json:"value"`
	IsLiteral bool       `json:"is_literal"`
}

type ConstExpr struct {
	Expr      string  `json:"expr"`
	Value     *string `json:"value"`
	IsLiteral bool    `json:"is_literal"`
}

type Static struct {
	Type      Type   `json:"type"`
	IsMutable bool   `json:"is_mutable"`
	Mutable   bool   `json:"mutable"`
	Expr      string `json:"expr"`
}

type ExternType struct{}

// Macro's payload is the macro_rules! source text.
type Macro struct {
	Source string
}

type ProcMacro struct {
	MacroKind string   `json:"kind"`
	Helpers   []string `json:"helpers"`
}

type Primitive struct {
	Name  string `json:"name"`
	Impls []ID   `json:"impls"`
}

type AssocConst struct {
	Type    Type    `json:"type"`
	Value   *string `json:"value"`
	Default *string `json:"default"`
}

type AssocType struct {
	Generics Generics       `json:"generics"`
	Bounds   []GenericBound `json:"bounds"`
	Type     *Type          `json:"type"`
	Default  *Type          `json:"default"`
}

func (*Module) Kind() Kind      { return KindModule }
func (*ExternCrate) Kind() Kind { return KindExternCrate }
func (*Use) Kind() Kind         { return KindUse }
func (*Union) Kind() Kind       { return KindUnion }
func (*Struct) Kind() Kind      { return KindStruct }
func (*StructField) Kind() Kind { return KindStructField }
func (*Enum) Kind() Kind        { return KindEnum }
func (*Variant) Kind() Kind     { return KindVariant }
func (*Function) Kind() Kind    { return KindFunction }
func (*Trait) Kind() Kind       { return KindTrait }
func (*TraitAlias) Kind() Kind  { return KindTraitAlias }
func (*Impl) Kind() Kind        { return KindImpl }
func (*TypeAlias) Kind() Kind   { return KindTypeAlias }
func (*OpaqueType) Kind() Kind  { return KindOpaqueType }
func (*Constant) Kind() Kind    { return KindConstant }
func (*Static) Kind() Kind      { return KindStatic }
func (*ExternType) Kind() Kind  { return KindExternType }
func (*Macro) Kind() Kind       { return KindMacro }
func (*ProcMacro) Kind() Kind   { return KindProcMacro }
func (*Primitive) Kind() Kind   { return KindPrimitive }
func (*AssocConst) Kind() Kind  { return KindAssocConst }
func (*AssocType) Kind() Kind   { return KindAssocType }

func (*Module) isInner()      {}
func (*ExternCrate) isInner() {}
func (*Use) isInner()         {}
func (*Union) isInner()       {}
func (*Struct) isInner()      {}
func (*StructField) isInner() {}
func (*Enum) isInner()        {}
func (*Variant) isInner()     {}
func (*Function) isInner()    {}
func (*Trait) isInner()       {}
func (*TraitAlias) isInner()  {}
func (*Impl) isInner()        {}
func (*TypeAlias) isInner()   {}
func (*OpaqueType) isInner()  {}
func (*Constant) isInner()    {}
func (*Static) isInner()      {}
func (*ExternType) isInner()  {}
func (*Macro) isInner()       {}
func (*ProcMacro) isInner()   {}
func (*Primitive) isInner()   {}
func (*AssocConst) isInner()  {}
func (*AssocType) isInner()   {}

// ExprText returns the constant's expression as written.
func (c *Constant) ExprText() string {
	if c.Const != nil {
		return c.Const.Expr
	}
	return c.Expr
}

// DefaultValue returns the associated constant's default, if any.
func (a *AssocConst) DefaultValue() *string {
	if a.Value != nil {
		return a.Value
	}
	return a.Default
}

// DefaultType returns the associated type's default, if any.
func (a *AssocType) DefaultType() *Type {
	if a.Type != nil {
		return a.Type
	}
	return a.Default
}

// Shape distinguishes the three ways a struct or variant holds fields.
type Shape int

const (
	ShapeUnit Shape = iota
	ShapeTuple
	ShapeNamed
)

// Fields is the field layout shared by structs and enum variants.
// Tuple entries are nil where a positional field was stripped.
type Fields struct {
	Shape       Shape
	Tuple       []*ID
	Named       []ID
	HasStripped bool
}

// IDs returns the ids of all present fields in declaration order.
func (f Fields) IDs() []ID {
	switch f.Shape {
	case ShapeTuple:
		ids := make([]ID, 0, len(f.Tuple))
		for _, id := range f.Tuple {
			if id != nil {
				ids = append(ids, *id)
			}
		}
		return ids
	case ShapeNamed:
		return f.Named
	default:
		return nil
	}
}

type namedFields struct {
	Fields            []ID `json:"fields"`
	HasStrippedFields bool `json:"has_stripped_fields"`
	FieldsStripped    bool `json:"fields_stripped"`
}

func (n namedFields) toFields() Fields {
	return Fields{
		Shape:       ShapeNamed,
		Named:       n.Fields,
		HasStripped: n.HasStrippedFields || n.FieldsStripped,
	}
}

// StructKind is "unit", {"tuple": [...]} or {"plain": {"fields": [...]}}.
type StructKind struct {
	Fields
}

func (k *StructKind) UnmarshalJSON(data []byte) error {
	tag, payload, err := decodeTagged(data)
	if err != nil {
		return fmt.Errorf("struct kind: %w", err)
	}
	switch tag {
	case "unit":
		k.Fields = Fields{Shape: ShapeUnit}
	case "tuple":
		var ids []*ID
		if err := json.Unmarshal(payload, &ids); err != nil {
			return err
		}
		k.Fields = Fields{Shape: ShapeTuple, Tuple: ids}
	case "plain":
		var n namedFields
		if err := json.Unmarshal(payload, &n); err != nil {
			return err
		}
		k.Fields = n.toFields()
	default:
		return fmt.Errorf("unknown struct kind %q", tag)
	}
	return nil
}

// VariantKind is "plain" (unit), {"tuple": [...]} or {"struct": {"fields": [...]}}.
type VariantKind struct {
	Fields
}

func (k *VariantKind) UnmarshalJSON(data []byte) error {
	tag, payload, err := decodeTagged(data)
	if err != nil {
		return fmt.Errorf("variant kind: %w", err)
	}
	switch tag {
	case "plain":
		k.Fields = Fields{Shape: ShapeUnit}
	case "tuple":
		var ids []*ID
		if err := json.Unmarshal(payload, &ids); err != nil {
			return err
		}
		k.Fields = Fields{Shape: ShapeTuple, Tuple: ids}
	case "struct":
		var n namedFields
		if err := json.Unmarshal(payload, &n); err != nil {
			return err
		}
		k.Fields = n.toFields()
	default:
		return fmt.Errorf("unknown variant kind %q", tag)
	}
	return nil
}

// decodeTagged splits an externally tagged enum value: either a bare string
// (a variant without payload) or an object with exactly one key.
func decodeTagged(data []byte) (string, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil, fmt.Errorf("missing value")
	}
	if data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return "", nil, err
		}
		return tag, nil, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", nil, err
	}
	if len(obj) != 1 {
		return "", nil, fmt.Errorf("expected exactly one tag, got %d", len(obj))
	}
	for tag, payload := range obj {
		return tag, payload, nil
	}
	return "", nil, fmt.Errorf("empty object")
}

func decodeInner(data json.RawMessage) (Inner, error) {
	tag, payload, err := decodeTagged(data)
	if err != nil {
		return nil, fmt.Errorf("inner: %w", err)
	}
	return decodeInnerPayload(tag, payload)
}

func decodePayload[T any](payload json.RawMessage) (*T, error) {
	v := new(T)
	if len(payload) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeInnerPayload(tag string, payload json.RawMessage) (Inner, error) {
	switch tag {
	case "module":
		return decodePayload[Module](payload)
	case "extern_crate":
		return decodePayload[ExternCrate](payload)
	case "use", "import":
		u, err := decodePayload[Use](payload)
		if err != nil {
			return nil, err
		}
		u.IsGlob = u.IsGlob || u.Glob
		return u, nil
	case "union":
		return decodePayload[Union](payload)
	case "struct":
		return decodePayload[Struct](payload)
	case "struct_field":
		var t Type
		if err := json.Unmarshal(payload, &t); err != nil {
			return nil, err
		}
		return &StructField{Type: t}, nil
	case "enum":
		return decodePayload[Enum](payload)
	case "variant":
		return decodePayload[Variant](payload)
	case "function", "method":
		f, err := decodePayload[Function](payload)
		if err != nil {
			return nil, err
		}
		if f.Decl != nil && f.Sig.Inputs == nil && f.Sig.Output == nil {
			f.Sig = *f.Decl
		}
		return f, nil
	case "trait":
		return decodePayload[Trait](payload)
	case "trait_alias":
		return decodePayload[TraitAlias](payload)
	case "impl":
		i, err := decodePayload[Impl](payload)
		if err != nil {
			return nil, err
		}
		i.IsNegative = i.IsNegative || i.Negative
		i.IsSynthetic = i.IsSynthetic || i.Synthetic
		return i, nil
	case "type_alias", "typedef":
		return decodePayload[TypeAlias](payload)
	case "opaque_ty":
		return decodePayload[OpaqueType](payload)
	case "constant":
		c, err := decodePayload[Constant](payload)
		if err != nil {
			return nil, err
		}
		if c.Const != nil {
			c.Expr = c.Const.Expr
			c.Value = c.Const.Value
			c.IsLiteral = c.Const.IsLiteral
		}
		return c, nil
	case "static":
		s, err := decodePayload[Static](payload)
		if err != nil {
			return nil, err
		}
		s.IsMutable = s.IsMutable || s.Mutable
		return s, nil
	case "extern_type", "foreign_type":
		return &ExternType{}, nil
	case "macro":
		var src string
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &src); err != nil {
				return nil, err
			}
		}
		return &Macro{Source: src}, nil
	case "proc_macro":
		return decodePayload[ProcMacro](payload)
	case "primitive":
		return decodePayload[Primitive](payload)
	case "assoc_const":
		return decodePayload[AssocConst](payload)
	case "assoc_type":
		return decodePayload[AssocType](payload)
	default:
		return nil, fmt.Errorf("unknown item kind %q", tag)
	}
}
