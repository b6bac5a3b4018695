package ast

import "fmt"

// Type is implemented by every poke type. Types are compared structurally
// by Equal and ranked by Promoteable, per spec §4.3.
type Type interface {
	fmt.Stringer
	typeCode() Code
	// Complete reports whether the type's bit-size is a constant computable
	// at compile time (spec §4.3 "sizeof").
	Complete() bool
}

// IntegralType is an N-bit signed or unsigned integer type, 1 <= Size <= 64.
type IntegralType struct {
	Size   int
	Signed bool
}

func (t *IntegralType) typeCode() Code   { return CodeIntegralType }
func (t *IntegralType) Complete() bool   { return t.Size > 0 }
func (t *IntegralType) String() string {
	kind := "uint"
	if t.Signed {
		kind = "int"
	}
	return fmt.Sprintf("%s<%d>", kind, t.Size)
}

// StringType is poke's single string type.
type StringType struct{}

func (t *StringType) typeCode() Code  { return CodeStringType }
func (t *StringType) Complete() bool  { return false }
func (t *StringType) String() string  { return "string" }

// VoidType is the type of statements and functions that return nothing. It
// never promotes to or from any other type (spec §4.3).
type VoidType struct{}

func (t *VoidType) typeCode() Code  { return CodeVoidType }
func (t *VoidType) Complete() bool  { return false }
func (t *VoidType) String() string  { return "void" }

// AnyType is poke's top type: "any equals any" (spec §4.3).
type AnyType struct{}

func (t *AnyType) typeCode() Code  { return CodeAnyType }
func (t *AnyType) Complete() bool  { return false }
func (t *AnyType) String() string  { return "any" }

// ArrayType is a (possibly bounded) array of Elem.
type ArrayType struct {
	Elem Type
	// Bound, if non-nil, is a compile-time-constant literal bound. A nil
	// Bound means the array's length is determined at run time.
	Bound *int64
}

func (t *ArrayType) typeCode() Code { return CodeArrayType }
func (t *ArrayType) Complete() bool { return t.Bound != nil && t.Elem.Complete() }
func (t *ArrayType) String() string {
	if t.Bound != nil {
		return fmt.Sprintf("%s[%d]", t.Elem, *t.Bound)
	}
	return fmt.Sprintf("%s[]", t.Elem)
}

// StructField describes one field of a StructType.
type StructField struct {
	Name     string // "" for anonymous/union members, never used for labels
	Type     Type
	Optional bool
	// Label, if non-nil, is a constant bit offset fixing the field's start
	// (spec §4.5 "normalizes struct field labels to bit offsets with unit 1").
	Label *int64
}

// StructType is a struct or union (Union==true) type, optionally named,
// optionally pinned (all fields share offset 0), optionally an integral
// struct (IType != nil, spec §4.5 "Integral structs").
type StructType struct {
	Name   string // "" for anonymous structs, which are never type-equal (spec §4.3)
	Fields []StructField
	Union  bool
	Pinned bool
	IType  *IntegralType // non-nil iff this is an integral struct
}

func (t *StructType) typeCode() Code { return CodeStructType }
func (t *StructType) Complete() bool {
	if t.IType != nil {
		return true
	}
	for _, f := range t.Fields {
		if !f.Type.Complete() {
			return false
		}
	}
	return true
}
func (t *StructType) String() string {
	if t.Name != "" {
		return t.Name
	}
	return "struct {...}"
}

// FuncTypeArg describes one formal parameter of a FunctionType.
type FuncTypeArg struct {
	Type     Type
	Optional bool
	Vararg   bool
}

// FunctionType is the type of a function value.
type FunctionType struct {
	Args   []FuncTypeArg
	Return Type
}

func (t *FunctionType) typeCode() Code { return CodeFunctionType }
func (t *FunctionType) Complete() bool { return false } // sizeof(function) == 0, but not "complete" in the sizeof sense
func (t *FunctionType) String() string { return "function" }

// OffsetType is the type of an offset value: a Base integral type and a
// Unit in bits.
type OffsetType struct {
	Base Type // always *IntegralType
	// Unit, when UnitLiteral is true, is the constant unit value in bits
	// used by type_equal_p's offset rule ("both units are integer literals
	// with identical values").
	Unit        uint64
	UnitLiteral bool
}

func (t *OffsetType) typeCode() Code { return CodeOffsetType }
func (t *OffsetType) Complete() bool { return t.Base.Complete() }
func (t *OffsetType) String() string { return fmt.Sprintf("%s offset<%d>", t.Base, t.Unit) }

// TypeExpr is the AST node wrapping a Type wherever the grammar allows a
// type to appear inside an expression or declaration (cast targets, isa
// targets, sizeof operands, map targets, function signatures).
type TypeExpr struct {
	Base
	Denoted Type
}

func (n *TypeExpr) Code() Code { return CodeTypeExpr }
func (n *TypeExpr) exprNode()      {}
func (n *TypeExpr) Type() Type     { return n.Denoted }
func (n *TypeExpr) Walk(v Visitor) {}

// ---- structural equality (spec §4.3 type_equal_p) ----

// Equal reports whether a and b are the same type under poke's structural
// equality rules. It is reflexive, symmetric and transitive for the
// combinations the rules define (spec §8 "Type equivalence identities").
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case *AnyType:
		_, ok := b.(*AnyType)
		return ok
	case *IntegralType:
		y, ok := b.(*IntegralType)
		return ok && x.Size == y.Size && x.Signed == y.Signed
	case *StringType:
		_, ok := b.(*StringType)
		return ok
	case *VoidType:
		_, ok := b.(*VoidType)
		return ok
	case *ArrayType:
		y, ok := b.(*ArrayType)
		if !ok || !Equal(x.Elem, y.Elem) {
			return false
		}
		if x.Bound != nil && y.Bound != nil {
			return *x.Bound == *y.Bound
		}
		// one side (or both) has a non-literal bound: still type-equal, the
		// length check is deferred to run time.
		return true
	case *StructType:
		y, ok := b.(*StructType)
		if !ok {
			return false
		}
		if x.Name == "" || y.Name == "" {
			// anonymous structs are never equal, not even to themselves across
			// calls to Equal.
			return false
		}
		return x.Name == y.Name
	case *FunctionType:
		y, ok := b.(*FunctionType)
		if !ok || len(x.Args) != len(y.Args) || !Equal(x.Return, y.Return) {
			return false
		}
		for i, xa := range x.Args {
			ya := y.Args[i]
			if xa.Optional != ya.Optional || xa.Vararg != ya.Vararg || !Equal(xa.Type, ya.Type) {
				return false
			}
		}
		return true
	case *OffsetType:
		y, ok := b.(*OffsetType)
		return ok && Equal(x.Base, y.Base) && x.UnitLiteral && y.UnitLiteral && x.Unit == y.Unit
	default:
		return false
	}
}

// Promoteable reports whether a value of type from can be implicitly
// converted to a value of type to (spec §4.3 type_promoteable_p).
func Promoteable(from, to Type) bool {
	if Equal(from, to) {
		return true
	}
	switch from.(type) {
	case *VoidType:
		return false // void never promotes to anything
	}
	switch to.(type) {
	case *AnyType:
		return true // any type promotes to ANY (spec §4.3, type_promoteable_p)
	}
	switch f := from.(type) {
	case *IntegralType:
		_, ok := to.(*IntegralType)
		return ok
	case *OffsetType:
		_, ok := to.(*OffsetType)
		return ok
	case *ArrayType:
		t, ok := to.(*ArrayType)
		if !ok {
			return false
		}
		if _, any := t.Elem.(*AnyType); any {
			return true // any array promotes to any[]
		}
		return Equal(f.Elem, t.Elem)
	case *StructType:
		if f.IType != nil {
			// integral struct promotes to an integral of its itype.
			t, ok := to.(*IntegralType)
			return ok && Equal(f.IType, t)
		}
		return false
	default:
		return false
	}
}

// DupType produces a structural (shallow) copy of t; shared children are
// not deep-copied, mirroring the original's dup_type.
func DupType(t Type) Type {
	switch x := t.(type) {
	case *IntegralType:
		cp := *x
		return &cp
	case *StringType:
		cp := *x
		return &cp
	case *VoidType:
		cp := *x
		return &cp
	case *AnyType:
		cp := *x
		return &cp
	case *ArrayType:
		cp := *x
		return &cp
	case *StructType:
		cp := *x
		cp.Fields = append([]StructField(nil), x.Fields...)
		return &cp
	case *FunctionType:
		cp := *x
		cp.Args = append([]FuncTypeArg(nil), x.Args...)
		return &cp
	case *OffsetType:
		cp := *x
		return &cp
	default:
		panic(fmt.Sprintf("ast: DupType: unknown type %T", t))
	}
}

// Sizeof computes the compile-time constant bit-size of t, per the rules in
// spec §4.3. It panics if t is not Complete(); callers (typify2) must
// reject sizeof of incomplete types before calling this.
func Sizeof(t Type) uint64 {
	switch x := t.(type) {
	case *IntegralType:
		return uint64(x.Size)
	case *OffsetType:
		return Sizeof(x.Base)
	case *ArrayType:
		if x.Bound == nil {
			panic("ast: Sizeof: array has no constant bound")
		}
		return uint64(*x.Bound) * Sizeof(x.Elem)
	case *StructType:
		if x.IType != nil {
			return uint64(x.IType.Size)
		}
		var accum uint64
		for _, f := range x.Fields {
			sz := Sizeof(f.Type)
			if x.Pinned {
				if sz > accum {
					accum = sz
				}
				continue
			}
			if f.Label != nil {
				end := uint64(*f.Label) + sz
				if end > accum {
					accum = end
				}
				continue
			}
			accum += sz
		}
		return accum
	case *FunctionType:
		return 0
	default:
		panic(fmt.Sprintf("ast: Sizeof: type %T is not complete", t))
	}
}
