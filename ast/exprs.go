package ast

import "github.com/poke-lang/poke/token"

// Identifier is a bare name, used as an lvalue/rvalue reference or as a
// struct field/funcall-argument label.
type Identifier struct {
	Base
	Name string
}

func (n *Identifier) Code() Code { return CodeIdentifier }
func (n *Identifier) exprNode()      {}
func (n *Identifier) Walk(v Visitor) {}

// IntegerLiteral is an integer constant as produced by the parser; typify1
// assigns it a type directly from the literal's suffix/shape.
type IntegerLiteral struct {
	Base
	Value  int64
	Signed bool
	Size   int // declared width in bits, 0 meaning "default" (resolved by typify1)
}

func (n *IntegerLiteral) Code() Code { return CodeIntegerLiteral }
func (n *IntegerLiteral) exprNode()      {}
func (n *IntegerLiteral) Walk(v Visitor) {}

// StringLiteral is a string constant; trans1 decodes escape sequences in
// Raw into Value.
type StringLiteral struct {
	Base
	Raw   string
	Value string
}

func (n *StringLiteral) Code() Code { return CodeStringLiteral }
func (n *StringLiteral) exprNode()      {}
func (n *StringLiteral) Walk(v Visitor) {}

// BinExpr is a binary expression, e.g. a + b, a :::  b, a in b.
type BinExpr struct {
	Base
	Op          token.Token
	Left, Right Expr
}

func (n *BinExpr) Code() Code { return CodeBinExpr }
func (n *BinExpr) exprNode() {}
func (n *BinExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

// UnExpr is a unary expression: +x, -x, ~x, x++, x-- (an increment or
// decrement used as a statement is rewritten to an assignment by trans3,
// see spec §4.5).
type UnExpr struct {
	Base
	Op      token.Token
	Operand Expr
}

func (n *UnExpr) Code() Code { return CodeUnExpr }
func (n *UnExpr) exprNode() {}
func (n *UnExpr) Walk(v Visitor) {
	Walk(v, n.Operand)
}

// CondExpr is x ? y : z.
type CondExpr struct {
	Base
	Cond, True, False Expr
}

func (n *CondExpr) Code() Code { return CodeCondExpr }
func (n *CondExpr) exprNode() {}
func (n *CondExpr) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.True)
	Walk(v, n.False)
}

// CastExpr is (T)x.
type CastExpr struct {
	Base
	Target   *TypeExpr
	Operand  Expr
}

func (n *CastExpr) Code() Code { return CodeCastExpr }
func (n *CastExpr) exprNode() {}
func (n *CastExpr) Walk(v Visitor) {
	Walk(v, n.Target)
	Walk(v, n.Operand)
}

// IsaExpr is x isa T, always typed int<32> (boolean).
type IsaExpr struct {
	Base
	Operand Expr
	Target  *TypeExpr
}

func (n *IsaExpr) Code() Code { return CodeIsaExpr }
func (n *IsaExpr) exprNode() {}
func (n *IsaExpr) Walk(v Visitor) {
	Walk(v, n.Operand)
	Walk(v, n.Target)
}

// TypeofExpr is typeof(x), yielding x's type as a first-class value.
type TypeofExpr struct {
	Base
	Operand Expr
}

func (n *TypeofExpr) Code() Code { return CodeTypeofExpr }
func (n *TypeofExpr) exprNode() {}
func (n *TypeofExpr) Walk(v Visitor) {
	Walk(v, n.Operand)
}

// SizeofExpr is sizeof(T); typify2 requires T to be Complete().
type SizeofExpr struct {
	Base
	Target *TypeExpr
}

func (n *SizeofExpr) Code() Code { return CodeSizeofExpr }
func (n *SizeofExpr) exprNode() {}
func (n *SizeofExpr) Walk(v Visitor) {
	Walk(v, n.Target)
}

// ArrayInitializer is one [index=]value pair inside an ArrayExpr.
type ArrayInitializer struct {
	Base
	Index Expr // nil if positional
	Value Expr
}

func (n *ArrayInitializer) Code() Code { return CodeArrayInitializer }
func (n *ArrayInitializer) exprNode() {}
func (n *ArrayInitializer) Walk(v Visitor) {
	if n.Index != nil {
		Walk(v, n.Index)
	}
	Walk(v, n.Value)
}

// ArrayExpr is an array constructor literal: [a, b, c].
type ArrayExpr struct {
	Base
	Initializers []*ArrayInitializer
	NElem        int // filled in by trans1
}

func (n *ArrayExpr) Code() Code { return CodeArrayExpr }
func (n *ArrayExpr) exprNode() {}
func (n *ArrayExpr) Walk(v Visitor) {
	for _, init := range n.Initializers {
		Walk(v, init)
	}
}

// StructFieldExpr is a name=value initializer inside a StructExpr.
type StructFieldExpr struct {
	Base
	Name  string
	Value Expr
}

func (n *StructFieldExpr) Code() Code { return CodeStructFieldExpr }
func (n *StructFieldExpr) exprNode() {}
func (n *StructFieldExpr) Walk(v Visitor) {
	Walk(v, n.Value)
}

// StructExpr is a struct constructor literal: Point { x = 1, y = 2 }.
type StructExpr struct {
	Base
	TypeName string // "" if anonymous
	Fields   []*StructFieldExpr
	NElem    int // filled in by trans1
}

func (n *StructExpr) Code() Code { return CodeStructExpr }
func (n *StructExpr) exprNode() {}
func (n *StructExpr) Walk(v Visitor) {
	for _, f := range n.Fields {
		Walk(v, f)
	}
}

// FieldRefExpr is struct-member access: operand.name. trans2 sets
// ZeroArgCall when name resolves to a method taking no required
// arguments and this reference is not already the callee of a
// FuncallExpr (spec §4.5 trans2 "struct-ref -> zero-arg funcall").
type FieldRefExpr struct {
	Base
	Operand     Expr
	Name        string
	ZeroArgCall bool
}

func (n *FieldRefExpr) Code() Code { return CodeFieldRefExpr }
func (n *FieldRefExpr) exprNode()  {}
func (n *FieldRefExpr) Walk(v Visitor) {
	Walk(v, n.Operand)
}

// IndexerExpr is a[i].
type IndexerExpr struct {
	Base
	Container, Index Expr
}

func (n *IndexerExpr) Code() Code { return CodeIndexerExpr }
func (n *IndexerExpr) exprNode() {}
func (n *IndexerExpr) Walk(v Visitor) {
	Walk(v, n.Container)
	Walk(v, n.Index)
}

// TrimmerExpr is a[from:to], or a trim given by a start and an addend (a
// length); trans1 fills in the implicit bounds when From/To are nil (spec
// §4.5) and, when HasAddend is set, replaces To with From + Addend.
type TrimmerExpr struct {
	Base
	Container    Expr
	From, To     Expr // nil until trans1 fills in the default
	HasAddend    bool
	Addend       Expr
}

func (n *TrimmerExpr) Code() Code { return CodeTrimmerExpr }
func (n *TrimmerExpr) exprNode() {}
func (n *TrimmerExpr) Walk(v Visitor) {
	Walk(v, n.Container)
	if n.From != nil {
		Walk(v, n.From)
	}
	if n.To != nil {
		Walk(v, n.To)
	}
	if n.Addend != nil {
		Walk(v, n.Addend)
	}
}

// MapExpr is T @ IOS : OFF.
type MapExpr struct {
	Base
	Target *TypeExpr
	IOS    Expr // nil => current IOS
	Offset Expr
}

func (n *MapExpr) Code() Code { return CodeMapExpr }
func (n *MapExpr) exprNode() {}
func (n *MapExpr) Walk(v Visitor) {
	Walk(v, n.Target)
	if n.IOS != nil {
		Walk(v, n.IOS)
	}
	Walk(v, n.Offset)
}

// ConsExpr is the bit-concatenation operator x ::: y.
type ConsExpr struct {
	Base
	Left, Right Expr
}

func (n *ConsExpr) Code() Code { return CodeConsExpr }
func (n *ConsExpr) exprNode() {}
func (n *ConsExpr) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

// FuncallArg is one actual argument to a FuncallExpr, optionally named.
type FuncallArg struct {
	Base
	Name        string // "" if positional
	Value       Expr   // nil for a placeholder (omitted optional)
	IsVarargTail bool  // set by typify1 on the first actual falling into a vararg tail
}

func (n *FuncallArg) Code() Code { return CodeFuncallArg }
func (n *FuncallArg) exprNode() {}
func (n *FuncallArg) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}

// FuncallExpr is fn(args...).
type FuncallExpr struct {
	Base
	Callee Expr
	Args   []*FuncallArg
}

func (n *FuncallExpr) Code() Code { return CodeFuncallExpr }
func (n *FuncallExpr) exprNode() {}
func (n *FuncallExpr) Walk(v Visitor) {
	Walk(v, n.Callee)
	for _, a := range n.Args {
		Walk(v, a)
	}
}

// VarRefExpr is a reference to a declared variable, enriched by trans1 with
// the enclosing function (a weak back-edge, excluded from ref-counting) and
// finalized by cenv with a lexical address.
type VarRefExpr struct {
	Base
	Name string

	// EnclosingFunc is a weak back-edge to the FuncDef (or top-level Program)
	// this reference appears in, filled in by trans1. It is deliberately not
	// ASTREF'd: see spec §3.2 and DESIGN NOTES §9.
	EnclosingFunc Node
	Depth         int // lexical depth relative to EnclosingFunc, set by trans1

	// Back/Over are the lexical address resolved by cenv at declaration time
	// (spec §3.3); codegen reads them directly to emit PUSHVAR/POPVAR.
	Back, Over int

	// ZeroArgCall is set by trans1 when this reference resolves to a
	// zero-argument (or all-optional-argument) function and is not
	// already the callee of a FuncallExpr (spec §4.5): codegen emits a
	// CALL with zero actuals instead of a PUSHVAR.
	ZeroArgCall bool
}

func (n *VarRefExpr) Code() Code { return CodeVarRefExpr }
func (n *VarRefExpr) exprNode()      {}
func (n *VarRefExpr) Walk(v Visitor) {}

// FuncArg is one formal parameter in a function signature.
type FuncArg struct {
	Base
	Name     string
	Type     *TypeExpr
	Optional bool
	Vararg   bool
	Default  Expr // nil unless Optional
}

func (n *FuncArg) Code() Code { return CodeFuncArg }
func (n *FuncArg) exprNode() {}
func (n *FuncArg) Walk(v Visitor) {
	Walk(v, n.Type)
	if n.Default != nil {
		Walk(v, n.Default)
	}
}

// LambdaExpr is an anonymous function literal.
type LambdaExpr struct {
	Base
	Args          []*FuncArg
	FirstOptional int // index of first optional/vararg arg, -1 if none (set by trans1)
	Return        *TypeExpr
	Body          *CompStmt
}

func (n *LambdaExpr) Code() Code { return CodeLambdaExpr }
func (n *LambdaExpr) exprNode() {}
func (n *LambdaExpr) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
	if n.Return != nil {
		Walk(v, n.Return)
	}
	Walk(v, n.Body)
}

// OffsetExpr is a magnitude#unit literal/expression; trans1 supplies a
// default Magnitude of 1 when omitted from the surface syntax.
type OffsetExpr struct {
	Base
	Magnitude Expr // may be nil before trans1 fills in the default of 1
	Unit      Expr // either a literal integer, or a TypeExpr that trans2 replaces with an integer literal of its size in bits
}

func (n *OffsetExpr) Code() Code { return CodeOffsetExpr }
func (n *OffsetExpr) exprNode() {}
func (n *OffsetExpr) Walk(v Visitor) {
	if n.Magnitude != nil {
		Walk(v, n.Magnitude)
	}
	Walk(v, n.Unit)
}

// AttrCode identifies one of the 'name attributes (spec §8 attribute table).
type AttrCode int

//nolint:revive
const (
	AttrInvalid AttrCode = iota
	AttrSize
	AttrLength
	AttrSigned
	AttrMagnitude
	AttrUnit
	AttrOffset
	AttrMapped
	AttrStrict
	AttrIOS
	AttrElem
	AttrEOffset
	AttrESize
	AttrEName
)

// AttrExpr is x'name.
type AttrExpr struct {
	Base
	Operand Expr
	Name    string
	Attr    AttrCode // resolved by trans1
}

func (n *AttrExpr) Code() Code { return CodeAttrExpr }
func (n *AttrExpr) exprNode() {}
func (n *AttrExpr) Walk(v Visitor) {
	Walk(v, n.Operand)
}
