// Package ast defines the abstract syntax tree produced by the (external)
// parser collaborator and rewritten in place by the compiler's semantic
// phases. Every node carries the bookkeeping fields required by spec §3.2:
// a code, a back-pointer to its owning container, a monotonic uid, a
// next-sibling chain, an auxiliary chain used by hash buckets and frame
// bookkeeping, a source location, a reference count and a type pointer.
package ast

import "fmt"

// Code identifies the kind of an AST node.
type Code int

//nolint:revive
const (
	CodeInvalid Code = iota

	CodeProgram
	CodeIdentifier
	CodeIntegerLiteral
	CodeStringLiteral
	CodeBinExpr
	CodeUnExpr
	CodeCondExpr
	CodeCastExpr
	CodeIsaExpr
	CodeTypeofExpr
	CodeSizeofExpr
	CodeArrayExpr
	CodeArrayInitializer
	CodeStructExpr
	CodeStructFieldExpr
	CodeFieldRefExpr
	CodeIndexerExpr
	CodeTrimmerExpr
	CodeMapExpr
	CodeConsExpr
	CodeFuncallExpr
	CodeFuncallArg
	CodeVarRefExpr
	CodeLambdaExpr
	CodeFuncDef
	CodeFuncArg
	CodeDeclStmt
	CodeOffsetExpr
	CodeAttrExpr
	CodeTypeExpr

	// statement forms
	CodeExprStmt
	CodeCompStmt
	CodeAssignStmt
	CodeIfStmt
	CodeLoopStmt
	CodeForStmt
	CodeBreakStmt
	CodeContinueStmt
	CodeReturnStmt
	CodeTryStmt
	CodeCatchClause
	CodeRaiseStmt
	CodePrintStmt
	CodeNullStmt

	// type nodes
	CodeIntegralType
	CodeStringType
	CodeVoidType
	CodeAnyType
	CodeArrayType
	CodeStructType
	CodeFunctionType
	CodeOffsetType
	CodeStructTypeField
	CodeFuncTypeArg
)

var codeNames = [...]string{
	CodeInvalid:           "invalid",
	CodeProgram:           "program",
	CodeIdentifier:        "identifier",
	CodeIntegerLiteral:    "integer-literal",
	CodeStringLiteral:     "string-literal",
	CodeBinExpr:           "bin-expr",
	CodeUnExpr:            "un-expr",
	CodeCondExpr:          "cond-expr",
	CodeCastExpr:          "cast-expr",
	CodeIsaExpr:           "isa-expr",
	CodeTypeofExpr:        "typeof-expr",
	CodeSizeofExpr:        "sizeof-expr",
	CodeArrayExpr:         "array-expr",
	CodeArrayInitializer:  "array-initializer",
	CodeStructExpr:        "struct-expr",
	CodeStructFieldExpr:   "struct-field-expr",
	CodeFieldRefExpr:      "field-ref-expr",
	CodeIndexerExpr:       "indexer-expr",
	CodeTrimmerExpr:       "trimmer-expr",
	CodeMapExpr:           "map-expr",
	CodeConsExpr:          "cons-expr",
	CodeFuncallExpr:       "funcall-expr",
	CodeFuncallArg:        "funcall-arg",
	CodeVarRefExpr:        "var-ref-expr",
	CodeLambdaExpr:        "lambda-expr",
	CodeFuncDef:           "func-def",
	CodeFuncArg:           "func-arg",
	CodeDeclStmt:          "decl-stmt",
	CodeOffsetExpr:        "offset-expr",
	CodeAttrExpr:          "attr-expr",
	CodeTypeExpr:          "type-expr",
	CodeExprStmt:          "expr-stmt",
	CodeCompStmt:          "comp-stmt",
	CodeAssignStmt:        "assign-stmt",
	CodeIfStmt:            "if-stmt",
	CodeLoopStmt:          "loop-stmt",
	CodeForStmt:           "for-stmt",
	CodeBreakStmt:         "break-stmt",
	CodeContinueStmt:      "continue-stmt",
	CodeReturnStmt:        "return-stmt",
	CodeTryStmt:           "try-stmt",
	CodeCatchClause:       "catch-clause",
	CodeRaiseStmt:         "raise-stmt",
	CodePrintStmt:         "print-stmt",
	CodeNullStmt:          "null-stmt",
	CodeIntegralType:      "integral-type",
	CodeStringType:        "string-type",
	CodeVoidType:          "void-type",
	CodeAnyType:           "any-type",
	CodeArrayType:         "array-type",
	CodeStructType:        "struct-type",
	CodeFunctionType:      "function-type",
	CodeOffsetType:        "offset-type",
	CodeStructTypeField:   "struct-type-field",
	CodeFuncTypeArg:       "func-type-arg",
}

func (c Code) String() string {
	if int(c) >= 0 && int(c) < len(codeNames) && codeNames[c] != "" {
		return codeNames[c]
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Loc is a source location, resolved by the (external) parser collaborator.
type Loc struct {
	File        string
	Line, Col   int
}

func (l Loc) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Col)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Node is the interface implemented by every AST node. Concrete node types
// embed Base, which supplies the uid/refcount/chain bookkeeping mandated by
// spec §3.2.
type Node interface {
	// Base returns the embedded bookkeeping struct.
	Base() *Base
	// Code reports the node's tag.
	Code() Code
	// Walk visits the node's children in declaration order.
	Walk(v Visitor)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// TypeNode is implemented by every type node.
type TypeNode interface {
	Node
	Type() Type
}

// Base carries the bookkeeping fields every node needs regardless of kind:
// a uid, a back-pointer to the owning container, a refcount, sibling/chain
// links, a source location, a literal-p flag and a completed type pointer.
// It is embedded, never used standalone.
type Base struct {
	code Code
	uid  uint64
	ast  *AST

	// Chain is the next-sibling forward link (spec §3.2 "chain").
	Chain Node
	// Chain2 is the auxiliary link used by hash-bucket and frame chaining;
	// distinct from Chain.
	Chain2 Node

	Loc      Loc
	refcount int
	LiteralP bool
	Typ      Type

	// HasFolded/FoldedInt/FoldedStr/FoldedIsStr record a compile-time
	// constant computed for this expression by the fold phase (spec §4.5
	// fold). The generic pass driver has no mechanism for a handler to
	// replace a node within its parent's child slot (the same limitation
	// VarRefExpr.ZeroArgCall works around), so a folded subexpression
	// keeps its original shape and carries its computed value here
	// instead of being replaced by a literal node; codegen checks
	// HasFolded and emits a constant push instead of evaluating the
	// subtree when it is set.
	HasFolded   bool
	FoldedInt   int64
	FoldedStr   string
	FoldedIsStr bool
}

func (b *Base) Base() *Base { return b }

// Code returns the node's tag as stamped by the arena. Every concrete node
// type shadows this with its own Code() method returning its fixed tag
// directly, so the tag is correct even for a node built as a plain
// composite literal (the common case throughout the compiler) rather than
// through an AST constructor.
func (b *Base) Code() Code { return b.code }

// UID returns the node's monotonically increasing identifier.
func (b *Base) UID() uint64 { return b.uid }

// Refcount returns the current reference count, exposed for debug-only
// invariant checks (Go's GC, not the refcount, owns memory safety here).
func (b *Base) Refcount() int { return b.refcount }

// AST is the arena that owns every node allocated through it. Its newBase
// helper stamps a fresh uid and a zero refcount; the package exports no
// per-node constructor methods, and nodes built as plain composite literals
// carry uid 0. The caller is responsible for calling ASTRef when installing
// a node as a child, mirroring the original's convention that constructors
// never bump their own refcount.
type AST struct {
	nextUID uint64
	nodes   []Node // all nodes ever allocated through this arena, for bulk free
}

// NewAST creates an empty node arena.
func NewAST() *AST { return &AST{} }

func (a *AST) newBase(code Code) Base {
	a.nextUID++
	return Base{code: code, uid: a.nextUID, ast: a}
}

func (a *AST) track(n Node) {
	a.nodes = append(a.nodes, n)
}

// ASTRef increments n's reference count. It is the caller's responsibility
// to call ASTRef exactly once per parent that installs n as a child.
func ASTRef(n Node) Node {
	if n == nil {
		return nil
	}
	n.Base().refcount++
	return n
}

// Release decrements n's reference count and panics if it drops below zero.
// It does not remove the node from the arena's bookkeeping. Since Go nodes
// are garbage collected, the count is only a debug invariant; it does not recurse
// into children the way the original's pkl_ast_node_free does, because Go's
// collector already reclaims unreachable children once the last strong
// reference (Chain link or parent field) is cleared.
func Release(n Node) {
	if n == nil {
		return
	}
	b := n.Base()
	b.refcount--
	if b.refcount < 0 {
		panic(fmt.Sprintf("ast: refcount underflow on node %d (%s)", b.uid, b.code))
	}
}

// Chainon appends b to the tail of a's sibling chain, ASTREF-ing b, and
// returns the resulting chain head (a, or b if a is nil).
func Chainon(a, b Node) Node {
	if b != nil {
		ASTRef(b)
	}
	if a == nil {
		return b
	}
	tail := a
	for tail.Base().Chain != nil {
		tail = tail.Base().Chain
	}
	tail.Base().Chain = b
	return a
}

// ChainLen returns the number of nodes reachable by following Chain from n,
// inclusive of n itself (0 if n is nil).
func ChainLen(n Node) int {
	count := 0
	for ; n != nil; n = n.Base().Chain {
		count++
	}
	return count
}

// ChainSlice materializes the Chain links starting at n into a slice, in
// order. Useful for the many passes that want random access to siblings.
func ChainSlice(n Node) []Node {
	var out []Node
	for ; n != nil; n = n.Base().Chain {
		out = append(out, n)
	}
	return out
}
