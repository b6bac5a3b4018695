package ast

import "github.com/poke-lang/poke/token"

// Program is the root node of a compiled unit.
type Program struct {
	Base
	Body *CompStmt
}

func (n *Program) Code() Code { return CodeProgram }
func (n *Program) Walk(v Visitor) { Walk(v, n.Body) }

// CompStmt is a brace-delimited block of statements; it introduces a new
// compile-time frame (spec §3.3 "Frame").
type CompStmt struct {
	Base
	Stmts []Stmt
}

func (n *CompStmt) Code() Code { return CodeCompStmt }
func (n *CompStmt) stmtNode()        {}
func (n *CompStmt) BlockEnding() bool { return false }
func (n *CompStmt) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}

// ExprStmt is an expression used as a statement.
type ExprStmt struct {
	Base
	Expr Expr
}

func (n *ExprStmt) Code() Code { return CodeExprStmt }
func (n *ExprStmt) stmtNode()        {}
func (n *ExprStmt) BlockEnding() bool { return false }
func (n *ExprStmt) Walk(v Visitor)   { Walk(v, n.Expr) }

// NullStmt is the empty statement ";".
type NullStmt struct{ Base }

func (n *NullStmt) Code() Code { return CodeNullStmt }
func (n *NullStmt) stmtNode()        {}
func (n *NullStmt) BlockEnding() bool { return false }
func (n *NullStmt) Walk(v Visitor)   {}

// DeclStmt declares one or more names: var/type/fun/unit.
type DeclStmt struct {
	Base
	Kind    DeclKind
	Name    string
	Type    *TypeExpr // non-nil for var/type/unit declarations
	Value   Expr      // initializer, non-nil for var declarations and fun definitions (as a LambdaExpr)
	IsUnit  bool       // declares an offset-unit name rather than a value/type

	// Back/Over are filled in from cenv.Register at declaration time, giving this
	// statement's own (back, over) address for later lookup.
	Back, Over int
}

// DeclKind distinguishes the four declaration namespaces (spec §3.3: "each
// frame counts, separately, its declared types and its declared
// value/function slots").
type DeclKind int

const (
	DeclVar DeclKind = iota
	DeclType
	DeclFunc
	DeclUnit
)

func (n *DeclStmt) Code() Code { return CodeDeclStmt }
func (n *DeclStmt) stmtNode()        {}
func (n *DeclStmt) BlockEnding() bool { return false }
func (n *DeclStmt) Walk(v Visitor) {
	if n.Type != nil {
		Walk(v, n.Type)
	}
	if n.Value != nil {
		Walk(v, n.Value)
	}
}

// AssignStmt is a = b;
type AssignStmt struct {
	Base
	Left, Right Expr
}

func (n *AssignStmt) Code() Code { return CodeAssignStmt }
func (n *AssignStmt) stmtNode()        {}
func (n *AssignStmt) BlockEnding() bool { return false }
func (n *AssignStmt) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

// IfStmt is if (cond) then else; False may be nil.
type IfStmt struct {
	Base
	Cond        Expr
	True, False *CompStmt
}

func (n *IfStmt) Code() Code { return CodeIfStmt }
func (n *IfStmt) stmtNode()        {}
func (n *IfStmt) BlockEnding() bool { return false }
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.True)
	if n.False != nil {
		Walk(v, n.False)
	}
}

// LoopStmt is a while/until-style loop: while (cond) body, or do body while
// (cond) if Until is true and the condition is checked post-body.
type LoopStmt struct {
	Base
	Cond  Expr
	Body  *CompStmt
	Until bool
}

func (n *LoopStmt) Code() Code { return CodeLoopStmt }
func (n *LoopStmt) stmtNode()        {}
func (n *LoopStmt) BlockEnding() bool { return false }
func (n *LoopStmt) IsLoop() bool      { return true }
func (n *LoopStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Body)
}

// ForStmt is for (iter-var in container) body; the iterator variable(s) are
// implicitly declared in a synthetic frame enclosing Body (spec §4.3,
// grounded on resolver.stmt's ForInStmt handling).
type ForStmt struct {
	Base
	IterVars []string
	Container Expr
	Body      *CompStmt
}

func (n *ForStmt) Code() Code { return CodeForStmt }
func (n *ForStmt) stmtNode()        {}
func (n *ForStmt) BlockEnding() bool { return false }
func (n *ForStmt) IsLoop() bool      { return true }
func (n *ForStmt) Walk(v Visitor) {
	Walk(v, n.Container)
	Walk(v, n.Body)
}

// BreakStmt and ContinueStmt exit or restart the innermost enclosing loop.
// Loop is a weak back-edge filled in by trans1/anal1 (spec §3.2).
type BreakStmt struct {
	Base
	Loop Node
}

func (n *BreakStmt) Code() Code { return CodeBreakStmt }
func (n *BreakStmt) stmtNode()        {}
func (n *BreakStmt) BlockEnding() bool { return true }
func (n *BreakStmt) Walk(v Visitor)   {}

type ContinueStmt struct {
	Base
	Loop Node
}

func (n *ContinueStmt) Code() Code { return CodeContinueStmt }
func (n *ContinueStmt) stmtNode()        {}
func (n *ContinueStmt) BlockEnding() bool { return true }
func (n *ContinueStmt) Walk(v Visitor)   {}

// ReturnStmt returns from the enclosing function (weak back-edge Func,
// spec §3.2). Value may be nil for a bare return.
type ReturnStmt struct {
	Base
	Value Expr
	Func  Node
}

func (n *ReturnStmt) Code() Code { return CodeReturnStmt }
func (n *ReturnStmt) stmtNode()        {}
func (n *ReturnStmt) BlockEnding() bool { return true }
func (n *ReturnStmt) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}

// CatchClause is one catch arm of a TryStmt: catch [if Cond] [as Name] Body.
type CatchClause struct {
	Base
	Cond *CompStmt // evaluated with Name bound; nil means unconditional
	Name string    // "" means the exception value is not bound
	Body *CompStmt
}

func (n *CatchClause) Code() Code { return CodeCatchClause }
func (n *CatchClause) Walk(v Visitor) {
	if n.Cond != nil {
		Walk(v, n.Cond)
	}
	Walk(v, n.Body)
}

// TryStmt is try Body catch... (spec §4.7, §7 tier 3).
type TryStmt struct {
	Base
	Body    *CompStmt
	Catches []*CatchClause
}

func (n *TryStmt) Code() Code { return CodeTryStmt }
func (n *TryStmt) stmtNode()        {}
func (n *TryStmt) BlockEnding() bool { return false }
func (n *TryStmt) Walk(v Visitor) {
	Walk(v, n.Body)
	for _, c := range n.Catches {
		Walk(v, c)
	}
}

// RaiseStmt raises (or re-raises, when Value is nil) an exception.
type RaiseStmt struct {
	Base
	Value Expr
}

func (n *RaiseStmt) Code() Code { return CodeRaiseStmt }
func (n *RaiseStmt) stmtNode()        {}
func (n *RaiseStmt) BlockEnding() bool { return true }
func (n *RaiseStmt) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}

// PrintStmt is printf's compiled form: a format string plus its argument
// expressions. trans1 checks only that Format holds as many '%' as there
// are Args; Format itself is kept as written and is interpreted at run
// time by PRINT (pvm's printFormatted), using Go's fmt verb syntax.
type PrintStmt struct {
	Base
	Format string
	Args   []Expr
}

func (n *PrintStmt) Code() Code { return CodePrintStmt }
func (n *PrintStmt) stmtNode()        {}
func (n *PrintStmt) BlockEnding() bool { return false }
func (n *PrintStmt) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}

// loop marker: statements that can be the 'from' of a break/continue must
// implement IsLoop.
type loopStmt interface {
	IsLoop() bool
}

var (
	_ loopStmt = (*LoopStmt)(nil)
	_ loopStmt = (*ForStmt)(nil)
)

// TokenForIncrDecr maps ++/-- to the equivalent binary operator used by
// trans3's assignment rewrite (spec §4.5).
func TokenForIncrDecr(op token.Token) token.Token {
	switch op {
	case token.INCR:
		return token.PLUS
	case token.DECR:
		return token.MINUS
	default:
		return token.ILLEGAL
	}
}
