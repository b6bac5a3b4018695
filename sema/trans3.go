package sema

import (
	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/token"
)

// Trans3 builds the second type-dependent rewrite phase (spec §4.5
// trans3): x++/x-- used as a statement is rewritten to the equivalent
// assignment x = x + 1 / x = x - 1. A CompStmt owns its Stmts slice
// directly, so unlike a rewrite that would need to replace a node inside
// an arbitrary expression parent, this one can substitute the whole
// statement in place.
func Trans3(d *Diagnostics) *pass.Phase {
	p := pass.NewPhase("trans3", 0)

	p.OnCode(ast.CodeCompStmt, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		cs := n.(*ast.CompStmt)
		for i, s := range cs.Stmts {
			es, ok := s.(*ast.ExprStmt)
			if !ok {
				continue
			}
			ue, ok := es.Expr.(*ast.UnExpr)
			if !ok || (ue.Op != token.INCR && ue.Op != token.DECR) {
				continue
			}
			op := ast.TokenForIncrDecr(ue.Op)
			if op == token.ILLEGAL {
				continue
			}
			one := &ast.IntegerLiteral{Value: 1, Signed: false, Size: 64}
			ast.ASTRef(one)
			add := &ast.BinExpr{Op: op, Left: ue.Operand, Right: one}
			ast.ASTRef(add)
			as := &ast.AssignStmt{Left: ue.Operand, Right: add}
			ast.ASTRef(as)
			cs.Stmts[i] = as
		}
		return pass.Continue, nil
	})

	return p
}
