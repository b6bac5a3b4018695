package sema

import (
	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
)

// Anal2 builds the second analysis phase (spec §4.5 anal1/anal2/analf):
// pure checks that run after the rewrite phases, once every node carries
// its final type and shape. It checks that a non-void function's body
// cannot fall off the end without returning a value, and that an
// unconditional catch clause is not followed by another catch (spec §4.7
// "catch clauses are tried in order; an unconditional one must be last").
func Anal2(d *Diagnostics) *pass.Phase {
	p := pass.NewPhase("anal2", 0)

	p.OnCode(ast.CodeLambdaExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		lam := n.(*ast.LambdaExpr)
		if lam.Return == nil {
			return pass.Continue, nil
		}
		if _, isVoid := lam.Return.Denoted.(*ast.VoidType); isVoid {
			return pass.Continue, nil
		}
		if !bodyAlwaysReturnsValue(lam.Body) {
			d.Errorf(lam, "function may fall off the end without returning a value")
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeTryStmt, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ts := n.(*ast.TryStmt)
		for i, c := range ts.Catches {
			if c.Cond == nil && i != len(ts.Catches)-1 {
				d.Errorf(c, "unconditional catch clause must be the last one")
			}
		}
		return pass.Continue, nil
	})

	return p
}

// bodyAlwaysReturnsValue reports whether every path through cs ends in a
// ReturnStmt carrying a value or a RaiseStmt (which never falls through).
// It is a syntactic approximation, not full dataflow: an if without an
// else is conservatively treated as possibly falling through.
func bodyAlwaysReturnsValue(cs *ast.CompStmt) bool {
	if cs == nil || len(cs.Stmts) == 0 {
		return false
	}
	last := cs.Stmts[len(cs.Stmts)-1]
	switch s := last.(type) {
	case *ast.ReturnStmt:
		return s.Value != nil
	case *ast.RaiseStmt:
		return true
	case *ast.IfStmt:
		return s.False != nil && bodyAlwaysReturnsValue(s.True) && bodyAlwaysReturnsValue(s.False)
	case *ast.TryStmt:
		if !bodyAlwaysReturnsValue(s.Body) {
			return false
		}
		for _, c := range s.Catches {
			if !bodyAlwaysReturnsValue(c.Body) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
