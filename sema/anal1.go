package sema

import (
	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
)

// Anal1 builds the first analysis phase: a pure check pass that does not
// mutate the tree (spec §4.5 "anal1/anal2/analf: pure checks... return
// reachability, duplicate-field detection in struct constructors,
// unreachable-code warnings"). This entry covers duplicate-field
// detection, break/continue placement, re-raise placement and
// unreachable-code warnings, run early enough that later phases can
// assume well-formed control flow; return placement is not checked here.
func Anal1(d *Diagnostics) *pass.Phase {
	p := pass.NewPhase("anal1", 0)

	var loopDepth, tryDepth int

	p.OnCode(ast.CodeLoopStmt, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		loopDepth++
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeLoopStmt, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		loopDepth--
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeForStmt, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		loopDepth++
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeForStmt, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		loopDepth--
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeBreakStmt, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		if loopDepth == 0 {
			d.Errorf(n, "break outside of a loop")
		}
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeContinueStmt, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		if loopDepth == 0 {
			d.Errorf(n, "continue outside of a loop")
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeTryStmt, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		tryDepth++
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeTryStmt, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		tryDepth--
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeRaiseStmt, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		rs := n.(*ast.RaiseStmt)
		if rs.Value == nil && tryDepth == 0 {
			d.Errorf(rs, "invalid re-raise: not inside a catch block")
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeStructExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		se := n.(*ast.StructExpr)
		seen := make(map[string]bool, len(se.Fields))
		for _, f := range se.Fields {
			if f.Name == "" {
				continue
			}
			if seen[f.Name] {
				d.Errorf(f, "duplicate field %q in struct constructor", f.Name)
			}
			seen[f.Name] = true
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeCompStmt, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		cs := n.(*ast.CompStmt)
		for i, s := range cs.Stmts {
			if i == len(cs.Stmts)-1 {
				break
			}
			if blockEnding(s) {
				d.Warnf(cs.Stmts[i+1], "unreachable code")
				break
			}
		}
		return pass.Continue, nil
	})

	return p
}

type blockEnder interface {
	BlockEnding() bool
}

func blockEnding(s ast.Stmt) bool {
	be, ok := s.(blockEnder)
	return ok && be.BlockEnding()
}
