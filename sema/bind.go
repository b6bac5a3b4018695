package sema

import (
	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/cenv"
	"github.com/poke-lang/poke/pass"
)

// bindScopes wires the CompStmt/LambdaExpr/DeclStmt frame bookkeeping that
// keeps env's lexical addresses in lockstep with the run-time frame
// nesting codegen emits (spec §3.3/§3.4, §8 "Lexical-address stability"):
// every CompStmt, including a function body's own, opens one run-time
// frame (codegen.go's compStmt always wraps its statements in PUSHF/POPF),
// and a LambdaExpr's formal parameters live one frame further out,
// matching the call frame pvm.VM.call pre-populates before executing the
// callee's body (defaultsPrologue's PUSHVAR pack(0,i) reads it before the
// body's own PUSHF runs).
//
// Each phase that needs lexical addresses or declaration lookups (trans1,
// typify1) wires this in independently: env's frames are per-traversal
// state, not preserved across the separate full-tree passes spec §4.4's
// do_pass runs one phase at a time. Re-registering on every phase is safe
// because the ordinal a frame hands out is a pure function of traversal
// order, and every phase walks the same, by-then-unchanging tree shape in
// the same order.
func bindScopes(p *pass.Phase, env *cenv.Env) {
	p.OnCode(ast.CodeCompStmt, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		env.PushFrame()
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeCompStmt, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		_ = env.PopFrame()
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeLambdaExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		lam := n.(*ast.LambdaExpr)
		env.PushFrame()
		for _, a := range lam.Args {
			var t ast.Type
			if a.Type != nil {
				t = a.Type.Denoted
			}
			env.Register(a.Name, a, ast.DeclVar, t)
		}
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeLambdaExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		_ = env.PopFrame()
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeDeclStmt, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ds := n.(*ast.DeclStmt)
		if ds.Kind == ast.DeclUnit {
			env.RegisterUnit(ds.Name, ds, nil)
			return pass.Continue, nil
		}
		var t ast.Type
		if ds.Type != nil {
			t = ds.Type.Denoted
		}
		decl, ok := env.Register(ds.Name, ds, ds.Kind, t)
		if ok {
			ds.Back, ds.Over = decl.Back, decl.Over
		}
		return pass.Continue, nil
	})
}

// declType reports the current type of whatever a looked-up declaration
// names: a DeclStmt's own declared-or-inferred type, or a FuncArg's
// declared parameter type. Returns nil if not yet known, which happens
// for a recursive self-reference visited before its own declaring
// LambdaExpr finishes typing (spec §4.5 FuncallExpr handler comment: "a
// later subpass/restart will retry once it is").
func declType(d *cenv.Decl) ast.Type {
	switch node := d.Node.(type) {
	case *ast.DeclStmt:
		return node.Base().Typ
	case *ast.FuncArg:
		if node.Type != nil {
			return node.Type.Denoted
		}
		return node.Base().Typ
	case *ast.LambdaExpr:
		// a declaration registered directly against its LambdaExpr value
		// rather than the enclosing DeclStmt (e.g. a speculative/test
		// registration, or a to-be-bound closure constant).
		return node.Base().Typ
	}
	return nil
}
