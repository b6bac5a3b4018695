package sema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/cenv"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/sema"
)

func runTrans1(t *testing.T, env *cenv.Env, root ast.Node) *sema.Diagnostics {
	t.Helper()
	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(root, []*pass.Phase{sema.Trans1(d, env)}))
	return d
}

// TestTrans1ResolvesLexicalAddressInSameBlock exercises spec §8's
// "lexical-address stability" property for the simplest case: a variable
// referenced in the same block it was declared in resolves to (back=0,
// over=<declaration ordinal>).
func TestTrans1ResolvesLexicalAddressInSameBlock(t *testing.T) {
	decl := &ast.DeclStmt{Kind: ast.DeclVar, Name: "x", Value: &ast.IntegerLiteral{Value: 1, Signed: true}}
	ref := &ast.VarRefExpr{Name: "x"}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{
		decl,
		&ast.ExprStmt{Expr: ref},
	}}}

	d := runTrans1(t, cenv.New(), prog)

	require.Equal(t, 0, d.Count())
	require.Equal(t, 0, decl.Back)
	require.Equal(t, 0, decl.Over)
	require.Equal(t, 0, ref.Back)
	require.Equal(t, 0, ref.Over)
}

// TestTrans1ResolvesOuterVariableFromNestedBlock checks that a reference
// from within a nested compound statement walks outward the correct
// number of frames to reach a variable declared in an enclosing block,
// mirroring the PUSHF/POPF nesting codegen emits for every CompStmt.
func TestTrans1ResolvesOuterVariableFromNestedBlock(t *testing.T) {
	outer := &ast.DeclStmt{Kind: ast.DeclVar, Name: "x", Value: &ast.IntegerLiteral{Value: 1, Signed: true}}
	ref := &ast.VarRefExpr{Name: "x"}
	inner := &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: ref}}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{
		outer,
		inner,
	}}}

	d := runTrans1(t, cenv.New(), prog)

	require.Equal(t, 0, d.Count())
	require.Equal(t, 1, ref.Back)
	require.Equal(t, 0, ref.Over)
}

// TestTrans1OrdersSiblingDeclarationsBySequentialOrdinal checks that two
// value declarations in the same frame receive increasing "over" ordinals
// in declaration order (spec §3.3).
func TestTrans1OrdersSiblingDeclarationsBySequentialOrdinal(t *testing.T) {
	a := &ast.DeclStmt{Kind: ast.DeclVar, Name: "a", Value: &ast.IntegerLiteral{Value: 1, Signed: true}}
	b := &ast.DeclStmt{Kind: ast.DeclVar, Name: "b", Value: &ast.IntegerLiteral{Value: 2, Signed: true}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{a, b}}}

	runTrans1(t, cenv.New(), prog)

	require.Equal(t, 0, a.Over)
	require.Equal(t, 1, b.Over)
}

// TestTrans1ResolvesFunctionParameterOneFrameOut checks that a reference
// to a lambda's own formal parameter, from within the lambda's body,
// resolves to back=1: the body's CompStmt opens its own frame (codegen's
// compStmt always does), one level inside the frame pvm.VM.call
// pre-populates with the callee's bound parameters.
func TestTrans1ResolvesFunctionParameterOneFrameOut(t *testing.T) {
	argX := &ast.FuncArg{Name: "x", Type: &ast.TypeExpr{Denoted: &ast.IntegralType{Size: 32, Signed: true}}}
	ref := &ast.VarRefExpr{Name: "x"}
	lam := &ast.LambdaExpr{
		Args: []*ast.FuncArg{argX},
		Body: &ast.CompStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: ref},
		}},
	}
	decl := &ast.DeclStmt{Kind: ast.DeclFunc, Name: "f", Value: lam}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{decl}}}

	d := runTrans1(t, cenv.New(), prog)

	require.Equal(t, 0, d.Count())
	require.Equal(t, 1, ref.Back)
	require.Equal(t, 0, ref.Over)
}

// TestTrans1ReportsUndeclaredIdentifier checks that a reference to a name
// with no visible declaration is diagnosed rather than silently ignored.
func TestTrans1ReportsUndeclaredIdentifier(t *testing.T) {
	ref := &ast.VarRefExpr{Name: "nope"}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: ref}}}}

	d := runTrans1(t, cenv.New(), prog)

	require.Equal(t, 1, d.Count())
}
