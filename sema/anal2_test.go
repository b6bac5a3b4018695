package sema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/sema"
)

func TestAnal2RejectsNonVoidFunctionThatFallsThrough(t *testing.T) {
	lam := &ast.LambdaExpr{
		Return: &ast.TypeExpr{Denoted: &ast.IntegralType{Size: 32, Signed: true}},
		Body:   &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: &ast.IntegerLiteral{Value: 1, Signed: true}}}},
	}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: lam}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Anal2(d)}))

	require.Equal(t, 1, d.Count())
}

func TestAnal2AcceptsFunctionEndingInReturn(t *testing.T) {
	lam := &ast.LambdaExpr{
		Return: &ast.TypeExpr{Denoted: &ast.IntegralType{Size: 32, Signed: true}},
		Body: &ast.CompStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.IntegerLiteral{Value: 1, Signed: true}},
		}},
	}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: lam}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Anal2(d)}))

	require.Equal(t, 0, d.Count())
}

func TestAnal2RejectsUnconditionalCatchFollowedByAnother(t *testing.T) {
	ts := &ast.TryStmt{
		Body: &ast.CompStmt{},
		Catches: []*ast.CatchClause{
			{Body: &ast.CompStmt{}},
			{Cond: &ast.CompStmt{}, Body: &ast.CompStmt{}},
		},
	}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{ts}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Anal2(d)}))

	require.Equal(t, 1, d.Count())
}
