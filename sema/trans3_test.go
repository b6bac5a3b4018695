package sema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/sema"
	"github.com/poke-lang/poke/token"
)

func TestTrans3RewritesIncrementStatementToAssignment(t *testing.T) {
	vr := &ast.VarRefExpr{Name: "x"}
	ue := &ast.UnExpr{Op: token.INCR, Operand: vr}
	es := &ast.ExprStmt{Expr: ue}
	cs := &ast.CompStmt{Stmts: []ast.Stmt{es}}
	prog := &ast.Program{Body: cs}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Trans3(d)}))

	as, ok := cs.Stmts[0].(*ast.AssignStmt)
	require.True(t, ok)
	require.Same(t, vr, as.Left)

	add, ok := as.Right.(*ast.BinExpr)
	require.True(t, ok)
	require.Equal(t, token.PLUS, add.Op)
	require.Same(t, vr, add.Left)
}

func TestTrans3LeavesOtherStatementsAlone(t *testing.T) {
	es := &ast.ExprStmt{Expr: &ast.IntegerLiteral{Value: 1, Signed: true}}
	cs := &ast.CompStmt{Stmts: []ast.Stmt{es}}
	prog := &ast.Program{Body: cs}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Trans3(d)}))

	require.Same(t, es, cs.Stmts[0])
}
