package sema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/sema"
)

func TestTrans2RewritesTypeOffsetUnitToSizeInBits(t *testing.T) {
	unitType := &ast.TypeExpr{Denoted: &ast.IntegralType{Size: 8, Signed: false}}
	oe := &ast.OffsetExpr{Magnitude: &ast.IntegerLiteral{Value: 3, Signed: false}, Unit: unitType}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: oe}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Trans2(d)}))

	lit, ok := oe.Unit.(*ast.IntegerLiteral)
	require.True(t, ok)
	require.Equal(t, int64(8), lit.Value)
}

func TestTrans2FoldsSizeofOfCompleteType(t *testing.T) {
	se := &ast.SizeofExpr{Target: &ast.TypeExpr{Denoted: &ast.IntegralType{Size: 32, Signed: true}}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: se}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Trans2(d)}))

	require.True(t, se.Base().HasFolded)
	require.Equal(t, int64(32), se.Base().FoldedInt)
}

func TestTrans2RejectsSizeofOfIncompleteType(t *testing.T) {
	se := &ast.SizeofExpr{Target: &ast.TypeExpr{Denoted: &ast.ArrayType{Elem: &ast.IntegralType{Size: 8, Signed: false}}}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: se}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Trans2(d)}))

	require.Equal(t, 1, d.Count())
	require.False(t, se.Base().HasFolded)
}

func TestTrans2MarksZeroArgMethodFieldRef(t *testing.T) {
	ft := &ast.FunctionType{Return: &ast.IntegralType{Size: 32, Signed: true}}
	fr := &ast.FieldRefExpr{Operand: &ast.VarRefExpr{Name: "p"}, Name: "area"}
	fr.Base().Typ = ft
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: fr}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Trans2(d)}))

	require.True(t, fr.ZeroArgCall)
}

func TestTrans2DoesNotMarkFieldRefAlreadyACallee(t *testing.T) {
	ft := &ast.FunctionType{Return: &ast.IntegralType{Size: 32, Signed: true}}
	fr := &ast.FieldRefExpr{Operand: &ast.VarRefExpr{Name: "p"}, Name: "area"}
	fr.Base().Typ = ft
	fc := &ast.FuncallExpr{Callee: fr}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: fc}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Trans2(d)}))

	require.False(t, fr.ZeroArgCall)
}
