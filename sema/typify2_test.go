package sema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/sema"
)

func TestTypify2RejectsNegativeArrayBound(t *testing.T) {
	bound := int64(-1)
	te := &ast.TypeExpr{Denoted: &ast.ArrayType{Elem: &ast.IntegralType{Size: 8, Signed: false}, Bound: &bound}}
	se := &ast.SizeofExpr{Target: te}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: se}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Typify2(d)}))

	require.GreaterOrEqual(t, d.Count(), 1)
}

func TestTypify2RejectsCastToVoid(t *testing.T) {
	ce := &ast.CastExpr{
		Target:  &ast.TypeExpr{Denoted: &ast.VoidType{}},
		Operand: &ast.IntegerLiteral{Value: 1, Signed: true},
	}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: ce}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Typify2(d)}))

	require.Equal(t, 1, d.Count())
}

func TestTypify2AcceptsOrdinaryCast(t *testing.T) {
	ce := &ast.CastExpr{
		Target:  &ast.TypeExpr{Denoted: &ast.IntegralType{Size: 64, Signed: false}},
		Operand: &ast.IntegerLiteral{Value: 1, Signed: true},
	}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: ce}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Typify2(d)}))

	require.Equal(t, 0, d.Count())
}

func TestTypify2RejectsSizeofIncompleteType(t *testing.T) {
	se := &ast.SizeofExpr{Target: &ast.TypeExpr{Denoted: &ast.ArrayType{Elem: &ast.IntegralType{Size: 8, Signed: false}}}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: se}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Typify2(d)}))

	require.Equal(t, 1, d.Count())
}

// TestTypify2RejectsIntegralStructWidthMismatch reproduces spec §8 scenario
// 5: struct { int<8> a; int<8> b; } integral<8> sums its fields to 16 bits
// against a declared itype of 8 bits, which must be rejected.
func TestTypify2RejectsIntegralStructWidthMismatch(t *testing.T) {
	st := &ast.StructType{
		Name: "S",
		Fields: []ast.StructField{
			{Name: "a", Type: &ast.IntegralType{Size: 8, Signed: true}},
			{Name: "b", Type: &ast.IntegralType{Size: 8, Signed: true}},
		},
		IType: &ast.IntegralType{Size: 8, Signed: true},
	}
	se := &ast.SizeofExpr{Target: &ast.TypeExpr{Denoted: st}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: se}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Typify2(d)}))

	require.Equal(t, 1, d.Count())
}

func TestTypify2AcceptsIntegralStructWithMatchingWidth(t *testing.T) {
	st := &ast.StructType{
		Name: "S",
		Fields: []ast.StructField{
			{Name: "a", Type: &ast.IntegralType{Size: 4, Signed: true}},
			{Name: "b", Type: &ast.IntegralType{Size: 4, Signed: true}},
		},
		IType: &ast.IntegralType{Size: 8, Signed: true},
	}
	se := &ast.SizeofExpr{Target: &ast.TypeExpr{Denoted: st}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: se}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Typify2(d)}))

	require.Equal(t, 0, d.Count())
}

func TestTypify2RejectsPinnedUnion(t *testing.T) {
	st := &ast.StructType{
		Name:   "U",
		Union:  true,
		Pinned: true,
		Fields: []ast.StructField{
			{Name: "a", Type: &ast.IntegralType{Size: 8, Signed: true}},
		},
	}
	se := &ast.SizeofExpr{Target: &ast.TypeExpr{Denoted: &ast.ArrayType{Elem: st, Bound: new(int64)}}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: se}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Typify2(d)}))

	require.Equal(t, 1, d.Count())
}

func TestTypify2RejectsLabeledFieldInIntegralStruct(t *testing.T) {
	label := int64(0)
	st := &ast.StructType{
		Name: "S",
		Fields: []ast.StructField{
			{Name: "a", Type: &ast.IntegralType{Size: 8, Signed: true}, Label: &label},
		},
		IType: &ast.IntegralType{Size: 8, Signed: true},
	}
	se := &ast.SizeofExpr{Target: &ast.TypeExpr{Denoted: st}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: se}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Typify2(d)}))

	require.Equal(t, 1, d.Count())
}

func TestTypify2RejectsOptionalFieldInPinnedStruct(t *testing.T) {
	st := &ast.StructType{
		Name:   "S",
		Pinned: true,
		Fields: []ast.StructField{
			{Name: "a", Type: &ast.IntegralType{Size: 8, Signed: true}, Optional: true},
		},
	}
	se := &ast.SizeofExpr{Target: &ast.TypeExpr{Denoted: &ast.ArrayType{Elem: st, Bound: new(int64)}}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: se}}}}

	d := &sema.Diagnostics{}
	require.NoError(t, pass.Do(prog, []*pass.Phase{sema.Typify2(d)}))

	require.Equal(t, 1, d.Count())
}
