package ast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
)

func TestPromoteableAnyTarget(t *testing.T) {
	require.True(t, ast.Promoteable(&ast.IntegralType{Size: 32, Signed: true}, &ast.AnyType{}))
	require.True(t, ast.Promoteable(&ast.StringType{}, &ast.AnyType{}))
	require.True(t, ast.Promoteable(&ast.StructType{Name: "S"}, &ast.AnyType{}))
}

func TestPromoteableVoidNeverPromotes(t *testing.T) {
	require.False(t, ast.Promoteable(&ast.VoidType{}, &ast.AnyType{}))
	require.False(t, ast.Promoteable(&ast.VoidType{}, &ast.IntegralType{Size: 32, Signed: true}))
}

func TestPromoteableIntegralToIntegral(t *testing.T) {
	require.True(t, ast.Promoteable(&ast.IntegralType{Size: 8, Signed: false}, &ast.IntegralType{Size: 64, Signed: true}))
}

func TestPromoteableIntegralStructToItsItype(t *testing.T) {
	itype := &ast.IntegralType{Size: 16, Signed: false}
	st := &ast.StructType{Name: "S", IType: itype}
	require.True(t, ast.Promoteable(st, &ast.IntegralType{Size: 16, Signed: false}))
	require.False(t, ast.Promoteable(st, &ast.IntegralType{Size: 8, Signed: false}))
}

func TestPromoteableRejectsUnrelatedStruct(t *testing.T) {
	require.False(t, ast.Promoteable(&ast.StructType{Name: "S"}, &ast.IntegralType{Size: 32, Signed: true}))
}
