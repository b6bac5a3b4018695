package ast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
)

func TestASTRefAndReleaseTrackRefcount(t *testing.T) {
	id := &ast.Identifier{Name: "x"}
	require.Equal(t, 0, id.Refcount())

	ast.ASTRef(id)
	ast.ASTRef(id)
	require.Equal(t, 2, id.Refcount())

	ast.Release(id)
	require.Equal(t, 1, id.Refcount())
}

func TestReleaseUnderflowPanics(t *testing.T) {
	id := &ast.Identifier{Name: "x"}
	require.Panics(t, func() { ast.Release(id) })
}

func TestChainonAppendsAndCountsSiblings(t *testing.T) {
	a := &ast.Identifier{Name: "a"}
	b := &ast.Identifier{Name: "b"}
	c := &ast.Identifier{Name: "c"}

	head := ast.Chainon(nil, a)
	head = ast.Chainon(head, b)
	head = ast.Chainon(head, c)

	require.Equal(t, 3, ast.ChainLen(head))
	names := make([]string, 0, 3)
	for _, n := range ast.ChainSlice(head) {
		names = append(names, n.(*ast.Identifier).Name)
	}
	require.Equal(t, []string{"a", "b", "c"}, names)
	// Chainon ASTREFs the appended node.
	require.Equal(t, 1, b.Refcount())
}

func TestTypeEqualReflexiveSymmetricTransitive(t *testing.T) {
	i32 := &ast.IntegralType{Size: 32, Signed: true}
	i32b := &ast.IntegralType{Size: 32, Signed: true}
	u32 := &ast.IntegralType{Size: 32, Signed: false}

	require.True(t, ast.Equal(i32, i32))
	require.True(t, ast.Equal(i32, i32b))
	require.True(t, ast.Equal(i32b, i32))
	require.False(t, ast.Equal(i32, u32))
}

func TestAnonymousStructsNeverEqual(t *testing.T) {
	a := &ast.StructType{Fields: []ast.StructField{{Name: "x", Type: &ast.IntegralType{Size: 32, Signed: true}}}}
	b := &ast.StructType{Fields: []ast.StructField{{Name: "x", Type: &ast.IntegralType{Size: 32, Signed: true}}}}

	require.False(t, ast.Equal(a, b))
	require.False(t, ast.Equal(a, a))
}

func TestPromoteableIntegralToIntegral(t *testing.T) {
	i8 := &ast.IntegralType{Size: 8, Signed: true}
	u64 := &ast.IntegralType{Size: 64, Signed: false}
	require.True(t, ast.Promoteable(i8, u64))
	require.True(t, ast.Promoteable(u64, i8))
}

func TestVoidNeverPromotes(t *testing.T) {
	v := &ast.VoidType{}
	i32 := &ast.IntegralType{Size: 32, Signed: true}
	require.False(t, ast.Promoteable(i32, v))
	require.False(t, ast.Promoteable(v, i32))
}

func TestSizeofPinnedStructTakesMax(t *testing.T) {
	st := &ast.StructType{
		Pinned: true,
		Fields: []ast.StructField{
			{Name: "a", Type: &ast.IntegralType{Size: 8, Signed: false}},
			{Name: "b", Type: &ast.IntegralType{Size: 32, Signed: false}},
		},
	}
	require.EqualValues(t, 32, ast.Sizeof(st))
}

func TestSizeofOrdinaryStructAccumulates(t *testing.T) {
	st := &ast.StructType{
		Fields: []ast.StructField{
			{Name: "a", Type: &ast.IntegralType{Size: 8, Signed: false}},
			{Name: "b", Type: &ast.IntegralType{Size: 32, Signed: false}},
		},
	}
	require.EqualValues(t, 40, ast.Sizeof(st))
}

func TestSizeofArrayMultipliesBoundByElemSize(t *testing.T) {
	bound := int64(4)
	at := &ast.ArrayType{Elem: &ast.IntegralType{Size: 16, Signed: false}, Bound: &bound}
	require.True(t, at.Complete())
	require.EqualValues(t, 64, ast.Sizeof(at))
}
