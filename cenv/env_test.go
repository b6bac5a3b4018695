package cenv_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/cenv"
)

func TestRegisterAndLookupInSameFrame(t *testing.T) {
	env := cenv.New()
	n := &ast.Identifier{Name: "x"}

	d, ok := env.Register("x", n, ast.DeclVar, &ast.IntegralType{Size: 32, Signed: true})
	require.True(t, ok)
	require.Equal(t, 0, d.Back)
	require.Equal(t, 0, d.Over)

	got, ok := env.Lookup("x")
	require.True(t, ok)
	require.Equal(t, 0, got.Back)
	require.Equal(t, 0, got.Over)
}

func TestRegisterDuplicateInSameFrameFails(t *testing.T) {
	env := cenv.New()
	n := &ast.Identifier{Name: "x"}

	_, ok := env.Register("x", n, ast.DeclVar, nil)
	require.True(t, ok)
	_, ok = env.Register("x", n, ast.DeclVar, nil)
	require.False(t, ok)
}

func TestLookupComputesBackAcrossNestedFrames(t *testing.T) {
	env := cenv.New()
	env.Register("x", &ast.Identifier{Name: "x"}, ast.DeclVar, nil)

	env.PushFrame()
	env.PushFrame()

	d, ok := env.Lookup("x")
	require.True(t, ok)
	require.Equal(t, 2, d.Back)
}

func TestPopTopLevelFrameIsAnError(t *testing.T) {
	env := cenv.New()
	require.Error(t, env.PopFrame())
}

func TestTypesAndSlotsGetIndependentOrdinals(t *testing.T) {
	env := cenv.New()
	d1, _ := env.Register("Point", &ast.Identifier{Name: "Point"}, ast.DeclType, nil)
	d2, _ := env.Register("x", &ast.Identifier{Name: "x"}, ast.DeclVar, nil)
	d3, _ := env.Register("Color", &ast.Identifier{Name: "Color"}, ast.DeclType, nil)
	d4, _ := env.Register("y", &ast.Identifier{Name: "y"}, ast.DeclVar, nil)

	require.Equal(t, 0, d1.Over)
	require.Equal(t, 0, d2.Over)
	require.Equal(t, 1, d3.Over)
	require.Equal(t, 1, d4.Over)
}

func TestDupTopLevelIsIsolatedUntilAdopted(t *testing.T) {
	env := cenv.New()
	env.Register("x", &ast.Identifier{Name: "x"}, ast.DeclVar, nil)

	speculative := env.DupTopLevel()
	speculative.Register("y", &ast.Identifier{Name: "y"}, ast.DeclVar, nil)

	_, ok := env.Lookup("y")
	require.False(t, ok)

	env.Adopt(speculative)
	_, ok = env.Lookup("y")
	require.True(t, ok)
}

func TestLookupUnitIsIndependentOfMainNamespace(t *testing.T) {
	env := cenv.New()
	env.Register("KB", &ast.Identifier{Name: "KB"}, ast.DeclVar, nil)
	env.RegisterUnit("KB", &ast.Identifier{Name: "KB"}, nil)

	_, ok := env.Lookup("KB")
	require.True(t, ok)
	_, ok = env.LookupUnit("KB")
	require.True(t, ok)

	_, ok = env.LookupUnit("nonexistent")
	require.False(t, ok)
}
