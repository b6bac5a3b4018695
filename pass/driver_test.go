package pass_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/token"
)

func TestDoVisitsEveryNodeOnce(t *testing.T) {
	a := ast.NewAST()
	_ = a

	left := &ast.Identifier{Name: "a"}
	right := &ast.Identifier{Name: "b"}
	bin := &ast.BinExpr{Left: left, Right: right}
	stmt := &ast.ExprStmt{Expr: bin}
	body := &ast.CompStmt{Stmts: []ast.Stmt{stmt}}
	prog := &ast.Program{Body: body}

	var seen []string
	p := pass.NewPhase("count", 0)
	p.OnAny(pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		seen = append(seen, n.Code().String())
		return pass.Continue, nil
	})

	err := pass.Do(prog, []*pass.Phase{p})
	require.NoError(t, err)
	require.Equal(t, []string{"program", "comp-stmt", "expr-stmt", "bin-expr", "identifier", "identifier"}, seen)
}

func TestRestartRunsHandlerAgainUntilHandlerStopsRequestingIt(t *testing.T) {
	id := &ast.Identifier{Name: "x"}

	calls := 0
	p := pass.NewPhase("rewrite", 0)
	p.OnCode(ast.CodeIdentifier, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		calls++
		if calls < 3 {
			return pass.Restart, nil
		}
		return pass.Continue, nil
	})

	err := pass.Do(id, []*pass.Phase{p})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestPhaseErrorCountAbortsPipeline(t *testing.T) {
	id := &ast.Identifier{Name: "x"}

	p1 := pass.NewPhase("fails", 0)
	p1.OnCode(ast.CodeIdentifier, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		p1.AddError()
		return pass.Continue, nil
	})

	ranSecond := false
	p2 := pass.NewPhase("never", 0)
	p2.OnAny(pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ranSecond = true
		return pass.Continue, nil
	})

	err := pass.Do(id, []*pass.Phase{p1, p2})
	require.Error(t, err)
	require.False(t, ranSecond)
	require.Equal(t, 1, p1.ErrorCount())
}

func TestOpCodeHandlerOnlyFiresForMatchingOperator(t *testing.T) {
	bin := &ast.BinExpr{Op: token.PLUS, Left: &ast.Identifier{Name: "a"}, Right: &ast.Identifier{Name: "b"}}
	other := &ast.BinExpr{Op: token.MINUS, Left: &ast.Identifier{Name: "a"}, Right: &ast.Identifier{Name: "b"}}

	fired := false
	p := pass.NewPhase("plus-only", 0)
	p.OnOp(token.PLUS, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		fired = true
		return pass.Continue, nil
	})

	require.NoError(t, pass.Do(bin, []*pass.Phase{p}))
	require.True(t, fired)

	fired = false
	require.NoError(t, pass.Do(other, []*pass.Phase{p}))
	require.False(t, fired)
}
