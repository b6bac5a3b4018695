package codegen_test

import (
	"testing"

	"github.com/kylelemons/godebug/diff"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/codegen"
	"github.com/poke-lang/poke/token"
)

func TestDisassembleArithmeticExpressionStatement(t *testing.T) {
	be := &ast.BinExpr{Op: token.PLUS, Left: &ast.IntegerLiteral{Value: 1}, Right: &ast.IntegerLiteral{Value: 2}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: be}}}}

	out := codegen.Compile(prog)
	got := out.Disassemble()

	want := "function 0 <top> (params=0)\n" +
		"     0  pushf 1\n" +
		"     1  constant 1\n" +
		"     2  constant 2\n" +
		"     3  plus\n" +
		"     4  pop\n" +
		"     5  popf\n" +
		"     6  constant <nil>\n" +
		"     7  return\n"

	if patch := diff.Diff(want, got); patch != "" {
		t.Errorf("disassembly mismatch:\n%s\ngot:\n%s", patch, got)
	}
}

func TestDisassembleListsLocalsSortedByName(t *testing.T) {
	vr := &ast.VarRefExpr{Name: "x", Back: 0, Over: 0}
	decl := &ast.DeclStmt{Kind: ast.DeclVar, Name: "x", Value: &ast.IntegerLiteral{Value: 5}, Back: 0, Over: 0}
	assign := &ast.AssignStmt{Left: vr, Right: &ast.BinExpr{Op: token.PLUS, Left: vr, Right: &ast.IntegerLiteral{Value: 1}}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{decl, assign}}}

	out := codegen.Compile(prog)
	got := out.Disassemble()

	if !containsLine(got, "  locals: x(kind=0)") {
		t.Errorf("expected a locals summary line naming x, got:\n%s", got)
	}
	if !containsLine(got, "     2  popvar (0, 0)") && !containsLine(got, "     1  popvar (0, 0)") {
		t.Errorf("expected a popvar instruction with lexical address (0, 0), got:\n%s", got)
	}
}

func containsLine(haystack, line string) bool {
	for _, l := range splitLines(haystack) {
		if l == line {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
