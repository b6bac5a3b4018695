package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/codegen"
	"github.com/poke-lang/poke/token"
)

func opcodes(fn *codegen.Funcode) []codegen.Opcode {
	ops := make([]codegen.Opcode, len(fn.Code))
	for i, insn := range fn.Code {
		ops[i] = insn.Op
	}
	return ops
}

func TestCompileArithmeticExpressionStatement(t *testing.T) {
	be := &ast.BinExpr{Op: token.PLUS, Left: &ast.IntegerLiteral{Value: 1}, Right: &ast.IntegerLiteral{Value: 2}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: be}}}}

	out := codegen.Compile(prog)
	require.Len(t, out.Functions, 1)

	ops := opcodes(out.Functions[0])
	require.Equal(t, []codegen.Opcode{
		codegen.PUSHF,
		codegen.CONSTANT, codegen.CONSTANT, codegen.PLUS, codegen.POP,
		codegen.POPF,
		codegen.CONSTANT, codegen.RETURN,
	}, ops)
}

func TestCompileVarDeclAndAssignUseLexicalAddress(t *testing.T) {
	vr := &ast.VarRefExpr{Name: "x", Back: 0, Over: 0}
	decl := &ast.DeclStmt{Kind: ast.DeclVar, Name: "x", Value: &ast.IntegerLiteral{Value: 5}, Back: 0, Over: 0}
	assign := &ast.AssignStmt{Left: vr, Right: &ast.BinExpr{Op: token.PLUS, Left: vr, Right: &ast.IntegerLiteral{Value: 1}}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{decl, assign}}}

	out := codegen.Compile(prog)
	ops := opcodes(out.Functions[0])
	require.Contains(t, ops, codegen.POPVAR)
	require.Contains(t, ops, codegen.SETVAR)
	require.Contains(t, ops, codegen.PUSHVAR)
}

func TestCompileFoldedSubexpressionEmitsSingleConstant(t *testing.T) {
	be := &ast.BinExpr{Op: token.PLUS, Left: &ast.IntegerLiteral{Value: 1}, Right: &ast.IntegerLiteral{Value: 2}}
	be.Base().HasFolded = true
	be.Base().FoldedInt = 3
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: be}}}}

	out := codegen.Compile(prog)
	ops := opcodes(out.Functions[0])
	// a folded BinExpr emits exactly one CONSTANT for itself instead of
	// evaluating Left/Right/PLUS.
	require.Equal(t, []codegen.Opcode{
		codegen.PUSHF,
		codegen.CONSTANT, codegen.POP,
		codegen.POPF,
		codegen.CONSTANT, codegen.RETURN,
	}, ops)
}

func TestCompileZeroArgCallOnVarRefEmitsCall(t *testing.T) {
	vr := &ast.VarRefExpr{Name: "f", Back: 0, Over: 0, ZeroArgCall: true}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: vr}}}}

	out := codegen.Compile(prog)
	ops := opcodes(out.Functions[0])
	require.Equal(t, []codegen.Opcode{
		codegen.PUSHF,
		codegen.PUSHVAR, codegen.CALL, codegen.POP,
		codegen.POPF,
		codegen.CONSTANT, codegen.RETURN,
	}, ops)
}

func TestCompileIfStmtEmitsConditionalJump(t *testing.T) {
	ifs := &ast.IfStmt{
		Cond: &ast.IntegerLiteral{Value: 1},
		True: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: &ast.IntegerLiteral{Value: 2}}}},
	}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{ifs}}}

	out := codegen.Compile(prog)
	ops := opcodes(out.Functions[0])
	require.Contains(t, ops, codegen.CJMP)
	require.Contains(t, ops, codegen.JMP)

	// every jump target must be a valid address within the function.
	for _, insn := range out.Functions[0].Code {
		if insn.Op == codegen.JMP || insn.Op == codegen.CJMP {
			require.Less(t, insn.Arg, uint32(len(out.Functions[0].Code)))
		}
	}
}

func TestCompileStructExprCarriesFieldNames(t *testing.T) {
	se := &ast.StructExpr{Fields: []*ast.StructFieldExpr{
		{Name: "x", Value: &ast.IntegerLiteral{Value: 1}},
		{Name: "y", Value: &ast.IntegerLiteral{Value: 2}},
	}}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: se}}}}

	out := codegen.Compile(prog)
	fn := out.Functions[0]
	var found bool
	for _, insn := range fn.Code {
		if insn.Op == codegen.MAKESTRUCT {
			found = true
			n, namesIdx := int(insn.Arg>>24), insn.Arg&0xffffff
			require.Equal(t, 2, n)
			require.Equal(t, []string{"x", "y"}, out.Constants[namesIdx].(codegen.FieldNameList).Names())
		}
	}
	require.True(t, found, "expected a MAKESTRUCT instruction")
}

func TestCompileLambdaEmitsDefaultsPrologueForOptionalArg(t *testing.T) {
	lam := &ast.LambdaExpr{
		Args: []*ast.FuncArg{
			{Name: "x", Optional: true, Default: &ast.IntegerLiteral{Value: 7}},
		},
		Return: &ast.TypeExpr{Denoted: &ast.VoidType{}},
		Body:   &ast.CompStmt{},
	}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: lam}}}}

	out := codegen.Compile(prog)
	require.Len(t, out.Functions, 2)
	lamFn := out.Functions[1]
	require.Equal(t, 1, lamFn.NumParams)
	require.Equal(t, -1, lamFn.VarargIndex)
	require.Contains(t, opcodes(lamFn), codegen.ISMISSING)
}

func TestCompileLambdaRegistersNestedFunction(t *testing.T) {
	lam := &ast.LambdaExpr{
		Return: &ast.TypeExpr{Denoted: &ast.VoidType{}},
		Body:   &ast.CompStmt{},
	}
	prog := &ast.Program{Body: &ast.CompStmt{Stmts: []ast.Stmt{&ast.ExprStmt{Expr: lam}}}}

	out := codegen.Compile(prog)
	require.Len(t, out.Functions, 2)
	require.Equal(t, "<top>", out.Functions[0].Name)
	require.Contains(t, opcodes(out.Functions[0]), codegen.MAKECLOSURE)
}
