package sema

import (
	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
)

// Trans2 builds the first type-dependent rewrite phase (spec §4.5 trans2):
// a type used as an offset's unit is replaced by its size in bits, a
// sizeof of a complete type is folded to a constant offset literal (via
// the same Base.HasFolded mechanism fold uses, see ast/node.go), and a
// struct-member reference that resolves to a method taking no required
// arguments is marked for codegen to call rather than read, the same way
// trans1 marks a bare VarRefExpr naming a zero-arg function (spec §4.5
// "struct-ref -> zero-arg funcall").
func Trans2(d *Diagnostics) *pass.Phase {
	p := pass.NewPhase("trans2", 0)

	calleeExprs := make(map[ast.Expr]bool)
	p.OnCode(ast.CodeFuncallExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		fc := n.(*ast.FuncallExpr)
		calleeExprs[fc.Callee] = true
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeOffsetExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		oe := n.(*ast.OffsetExpr)
		te, ok := oe.Unit.(*ast.TypeExpr)
		if !ok {
			return pass.Continue, nil
		}
		if !te.Denoted.Complete() {
			d.Errorf(oe, "offset unit %s has no constant size", te.Denoted)
			return pass.Continue, nil
		}
		lit := &ast.IntegerLiteral{Value: int64(ast.Sizeof(te.Denoted)), Signed: false, Size: 64}
		ast.ASTRef(lit)
		oe.Unit = lit
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeSizeofExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		se := n.(*ast.SizeofExpr)
		if !se.Target.Denoted.Complete() {
			d.Errorf(se, "sizeof operand %s is not a complete type", se.Target.Denoted)
			return pass.Continue, nil
		}
		se.Base().HasFolded = true
		se.Base().FoldedInt = int64(ast.Sizeof(se.Target.Denoted))
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeFieldRefExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		fr := n.(*ast.FieldRefExpr)
		if calleeExprs[fr] {
			return pass.Continue, nil
		}
		ft, ok := fr.Base().Typ.(*ast.FunctionType)
		if !ok || !functionTakesNoRequiredArgs(ft) {
			return pass.Continue, nil
		}
		fr.ZeroArgCall = true
		return pass.Continue, nil
	})

	return p
}

// functionTakesNoRequiredArgs reports whether ft can be called with no
// actual arguments: every declared parameter is optional or a vararg tail.
func functionTakesNoRequiredArgs(ft *ast.FunctionType) bool {
	for _, a := range ft.Args {
		if !a.Optional && !a.Vararg {
			return false
		}
	}
	return true
}
