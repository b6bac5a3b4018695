package sema

import (
	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/token"
)

// Fold builds the constant-folding phase (spec §4.5 fold): integral,
// string and bit-concat expressions whose operands are themselves
// compile-time constants are evaluated now rather than at run time. A
// division or modulo by a literal zero is reported through d as a compile
// error and left unfolded; division or modulo by a non-constant zero is left to raise the
// usual run-time exception, since it can't be known to be zero here.
func Fold(d *Diagnostics) *pass.Phase {
	p := pass.NewPhase("fold", 0)

	p.OnCode(ast.CodeIntegerLiteral, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		il := n.(*ast.IntegerLiteral)
		il.LiteralP = true
		il.Base().HasFolded = true
		il.Base().FoldedInt = il.Value
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeStringLiteral, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		sl := n.(*ast.StringLiteral)
		sl.LiteralP = true
		sl.Base().HasFolded = true
		sl.Base().FoldedIsStr = true
		sl.Base().FoldedStr = sl.Value
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeUnExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ue := n.(*ast.UnExpr)
		ob := ue.Operand.Base()
		if !ob.HasFolded || ob.FoldedIsStr {
			return pass.Continue, nil
		}
		var v int64
		switch ue.Op {
		case token.MINUS:
			v = -ob.FoldedInt
		case token.PLUS:
			v = ob.FoldedInt
		case token.TILDE:
			v = ^ob.FoldedInt
		case token.NOT:
			if ob.FoldedInt == 0 {
				v = 1
			}
		default:
			return pass.Continue, nil
		}
		ue.Base().HasFolded = true
		ue.Base().FoldedInt = v
		ue.LiteralP = true
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeBinExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		be := n.(*ast.BinExpr)
		lb, rb := operandBase(be.Left), operandBase(be.Right)
		if lb == nil || rb == nil || !lb.HasFolded || !rb.HasFolded {
			return pass.Continue, nil
		}
		if lb.FoldedIsStr || rb.FoldedIsStr {
			if be.Op == token.PLUS && lb.FoldedIsStr && rb.FoldedIsStr {
				be.Base().HasFolded = true
				be.Base().FoldedIsStr = true
				be.Base().FoldedStr = lb.FoldedStr + rb.FoldedStr
				be.LiteralP = true
			}
			return pass.Continue, nil
		}
		l, r := lb.FoldedInt, rb.FoldedInt
		if (be.Op == token.SLASH || be.Op == token.CEILDIV || be.Op == token.PERCENT) && r == 0 {
			d.Errorf(be, "division by zero in constant expression")
			return pass.Continue, nil
		}
		v, ok := foldBinOp(be.Op, l, r)
		if !ok {
			return pass.Continue, nil
		}
		be.Base().HasFolded = true
		be.Base().FoldedInt = v
		be.LiteralP = true
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeConsExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ce := n.(*ast.ConsExpr)
		lb, rb := ce.Left.Base(), ce.Right.Base()
		if !lb.HasFolded || !rb.HasFolded || lb.FoldedIsStr || rb.FoldedIsStr {
			return pass.Continue, nil
		}
		rt, ok := ce.Right.Base().Typ.(*ast.IntegralType)
		if !ok {
			return pass.Continue, nil
		}
		v := (lb.FoldedInt << uint(rt.Size)) | (rb.FoldedInt & ((1 << uint(rt.Size)) - 1))
		ce.Base().HasFolded = true
		ce.Base().FoldedInt = v
		ce.LiteralP = true
		return pass.Continue, nil
	})

	return p
}

func operandBase(e ast.Expr) *ast.Base {
	if e == nil {
		return nil
	}
	return e.Base()
}

// foldBinOp evaluates a binary integral operator over two compile-time
// constants. The second result is false for operators fold does not
// evaluate at compile time (relational/logical results still need the
// run-time type conversions promo already inserted).
func foldBinOp(op token.Token, l, r int64) (int64, bool) {
	switch op {
	case token.PLUS:
		return l + r, true
	case token.MINUS:
		return l - r, true
	case token.STAR:
		return l * r, true
	case token.SLASH:
		return l / r, true
	case token.CEILDIV:
		q := l / r
		if l%r != 0 {
			q++
		}
		return q, true
	case token.PERCENT:
		return l % r, true
	case token.AMPERSAND:
		return l & r, true
	case token.PIPE:
		return l | r, true
	case token.CIRCUMFLEX:
		return l ^ r, true
	case token.LTLT:
		return l << uint(r), true
	case token.GTGT:
		return l >> uint(r), true
	}
	return 0, false
}
