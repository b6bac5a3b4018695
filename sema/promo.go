package sema

import (
	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
)

// Promo builds the promotion phase (spec §4.5 promo): it inserts explicit
// casts wherever typify1 accepted a promoteable-but-unequal pair, and
// normalizes a handful of literal shapes (array/trimmer indices to
// uint64<64>, offset-literal units to uint64, struct field labels to
// constant bit offsets) so every later phase can assume its operands are
// already in canonical form.
func Promo(d *Diagnostics) *pass.Phase {
	p := pass.NewPhase("promo", 0)

	u64 := &ast.IntegralType{Size: 64, Signed: false}

	cast := func(operand ast.Expr, to ast.Type) ast.Expr {
		if operand == nil || ast.Equal(operand.Base().Typ, to) {
			return operand
		}
		ce := &ast.CastExpr{Target: &ast.TypeExpr{Denoted: to}, Operand: operand}
		ce.Base().Typ = to
		ast.ASTRef(ce)
		return ce
	}

	p.OnCode(ast.CodeBinExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		be := n.(*ast.BinExpr)
		if be.Base().Typ == nil {
			return pass.Continue, nil
		}
		be.Left = cast(be.Left, be.Base().Typ)
		be.Right = cast(be.Right, be.Base().Typ)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeAssignStmt, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		as := n.(*ast.AssignStmt)
		lt := as.Left.Base().Typ
		if lt == nil || as.Right.Base().Typ == nil || ast.Equal(lt, as.Right.Base().Typ) {
			return pass.Continue, nil
		}
		if !ast.Promoteable(as.Right.Base().Typ, lt) {
			d.Errorf(as, "cannot assign %s to %s", as.Right.Base().Typ, lt)
			return pass.Continue, nil
		}
		as.Right = cast(as.Right, lt)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeIndexerExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ie := n.(*ast.IndexerExpr)
		ie.Index = cast(ie.Index, u64)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeTrimmerExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		te := n.(*ast.TrimmerExpr)
		te.From = cast(te.From, u64)
		te.To = cast(te.To, u64)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeOffsetExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		oe := n.(*ast.OffsetExpr)
		if il, ok := oe.Unit.(*ast.IntegerLiteral); ok {
			il.Signed = false
			if il.Size == 0 {
				il.Size = 64
			}
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeDeclStmt, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ds := n.(*ast.DeclStmt)
		if ds.Kind != ast.DeclType || ds.Type == nil {
			return pass.Continue, nil
		}
		if st, ok := ds.Type.Denoted.(*ast.StructType); ok {
			normalizeFieldLabels(st)
		}
		return pass.Continue, nil
	})

	return p
}

// normalizeFieldLabels assigns every unlabeled field of a non-pinned,
// non-union struct its constant bit offset from the start of the struct,
// accumulating over preceding complete fields (spec §4.5 "normalizes
// struct field labels to bit offsets with unit 1"). A field following one
// whose size isn't known at compile time (an incomplete type) is left
// unlabeled; typify2 rejects a sizeof of such a struct instead.
func normalizeFieldLabels(st *ast.StructType) {
	if st.Pinned || st.Union || st.IType != nil {
		return
	}
	var offset uint64
	complete := true
	for i := range st.Fields {
		f := &st.Fields[i]
		if f.Label == nil && complete {
			lbl := int64(offset)
			f.Label = &lbl
		}
		if !f.Type.Complete() {
			complete = false
			continue
		}
		if f.Label != nil {
			offset = uint64(*f.Label) + ast.Sizeof(f.Type)
		} else {
			offset += ast.Sizeof(f.Type)
		}
	}
}
