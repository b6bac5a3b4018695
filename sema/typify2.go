package sema

import (
	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/pass"
)

// Typify2 builds the second (post-rewrite) type-checking phase (spec §4.5
// typify2): validates that a static array bound is non-negative, that a
// cast never targets void/any/a function type, and that sizeof's operand
// is a complete type. Type completeness itself is not a separate pass of
// mutation: ast.Type.Complete() already computes it structurally (spec
// §4.3), so typify2's job is purely to reject the ill-typed programs the
// completeness rule implies are invalid.
func Typify2(d *Diagnostics) *pass.Phase {
	p := pass.NewPhase("typify2", 0)

	p.OnType(ast.CodeTypeExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		te := n.(*ast.TypeExpr)
		checkArrayBounds(d, te, te.Denoted)
		checkStructLayout(d, te, te.Denoted)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeCastExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ce := n.(*ast.CastExpr)
		switch ce.Target.Denoted.(type) {
		case *ast.VoidType:
			d.Errorf(ce, "cannot cast to void")
		case *ast.AnyType:
			d.Errorf(ce, "cannot cast to any")
		case *ast.FunctionType:
			d.Errorf(ce, "cannot cast to a function type")
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeSizeofExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		se := n.(*ast.SizeofExpr)
		if !se.Target.Denoted.Complete() {
			d.Errorf(se, "sizeof operand %s is not a complete type", se.Target.Denoted)
		}
		return pass.Continue, nil
	})

	return p
}

// checkStructLayout walks t enforcing spec §4.5's "Integral structs" rules:
// a union may not be pinned; a field with a label or marked optional may
// not appear inside an integral, pinned, or union struct; and an integral
// struct's field widths must sum to exactly its declared itype width.
func checkStructLayout(d *Diagnostics, n ast.Node, t ast.Type) {
	switch x := t.(type) {
	case *ast.ArrayType:
		checkStructLayout(d, n, x.Elem)
	case *ast.StructType:
		if x.Pinned && x.Union {
			d.Errorf(n, "a union may not be pinned")
		}
		restricted := x.IType != nil || x.Pinned || x.Union
		var width uint64
		for _, f := range x.Fields {
			if restricted {
				if f.Label != nil {
					d.Errorf(n, "field %q: labels are not allowed in an integral, pinned, or union struct", f.Name)
				}
				if f.Optional {
					d.Errorf(n, "field %q: optional fields are not allowed in an integral, pinned, or union struct", f.Name)
				}
			}
			if x.IType != nil && f.Type.Complete() {
				width += ast.Sizeof(f.Type)
			}
			checkStructLayout(d, n, f.Type)
		}
		if x.IType != nil && width != uint64(x.IType.Size) {
			d.Errorf(n, "integral struct fields sum to %d bits, declared itype is %d bits wide", width, x.IType.Size)
		}
	}
}

// checkArrayBounds walks t looking for a static (literal) array bound
// that is negative, reporting against n (the enclosing TypeExpr, the
// nearest node carrying a source location).
func checkArrayBounds(d *Diagnostics, n ast.Node, t ast.Type) {
	switch x := t.(type) {
	case *ast.ArrayType:
		if x.Bound != nil && *x.Bound < 0 {
			d.Errorf(n, "array bound %d must not be negative", *x.Bound)
		}
		checkArrayBounds(d, n, x.Elem)
	case *ast.StructType:
		for _, f := range x.Fields {
			checkArrayBounds(d, n, f.Type)
		}
	}
}
