package sema

import (
	"fmt"

	"github.com/samber/lo"
	"modernc.org/mathutil"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/cenv"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/token"
)

func typeErrorf(format string, args ...any) error { return fmt.Errorf(format, args...) }

// defaultIntSize is the width given to an integer literal whose surface
// syntax did not specify one.
const defaultIntSize = 32

// Typify1 builds the bottom-up type-inference phase (spec §4.5 typify1).
// Every node's type is computed from its already-typed children, in
// post-order, using the rules for arithmetic/relational/bit-concat/`in`/
// struct-constructor/map/isa/integral-struct/attribute/funcall typing.
func Typify1(d *Diagnostics, env *cenv.Env) *pass.Phase {
	p := pass.NewPhase("typify1", 0)
	bindScopes(p, env)

	setType := func(n ast.Node, t ast.Type) { n.Base().Typ = t }
	typeOf := func(n ast.Node) ast.Type { return n.Base().Typ }

	i32 := &ast.IntegralType{Size: 32, Signed: true}

	p.OnCode(ast.CodeIntegerLiteral, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		il := n.(*ast.IntegerLiteral)
		size := il.Size
		if size == 0 {
			size = defaultIntSize
		}
		setType(n, &ast.IntegralType{Size: size, Signed: il.Signed})
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeStringLiteral, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		setType(n, &ast.StringType{})
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeVarRefExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		vr := n.(*ast.VarRefExpr)
		decl, ok := env.Lookup(vr.Name)
		if !ok {
			return pass.Continue, nil
		}
		if t := declType(decl); t != nil {
			setType(vr, t)
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeLambdaExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		lam := n.(*ast.LambdaExpr)
		args := make([]ast.FuncTypeArg, len(lam.Args))
		for i, a := range lam.Args {
			var t ast.Type
			if a.Type != nil {
				t = a.Type.Denoted
			}
			args[i] = ast.FuncTypeArg{Type: t, Optional: a.Optional, Vararg: a.Vararg}
		}
		var ret ast.Type = &ast.VoidType{}
		if lam.Return != nil {
			ret = lam.Return.Denoted
		}
		setType(lam, &ast.FunctionType{Args: args, Return: ret})
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeDeclStmt, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ds := n.(*ast.DeclStmt)
		switch ds.Kind {
		case ast.DeclVar:
			if ds.Type != nil {
				setType(ds, ds.Type.Denoted)
			} else if ds.Value != nil {
				setType(ds, typeOf(ds.Value))
			}
		case ast.DeclFunc:
			if ds.Value != nil {
				setType(ds, typeOf(ds.Value))
			}
		case ast.DeclType:
			if ds.Type != nil {
				setType(ds, ds.Type.Denoted)
			}
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeBinExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		be := n.(*ast.BinExpr)
		lt, rt := typeOf(be.Left), typeOf(be.Right)
		if lt == nil || rt == nil {
			return pass.Continue, nil
		}
		t, err := binType(be.Op, lt, rt)
		if err != nil {
			d.Errorf(be, "%s", err.Error())
			return pass.Continue, nil
		}
		setType(be, t)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeUnExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ue := n.(*ast.UnExpr)
		setType(ue, typeOf(ue.Operand))
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeCondExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ce := n.(*ast.CondExpr)
		tt, ft := typeOf(ce.True), typeOf(ce.False)
		if tt != nil && ft != nil && !ast.Equal(tt, ft) && !ast.Promoteable(ft, tt) {
			d.Errorf(ce, "conditional expression branches have incompatible types %s and %s", tt, ft)
		}
		setType(ce, tt)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeCastExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ce := n.(*ast.CastExpr)
		setType(ce, ce.Target.Type())
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeIsaExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		setType(n, i32)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeTypeofExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		// typeof yields a first-class type value; no dedicated ast.Type
		// variant models "the type of types", so the node carries nil and
		// codegen special-cases CodeTypeofExpr directly.
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeSizeofExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		se := n.(*ast.SizeofExpr)
		setType(se, &ast.OffsetType{Base: &ast.IntegralType{Size: 64, Signed: false}, Unit: 1, UnitLiteral: true})
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeFieldRefExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		fr := n.(*ast.FieldRefExpr)
		st, ok := typeOf(fr.Operand).(*ast.StructType)
		if !ok {
			return pass.Continue, nil
		}
		for _, f := range st.Fields {
			if f.Name == fr.Name {
				setType(fr, f.Type)
				return pass.Continue, nil
			}
		}
		d.Errorf(fr, "no such field %q in %s", fr.Name, st)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeIndexerExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ie := n.(*ast.IndexerExpr)
		if at, ok := typeOf(ie.Container).(*ast.ArrayType); ok {
			setType(ie, at.Elem)
		} else {
			d.Errorf(ie, "indexed value is not an array")
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeTrimmerExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		te := n.(*ast.TrimmerExpr)
		setType(te, typeOf(te.Container))
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeConsExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ce := n.(*ast.ConsExpr)
		lt, ok1 := typeOf(ce.Left).(*ast.IntegralType)
		rt, ok2 := typeOf(ce.Right).(*ast.IntegralType)
		if !ok1 || !ok2 {
			d.Errorf(ce, "operands of ::: must be integral")
			return pass.Continue, nil
		}
		if lt.Size+rt.Size > 64 {
			d.Errorf(ce, "bit-concatenation width %d exceeds 64 bits", lt.Size+rt.Size)
			return pass.Continue, nil
		}
		setType(ce, &ast.IntegralType{Size: lt.Size + rt.Size, Signed: lt.Signed})
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeMapExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		me := n.(*ast.MapExpr)
		if _, ok := typeOf(me.Offset).(*ast.OffsetType); !ok {
			d.Errorf(me, "map offset must be of offset type")
		}
		if me.IOS != nil {
			if _, ok := typeOf(me.IOS).(*ast.IntegralType); !ok {
				d.Errorf(me, "map IO space selector must be integral")
			}
		}
		setType(me, me.Target.Type())
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeStructExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		se := n.(*ast.StructExpr)
		typifyStructExpr(d, se)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeArrayExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ae := n.(*ast.ArrayExpr)
		var elem ast.Type
		for _, init := range ae.Initializers {
			t := typeOf(init.Value)
			if t == nil {
				continue
			}
			if elem == nil {
				elem = t
			} else if !ast.Equal(elem, t) {
				elem = &ast.AnyType{}
			}
		}
		if elem == nil {
			elem = &ast.AnyType{}
		}
		n64 := int64(len(ae.Initializers))
		setType(ae, &ast.ArrayType{Elem: elem, Bound: &n64})
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeAttrExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ae := n.(*ast.AttrExpr)
		setType(ae, attrResultType(ae.Attr))
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeFuncallExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		fc := n.(*ast.FuncallExpr)
		ft, ok := typeOf(fc.Callee).(*ast.FunctionType)
		if !ok {
			// Callee's type isn't known (e.g. a forward reference): the call
			// is left untyped. typify1 requests no restart or subpass to
			// retry it, and typify2 does not check for it.
			return pass.Continue, nil
		}
		reorderFuncallArgs(d, env, fc, ft)
		setType(fc, ft.Return)
		return pass.Continue, nil
	})

	return p
}

// binType implements the arithmetic/relational typing table of spec §4.5
// typify1.
func binType(op token.Token, l, r ast.Type) (ast.Type, error) {
	switch op {
	case token.PLUS, token.MINUS, token.PIPE, token.CIRCUMFLEX, token.AMPERSAND, token.PERCENT:
		if li, lok := l.(*ast.IntegralType); lok {
			if ri, rok := r.(*ast.IntegralType); rok {
				return promoteIntegral(li, ri), nil
			}
		}
		if lo, lok := l.(*ast.OffsetType); lok {
			if ro, rok := r.(*ast.OffsetType); rok {
				return combineOffsets(lo, ro), nil
			}
		}
		if op == token.PLUS {
			if _, ok := l.(*ast.StringType); ok {
				if _, ok := r.(*ast.StringType); ok {
					return &ast.StringType{}, nil
				}
			}
			if la, ok := l.(*ast.ArrayType); ok {
				if _, ok := r.(*ast.ArrayType); ok {
					return la, nil
				}
			}
		}
		return nil, typeErrorf("operator %s not defined for %s and %s", op, l, r)

	case token.STAR:
		if li, lok := l.(*ast.IntegralType); lok {
			if ri, rok := r.(*ast.IntegralType); rok {
				return promoteIntegral(li, ri), nil
			}
			if ro, rok := r.(*ast.OffsetType); rok {
				return ro, nil
			}
		}
		if lo, lok := l.(*ast.OffsetType); lok {
			if _, rok := r.(*ast.IntegralType); rok {
				return lo, nil
			}
		}
		if _, lok := l.(*ast.StringType); lok {
			if _, rok := r.(*ast.IntegralType); rok {
				return &ast.StringType{}, nil
			}
		}
		if _, lok := l.(*ast.IntegralType); lok {
			if _, rok := r.(*ast.StringType); rok {
				return &ast.StringType{}, nil
			}
		}
		return nil, typeErrorf("operator * not defined for %s and %s", l, r)

	case token.SLASH, token.CEILDIV:
		if li, lok := l.(*ast.IntegralType); lok {
			if ri, rok := r.(*ast.IntegralType); rok {
				return promoteIntegral(li, ri), nil
			}
		}
		if lo, lok := l.(*ast.OffsetType); lok {
			if ro, rok := r.(*ast.OffsetType); rok {
				_ = ro
				return &ast.IntegralType{Size: 64, Signed: false}, nil
			}
			if _, rok := r.(*ast.IntegralType); rok {
				return lo, nil
			}
		}
		return nil, typeErrorf("operator %s not defined for %s and %s", op, l, r)

	case token.LTLT, token.GTGT, token.STARSTAR:
		if _, rok := r.(*ast.IntegralType); !rok {
			return nil, typeErrorf("right operand of %s must be integral", op)
		}
		switch l.(type) {
		case *ast.IntegralType, *ast.OffsetType:
			return l, nil
		}
		return nil, typeErrorf("left operand of %s must be integral or offset", op)

	case token.EQEQ, token.NEQ:
		if ast.Equal(l, r) || ast.Promoteable(l, r) || ast.Promoteable(r, l) {
			return &ast.IntegralType{Size: 32, Signed: true}, nil
		}
		switch l.(type) {
		case *ast.ArrayType, *ast.StructType, *ast.FunctionType:
			return &ast.IntegralType{Size: 32, Signed: true}, nil
		}
		return nil, typeErrorf("%s not defined between %s and %s", op, l, r)

	case token.LT, token.LE, token.GT, token.GE:
		if !ast.Equal(l, r) && !ast.Promoteable(l, r) && !ast.Promoteable(r, l) {
			return nil, typeErrorf("%s not defined between %s and %s", op, l, r)
		}
		return &ast.IntegralType{Size: 32, Signed: true}, nil

	case token.AND, token.OR:
		return &ast.IntegralType{Size: 32, Signed: true}, nil

	case token.IN:
		at, ok := r.(*ast.ArrayType)
		if !ok {
			return nil, typeErrorf("right operand of in must be an array")
		}
		if !ast.Equal(l, at.Elem) && !ast.Promoteable(l, at.Elem) {
			return nil, typeErrorf("left operand of in is not promoteable to the array's element type")
		}
		return &ast.IntegralType{Size: 32, Signed: true}, nil
	}
	return nil, typeErrorf("unsupported binary operator %s", op)
}

// promoteIntegral computes the result type of a binary integral operation:
// the wider of the two widths, signed iff both operands are signed.
func promoteIntegral(l, r *ast.IntegralType) *ast.IntegralType {
	size := l.Size
	if r.Size > size {
		size = r.Size
	}
	return &ast.IntegralType{Size: size, Signed: l.Signed && r.Signed}
}

// combineOffsets implements OFFxOFF arithmetic typing: base types promote,
// unit is the GCD of the two units (spec §4.5).
func combineOffsets(l, r *ast.OffsetType) *ast.OffsetType {
	lb, _ := l.Base.(*ast.IntegralType)
	rb, _ := r.Base.(*ast.IntegralType)
	var base *ast.IntegralType
	if lb != nil && rb != nil {
		base = promoteIntegral(lb, rb)
	} else {
		base = &ast.IntegralType{Size: 64, Signed: false}
	}
	unit := gcdUnit(l.Unit, r.Unit)
	return &ast.OffsetType{Base: base, Unit: unit, UnitLiteral: l.UnitLiteral && r.UnitLiteral}
}

func gcdUnit(a, b uint64) uint64 {
	if a == 0 {
		return b
	}
	if b == 0 {
		return a
	}
	return uint64(mathutil.GCDUint64(a, b))
}

// typifyStructExpr validates a struct constructor: every initializer must
// name an existing field, each must be promoteable, and unions require at
// most one initializer (spec §4.5).
func typifyStructExpr(d *Diagnostics, se *ast.StructExpr) {
	st := se.Base().Typ
	structType, ok := st.(*ast.StructType)
	if !ok {
		// anonymous constructor: the type is exactly what trans1/promo
		// synthesize from the field list, nothing further to validate here.
		return
	}
	if structType.Union && len(se.Fields) > 1 {
		d.Errorf(se, "union constructor may initialize at most one field")
	}
	byName := make(map[string]ast.StructField, len(structType.Fields))
	for _, f := range structType.Fields {
		byName[f.Name] = f
	}
	for _, init := range se.Fields {
		f, ok := byName[init.Name]
		if !ok {
			d.Errorf(init, "no such field %q in struct constructor", init.Name)
			continue
		}
		vt := init.Value.Base().Typ
		if vt != nil && !ast.Equal(vt, f.Type) && !ast.Promoteable(vt, f.Type) {
			d.Errorf(init, "field %q: cannot promote %s to %s", init.Name, vt, f.Type)
		}
	}
}

// attrResultType implements the attribute result-type table (spec §8).
func attrResultType(code ast.AttrCode) ast.Type {
	offT := &ast.OffsetType{Base: &ast.IntegralType{Size: 64, Signed: false}, Unit: 1, UnitLiteral: true}
	switch code {
	case ast.AttrSize, ast.AttrOffset, ast.AttrEOffset, ast.AttrESize:
		return offT
	case ast.AttrLength, ast.AttrUnit:
		return &ast.IntegralType{Size: 64, Signed: false}
	case ast.AttrSigned, ast.AttrMapped, ast.AttrStrict, ast.AttrIOS:
		return &ast.IntegralType{Size: 32, Signed: true}
	case ast.AttrElem:
		return &ast.AnyType{}
	case ast.AttrEName:
		return &ast.StringType{}
	case ast.AttrMagnitude:
		// the attribute table's "base of offset" result is resolved once
		// the operand's own type is known; the attribute-specific handler
		// in typify2 narrows this further when possible.
		return &ast.IntegralType{Size: 64, Signed: false}
	}
	return &ast.AnyType{}
}

// reorderFuncallArgs reorders named actuals to formal declaration order,
// fills placeholders for omitted optionals, and marks the first actual
// falling into a vararg tail (spec §4.5). Reordering by name requires the
// formal parameter names, which live on the declaring LambdaExpr rather
// than on the structural FunctionType; when the callee does not resolve
// to a known declaration (e.g. a value received through a parameter),
// named arguments cannot be reordered and are left in call-site order.
func reorderFuncallArgs(d *Diagnostics, env *cenv.Env, fc *ast.FuncallExpr, ft *ast.FunctionType) {
	vr, ok := fc.Callee.(*ast.VarRefExpr)
	if !ok {
		markVarargTail(fc.Args, len(ft.Args))
		return
	}
	decl, ok := env.Lookup(vr.Name)
	if !ok || decl.Kind != ast.DeclFunc {
		markVarargTail(fc.Args, len(ft.Args))
		return
	}
	lam, ok := decl.Node.(*ast.LambdaExpr)
	if !ok {
		markVarargTail(fc.Args, len(ft.Args))
		return
	}

	hasNamed := lo.SomeBy(fc.Args, func(a *ast.FuncallArg) bool { return a.Name != "" })
	if !hasNamed {
		markVarargTail(fc.Args, len(lam.Args))
		return
	}

	byName := make(map[string]*ast.FuncallArg, len(fc.Args))
	for _, a := range fc.Args {
		if a.Name != "" {
			byName[a.Name] = a
		}
	}
	positional := lo.Filter(fc.Args, func(a *ast.FuncallArg, _ int) bool { return a.Name == "" })

	ordered := make([]*ast.FuncallArg, 0, len(lam.Args))
	posIdx := 0
	for _, formal := range lam.Args {
		if a, ok := byName[formal.Name]; ok {
			ordered = append(ordered, a)
			continue
		}
		if posIdx < len(positional) {
			ordered = append(ordered, positional[posIdx])
			posIdx++
			continue
		}
		if !formal.Optional && !formal.Vararg {
			d.Errorf(fc, "missing required argument %q", formal.Name)
		}
		ordered = append(ordered, &ast.FuncallArg{Name: formal.Name})
	}
	fc.Args = ordered
	markVarargTail(fc.Args, len(lam.Args))
}

func markVarargTail(args []*ast.FuncallArg, numFormal int) {
	for i, a := range args {
		if i >= numFormal {
			a.IsVarargTail = true
		}
	}
}
