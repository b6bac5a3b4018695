package sema

import (
	"strconv"
	"strings"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/cenv"
	"github.com/poke-lang/poke/pass"
	"github.com/poke-lang/poke/token"
)

// attrCodes maps an attribute's surface name to its AttrCode (spec §4.5
// "determines the attribute code of every 'name attribute"; result types
// are the attribute table in spec §8).
var attrCodes = map[string]ast.AttrCode{
	"size":      ast.AttrSize,
	"length":    ast.AttrLength,
	"signed":    ast.AttrSigned,
	"magnitude": ast.AttrMagnitude,
	"unit":      ast.AttrUnit,
	"offset":    ast.AttrOffset,
	"mapped":    ast.AttrMapped,
	"strict":    ast.AttrStrict,
	"ios":       ast.AttrIOS,
	"elem":      ast.AttrElem,
	"eoffset":   ast.AttrEOffset,
	"esize":     ast.AttrESize,
	"ename":     ast.AttrEName,
}

// Trans1 builds the "structural finishing" phase (spec §4.5 trans1). d
// accumulates diagnostics; env resolves a reference's declaration so a
// bare reference to a zero-argument (or all-optional) function can be
// rewritten into a call; funcStack tracks the lexically enclosing
// function (or nil at the top level) for VarRefExpr.EnclosingFunc/Depth.
func Trans1(d *Diagnostics, env *cenv.Env) *pass.Phase {
	p := pass.NewPhase("trans1", 0)
	bindScopes(p, env)

	// funcStack and depth travel with the traversal; since the driver
	// walks depth-first and single-threaded, a stack mutated on
	// LambdaExpr entry/exit is sufficient context to attribute every
	// VarRefExpr underneath it (spec §4.5 "records the enclosing
	// function and the lexical depth relative to it").
	var funcStack []ast.Node
	depth := 0

	// calleeExprs marks an expression as already being the callee of a
	// FuncallExpr, so a VarRefExpr's (or, in trans2, a FieldRefExpr's) own
	// handler does not also rewrite it into a zero-arg call (spec §4.5
	// "and is not already the callee of a funcall").
	calleeExprs := make(map[ast.Expr]bool)

	p.OnCode(ast.CodeFuncallExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		fc := n.(*ast.FuncallExpr)
		calleeExprs[fc.Callee] = true
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeLambdaExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		lam := n.(*ast.LambdaExpr)
		funcStack = append(funcStack, lam)
		depth++
		lam.FirstOptional = firstOptional(lam.Args)
		return pass.Continue, nil
	})
	p.OnCode(ast.CodeLambdaExpr, pass.PS, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		funcStack = funcStack[:len(funcStack)-1]
		depth--
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeStringLiteral, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		sl := n.(*ast.StringLiteral)
		sl.Value = decodeEscapes(sl.Raw)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeArrayExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ae := n.(*ast.ArrayExpr)
		ae.NElem = len(ae.Initializers)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeStructExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		se := n.(*ast.StructExpr)
		se.NElem = len(se.Fields)
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeOffsetExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		oe := n.(*ast.OffsetExpr)
		if oe.Magnitude == nil {
			oe.Magnitude = ast.ASTRef(&ast.IntegerLiteral{Value: 1, Signed: false}).(ast.Expr)
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeTrimmerExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		te := n.(*ast.TrimmerExpr)
		if te.From == nil {
			te.From = ast.ASTRef(&ast.IntegerLiteral{Value: 0, Signed: false}).(ast.Expr)
		}
		if te.To == nil {
			te.To = ast.ASTRef(&ast.AttrExpr{Operand: te.Container, Name: "length", Attr: ast.AttrLength}).(ast.Expr)
		}
		if te.HasAddend && te.Addend != nil {
			te.To = ast.ASTRef(&ast.BinExpr{Op: token.PLUS, Left: te.From, Right: te.Addend}).(ast.Expr)
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeAttrExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		ae := n.(*ast.AttrExpr)
		code, ok := attrCodes[ae.Name]
		if !ok {
			d.Errorf(ae, "unknown attribute '%s", ae.Name)
			return pass.Continue, nil
		}
		ae.Attr = code
		return pass.Continue, nil
	})

	p.OnCode(ast.CodePrintStmt, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		// the format string itself is left as-is; the typed argument list
		// (ps.Args) was already parsed by the external grammar collaborator
		// per spec §1 ("the concrete grammar... is out of scope"), so
		// trans1's job here is limited to validating the placeholder count
		// matches the argument count.
		ps := n.(*ast.PrintStmt)
		if want := strings.Count(ps.Format, "%"); want != len(ps.Args) {
			d.Errorf(ps, "format string expects %d argument(s), got %d", want, len(ps.Args))
		}
		return pass.Continue, nil
	})

	p.OnCode(ast.CodeVarRefExpr, pass.PR, func(n ast.Node, _ pass.Order) (pass.Directive, error) {
		vr := n.(*ast.VarRefExpr)
		if len(funcStack) > 0 {
			vr.EnclosingFunc = funcStack[len(funcStack)-1]
		}
		vr.Depth = depth
		if decl, ok := env.Lookup(vr.Name); ok {
			vr.Back, vr.Over = decl.Back, decl.Over
			if !calleeExprs[vr] && decl.Kind == ast.DeclFunc {
				if lam, ok := decl.Node.(*ast.LambdaExpr); ok && resolvesToZeroArgs(lam) {
					vr.ZeroArgCall = true
				}
			}
		} else {
			d.Errorf(vr, "undeclared identifier %q", vr.Name)
		}
		return pass.Continue, nil
	})

	return p
}

// resolvesToZeroArgs reports whether lam can be called with no actual
// arguments: either it declares none, or every declared argument is
// optional or a vararg tail.
func resolvesToZeroArgs(lam *ast.LambdaExpr) bool {
	return lam.FirstOptional == 0 || len(lam.Args) == 0
}

// firstOptional returns the index of the first optional or vararg
// parameter, or -1 if every parameter is required (spec §4.5 "sets
// function arg counts and their 'first optional' pointers").
func firstOptional(args []*ast.FuncArg) int {
	for i, a := range args {
		if a.Optional || a.Vararg {
			return i
		}
	}
	return -1
}

// decodeEscapes expands the backslash escapes recognized by poke string
// literals (\n \t \\ \" \xHH) in a raw lexeme into its semantic value.
func decodeEscapes(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 >= len(raw) {
			b.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'x':
			if i+2 < len(raw) {
				if v, err := strconv.ParseUint(raw[i+1:i+3], 16, 8); err == nil {
					b.WriteByte(byte(v))
					i += 2
					continue
				}
			}
			b.WriteByte('x')
		default:
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}
