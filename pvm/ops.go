package pvm

import (
	"fmt"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/codegen"
)

// exceptionType is the synthetic declared type TYPEOF/ISA report for a
// boxed exception; poke's own sema never declares it (exceptions are a
// purely run-time notion, spec §7 tier 3), so there is no sema-side
// *ast.StructType to reuse.
var exceptionType = &ast.StructType{Name: "Exception"}

// dynamicType reports v's dynamic type, for TYPEOF and ISA (spec §3.1
// "every value carries (or can report) its dynamic type").
func dynamicType(vm *VM, v Value) ast.Type {
	switch v.Tag() {
	case TagInt:
		return &ast.IntegralType{Size: 32, Signed: true}
	case TagUint:
		return &ast.IntegralType{Size: 32, Signed: false}
	case TagNull, TagMissing:
		return &ast.AnyType{}
	case TagBoxed:
		switch b := vm.arena.get(v).(type) {
		case *Int64Box:
			return &ast.IntegralType{Size: 64, Signed: true}
		case *Uint64Box:
			return &ast.IntegralType{Size: 64, Signed: false}
		case *StringBox:
			return &ast.StringType{}
		case *ArrayBox:
			n := int64(len(b.Elems))
			return &ast.ArrayType{Elem: b.Elem, Bound: &n}
		case *StructBox:
			return b.Typ
		case *OffsetBox:
			return &ast.OffsetType{
				Base:        &ast.IntegralType{Size: 64, Signed: true},
				Unit:        b.V.Unit,
				UnitLiteral: true,
			}
		case *ClosureBox:
			return functionType(b.Fn)
		case *TypeBox:
			return &ast.AnyType{}
		case *ExceptionBox:
			return exceptionType
		}
	}
	return &ast.AnyType{}
}

func functionType(fn *codegen.Funcode) *ast.FunctionType {
	args := make([]ast.FuncTypeArg, fn.NumParams)
	for i := range args {
		args[i] = ast.FuncTypeArg{Type: &ast.AnyType{}, Vararg: i == fn.VarargIndex}
	}
	return &ast.FunctionType{Args: args, Return: &ast.AnyType{}}
}

// isa reports whether v's dynamic type satisfies T, per the structural
// equality rules sema/typify1.go already applies at compile time (spec
// §4.3 type_equal_p); "any" always satisfies and is always satisfied.
func isa(vm *VM, v Value, t ast.Type) bool {
	if _, ok := t.(*ast.AnyType); ok {
		return true
	}
	dt := dynamicType(vm, v)
	if _, ok := dt.(*ast.AnyType); ok {
		return true
	}
	return ast.Equal(dt, t)
}

// maskToSize truncates n to size bits, sign-extending when signed is
// true, mirroring the C semantics a (T)x integral cast performs.
func maskToSize(n int64, size int, signed bool) int64 {
	if size >= 64 {
		return n
	}
	mask := int64(1)<<uint(size) - 1
	v := n & mask
	if signed && v&(int64(1)<<uint(size-1)) != 0 {
		v |= ^mask
	}
	return v
}

// cast performs (T)x: an integral/offset value narrows or re-signs to
// the target width, everything else passes through unchanged when the
// dynamic type already satisfies T (spec §4.5 "explicit conversions").
func (vm *VM) cast(v Value, t ast.Type) (Value, error) {
	switch target := t.(type) {
	case *ast.IntegralType:
		n, ok := vm.Int64(v)
		if !ok {
			return Null, vm.newException(EConversion, fmt.Sprintf("cannot cast %s to %s", vm.String(v), t))
		}
		n = maskToSize(n, target.Size, target.Signed)
		if target.Signed {
			return vm.NewInt64(n), nil
		}
		return vm.NewUint64(uint64(n)), nil
	case *ast.OffsetType:
		o, ok := vm.OffsetOf(v)
		if !ok {
			if n, ok2 := vm.Int64(v); ok2 {
				o = Offset{Magnitude: n, Unit: 1}
			} else {
				return Null, vm.newException(EConversion, fmt.Sprintf("cannot cast %s to offset", vm.String(v)))
			}
		}
		if target.UnitLiteral && target.Unit != 0 {
			o = o.Add(Offset{Magnitude: 0, Unit: target.Unit})
		}
		return vm.NewOffset(o), nil
	case *ast.StringType:
		s, ok := vm.Str(v)
		if !ok {
			return Null, vm.newException(EConversion, fmt.Sprintf("cannot cast %s to string", vm.String(v)))
		}
		return vm.NewString(s), nil
	default:
		return v, nil
	}
}

// len reports LEN's result: an array's element count or a struct's
// field count (spec §3.1).
func (vm *VM) len(v Value) (uint64, error) {
	if b, ok := vm.Array(v); ok {
		return uint64(len(b.Elems)), nil
	}
	if b, ok := vm.Struct(v); ok {
		return uint64(len(b.Fields)), nil
	}
	if s, ok := vm.Str(v); ok {
		return uint64(len(s)), nil
	}
	return 0, vm.newException(EInvalidArgument, fmt.Sprintf("len: %s has no length", vm.String(v)))
}

// numeric holds one operand's integral magnitude plus the signedness it
// should be interpreted and re-boxed with, resolved once up front so
// binOp's arithmetic cases don't repeat the Tag() dispatch.
type numeric struct {
	n      int64
	signed bool
	wide   bool // originated from a 64-bit boxed magnitude, not an inline 32-bit one
}

func (vm *VM) numericOf(v Value) (numeric, bool) {
	switch v.Tag() {
	case TagInt:
		return numeric{n: int64(v.Int()), signed: true}, true
	case TagUint:
		return numeric{n: int64(v.Uint()), signed: false}, true
	case TagBoxed:
		switch b := vm.arena.get(v).(type) {
		case *Int64Box:
			return numeric{n: b.V, signed: true, wide: true}, true
		case *Uint64Box:
			return numeric{n: int64(b.V), signed: false, wide: true}, true
		}
	}
	return numeric{}, false
}

func (vm *VM) boxNumeric(n int64, signed, wide bool) Value {
	if signed {
		if wide {
			return vm.NewInt64(n)
		}
		return NewInt(int32(n))
	}
	if wide {
		return vm.NewUint64(uint64(n))
	}
	return NewUint(uint32(n))
}

// binOp executes a PLUS..POW/CONS/IN opcode (spec §4.7); codegen emits
// the callee to pop two operands and push one result.
func (vm *VM) binOp(op codegen.Opcode, l, r Value) (Value, error) {
	if op == codegen.CONS {
		return vm.consOp(l, r)
	}
	if op == codegen.IN {
		return vm.inOp(l, r)
	}

	if ol, ok := vm.OffsetOf(l); ok {
		return vm.offsetBinOp(op, ol, r)
	}
	if ls, ok := vm.Str(l); ok {
		return vm.stringBinOp(op, ls, r)
	}

	ln, ok := vm.numericOf(l)
	if !ok {
		return Null, vm.newException(EInvalidArgument, fmt.Sprintf("%s: invalid operand %s", op, vm.String(l)))
	}
	rn, ok := vm.numericOf(r)
	if !ok {
		return Null, vm.newException(EInvalidArgument, fmt.Sprintf("%s: invalid operand %s", op, vm.String(r)))
	}
	signed := ln.signed && rn.signed
	wide := ln.wide || rn.wide

	switch op {
	case codegen.PLUS:
		return vm.boxNumeric(ln.n+rn.n, signed, wide), nil
	case codegen.MINUS:
		return vm.boxNumeric(ln.n-rn.n, signed, wide), nil
	case codegen.STAR:
		return vm.boxNumeric(ln.n*rn.n, signed, wide), nil
	case codegen.SLASH:
		if rn.n == 0 {
			return Null, vm.newException(EDivByZero, "division by zero")
		}
		return vm.boxNumeric(ln.n/rn.n, signed, wide), nil
	case codegen.CEILDIV:
		if rn.n == 0 {
			return Null, vm.newException(EDivByZero, "division by zero")
		}
		q := ln.n / rn.n
		if ln.n%rn.n != 0 && (ln.n < 0) == (rn.n < 0) {
			q++
		}
		return vm.boxNumeric(q, signed, wide), nil
	case codegen.PERCENT:
		if rn.n == 0 {
			return Null, vm.newException(EDivByZero, "division by zero")
		}
		return vm.boxNumeric(ln.n%rn.n, signed, wide), nil
	case codegen.CIRCUMFLEX:
		return vm.boxNumeric(ln.n^rn.n, signed, wide), nil
	case codegen.AMPERSAND:
		return vm.boxNumeric(ln.n&rn.n, signed, wide), nil
	case codegen.PIPE:
		return vm.boxNumeric(ln.n|rn.n, signed, wide), nil
	case codegen.LTLT:
		return vm.boxNumeric(ln.n<<uint(rn.n), signed, wide), nil
	case codegen.GTGT:
		if signed {
			return vm.boxNumeric(ln.n>>uint(rn.n), signed, wide), nil
		}
		return vm.boxNumeric(int64(uint64(ln.n)>>uint(rn.n)), signed, wide), nil
	case codegen.POW:
		acc := int64(1)
		for i := int64(0); i < rn.n; i++ {
			acc *= ln.n
		}
		return vm.boxNumeric(acc, signed, wide), nil
	case codegen.EQL:
		return boolValue(ln.n == rn.n), nil
	case codegen.NEQ:
		return boolValue(ln.n != rn.n), nil
	case codegen.LT:
		return boolValue(vm.cmpNumeric(ln, rn) < 0), nil
	case codegen.LE:
		return boolValue(vm.cmpNumeric(ln, rn) <= 0), nil
	case codegen.GT:
		return boolValue(vm.cmpNumeric(ln, rn) > 0), nil
	case codegen.GE:
		return boolValue(vm.cmpNumeric(ln, rn) >= 0), nil
	}
	return Null, vm.newException(EGeneric, fmt.Sprintf("unhandled binary operator %s", op))
}

func (vm *VM) cmpNumeric(l, r numeric) int {
	if l.signed && r.signed {
		switch {
		case l.n < r.n:
			return -1
		case l.n > r.n:
			return 1
		}
		return 0
	}
	ul, ur := uint64(l.n), uint64(r.n)
	switch {
	case ul < ur:
		return -1
	case ul > ur:
		return 1
	}
	return 0
}

func boolValue(b bool) Value {
	if b {
		return NewInt(1)
	}
	return NewInt(0)
}

func (vm *VM) stringBinOp(op codegen.Opcode, l string, r Value) (Value, error) {
	rs, ok := vm.Str(r)
	if !ok {
		return Null, vm.newException(EInvalidArgument, fmt.Sprintf("%s: expected string operand, got %s", op, vm.String(r)))
	}
	switch op {
	case codegen.EQL:
		return boolValue(l == rs), nil
	case codegen.NEQ:
		return boolValue(l != rs), nil
	case codegen.LT:
		return boolValue(l < rs), nil
	case codegen.LE:
		return boolValue(l <= rs), nil
	case codegen.GT:
		return boolValue(l > rs), nil
	case codegen.GE:
		return boolValue(l >= rs), nil
	}
	return Null, vm.newException(EInvalidArgument, fmt.Sprintf("unsupported string operator %s", op))
}

func (vm *VM) offsetBinOp(op codegen.Opcode, l Offset, r Value) (Value, error) {
	ro, ok := vm.OffsetOf(r)
	if !ok {
		if n, ok2 := vm.Int64(r); ok2 {
			ro = Offset{Magnitude: n, Unit: l.Unit}
		} else {
			return Null, vm.newException(EInvalidArgument, fmt.Sprintf("%s: expected offset operand, got %s", op, vm.String(r)))
		}
	}
	switch op {
	case codegen.PLUS:
		return vm.NewOffset(l.Add(ro)), nil
	case codegen.MINUS:
		return vm.NewOffset(l.Sub(ro)), nil
	case codegen.EQL:
		return boolValue(l.Bits() == ro.Bits()), nil
	case codegen.NEQ:
		return boolValue(l.Bits() != ro.Bits()), nil
	case codegen.LT:
		return boolValue(l.Bits() < ro.Bits()), nil
	case codegen.LE:
		return boolValue(l.Bits() <= ro.Bits()), nil
	case codegen.GT:
		return boolValue(l.Bits() > ro.Bits()), nil
	case codegen.GE:
		return boolValue(l.Bits() >= ro.Bits()), nil
	}
	return Null, vm.newException(EInvalidArgument, fmt.Sprintf("unsupported offset operator %s", op))
}

// consOp implements x ::: y, poke's bit-concatenation constructor: both
// operands must be integral, the result's width is their sum (capped at
// 64, spec §3.1 glossary "Cons (:::)").
func (vm *VM) consOp(l, r Value) (Value, error) {
	ln, ok := vm.numericOf(l)
	if !ok {
		return Null, vm.newException(EInvalidArgument, "cons: left operand is not integral")
	}
	rn, ok := vm.numericOf(r)
	if !ok {
		return Null, vm.newException(EInvalidArgument, "cons: right operand is not integral")
	}
	lw := 32
	if ln.wide {
		lw = 64
	}
	rw := 32
	if rn.wide {
		rw = 64
	}
	width := lw + rw
	if width > 64 {
		width = 64
	}
	result := (uint64(uint32(ln.n)) << uint(rw)) | uint64(uint32(rn.n))
	return vm.boxNumeric(int64(result), false, width > 32), nil
}

func (vm *VM) inOp(l, r Value) (Value, error) {
	b, ok := vm.Array(r)
	if !ok {
		return Null, vm.newException(EInvalidArgument, "in: right operand is not an array")
	}
	for _, e := range b.Elems {
		if vm.valueEqual(l, e) {
			return boolValue(true), nil
		}
	}
	return boolValue(false), nil
}

func (vm *VM) valueEqual(a, b Value) bool {
	if n1, ok := vm.Int64(a); ok {
		if n2, ok := vm.Int64(b); ok {
			return n1 == n2
		}
	}
	if s1, ok := vm.Str(a); ok {
		if s2, ok := vm.Str(b); ok {
			return s1 == s2
		}
	}
	if o1, ok := vm.OffsetOf(a); ok {
		if o2, ok := vm.OffsetOf(b); ok {
			return o1.Bits() == o2.Bits()
		}
	}
	return a == b
}

// unOp executes UPLUS/UMINUS/UBITNOT/NOT.
func (vm *VM) unOp(op codegen.Opcode, v Value) (Value, error) {
	switch op {
	case codegen.NOT:
		return boolValue(!vm.Truth(v)), nil
	case codegen.UPLUS:
		return v, nil
	}
	n, ok := vm.numericOf(v)
	if !ok {
		return Null, vm.newException(EInvalidArgument, fmt.Sprintf("%s: operand is not integral", op))
	}
	switch op {
	case codegen.UMINUS:
		return vm.boxNumeric(-n.n, n.signed, n.wide), nil
	case codegen.UBITNOT:
		return vm.boxNumeric(^n.n, n.signed, n.wide), nil
	}
	return Null, vm.newException(EGeneric, fmt.Sprintf("unhandled unary operator %s", op))
}

// attrOf implements x'attr (GETATTR, spec §8 attribute table).
func (vm *VM) attrOf(v Value, code ast.AttrCode) (Value, error) {
	switch code {
	case ast.AttrSize:
		t := dynamicType(vm, v)
		if !t.Complete() {
			return Null, vm.newException(EInvalidArgument, fmt.Sprintf("'size: %s has no constant size", t))
		}
		return vm.NewOffset(Offset{Magnitude: int64(ast.Sizeof(t)), Unit: 1}), nil
	case ast.AttrLength:
		n, err := vm.len(v)
		if err != nil {
			return Null, err
		}
		return vm.NewUint64(n), nil
	case ast.AttrSigned:
		if n, ok := vm.numericOf(v); ok {
			return boolValue(n.signed), nil
		}
		return boolValue(false), nil
	case ast.AttrMagnitude:
		o, ok := vm.OffsetOf(v)
		if !ok {
			return Null, vm.newException(EInvalidArgument, "'magnitude: not an offset")
		}
		return vm.NewInt64(o.Magnitude), nil
	case ast.AttrUnit:
		o, ok := vm.OffsetOf(v)
		if !ok {
			return Null, vm.newException(EInvalidArgument, "'unit: not an offset")
		}
		return vm.NewUint64(o.Unit), nil
	case ast.AttrOffset:
		b, ok := vm.Struct(v)
		if !ok || b.Origin == nil {
			return Null, vm.newException(ENoMap, "'offset: value is not mapped")
		}
		return vm.NewOffset(b.Origin.Offset), nil
	case ast.AttrEOffset:
		b, ok := vm.Struct(v)
		if !ok || b.Origin == nil {
			return Null, vm.newException(ENoMap, "'eoffset: value is not mapped")
		}
		return vm.NewOffset(b.Origin.Offset), nil
	case ast.AttrESize:
		b, ok := vm.Struct(v)
		if !ok || b.Origin == nil {
			return Null, vm.newException(ENoMap, "'esize: value is not mapped")
		}
		return vm.NewOffset(Offset{Magnitude: int64(b.Origin.Extent), Unit: 1}), nil
	case ast.AttrEName:
		b, ok := vm.Struct(v)
		if !ok || b.Origin == nil {
			return Null, vm.newException(ENoMap, "'ename: value is not mapped")
		}
		return vm.NewString(b.Origin.Name), nil
	case ast.AttrMapped:
		b, ok := vm.Struct(v)
		return boolValue(ok && b.Origin != nil), nil
	case ast.AttrIOS:
		b, ok := vm.Struct(v)
		if !ok || b.Origin == nil {
			return vm.NewInt64(-1), nil
		}
		return vm.NewInt64(int64(b.Origin.IOSID)), nil
	case ast.AttrStrict:
		return boolValue(true), nil
	case ast.AttrElem:
		b, ok := vm.Array(v)
		if !ok {
			return Null, vm.newException(EInvalidArgument, "'elem: not an array")
		}
		return vm.NewType(b.Elem), nil
	default:
		return Null, vm.newException(EInvalidArgument, fmt.Sprintf("unknown attribute code %d", code))
	}
}
