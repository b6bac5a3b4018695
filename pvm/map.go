package pvm

import (
	"fmt"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/ios"
)

// resolveSpace turns MAP's (possibly Null) IOS operand into the
// *ios.Space it should read from: Null means "the current space" (spec
// §4.2 "reads current IOS if ios is Nil"), anything else is taken as
// the space's integer id (the 'ios attribute's own representation, see
// attrOf's AttrIOS case).
func (vm *VM) resolveSpace(v Value) (*ios.Space, error) {
	if v == Null {
		sp := vm.IOS.Current()
		if sp == nil {
			return nil, vm.newException(ENoIOS, "no current IO space")
		}
		return sp, nil
	}
	n, ok := vm.Int64(v)
	if !ok {
		return nil, vm.newException(EInvalidArgument, "map: invalid IO space value")
	}
	sp := vm.IOS.ByID(int(n))
	if sp == nil {
		return nil, vm.newException(ENoIOS, fmt.Sprintf("no such IO space %d", n))
	}
	return sp, nil
}

// offsetBits reduces MAP's offset operand to a plain bit count: an
// Offset value contributes magnitude*unit, anything else is already
// taken to be a bit count (spec §3.1 "Offset (PVM)").
func (vm *VM) offsetBits(v Value) int64 {
	if o, ok := vm.OffsetOf(v); ok {
		return o.Bits()
	}
	n, _ := vm.Int64(v)
	return n
}

// materialize reads a value of type t starting at bit offset off in sp
// (spec §4.2 MAP), returning the value and the number of bits it (and
// any padding its own layout rules impose) consumed, so a composite's
// caller can advance to the next field/element.
func (vm *VM) materialize(t ast.Type, sp *ios.Space, off int64) (Value, uint64, error) {
	switch x := t.(type) {
	case *ast.IntegralType:
		n, err := sp.ReadInt(off, x.Size, x.Signed, vm.Endian, vm.NegEncoding)
		if err != nil {
			return Null, 0, vm.ioError(err)
		}
		if x.Signed {
			return vm.NewInt64(n), uint64(x.Size), nil
		}
		return vm.NewUint64(uint64(n)), uint64(x.Size), nil

	case *ast.StringType:
		s, err := sp.ReadString(off)
		if err != nil {
			return Null, 0, vm.ioError(err)
		}
		return vm.NewString(s), (uint64(len(s)) + 1) * 8, nil

	case *ast.OffsetType:
		base, ok := x.Base.(*ast.IntegralType)
		if !ok {
			return Null, 0, vm.newException(EInvalidArgument, "map: offset type has a non-integral base")
		}
		n, err := sp.ReadInt(off, base.Size, base.Signed, vm.Endian, vm.NegEncoding)
		if err != nil {
			return Null, 0, vm.ioError(err)
		}
		return vm.NewOffset(Offset{Magnitude: n, Unit: x.Unit}), uint64(base.Size), nil

	case *ast.ArrayType:
		if x.Bound == nil {
			return Null, 0, vm.newException(EMapBounds, "map: array has no bound")
		}
		n := *x.Bound
		elems := make([]Value, n)
		cur := off
		for i := int64(0); i < n; i++ {
			v, bits, err := vm.materialize(x.Elem, sp, cur)
			if err != nil {
				return Null, 0, err
			}
			elems[i] = v
			cur += int64(bits)
		}
		return vm.NewArray(x.Elem, elems), uint64(cur - off), nil

	case *ast.StructType:
		if x.IType != nil {
			return vm.materialize(x.IType, sp, off)
		}
		fields := make([]StructFieldValue, len(x.Fields))
		cur := off
		var extent int64
		for i, f := range x.Fields {
			start := cur
			if f.Label != nil {
				start = off + *f.Label
			}
			v, bits, err := vm.materialize(f.Type, sp, start)
			if err != nil {
				return Null, 0, err
			}
			fields[i] = StructFieldValue{Name: f.Name, Value: v}
			end := start - off + int64(bits)
			if end > extent {
				extent = end
			}
			if !x.Pinned {
				cur = start + int64(bits)
			}
		}
		origin := MappedOrigin{
			IOSID:  sp.ID,
			Offset: Offset{Magnitude: off, Unit: 1},
			Extent: uint64(extent),
			Name:   x.Name,
		}
		return vm.NewMappedStruct(x, fields, origin), uint64(extent), nil

	default:
		return Null, 0, vm.newException(EInvalidArgument, fmt.Sprintf("map: cannot map type %s", t))
	}
}

// ioError translates an ios-layer error (device EOF, permission denial)
// into the matching reserved PVM exception (spec §4.7's EEOF/
// EInvalidIOFlags/EGenericIO); a permission error is reported as
// EInvalidIOFlags since it always stems from the space's own open
// flags, never from the request itself.
func (vm *VM) ioError(err error) error {
	switch err.(type) {
	case *ios.ErrPermission:
		return vm.newException(EInvalidIOFlags, err.Error())
	case *ios.ErrBaseClosed:
		return vm.newException(EGenericIO, err.Error())
	default:
		return vm.newException(EEOF, err.Error())
	}
}
