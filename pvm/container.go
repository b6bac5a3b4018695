package pvm

import "fmt"

// index implements INDEX (a[i]) over an array or a string; a string
// indexes to its i'th byte as an unsigned 8-bit integer, mirroring how
// ReadString/WriteString treat a poke string as a byte sequence (spec
// §3.1).
func (vm *VM) index(cont, idxV Value) (Value, error) {
	idx, ok := vm.Int64(idxV)
	if !ok {
		return Null, vm.newException(EInvalidArgument, "index: index is not an integer")
	}
	if b, ok := vm.Array(cont); ok {
		return vm.indexArray(b, idx)
	}
	if s, ok := vm.Str(cont); ok {
		if idx < 0 || idx >= int64(len(s)) {
			return Null, vm.newException(EOutOfBounds, fmt.Sprintf("string index %d out of bounds (len %d)", idx, len(s)))
		}
		return vm.NewUint64(uint64(s[idx])), nil
	}
	return Null, vm.newException(EInvalidArgument, fmt.Sprintf("index: %s is not indexable", vm.String(cont)))
}

// setIndex implements SETINDEX (a[i] = v). Only arrays are mutable in
// place; a poke string literal is immutable once built (spec §3.1:
// strings are reseated wholesale by assignment, never byte-patched).
func (vm *VM) setIndex(cont, idxV, val Value) error {
	idx, ok := vm.Int64(idxV)
	if !ok {
		return vm.newException(EInvalidArgument, "setindex: index is not an integer")
	}
	if b, ok := vm.Array(cont); ok {
		return vm.setIndexArray(b, idx, val)
	}
	return vm.newException(EInvalidArgument, fmt.Sprintf("setindex: %s is not mutable", vm.String(cont)))
}

// slice implements SLICE (a[from:to], with any addend already folded
// into to by trans1): codegen always supplies a step operand of 1 (see
// codegen.go's TrimmerExpr case), and this walks from..to in steps of
// that operand rather than special-casing a plain contiguous trim.
func (vm *VM) slice(cont, fromV, toV, addendV Value) (Value, error) {
	from, _ := vm.Int64(fromV)
	to, _ := vm.Int64(toV)
	addend, _ := vm.Int64(addendV)
	if addend <= 0 {
		addend = 1
	}

	if b, ok := vm.Array(cont); ok {
		if from < 0 || to > int64(len(b.Elems)) || from > to {
			return Null, vm.newException(EOutOfBounds, fmt.Sprintf("slice [%d:%d] out of bounds (len %d)", from, to, len(b.Elems)))
		}
		var elems []Value
		for i := from; i < to; i += addend {
			elems = append(elems, b.Elems[i])
		}
		return vm.NewArray(b.Elem, elems), nil
	}
	if s, ok := vm.Str(cont); ok {
		if from < 0 || to > int64(len(s)) || from > to {
			return Null, vm.newException(EOutOfBounds, fmt.Sprintf("slice [%d:%d] out of bounds (len %d)", from, to, len(s)))
		}
		var buf []byte
		for i := from; i < to; i += addend {
			buf = append(buf, s[i])
		}
		return vm.NewString(string(buf)), nil
	}
	return Null, vm.newException(EInvalidArgument, fmt.Sprintf("slice: %s is not sliceable", vm.String(cont)))
}
