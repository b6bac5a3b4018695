package pvm

import (
	"fmt"
	"strings"

	"github.com/poke-lang/poke/ast"
)

// ArrayBox is a poke array value: a declared element type, an element
// count and an indexed sequence of elements (spec §3.1). The null
// pattern is never a legal element (spec §3.1 invariant); callers that
// build an ArrayBox are responsible for upholding it.
type ArrayBox struct {
	Elem  ast.Type
	Elems []Value
}

func (b *ArrayBox) typeName() string { return b.Elem.String() + "[]" }

func (b *ArrayBox) str(vm *VM) string {
	parts := make([]string, len(b.Elems))
	for i, e := range b.Elems {
		parts[i] = vm.String(e)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (b *ArrayBox) Len() int { return len(b.Elems) }

// NewArray boxes elems as an array of the given declared element type.
func (vm *VM) NewArray(elem ast.Type, elems []Value) Value {
	return vm.arena.alloc(&ArrayBox{Elem: elem, Elems: elems})
}

func (vm *VM) Array(v Value) (*ArrayBox, bool) {
	if v.Tag() != TagBoxed {
		return nil, false
	}
	b, ok := vm.arena.get(v).(*ArrayBox)
	return b, ok
}

func (vm *VM) indexArray(b *ArrayBox, i int64) (Value, error) {
	if i < 0 || i >= int64(len(b.Elems)) {
		return Null, vm.newException(EOutOfBounds, fmt.Sprintf("array index %d out of bounds (len %d)", i, len(b.Elems)))
	}
	return b.Elems[i], nil
}

func (vm *VM) setIndexArray(b *ArrayBox, i int64, val Value) error {
	if i < 0 || i >= int64(len(b.Elems)) {
		return vm.newException(EOutOfBounds, fmt.Sprintf("array index %d out of bounds (len %d)", i, len(b.Elems)))
	}
	b.Elems[i] = val
	return nil
}
