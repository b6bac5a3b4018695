// Package pvm implements the register-based interpreter that executes
// codegen's compiled Programs (spec §4.7), and the value model it
// operates on (spec §3.1).
//
// Grounded on lang/types/value.go's interface-based value model and
// lang/types/array.go/map.go/tuple.go's boxed-composite shape
// (freeze/iterator bookkeeping), generalized from Starlark's unboxed
// int64-in-interface encoding to the spec's explicit 3-bit-tag 64-bit
// word: spec.md mandates that exact representation ("tagged 64-bit
// value... survives verbatim", §9). The machine loop itself is grounded
// on lang/machine/machine.go's run (locals+stack single slice, pc/sp
// loop, inFlightErr propagation).
package pvm

import "fmt"

// Value is a PVM run-time value: a single 64-bit word with a tag in the
// low bits (spec §3.1).
type Value uint64

// Tag identifies which of the value's four kinds a word holds. TagInt and
// TagUint hold their magnitude inline (<=32 bits); TagBoxed holds an
// index into the owning VM's box arena rather than a raw pointer, so a
// boxed value stays reachable through the arena slice without resorting
// to unsafe.Pointer (DESIGN NOTES §9 "the box heap becomes an explicit
// arena or GC-managed region").
//
// TagMissing is a fifth, VM-internal tag with no counterpart in spec
// §3.1's four-tag value model: it backs the Missing sentinel codegen
// pushes for an omitted optional argument (spec §4.6), and is never
// constructible from poke surface syntax, never printed, and never
// observed by a conforming poke program — only a function's own
// prologue (trans1/codegen's default-substitution convention) ever
// inspects it.
type Tag uint8

const (
	TagInt Tag = iota
	TagUint
	TagNull
	TagBoxed
	TagMissing
)

const (
	tagBits = 3
	tagMask = uint64(1)<<tagBits - 1
)

// Null is the reserved null value; it is never a legal element of a typed
// array or struct (spec §3.1 invariant).
const Null Value = Value(TagNull)

// Missing is the VM-internal sentinel for an omitted optional argument;
// see Tag's doc comment.
const Missing Value = Value(uint64(TagMissing))

// NewInt boxes a signed magnitude of at most 32 bits inline.
func NewInt(n int32) Value { return Value(uint64(uint32(n))<<tagBits | uint64(TagInt)) }

// NewUint boxes an unsigned magnitude of at most 32 bits inline.
func NewUint(n uint32) Value { return Value(uint64(n)<<tagBits | uint64(TagUint)) }

func (v Value) Tag() Tag { return Tag(v & Value(tagMask)) }

// Int returns the inline signed magnitude; only meaningful when
// Tag() == TagInt.
func (v Value) Int() int32 { return int32(uint32(v >> tagBits)) }

// Uint returns the inline unsigned magnitude; only meaningful when
// Tag() == TagUint.
func (v Value) Uint() uint32 { return uint32(v >> tagBits) }

func (v Value) boxIndex() uint32 { return uint32(v >> tagBits) }

func boxedValue(idx uint32) Value { return Value(uint64(idx)<<tagBits | uint64(TagBoxed)) }

// Truth reports the value's boolean interpretation: null and a zero
// integer are false, everything else (including every boxed composite)
// is true.
func (vm *VM) Truth(v Value) bool {
	switch v.Tag() {
	case TagNull, TagMissing:
		return false
	case TagInt:
		return v.Int() != 0
	case TagUint:
		return v.Uint() != 0
	case TagBoxed:
		switch b := vm.arena.get(v).(type) {
		case *Int64Box:
			return b.V != 0
		case *Uint64Box:
			return b.V != 0
		default:
			return true
		}
	}
	return true
}

// String renders v for PRINT and diagnostics (spec §6 output
// parameters govern the pretty/tree variants; this is the flat form).
func (vm *VM) String(v Value) string {
	switch v.Tag() {
	case TagNull:
		return "null"
	case TagMissing:
		return "<missing>"
	case TagInt:
		return fmt.Sprintf("%d", v.Int())
	case TagUint:
		return fmt.Sprintf("%d", v.Uint())
	case TagBoxed:
		return vm.arena.get(v).str(vm)
	}
	return "<invalid>"
}

// box is the interface every heap-allocated value variant implements.
// str takes the owning VM (rather than being a plain fmt.Stringer)
// because composites such as ArrayBox/StructBox must recursively render
// elements that are themselves boxed, which requires the arena.
type box interface {
	str(vm *VM) string
	typeName() string
}

// Int64Box and Uint64Box hold magnitudes that don't fit inline (the
// 32-bit ceiling of TagInt/TagUint), per spec §3.1's "64-bit signed int,
// 64-bit unsigned int" boxed variants.
type Int64Box struct{ V int64 }

func (b *Int64Box) str(*VM) string   { return fmt.Sprintf("%d", b.V) }
func (b *Int64Box) typeName() string { return "int<64>" }

type Uint64Box struct{ V uint64 }

func (b *Uint64Box) str(*VM) string   { return fmt.Sprintf("%d", b.V) }
func (b *Uint64Box) typeName() string { return "uint<64>" }

// StringBox is poke's string value: a null-terminated byte sequence plus
// length (spec §3.1); Go's string already carries both, so the box is a
// thin wrapper.
type StringBox struct{ V string }

func (b *StringBox) str(*VM) string  { return b.V }
func (b *StringBox) typeName() string { return "string" }

// NewInt64 boxes n, using the inline TagInt representation when it fits.
func (vm *VM) NewInt64(n int64) Value {
	if int64(int32(n)) == n {
		return NewInt(int32(n))
	}
	return vm.arena.alloc(&Int64Box{V: n})
}

// NewUint64 boxes n, using the inline TagUint representation when it fits.
func (vm *VM) NewUint64(n uint64) Value {
	if uint64(uint32(n)) == n {
		return NewUint(uint32(n))
	}
	return vm.arena.alloc(&Uint64Box{V: n})
}

func (vm *VM) NewString(s string) Value { return vm.arena.alloc(&StringBox{V: s}) }

// Int64 extracts v's integral magnitude regardless of whether it is
// inline or boxed, signed or unsigned; callers that care about the
// original signedness should inspect Tag() first.
func (vm *VM) Int64(v Value) (int64, bool) {
	switch v.Tag() {
	case TagInt:
		return int64(v.Int()), true
	case TagUint:
		return int64(v.Uint()), true
	case TagBoxed:
		switch b := vm.arena.get(v).(type) {
		case *Int64Box:
			return b.V, true
		case *Uint64Box:
			return int64(b.V), true
		}
	}
	return 0, false
}

func (vm *VM) Str(v Value) (string, bool) {
	if v.Tag() != TagBoxed {
		return "", false
	}
	b, ok := vm.arena.get(v).(*StringBox)
	if !ok {
		return "", false
	}
	return b.V, true
}
