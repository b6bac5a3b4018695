package pvm

import (
	"fmt"

	"modernc.org/mathutil"
)

// Offset is a first-class magnitude x unit value, unit a positive count
// of bits (spec §3.1, glossary "Offset (PVM)"). Arithmetic normalizes
// both operands' units to their GCD (spec §4.5 "arithmetic on offsets
// normalizes to GCD of units").
type Offset struct {
	Magnitude int64
	Unit      uint64 // positive
}

// Bits is o's value expressed as a plain bit count.
func (o Offset) Bits() int64 { return o.Magnitude * int64(o.Unit) }

// Add normalizes both operands to the GCD of their units before summing
// magnitudes, per spec §4.5.
func (o Offset) Add(p Offset) Offset {
	g := mathutil.GCDUint64(o.Unit, p.Unit)
	return Offset{
		Magnitude: o.Magnitude*int64(o.Unit/g) + p.Magnitude*int64(p.Unit/g),
		Unit:      g,
	}
}

// Sub is Add with p's magnitude negated after normalization.
func (o Offset) Sub(p Offset) Offset {
	g := mathutil.GCDUint64(o.Unit, p.Unit)
	return Offset{
		Magnitude: o.Magnitude*int64(o.Unit/g) - p.Magnitude*int64(p.Unit/g),
		Unit:      g,
	}
}

// OffsetBox is the boxed carrier for a first-class Offset value.
type OffsetBox struct{ V Offset }

func (b *OffsetBox) typeName() string { return "offset" }
func (b *OffsetBox) str(*VM) string   { return fmt.Sprintf("%d#%d", b.V.Magnitude, b.V.Unit) }

func (vm *VM) NewOffset(o Offset) Value { return vm.arena.alloc(&OffsetBox{V: o}) }

func (vm *VM) OffsetOf(v Value) (Offset, bool) {
	if v.Tag() != TagBoxed {
		return Offset{}, false
	}
	b, ok := vm.arena.get(v).(*OffsetBox)
	if !ok {
		return Offset{}, false
	}
	return b.V, true
}
