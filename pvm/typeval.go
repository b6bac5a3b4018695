package pvm

import "github.com/poke-lang/poke/ast"

// TypeBox makes a compile-time Type a first-class run-time value,
// compared structurally per the type-equality rules sema/typify1.go
// already implements for compile-time type checking (spec §3.1 "Type
// values are first-class and support equality by structural rules").
type TypeBox struct{ T ast.Type }

func (b *TypeBox) typeName() string { return "type" }
func (b *TypeBox) str(*VM) string   { return b.T.String() }

func (vm *VM) NewType(t ast.Type) Value { return vm.arena.alloc(&TypeBox{T: t}) }

func (vm *VM) TypeOf(v Value) (ast.Type, bool) {
	if v.Tag() != TagBoxed {
		return nil, false
	}
	b, ok := vm.arena.get(v).(*TypeBox)
	if !ok {
		return nil, false
	}
	return b.T, true
}
