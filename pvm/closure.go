package pvm

import "github.com/poke-lang/poke/codegen"

// ClosureBox carries compiled code and the environment captured at the
// point of creation (spec §3.1).
type ClosureBox struct {
	Fn  *codegen.Funcode
	Env *Frame // captured lexical chain, nil for a closure made at top level
}

func (b *ClosureBox) typeName() string { return "function" }
func (b *ClosureBox) str(*VM) string   { return "function " + b.Fn.Name }

func (vm *VM) NewClosure(fn *codegen.Funcode, env *Frame) Value {
	return vm.arena.alloc(&ClosureBox{Fn: fn, Env: env})
}

func (vm *VM) Closure(v Value) (*ClosureBox, bool) {
	if v.Tag() != TagBoxed {
		return nil, false
	}
	b, ok := vm.arena.get(v).(*ClosureBox)
	return b, ok
}
