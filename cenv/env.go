// Package cenv implements the compile-time environment: a non-empty stack
// of lexical frames, each with a hash table mapping names to declarations
// and an independent table for offset-unit names (spec §3.3). Lookups
// return a (back, over) lexical address that the code generator translates
// directly into PUSHVAR/POPVAR/SETVAR instructions; the run-time frame
// stack built by pvm is required to stay isomorphic to this one at every
// program point (spec §3.4, §8 "Lexical-address stability").
//
// Grounded on lang/resolver/resolver.go's block/push/pop/bind/use model,
// generalized from a single name table per block to cenv's two independent
// tables (values/types share the "main" namespace but draw their ordinals
// from two separate counters per spec §3.3; units are tracked separately), and from a
// single-shot resolve to a long-lived, speculatively-rollback-able
// environment (DupTopLevel) the way a REPL needs.
package cenv

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/poke-lang/poke/ast"
)

// Decl is what a name in the "main" namespace resolves to: the declaring
// AST node plus the lexical address assigned when it was registered.
type Decl struct {
	Node ast.Node
	Kind ast.DeclKind
	Back int // always 0 when looked up in the frame that declared it
	Over int
	Typ  ast.Type
}

// Frame is one lexical scope's worth of bindings, stacked at compile time
// as declarations (spec glossary "Frame").
type Frame struct {
	parent *Frame

	names *swiss.Map[string, *Decl]
	units *swiss.Map[string, *Decl]

	// nTypes and nSlots are tracked separately so each declaration
	// gets a frame-local ordinal within its own namespace (spec §3.3
	// "each frame counts, separately, its declared types and its declared
	// value/function slots").
	nTypes int
	nSlots int
}

func newFrame(parent *Frame) *Frame {
	return &Frame{
		parent: parent,
		names:  swiss.NewMap[string, *Decl](8),
		units:  swiss.NewMap[string, *Decl](4),
	}
}

// Env is the compile-time environment: a non-empty stack of Frames (spec
// §3.3). The zero value is not usable; construct with New.
type Env struct {
	top *Frame // innermost (current) frame
	// root keeps a reference to the outermost frame, so DupTopLevel can
	// reach it without walking the whole stack.
	root *Frame
}

// New creates an environment with a single top-level frame.
func New() *Env {
	f := newFrame(nil)
	return &Env{top: f, root: f}
}

// PushFrame opens a new lexical scope, nested inside the current one.
func (e *Env) PushFrame() {
	e.top = newFrame(e.top)
}

// PopFrame closes the current (innermost) frame. Popping the top-level
// frame is an error (spec §4.3).
func (e *Env) PopFrame() error {
	if e.top.parent == nil {
		return fmt.Errorf("cenv: cannot pop the top-level frame")
	}
	e.top = e.top.parent
	return nil
}

// Depth reports how many frames are currently on the stack, 1 at the
// top-level.
func (e *Env) Depth() int {
	n := 0
	for f := e.top; f != nil; f = f.parent {
		n++
	}
	return n
}

// Register binds name to decl in the current frame's "main" namespace,
// returning false if name is already declared in this frame (spec §4.3
// register(ns, name, decl)). On success, decl.Back is 0 and decl.Over is
// the frame-local ordinal within its own namespace (types and value/func
// slots are counted independently, spec §3.3).
func (e *Env) Register(name string, node ast.Node, kind ast.DeclKind, typ ast.Type) (*Decl, bool) {
	f := e.top
	if _, ok := f.names.Get(name); ok {
		return nil, false
	}
	d := &Decl{Node: node, Kind: kind, Back: 0, Typ: typ}
	if kind == ast.DeclType {
		d.Over = f.nTypes
		f.nTypes++
	} else {
		d.Over = f.nSlots
		f.nSlots++
	}
	f.names.Put(name, d)
	return d, true
}

// RegisterUnit binds name as an offset-unit declaration in the current
// frame's independent units table (spec §3.3).
func (e *Env) RegisterUnit(name string, node ast.Node, typ ast.Type) (*Decl, bool) {
	f := e.top
	if _, ok := f.units.Get(name); ok {
		return nil, false
	}
	d := &Decl{Node: node, Kind: ast.DeclUnit, Typ: typ}
	f.units.Put(name, d)
	return d, true
}

// Lookup searches outward from the current frame for name in the "main"
// namespace, returning the declaration and its lexical address relative to
// the current frame (spec §4.3 lookup(ns, name)).
func (e *Env) Lookup(name string) (*Decl, bool) {
	back := 0
	for f := e.top; f != nil; f, back = f.parent, back+1 {
		if d, ok := f.names.Get(name); ok {
			addr := *d
			addr.Back = back
			return &addr, true
		}
	}
	return nil, false
}

// LookupUnit searches outward for an offset-unit declaration named name.
func (e *Env) LookupUnit(name string) (*Decl, bool) {
	back := 0
	for f := e.top; f != nil; f, back = f.parent, back+1 {
		if d, ok := f.units.Get(name); ok {
			addr := *d
			addr.Back = back
			return &addr, true
		}
	}
	return nil, false
}

// DupTopLevel shallow-copies the single top-level frame (references to its
// declarations, not the declarations themselves) so a speculative
// compilation can be rolled back without mutating the live environment
// (spec §3.3, §5 "Shared-resource policy"). The returned Env shares no
// mutable state with e; registering into it never affects e.
func (e *Env) DupTopLevel() *Env {
	cp := newFrame(nil)
	e.root.names.Iter(func(name string, d *Decl) bool {
		cp.names.Put(name, d)
		return false
	})
	e.root.units.Iter(func(name string, d *Decl) bool {
		cp.units.Put(name, d)
		return false
	})
	cp.nTypes = e.root.nTypes
	cp.nSlots = e.root.nSlots
	return &Env{top: cp, root: cp}
}

// Adopt replaces e's top-level frame with other's top-level frame,
// atomically publishing a successful speculative compilation (spec §5: "a
// REPL compiling a new declaration... atomically replaces the live frame
// only after success"). other must be a value returned by DupTopLevel
// (i.e. a single-frame environment) and must not still be in use.
func (e *Env) Adopt(other *Env) {
	if other.root != other.top {
		panic("cenv: Adopt requires a single-frame (top-level only) environment")
	}
	e.root = other.root
	e.top = other.root
}

// IterFunc is called once per (name, decl) pair by Iterate.
type IterFunc func(name string, d *Decl) bool

// Iterate walks every entry in the current frame, for REPL introspection
// (spec §4.3 iter_begin/next/end/map_decls). Returning false from fn stops
// iteration early.
func (e *Env) Iterate(fn IterFunc) {
	e.top.names.Iter(func(name string, d *Decl) bool {
		return !fn(name, d)
	})
}
