// Package pass implements the generic pass driver (spec §4.4): a
// depth-first tree walker that, for each phase and each visited node,
// dispatches in priority order to a node-code handler, an op-code handler
// (for expression nodes), and a type-code handler (for type nodes), each of
// which may run before children are visited (PR) or after (PS).
//
// Grounded structurally on lang/compiler/compiler.go's traversal
// bookkeeping (one function walks the tree once, accumulating state keyed
// by node identity) generalized from a single CFG-builder walk into an
// N-phase, pre/post, three-way-keyed dispatch table, per DESIGN NOTES §9's
// recommendation that this shape be lifted out of the phases into its own
// reusable driver. Dispatch tables are plain Go maps, as the teacher does
// for opcodeNames and friends; no ecosystem library covers tagged-union
// AST dispatch.
package pass

import (
	"fmt"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/token"
)

// Directive is returned by a Handler to steer the driver.
type Directive int

const (
	// Continue proceeds normally: PR handlers continue into children, PS
	// handlers continue to the next sibling.
	Continue Directive = iota
	// Restart asks the driver to revisit the current node from the top
	// (its PR handlers run again) after this invocation returns. Used
	// when a handler rewrites the node in place and the rewritten form
	// must itself be processed (spec §4.4).
	Restart
	// Subpass asks the driver to run the remaining phases of the current
	// Do call over the current node's subtree immediately, without
	// re-entering the main traversal.
	Subpass
	// Done skips any remaining handlers for this node in this phase
	// (other discriminators at this same PR/PS point are not called).
	// Returned from a PR handler, it also skips the node's children and
	// its PS handlers.
	Done
	// Error aborts the current phase.
	Error
)

// Handler is called for one (node, phase) combination. order is PR
// (before descending into children) or PS (after). Returning a non-nil
// error together with Error forces phase abort; a payload error counter
// should be incremented by the handler itself before returning Error, per
// spec §4.5 ("each phase records its error count in its payload").
type Handler func(n ast.Node, order Order) (Directive, error)

// Order distinguishes pre-order from post-order handler invocation.
type Order int

const (
	PR Order = iota
	PS
)

// Phase is one named entry in a pipeline: independent handler tables keyed
// by node code, expression operator code, and type code, plus a single
// catch-all "source node" handler invoked for every node regardless of its
// code.
type Phase struct {
	Name string

	byCode  map[ast.Code]Handler
	byOp    map[ast.Code]Handler // keyed by ast.Code(token.Token)
	byType  map[ast.Code]Handler
	anyNode Handler

	// Flags controls traversal behavior for this phase.
	Flags Flags

	errors   int
	warnings int
}

// Flags is a bitset of per-phase traversal options.
type Flags uint

const (
	// FTypes selects whether type subtrees are descended into (spec §4.4).
	FTypes Flags = 1 << iota
)

// NewPhase creates an empty phase ready for handler registration.
func NewPhase(name string, flags Flags) *Phase {
	return &Phase{
		Name:   name,
		byCode: make(map[ast.Code]Handler),
		byOp:   make(map[ast.Code]Handler),
		byType: make(map[ast.Code]Handler),
		Flags:  flags,
	}
}

// OnCode registers a handler for every node of the given code.
func (p *Phase) OnCode(code ast.Code, order Order, h Handler) {
	p.register(p.byCode, code, order, h)
}

// OnOp registers a handler for expression nodes whose operator matches op.
// Only *ast.BinExpr and *ast.UnExpr carry an operator; the driver extracts
// it via opOf.
func (p *Phase) OnOp(op token.Token, order Order, h Handler) {
	p.register(p.byOp, ast.Code(op), order, h)
}

// OnType registers a handler for type nodes of the given code.
func (p *Phase) OnType(code ast.Code, order Order, h Handler) {
	p.register(p.byType, code, order, h)
}

// OnAny registers the "source node" handler, called for every node
// regardless of code, at the given order, after the more specific
// handlers.
func (p *Phase) OnAny(order Order, h Handler) {
	wrapped := wrapOrder(order, h)
	if p.anyNode == nil {
		p.anyNode = wrapped
		return
	}
	prev := p.anyNode
	p.anyNode = func(n ast.Node, o Order) (Directive, error) {
		if d, err := prev(n, o); d != Continue || err != nil {
			return d, err
		}
		return wrapped(n, o)
	}
}

// register composes a new order-filtered handler onto any existing entry
// for key, so a phase may register both a PR and a PS handler for the same
// discriminator.
func (p *Phase) register(table map[ast.Code]Handler, key ast.Code, order Order, h Handler) {
	wrapped := wrapOrder(order, h)
	if existing, ok := table[key]; ok {
		table[key] = func(n ast.Node, o Order) (Directive, error) {
			if d, err := existing(n, o); d != Continue || err != nil {
				return d, err
			}
			return wrapped(n, o)
		}
		return
	}
	table[key] = wrapped
}

func wrapOrder(order Order, h Handler) Handler {
	return func(n ast.Node, o Order) (Directive, error) {
		if o != order {
			return Continue, nil
		}
		return h(n, o)
	}
}

func opOf(n ast.Node) (token.Token, bool) {
	switch x := n.(type) {
	case *ast.BinExpr:
		return x.Op, true
	case *ast.UnExpr:
		return x.Op, true
	}
	return token.ILLEGAL, false
}

// Do runs phases in order over ast's root (spec §4.4 do_pass). It returns
// the first error reported by an Error directive, or nil if every phase
// completed with a zero error count. A phase whose payload error count
// becomes positive aborts the whole pipeline, matching spec §4.5.
func Do(root ast.Node, phases []*Phase) error {
	d := &driver{phases: phases}
	for i, p := range phases {
		d.cur = i
		if err := d.runPhase(p, root); err != nil {
			return err
		}
		if p.errors > 0 {
			return fmt.Errorf("pass %q: %d error(s)", p.Name, p.errors)
		}
	}
	return nil
}

// ErrorCount reports the error count accumulated on p so far (spec §4.5
// "each phase records its error count in its payload").
func (p *Phase) ErrorCount() int { return p.errors }

// WarningCount reports p's accumulated warning count.
func (p *Phase) WarningCount() int { return p.warnings }

// AddError increments p's error counter, to be called by handlers that
// report a diagnostic (spec §7 tier 2).
func (p *Phase) AddError() { p.errors++ }

// AddWarning increments p's warning counter, promoted to an error by the
// caller when error-on-warning is set (spec §7 "Warnings are promoted to
// errors iff error_on_warning is set on the compiler").
func (p *Phase) AddWarning() { p.warnings++ }

type driver struct {
	phases []*Phase
	cur    int
}

// runPhase performs one depth-first traversal of root for phase p,
// implementing the restart/subpass/done/error directives (spec §4.4).
func (d *driver) runPhase(p *Phase, root ast.Node) error {
	return d.visit(p, root)
}

func (d *driver) visit(p *Phase, n ast.Node) error {
	if n == nil {
		return nil
	}

restart:
	dir, err := d.dispatch(p, n, PR)
	if err != nil {
		return err
	}
	switch dir {
	case Error:
		p.AddError()
		return fmt.Errorf("pass %q: handler reported an error on node %d (%s)", p.Name, n.Base().UID(), n.Code())
	case Restart:
		goto restart
	case Subpass:
		return d.subpass(n)
	case Done:
		return nil
	}

	if _, isType := n.(ast.TypeNode); !isType || p.Flags&FTypes != 0 {
		w := &childWalker{d: d, p: p}
		n.Walk(w)
		if w.err != nil {
			return w.err
		}
	}

	dir, err = d.dispatch(p, n, PS)
	if err != nil {
		return err
	}
	switch dir {
	case Error:
		p.AddError()
		return fmt.Errorf("pass %q: handler reported an error on node %d (%s)", p.Name, n.Base().UID(), n.Code())
	case Restart:
		goto restart
	case Subpass:
		return d.subpass(n)
	}
	return nil
}

// childWalker adapts the driver into an ast.Visitor so Node.Walk can
// recurse through it; it only acts on VisitEnter, performing the full
// visit/dispatch/recurse/dispatch cycle itself rather than relying on
// VisitExit, since ast.Walk's generic enter/exit shape doesn't carry
// per-phase directive handling.
type childWalker struct {
	d *driver
	p *Phase
	// err captures the first error encountered; ast.Visitor has no error
	// return, so it is smuggled out via this field and surfaced by the
	// caller after Walk returns.
	err error
}

func (w *childWalker) Visit(n ast.Node, dir ast.VisitDirection) ast.Visitor {
	if dir != ast.VisitEnter || n == nil || w.err != nil {
		return nil
	}
	if err := w.d.visit(w.p, n); err != nil {
		w.err = err
	}
	// Returning nil tells ast.Walk not to recurse further itself: this
	// visitor's own d.visit call already recursed into n's children.
	return nil
}

// subpass runs every remaining phase (after the current one) over n's
// subtree immediately, without re-entering the caller's traversal (spec
// §4.4 "subpass").
func (d *driver) subpass(n ast.Node) error {
	for i := d.cur + 1; i < len(d.phases); i++ {
		sub := &driver{phases: d.phases, cur: i}
		if err := sub.runPhase(d.phases[i], n); err != nil {
			return err
		}
		if d.phases[i].errors > 0 {
			return fmt.Errorf("pass %q: %d error(s)", d.phases[i].Name, d.phases[i].errors)
		}
	}
	return nil
}

// dispatch calls, in priority order, the node-code handler, the op-code
// handler (if n is an expression with an operator), the type-code handler
// (if n is a type node), and finally the catch-all handler, for the given
// order. The first non-Continue directive short-circuits the rest.
func (d *driver) dispatch(p *Phase, n ast.Node, order Order) (Directive, error) {
	if h, ok := p.byCode[n.Code()]; ok {
		if dir, err := h(n, order); dir != Continue || err != nil {
			return dir, err
		}
	}
	if op, ok := opOf(n); ok {
		if h, ok := p.byOp[ast.Code(op)]; ok {
			if dir, err := h(n, order); dir != Continue || err != nil {
				return dir, err
			}
		}
	}
	if _, isType := n.(ast.TypeNode); isType {
		if h, ok := p.byType[n.Code()]; ok {
			if dir, err := h(n, order); dir != Continue || err != nil {
				return dir, err
			}
		}
	}
	if p.anyNode != nil {
		return p.anyNode(n, order)
	}
	return Continue, nil
}
