package codegen

import (
	"fmt"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/token"
)

// Missing is the constant pushed in place of an omitted optional argument
// (spec §4.5 typify1 leaves such a FuncallArg.Value nil after reordering);
// the callee's own prologue substitutes the formal's default.
type Missing struct{}

// Compile walks prog once and produces its Program, per spec §4.6. prog
// must already have passed every phase in spec §4.5 — codegen panics on a
// shape it cannot have seen from a fully-decorated AST (e.g. a FuncallExpr
// whose callee never typed) rather than re-diagnosing it.
func Compile(prog *ast.Program) *Program {
	pc := &pcomp{
		prog:      &Program{},
		constants: make(map[interface{}]uint32),
	}
	pc.function("<top>", nil, prog.Body) // registered first, so Functions[0]
	return pc.prog
}

// pcomp holds module-wide state shared by every function compiled from the
// same Program (spec §4.6), grounded on lang/compiler/compiler.go's pcomp.
type pcomp struct {
	prog      *Program
	constants map[interface{}]uint32
}

func (pc *pcomp) constant(v interface{}) uint32 {
	if idx, ok := pc.constants[v]; ok {
		return idx
	}
	idx := uint32(len(pc.prog.Constants))
	pc.prog.Constants = append(pc.prog.Constants, v)
	pc.constants[v] = idx
	return idx
}

// function compiles one function body (top-level or LambdaExpr) into a
// Funcode, registering it (and any functions nested within it) into
// pc.prog.Functions, and returns it.
func (pc *pcomp) function(name string, params []*ast.FuncArg, body *ast.CompStmt) *Funcode {
	fn := &Funcode{Name: name, NumParams: len(params), VarargIndex: -1}
	for i, p := range params {
		fn.Locals = append(fn.Locals, Binding{Name: p.Name, Kind: ast.DeclVar})
		if p.Vararg {
			fn.VarargIndex = i
		}
	}
	idx := uint32(len(pc.prog.Functions))
	pc.prog.Functions = append(pc.prog.Functions, fn)

	fc := &fcomp{pc: pc, fn: fn, funcIdx: idx}
	fc.entry = fc.newBlock()
	fc.block = fc.entry
	fc.defaultsPrologue(params)
	fc.compStmt(body)
	if fc.block != nil {
		fc.emit(CONSTANT, pc.constant(nil))
		fc.emit(RETURN, 0)
	}
	fc.linearize()
	return fn
}

// defaultsPrologue emits, for each optional non-vararg parameter that
// declares a default, the test-and-substitute sequence binding the
// caller's Missing sentinel (an omitted FuncallArg, spec §4.5) to the
// formal's own default expression. A vararg parameter needs no such
// test: the interpreter itself collects its tail into an array at call
// time (Funcode.VarargIndex), never leaving it Missing.
func (fc *fcomp) defaultsPrologue(params []*ast.FuncArg) {
	for i, p := range params {
		if !p.Optional || p.Vararg || p.Default == nil {
			continue
		}
		fc.emit(PUSHVAR, pack(0, i))
		fc.emit(ISMISSING, 0)
		useDefault := fc.newBlock()
		fc.condJumpTo(useDefault)
		supplied := fc.block // false successor: the caller supplied a value
		after := fc.newBlock()

		fc.block = useDefault
		fc.expr(p.Default)
		fc.emit(SETVAR, pack(0, i))
		fc.jumpTo(after)

		fc.block = supplied
		fc.jumpTo(after)

		fc.block = after
	}
}

// loopCtx records the jump targets for break/continue within one enclosing
// loop (spec §4.5's BreakStmt/ContinueStmt weak back-edges become plain
// block targets once resolved to addresses here).
type loopCtx struct {
	brk, cont *block
}

// fcomp holds the compiler state for one Funcode, grounded on
// lang/compiler/compiler.go's fcomp.
type fcomp struct {
	pc      *pcomp
	fn      *Funcode
	funcIdx uint32

	entry *block
	block *block // current insertion point; nil once the block has ended (RETURN/RAISE/JMP)
	loops []loopCtx
}

// block is one straight-line run of instructions ending in a RETURN/RAISE
// (no successor), a JMP (jmp is the sole successor) or a CJMP (jmp/cjmp are
// the false/true successors) — mirrors lang/compiler/compiler.go's block.
type block struct {
	insns []Instruction
	// jmpArgIdx/cjmpArgIdx, if non-negative, is the index within insns of
	// the JMP/CJMP whose Arg field must be patched with jmp's/cjmp's
	// resolved address.
	jmp, cjmp *block
	jmpArgIdx, cjmpArgIdx int

	initialstack int
	index        int // -1 until linearized
	addr         uint32
}

func (fc *fcomp) newBlock() *block {
	return &block{index: -1, jmpArgIdx: -1, cjmpArgIdx: -1}
}

// emit appends an instruction to the current block and returns its index
// within that block (for later patching of a jump argument).
func (fc *fcomp) emit(op Opcode, arg uint32) int {
	if fc.block == nil {
		return -1 // dead code after an unconditional exit; never executed
	}
	fc.block.insns = append(fc.block.insns, Instruction{Op: op, Arg: arg})
	return len(fc.block.insns) - 1
}

// jumpTo ends the current block with an unconditional jump to target.
func (fc *fcomp) jumpTo(target *block) {
	if fc.block == nil {
		return
	}
	idx := fc.emit(JMP, 0)
	fc.block.jmp = target
	fc.block.jmpArgIdx = idx
	fc.block = nil
}

// condJumpTo ends the current block with CJMP to trueTarget, falling
// through to a fresh block that becomes the new current block and is wired
// as the false successor.
func (fc *fcomp) condJumpTo(trueTarget *block) {
	idx := fc.emit(CJMP, 0)
	b := fc.block
	b.cjmp = trueTarget
	b.cjmpArgIdx = idx
	next := fc.newBlock()
	b.jmp = next
	fc.block = next
}

// linearize computes block order/address (DFS following jmp, matching the
// teacher's visit()), patches every jump argument to the resolved address
// and flattens the reachable blocks into fn.Code. MaxStack is computed
// alongside, grounded on compiler.go's stack-depth tracking.
func (fc *fcomp) linearize() {
	var order []*block
	var pc uint32
	maxstack := 0

	var visit func(b *block, stack int)
	visit = func(b *block, stack int) {
		if b.index >= 0 {
			return
		}
		b.index = len(order)
		b.addr = pc
		b.initialstack = stack
		order = append(order, b)
		pc += uint32(len(b.insns))

		depth := stack
		for _, insn := range b.insns {
			depth += effectOf(insn)
			if depth > maxstack {
				maxstack = depth
			}
		}

		if b.jmp != nil {
			visit(b.jmp, depth) // no-op if already visited (e.g. a backward loop jump)
		}
		if b.cjmp != nil {
			visit(b.cjmp, depth)
		}
	}
	visit(fc.entry, 0)

	// A second pass resolves jump addresses now that every reachable block
	// has a final addr (blocks are appended in visit order above, but a
	// backward jump's target may have been visited before its addr was
	// needed, and a forward jump's target may not have existed yet at
	// patch time), then flattens.
	for _, b := range order {
		if b.jmpArgIdx >= 0 && b.jmp != nil {
			b.insns[b.jmpArgIdx].Arg = b.jmp.addr
		}
		if b.cjmpArgIdx >= 0 && b.cjmp != nil {
			b.insns[b.cjmpArgIdx].Arg = b.cjmp.addr
		}
		fc.fn.Code = append(fc.fn.Code, b.insns...)
	}
	fc.fn.MaxStack = maxstack
}

func effectOf(insn Instruction) int {
	if int(insn.Op) < len(stackEffect) {
		se := stackEffect[insn.Op]
		if se != variableStackEffect {
			return se
		}
	}
	switch insn.Op {
	case CALL:
		positional, named := unpack(insn.Arg)
		return -(1 + positional + named) + 1 // fn + args popped, result pushed
	case MAKEARRAY:
		return -int(insn.Arg) + 1
	case MAKESTRUCT:
		n, _ := unpackStruct(insn.Arg)
		return -n + 1
	case PRINT:
		n, _ := unpack(insn.Arg)
		return -n
	}
	return 0
}

// ---- statements ----

func (fc *fcomp) compStmt(cs *ast.CompStmt) {
	if fc.block != nil {
		fc.emit(PUSHF, uint32(len(cs.Stmts)))
	}
	for _, s := range cs.Stmts {
		fc.stmt(s)
	}
	if fc.block != nil {
		fc.emit(POPF, 0)
	}
}

func (fc *fcomp) stmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.ExprStmt:
		fc.expr(st.Expr)
		fc.emit(POP, 0)

	case *ast.NullStmt:
		// nothing to emit

	case *ast.DeclStmt:
		fc.declStmt(st)

	case *ast.AssignStmt:
		fc.assign(st.Left, st.Right)

	case *ast.IfStmt:
		fc.expr(st.Cond)
		trueBlock := fc.newBlock()
		fc.condJumpTo(trueBlock)
		falseBlock := fc.block
		after := fc.newBlock()

		fc.block = trueBlock
		fc.compStmt(st.True)
		fc.jumpTo(after)

		fc.block = falseBlock
		if st.False != nil {
			fc.compStmt(st.False)
		}
		fc.jumpTo(after)

		fc.block = after

	case *ast.LoopStmt:
		fc.loopStmt(st)

	case *ast.ForStmt:
		fc.forStmt(st)

	case *ast.BreakStmt:
		if len(fc.loops) > 0 {
			fc.jumpTo(fc.loops[len(fc.loops)-1].brk)
		}

	case *ast.ContinueStmt:
		if len(fc.loops) > 0 {
			fc.jumpTo(fc.loops[len(fc.loops)-1].cont)
		}

	case *ast.ReturnStmt:
		if st.Value != nil {
			fc.expr(st.Value)
		} else {
			fc.emit(CONSTANT, fc.pc.constant(nil))
		}
		fc.emit(RETURN, 0)
		fc.block = nil

	case *ast.TryStmt:
		fc.tryStmt(st)

	case *ast.RaiseStmt:
		if st.Value != nil {
			fc.expr(st.Value)
		} else {
			fc.emit(CONSTANT, fc.pc.constant(nil)) // re-raise: the VM substitutes the active exception
		}
		fc.emit(RAISE, 0)
		fc.block = nil

	case *ast.PrintStmt:
		for _, a := range st.Args {
			fc.expr(a)
		}
		fc.emit(PRINT, packCall(len(st.Args), int(fc.pc.constant(st.Format))))

	case *ast.CompStmt:
		fc.compStmt(st)

	default:
		panic(fmt.Sprintf("codegen: unhandled statement %T", s))
	}
}

func (fc *fcomp) declStmt(st *ast.DeclStmt) {
	switch st.Kind {
	case ast.DeclType, ast.DeclUnit:
		// compile-time only; no run-time slot.
	case ast.DeclFunc:
		fc.fn.Locals = append(fc.fn.Locals, Binding{Name: st.Name, Kind: st.Kind})
		lam := st.Value.(*ast.LambdaExpr)
		fn := fc.pc.function(st.Name, lam.Args, lam.Body)
		fc.emit(MAKECLOSURE, fc.fnIndex(fn))
		fc.emit(POPVAR, pack(st.Back, st.Over))
	case ast.DeclVar:
		fc.fn.Locals = append(fc.fn.Locals, Binding{Name: st.Name, Kind: st.Kind})
		if st.Value != nil {
			fc.expr(st.Value)
		} else {
			fc.emit(CONSTANT, fc.pc.constant(nil))
		}
		fc.emit(POPVAR, pack(st.Back, st.Over))
	}
}

func (fc *fcomp) fnIndex(fn *Funcode) uint32 {
	for i, f := range fc.pc.prog.Functions {
		if f == fn {
			return uint32(i)
		}
	}
	panic("codegen: function not registered")
}

func (fc *fcomp) assign(left, right ast.Expr) {
	switch l := left.(type) {
	case *ast.VarRefExpr:
		fc.expr(right)
		fc.emit(SETVAR, pack(l.Back, l.Over))
	case *ast.FieldRefExpr:
		fc.expr(l.Operand)
		fc.expr(right)
		fc.emit(SETFIELD, fc.pc.constant(l.Name))
	case *ast.IndexerExpr:
		fc.expr(l.Container)
		fc.expr(l.Index)
		fc.expr(right)
		fc.emit(SETINDEX, 0)
	default:
		panic(fmt.Sprintf("codegen: unassignable lvalue %T", left))
	}
}

func (fc *fcomp) loopStmt(st *ast.LoopStmt) {
	head := fc.newBlock()
	body := fc.newBlock()
	after := fc.newBlock()
	lc := loopCtx{brk: after, cont: head}
	fc.loops = append(fc.loops, lc)

	if st.Until {
		fc.jumpTo(body)
	} else {
		fc.jumpTo(head)
	}

	fc.block = head
	fc.expr(st.Cond)
	fc.condJumpTo(body)
	fc.jumpTo(after) // false successor of the CJMP above

	fc.block = body
	fc.compStmt(st.Body)
	fc.jumpTo(head)

	fc.loops = fc.loops[:len(fc.loops)-1]
	fc.block = after
}

// forStmt compiles a for-in loop. The container's iteration protocol is a
// run-time concern (ITERPUSH/ITERJMP territory in the teacher); poke's
// iteration is over arrays and structs of known shape, so codegen instead
// lowers it to an explicit index-counting loop against LEN/INDEX-shaped
// run-time operations the way a hand-written desugaring would, keeping the
// code generator itself decision-free (spec §4.6).
func (fc *fcomp) forStmt(st *ast.ForStmt) {
	fc.expr(st.Container)
	fc.emit(PUSHF, 1)
	fc.emit(POPVAR, pack(0, 0)) // container, slot 0 of the synthetic frame

	idxSlot := 1
	fc.emit(CONSTANT, fc.pc.constant(int64(0)))
	fc.emit(POPVAR, pack(0, idxSlot))

	head := fc.newBlock()
	body := fc.newBlock()
	after := fc.newBlock()
	lc := loopCtx{brk: after, cont: head}
	fc.loops = append(fc.loops, lc)

	fc.jumpTo(head)
	fc.block = head
	fc.emit(PUSHVAR, pack(0, idxSlot))
	fc.emit(PUSHVAR, pack(0, 0))
	fc.emit(LEN, 0)
	fc.emit(LT, 0)
	fc.condJumpTo(body)
	fc.jumpTo(after)

	fc.block = body
	fc.emit(PUSHVAR, pack(0, 0))
	fc.emit(PUSHVAR, pack(0, idxSlot))
	fc.emit(INDEX, 0)
	for i := range st.IterVars {
		_ = i
		fc.emit(POPVAR, pack(0, idxSlot+1+i))
	}
	fc.compStmt(st.Body)
	fc.emit(PUSHVAR, pack(0, idxSlot))
	fc.emit(CONSTANT, fc.pc.constant(int64(1)))
	fc.emit(PLUS, 0)
	fc.emit(SETVAR, pack(0, idxSlot))
	fc.jumpTo(head)

	fc.loops = fc.loops[:len(fc.loops)-1]
	fc.block = after
	fc.emit(POPF, 0)
}

func (fc *fcomp) tryStmt(st *ast.TryStmt) {
	catch := fc.newBlock()
	after := fc.newBlock()

	idx := fc.emit(TRY, 0)
	tryBlock := fc.block
	// catch is reached only by a run-time unwind, never by fall-through, but
	// linearize's visit() needs a static edge to know catch is reachable and
	// to assign it an address; tryBlock.cjmp carries that edge purely for
	// that bookkeeping (TRY itself does not branch).
	tryBlock.cjmp = catch
	tryBlock.cjmpArgIdx = idx

	fc.compStmt(st.Body)
	fc.emit(ENDTRY, 0)
	fc.jumpTo(after)

	fc.block = catch
	for _, c := range st.Catches {
		fc.catchClause(c, after)
	}
	// No clause matched (or the list was empty, which anal2 forbids for a
	// user program but is still safe here): re-raise the live exception.
	if fc.block != nil {
		fc.emit(RAISE, 0)
		fc.block = nil
	}

	fc.block = after
}

// catchClause compiles one catch arm. At entry (and at the start of every
// subsequent arm's test), the raised exception value is on top of the
// operand stack — the VM's unwind-to-marker contract (spec §4.7) hands it
// over once. An arm DUPs it only to bind it to the arm's name; the guard
// does not consume it, so it stays on the stack for the next arm's test
// and is popped by the arm that matches.
func (fc *fcomp) catchClause(c *ast.CatchClause, after *block) {
	if fc.block == nil {
		return
	}
	fc.emit(PUSHF, 1)
	if c.Name != "" {
		fc.emit(DUP, 0)
		fc.emit(POPVAR, pack(0, 0))
	}

	if c.Cond == nil {
		// Unconditional: anal2 requires this to be the last clause.
		fc.emit(POP, 0) // drop the exception value
		fc.compStmt(c.Body)
		fc.emit(POPF, 0)
		fc.jumpTo(after)
		return
	}

	fc.condValue(c.Cond)
	matched := fc.newBlock()
	fc.condJumpTo(matched)
	next := fc.block // false successor: try the next clause
	fc.emit(POPF, 0)

	fc.block = matched
	fc.emit(POP, 0) // drop the exception value, it matched
	fc.compStmt(c.Body)
	fc.emit(POPF, 0)
	fc.jumpTo(after)

	fc.block = next
}

// condValue compiles a catch guard's statement block, leaving its last
// expression's value on the stack as the boolean test result (every
// non-final statement is compiled for effect and discarded).
func (fc *fcomp) condValue(cs *ast.CompStmt) {
	for i, s := range cs.Stmts {
		if i == len(cs.Stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok {
				fc.expr(es.Expr)
				return
			}
		}
		fc.stmt(s)
	}
	fc.emit(CONSTANT, fc.pc.constant(int64(1))) // empty guard: always matches
}

// ---- expressions ----

func (fc *fcomp) expr(e ast.Expr) {
	if b := e.Base(); b != nil && b.HasFolded {
		if b.FoldedIsStr {
			fc.emit(CONSTANT, fc.pc.constant(b.FoldedStr))
		} else {
			fc.emit(CONSTANT, fc.pc.constant(b.FoldedInt))
		}
		return
	}

	switch x := e.(type) {
	case *ast.IntegerLiteral:
		fc.emit(CONSTANT, fc.pc.constant(x.Value))
	case *ast.StringLiteral:
		fc.emit(CONSTANT, fc.pc.constant(x.Value))
	case *ast.Identifier:
		fc.emit(CONSTANT, fc.pc.constant(x.Name))
	case *ast.BinExpr:
		fc.binExpr(x)
	case *ast.UnExpr:
		fc.unExpr(x)
	case *ast.CondExpr:
		fc.condExpr(x)
	case *ast.CastExpr:
		fc.expr(x.Operand)
		fc.emit(CAST, fc.pc.constant(x.Target.Denoted))
	case *ast.IsaExpr:
		fc.expr(x.Operand)
		fc.emit(ISA, fc.pc.constant(x.Target.Denoted))
	case *ast.TypeofExpr:
		fc.expr(x.Operand)
		fc.emit(TYPEOF, 0)
	case *ast.SizeofExpr:
		// sizeof(T): typify2 already required T to be Complete(), so its
		// bit-size is a property of the type constant alone, carried the
		// same way CAST and ISA carry their target type: directly as the
		// instruction's own Arg, never pushed onto the operand stack via
		// CONSTANT.
		fc.emit(SIZEOF, fc.pc.constant(x.Target.Denoted))
	case *ast.ArrayExpr:
		fc.arrayExpr(x)
	case *ast.StructExpr:
		fc.structExpr(x)
	case *ast.FieldRefExpr:
		fc.expr(x.Operand)
		if x.ZeroArgCall {
			fc.emit(ATTR, fc.pc.constant(x.Name))
			fc.emit(CALL, packCall(0, 0))
		} else {
			fc.emit(ATTR, fc.pc.constant(x.Name))
		}
	case *ast.IndexerExpr:
		fc.expr(x.Container)
		fc.expr(x.Index)
		fc.emit(INDEX, 0)
	case *ast.TrimmerExpr:
		fc.expr(x.Container)
		fc.expr(x.From)
		fc.expr(x.To)
		// trans1 has already turned an addend into To = From + Addend, so
		// the step operand is always 1.
		fc.emit(CONSTANT, fc.pc.constant(int64(1)))
		fc.emit(SLICE, 0)
	case *ast.MapExpr:
		if x.IOS != nil {
			fc.expr(x.IOS)
		} else {
			fc.emit(CONSTANT, fc.pc.constant(nil))
		}
		fc.expr(x.Offset)
		fc.emit(MAP, fc.pc.constant(x.Target.Denoted))
	case *ast.ConsExpr:
		fc.expr(x.Left)
		fc.expr(x.Right)
		fc.emit(CONS, 0)
	case *ast.FuncallExpr:
		fc.funcallExpr(x)
	case *ast.VarRefExpr:
		fc.emit(PUSHVAR, pack(x.Back, x.Over))
		if x.ZeroArgCall {
			fc.emit(CALL, packCall(0, 0))
		}
	case *ast.LambdaExpr:
		fn := fc.pc.function("<lambda>", x.Args, x.Body)
		fc.emit(MAKECLOSURE, fc.fnIndex(fn))
	case *ast.OffsetExpr:
		fc.expr(x.Magnitude)
		fc.expr(x.Unit)
		fc.emit(OFFSET, 0)
	case *ast.AttrExpr:
		fc.expr(x.Operand)
		fc.emit(GETATTR, uint32(x.Attr))
	default:
		panic(fmt.Sprintf("codegen: unhandled expression %T", e))
	}
}

func (fc *fcomp) binExpr(be *ast.BinExpr) {
	switch be.Op {
	case token.AND:
		fc.expr(be.Left)
		fc.shortCircuit(be, true)
		return
	case token.OR:
		fc.expr(be.Left)
		fc.shortCircuit(be, false)
		return
	}

	fc.expr(be.Left)
	fc.expr(be.Right)
	fc.emit(binOpcode(be.Op), 0)
}

// shortCircuit compiles the right-hand side of && / || with lazy
// evaluation: the left operand is already on the stack when called. For
// isAnd, a falsy left short-circuits to the left value; for !isAnd, a
// truthy left does.
func (fc *fcomp) shortCircuit(be *ast.BinExpr, isAnd bool) {
	rhs := fc.newBlock()
	after := fc.newBlock()
	fc.emit(DUP, 0)
	if isAnd {
		fc.condJumpTo(rhs)   // true: CJMP to rhs to evaluate the right side
		fc.jumpTo(after)     // false: short-circuit, keep the falsy left value
	} else {
		fc.condJumpTo(after) // true: short-circuit, keep the truthy left value
		fc.jumpTo(rhs)       // false: fall through to evaluate the right side
	}

	fc.block = rhs
	fc.emit(POP, 0)
	fc.expr(be.Right)
	fc.jumpTo(after)

	fc.block = after
}

func (fc *fcomp) unExpr(ue *ast.UnExpr) {
	fc.expr(ue.Operand)
	switch ue.Op {
	case token.PLUS:
		fc.emit(UPLUS, 0)
	case token.MINUS:
		fc.emit(UMINUS, 0)
	case token.TILDE:
		fc.emit(UBITNOT, 0)
	case token.NOT:
		fc.emit(NOT, 0)
	default:
		panic(fmt.Sprintf("codegen: unhandled unary operator %s", ue.Op))
	}
}

func (fc *fcomp) condExpr(ce *ast.CondExpr) {
	fc.expr(ce.Cond)
	trueBlock := fc.newBlock()
	fc.condJumpTo(trueBlock)
	falseBlock := fc.block
	after := fc.newBlock()

	fc.block = trueBlock
	fc.expr(ce.True)
	fc.jumpTo(after)

	fc.block = falseBlock
	fc.expr(ce.False)
	fc.jumpTo(after)

	fc.block = after
}

func (fc *fcomp) arrayExpr(ae *ast.ArrayExpr) {
	for _, init := range ae.Initializers {
		fc.expr(init.Value)
	}
	fc.emit(MAKEARRAY, uint32(len(ae.Initializers)))
}

func (fc *fcomp) structExpr(se *ast.StructExpr) {
	names := make([]string, len(se.Fields))
	for i, f := range se.Fields {
		fc.expr(f.Value)
		names[i] = f.Name
	}
	namesIdx := fc.pc.constant(joinFieldNames(names))
	fc.emit(MAKESTRUCT, packStruct(len(se.Fields), namesIdx))
}

func (fc *fcomp) funcallExpr(fce *ast.FuncallExpr) {
	fc.expr(fce.Callee)
	named := 0
	for _, a := range fce.Args {
		if a.Value == nil {
			fc.emit(CONSTANT, fc.pc.constant(Missing{}))
		} else {
			fc.expr(a.Value)
		}
		if a.Name != "" {
			named++
		}
	}
	fc.emit(CALL, packCall(len(fce.Args)-named, named))
}

// binOpcode maps a binary operator token to its opcode (spec §4.6 "every
// choice has been resolved by prior phases" — the mapping itself carries no
// semantic decision, just a table lookup).
func binOpcode(op token.Token) Opcode {
	switch op {
	case token.LT:
		return LT
	case token.LE:
		return LE
	case token.GT:
		return GT
	case token.GE:
		return GE
	case token.EQEQ:
		return EQL
	case token.NEQ:
		return NEQ
	case token.PLUS:
		return PLUS
	case token.MINUS:
		return MINUS
	case token.STAR:
		return STAR
	case token.SLASH:
		return SLASH
	case token.CEILDIV:
		return CEILDIV
	case token.PERCENT:
		return PERCENT
	case token.CIRCUMFLEX:
		return CIRCUMFLEX
	case token.AMPERSAND:
		return AMPERSAND
	case token.PIPE:
		return PIPE
	case token.LTLT:
		return LTLT
	case token.GTGT:
		return GTGT
	case token.STARSTAR:
		return POW
	case token.IN:
		return IN
	default:
		panic(fmt.Sprintf("codegen: unhandled binary operator %s", op))
	}
}
