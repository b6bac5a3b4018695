package pvm

import (
	"fmt"
	"io"
	"os"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/codegen"
	"github.com/poke-lang/poke/ios"
)

// VM is the register-based interpreter that executes a codegen.Program
// (spec §4.7). It owns the box arena every Value produced during
// execution lives in, the open-IO-space registry MAP reads and writes
// against, and the output parameters spec §6 exposes to a poke session
// (base, endianness, negative encoding for un-annotated integral
// reads).
//
// Grounded on lang/machine/machine.go's run loop (locals+stack split,
// pc-indexed for loop, a giant opcode switch), adapted from its
// trampoline-across-one-flat-call-stack shape to plain Go recursion:
// one vm.call per PVM call frame, so a CALL instruction recurses into
// vm.call and RETURN simply returns from it, letting Go's own call
// stack stand in for the teacher's explicit frame stack. try/catch
// unwinding (spec §4.7) has no counterpart in the teacher's
// defer-based error model, so that part is grounded directly on
// exception.go's raisedError carrier instead.
type VM struct {
	arena arena

	Stdout io.Writer
	Stderr io.Writer

	IOS *ios.Registry

	// Endian and NegEncoding are the defaults MAP applies to every
	// integral/offset field it materializes; poke's type system carries
	// no per-field endianness or negative-encoding annotation (spec §4.2
	// leaves both a session-wide setting, not a type property).
	Endian      ios.Endian
	NegEncoding ios.NegEncoding

	prog *codegen.Program
}

// New builds a VM around an already-populated IO space registry, with
// the spec's documented defaults (MSB, two's complement) and the
// process's own stdout/stderr as PRINT's destination.
func New(reg *ios.Registry) *VM {
	return &VM{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		IOS:         reg,
		Endian:      ios.EndianMSB,
		NegEncoding: ios.NegTwosComplement,
	}
}

// Run executes prog's top-level code (Functions[0], spec §4.6 "the
// module's own top-level code plus every nested function") and returns
// its result.
func (vm *VM) Run(prog *codegen.Program) (Value, error) {
	vm.prog = prog
	top := prog.Functions[0]
	return vm.call(top, NewFrame(top.NumParams, nil))
}

// tryMarker is one entry of a call's try-stack: the catch dispatch
// block's PC, and the operand-stack depth to truncate back to when an
// unwind lands here (spec §4.7 "unwinds both the frame stack and the
// operand stack down to the current try marker").
type tryMarker struct {
	catchPC    int
	stackDepth int
}

// call runs one Funcode to completion, starting at PC 0 with frame as
// its outermost lexical frame (already populated with the callee's
// bound parameters). It returns the value the callee's RETURN produced,
// or a *raisedError if an exception escaped every try-marker this call
// installed.
func (vm *VM) call(fn *codegen.Funcode, frame *Frame) (Value, error) {
	stack := make([]Value, 0, fn.MaxStack)
	lex := frame
	pc := 0

	var tryStack []tryMarker
	activeExn := Null

	push := func(v Value) { stack = append(stack, v) }
	pop := func() Value {
		n := len(stack) - 1
		v := stack[n]
		stack = stack[:n]
		return v
	}
	peek := func() Value { return stack[len(stack)-1] }

	// handleRaise attempts a local unwind to this call's nearest
	// try-marker; it reports whether one was available.
	handleRaise := func(exn Value) bool {
		if len(tryStack) == 0 {
			return false
		}
		m := tryStack[len(tryStack)-1]
		tryStack = tryStack[:len(tryStack)-1]
		stack = stack[:m.stackDepth]
		activeExn = exn
		push(exn)
		pc = m.catchPC
		return true
	}
	// raise reports whether err (always a *raisedError, or nil handled by
	// the caller) was caught locally; a false return means the caller
	// must return err to its own Go caller.
	raise := func(err error) bool {
		re, ok := err.(*raisedError)
		if !ok {
			return false
		}
		return handleRaise(re.Exn)
	}

	for pc < len(fn.Code) {
		insn := fn.Code[pc]
		pc++

		switch insn.Op {
		case codegen.NOP:

		case codegen.DUP:
			push(peek())
		case codegen.POP:
			pop()
		case codegen.EXCH:
			n := len(stack)
			stack[n-1], stack[n-2] = stack[n-2], stack[n-1]

		case codegen.EQL, codegen.NEQ, codegen.LT, codegen.LE, codegen.GT, codegen.GE,
			codegen.PLUS, codegen.MINUS, codegen.STAR, codegen.SLASH, codegen.CEILDIV,
			codegen.PERCENT, codegen.CIRCUMFLEX, codegen.AMPERSAND, codegen.PIPE,
			codegen.LTLT, codegen.GTGT, codegen.POW, codegen.CONS, codegen.IN:
			r := pop()
			l := pop()
			v, err := vm.binOp(insn.Op, l, r)
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}
			push(v)

		case codegen.OFFSET:
			unitV := pop()
			magV := pop()
			mag, _ := vm.Int64(magV)
			unit, _ := vm.Int64(unitV)
			push(vm.NewOffset(Offset{Magnitude: mag, Unit: uint64(unit)}))

		case codegen.UPLUS, codegen.UMINUS, codegen.UBITNOT, codegen.NOT:
			v := pop()
			r, err := vm.unOp(insn.Op, v)
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}
			push(r)

		case codegen.CAST:
			v := pop()
			t := vm.prog.Constants[insn.Arg].(ast.Type)
			r, err := vm.cast(v, t)
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}
			push(r)

		case codegen.ISA:
			v := pop()
			t := vm.prog.Constants[insn.Arg].(ast.Type)
			push(boolValue(isa(vm, v, t)))

		case codegen.TYPEOF:
			v := pop()
			push(vm.NewType(dynamicType(vm, v)))

		case codegen.SIZEOF:
			t := vm.prog.Constants[insn.Arg].(ast.Type)
			if !t.Complete() {
				err := vm.newException(EInvalidArgument, fmt.Sprintf("sizeof: %s has no constant size", t))
				if raise(err) {
					continue
				}
				return Null, err
			}
			push(vm.NewOffset(Offset{Magnitude: int64(ast.Sizeof(t)), Unit: 1}))

		case codegen.LEN:
			v := pop()
			n, err := vm.len(v)
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}
			push(vm.NewUint64(n))

		case codegen.ISMISSING:
			v := pop()
			push(boolValue(v == Missing))

		case codegen.CONSTANT:
			push(vm.constantValue(vm.prog.Constants[insn.Arg]))

		case codegen.MAKEARRAY:
			n := int(insn.Arg)
			elems := make([]Value, n)
			for i := n - 1; i >= 0; i-- {
				elems[i] = pop()
			}
			push(vm.NewArray(vm.arrayElemType(elems), elems))

		case codegen.MAKESTRUCT:
			n, namesIdx := unpackStruct(insn.Arg)
			values := make([]Value, n)
			for i := n - 1; i >= 0; i-- {
				values[i] = pop()
			}
			names, _ := vm.prog.Constants[namesIdx].(codegen.FieldNameList)
			push(vm.NewStruct(vm.anonStructType(names, values), names, values))

		case codegen.MAKECLOSURE:
			fn := vm.prog.Functions[insn.Arg]
			push(vm.NewClosure(fn, lex))

		case codegen.MAP:
			offV := pop()
			iosV := pop()
			sp, err := vm.resolveSpace(iosV)
			if err == nil {
				var v Value
				t := vm.prog.Constants[insn.Arg].(ast.Type)
				v, _, err = vm.materialize(t, sp, vm.offsetBits(offV))
				if err == nil {
					push(v)
				}
			}
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}

		case codegen.PUSHF:
			lex = NewFrame(int(insn.Arg), lex)
		case codegen.POPF:
			lex = lex.Parent

		case codegen.PUSHVAR:
			back, over := unpackBackOver(insn.Arg)
			push(lex.Get(back, over))
		case codegen.POPVAR:
			back, _ := unpackBackOver(insn.Arg)
			v := pop()
			lex.ancestor(back).Push(v)
		case codegen.SETVAR:
			back, over := unpackBackOver(insn.Arg)
			lex.Set(back, over, pop())

		case codegen.ATTR:
			name := vm.prog.Constants[insn.Arg].(string)
			v := pop()
			b, ok := vm.Struct(v)
			var err error
			if !ok {
				err = vm.newException(EInvalidArgument, fmt.Sprintf("'%s: not a struct", name))
			} else {
				var r Value
				r, err = vm.attr(b, name)
				if err == nil {
					push(r)
				}
			}
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}

		case codegen.SETFIELD:
			name := vm.prog.Constants[insn.Arg].(string)
			val := pop()
			v := pop()
			b, ok := vm.Struct(v)
			var err error
			if !ok {
				err = vm.newException(EInvalidArgument, fmt.Sprintf("'%s: not a struct", name))
			} else {
				err = vm.setField(b, name, val)
			}
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}

		case codegen.GETATTR:
			v := pop()
			r, err := vm.attrOf(v, ast.AttrCode(insn.Arg))
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}
			push(r)

		case codegen.INDEX:
			idx := pop()
			cont := pop()
			r, err := vm.index(cont, idx)
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}
			push(r)

		case codegen.SETINDEX:
			val := pop()
			idx := pop()
			cont := pop()
			if err := vm.setIndex(cont, idx, val); err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}

		case codegen.SLICE:
			addend := pop()
			to := pop()
			from := pop()
			cont := pop()
			r, err := vm.slice(cont, from, to, addend)
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}
			push(r)

		case codegen.JMP:
			pc = int(insn.Arg)
		case codegen.CJMP:
			v := pop()
			if vm.Truth(v) {
				pc = int(insn.Arg)
			}

		case codegen.CALL:
			positional, named := unpackCounts(insn.Arg)
			total := positional + named
			args := make([]Value, total)
			for i := total - 1; i >= 0; i-- {
				args[i] = pop()
			}
			calleeVal := pop()
			closure, ok := vm.Closure(calleeVal)
			if !ok {
				err := vm.newException(EInvalidArgument, fmt.Sprintf("%s is not callable", vm.String(calleeVal)))
				if raise(err) {
					continue
				}
				return Null, err
			}
			callee := closure.Fn
			newFrame := NewFrame(len(callee.Locals), closure.Env)
			for i := 0; i < callee.NumParams; i++ {
				switch {
				case i == callee.VarargIndex:
					var tail []Value
					if i < len(args) {
						tail = append(tail, args[i:]...)
					}
					newFrame.Push(vm.NewArray(&ast.AnyType{}, tail))
				case i < len(args):
					newFrame.Push(args[i])
				default:
					newFrame.Push(Missing)
				}
			}
			result, err := vm.call(callee, newFrame)
			if err != nil {
				if raise(err) {
					continue
				}
				return Null, err
			}
			push(result)

		case codegen.RETURN:
			return pop(), nil

		case codegen.TRY:
			tryStack = append(tryStack, tryMarker{catchPC: int(insn.Arg), stackDepth: len(stack)})
		case codegen.ENDTRY:
			if len(tryStack) > 0 {
				tryStack = tryStack[:len(tryStack)-1]
			}
		case codegen.RAISE:
			exn := pop()
			if exn == Null {
				exn = activeExn
			}
			if !handleRaise(exn) {
				return Null, &raisedError{Exn: exn}
			}

		case codegen.PRINT:
			argCount, fmtIdx := unpackCounts(insn.Arg)
			args := make([]Value, argCount)
			for i := argCount - 1; i >= 0; i-- {
				args[i] = pop()
			}
			format, _ := vm.prog.Constants[fmtIdx].(string)
			vm.printFormatted(format, args)

		default:
			panic(fmt.Sprintf("pvm: unhandled opcode %s", insn.Op))
		}
	}

	// A Funcode always ends in RETURN (function() appends one when the
	// body falls off the end, see codegen.go), so reaching here means a
	// malformed program.
	panic("pvm: fell off the end of a Funcode without a RETURN")
}

// constantValue converts one constant-pool entry into a run-time Value.
// codegen's own constant pool stores plain Go values (int64, string,
// ast.Type, codegen.Missing, nil); this is the single place that maps
// each of those back onto the tagged-word/boxed representation.
func (vm *VM) constantValue(c interface{}) Value {
	switch x := c.(type) {
	case nil:
		return Null
	case codegen.Missing:
		return Missing
	case int64:
		return vm.NewInt64(x)
	case string:
		return vm.NewString(x)
	case ast.Type:
		return vm.NewType(x)
	default:
		panic(fmt.Sprintf("pvm: unrepresentable constant %T", c))
	}
}

func (vm *VM) arrayElemType(elems []Value) ast.Type {
	if len(elems) == 0 {
		return &ast.AnyType{}
	}
	return dynamicType(vm, elems[0])
}

// anonStructType synthesizes the declared type of a struct literal from
// its field names and the run-time dynamic types of its values: codegen
// emits only the field names and value count for MAKESTRUCT (the type
// itself is not a sema-resolved compile-time constant the way a MAP
// target or a CAST target is, since poke lets a struct literal's field
// types vary with whatever the initializer expressions evaluate to), so
// the literal's type is only knowable once those values exist.
func (vm *VM) anonStructType(names codegen.FieldNameList, values []Value) *ast.StructType {
	ns := names.Names()
	fields := make([]ast.StructField, len(values))
	for i, v := range values {
		name := ""
		if i < len(ns) {
			name = ns[i]
		}
		fields[i] = ast.StructField{Name: name, Type: dynamicType(vm, v)}
	}
	return &ast.StructType{Fields: fields}
}

// printFormatted renders a compiled PrintStmt. Format arrives as written
// in the source (trans1 checks only its '%' count against the argument
// count) and is passed to fmt.Fprintf, so it is interpreted at run time
// with Go's fmt verb syntax. Integer arguments are passed as int64 and
// every other value as its String rendering (spec §6 "pretty-printing
// is a VM-level, not a language-level, concern").
func (vm *VM) printFormatted(format string, args []Value) {
	rendered := make([]interface{}, len(args))
	for i, a := range args {
		if n, ok := vm.Int64(a); ok {
			rendered[i] = n
		} else {
			rendered[i] = vm.String(a)
		}
	}
	fmt.Fprintf(vm.Stdout, format, rendered...)
}
