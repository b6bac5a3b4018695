// Package codegen walks a fully-decorated AST once, emitting PVM
// instructions (spec §4.6). It takes no semantic decisions: every value it
// reads (lexical addresses, ZeroArgCall, HasFolded/Folded*) was already
// resolved by sema.
//
// Grounded on lang/compiler/compiler.go's CFG-linearization (block, visit,
// stack-depth tracking) and lang/compiler/opcode.go's opcode table shape,
// generalized to the PVM opcode set (PUSHVAR/POPVAR/SETVAR/MAP/RAISE...).
// Unlike the teacher, instructions are kept as a flat []Instruction rather
// than hand-packed varint bytes: spec.md's Non-goals explicitly exclude
// "preservation of any specific on-disk bytecode format", so the
// byte-encoding half of the teacher's design has nothing left to serve.
package codegen

import "fmt"

// Opcode identifies one PVM instruction.
type Opcode uint8

//nolint:revive
const (
	NOP Opcode = iota

	// stack operations
	DUP
	POP
	EXCH

	// relational (order mirrors token.EQEQ..GE)
	EQL
	NEQ
	LT
	LE
	GT
	GE

	// arithmetic/bitwise (binOpcode maps tokens to these by switch; there is
	// no TILDE opcode, and token.STARSTAR maps to POW)
	PLUS
	MINUS
	STAR
	SLASH
	CEILDIV
	PERCENT
	CIRCUMFLEX
	AMPERSAND
	PIPE
	LTLT
	GTGT
	POW
	CONS   // bit-concatenation, x ::: y
	OFFSET // magnitude unit OFFSET - offset  constructs an offset value (spec §3.1)

	// logical (AND/OR short-circuit via JMP/CJMP, see codegen.go)
	IN

	// unary
	UPLUS
	UMINUS
	UBITNOT
	NOT

	// type operators
	CAST   //     CAST<type>      y       y = (T)x, x below on stack
	ISA    //     ISA<type>       bool    x isa T, x below on stack
	TYPEOF //   x TYPEOF          type    x's dynamic type as a first-class value
	SIZEOF //     SIZEOF<type>    uint64  sizeof(T): T's own bit-size, no operand
	LEN    //   x LEN             uint64  element count of an array, or field count of a struct

	// parameter-binding prologue (see function()'s defaultsPrologue)
	ISMISSING // x ISMISSING bool  true iff x is the Missing sentinel

	// literals / composites
	CONSTANT    //                     - CONSTANT<const>      value
	MAKEARRAY   //             x1 .. xn MAKEARRAY<n>          array
	MAKESTRUCT  //             x1 .. xn MAKESTRUCT<n,names>    struct
	MAKECLOSURE //                    - MAKECLOSURE<func>     closure
	MAP         //              ios off MAP<type>             mapped-value    reads current IOS if ios is Nil

	// frame / variable access (back,over packed into one arg, see pack)
	PUSHF   //     - PUSHF<hint>  -       push a frame sized for hint slots
	POPF    //     - POPF         -
	PUSHVAR //     - PUSHVAR<back,over> value
	POPVAR  // value POPVAR<back,over> -  binds value into a new slot
	SETVAR  // value SETVAR<back,over> -  rebinds an existing slot

	// composite access
	ATTR     //        x ATTR<name>     y    y = x.name
	SETFIELD //      x y SETFIELD<name> -    x.name = y
	GETATTR  //        x GETATTR<attr>  y    y = x'attr (AttrCode)
	INDEX    //      a i INDEX          elem
	SETINDEX //  a i new SETINDEX       -
	SLICE    // x lo hi step SLICE      slice

	// control flow
	JMP  //    - JMP<addr>  -
	CJMP // cond CJMP<addr> -

	// function call / return
	CALL   // fn positional named CALL<n>  result   n>>16 = #positional, n&0xffff = #named
	RETURN //      value RETURN           -

	// exceptions (spec §4.7)
	TRY    //    - TRY<addr>    -    pushes a try-marker pointing at the catch dispatch block
	ENDTRY //    - ENDTRY       -    pops the try-marker installed by the matching TRY
	RAISE  // exn RAISE         -    unwinds to the nearest try-marker

	// IO
	PRINT // a1 .. an PRINT<n,fmt> -

	OpcodeArgMin = PUSHF
	opcodeJmpMin = JMP
	opcodeJmpMax = CJMP
)

var opcodeNames = [...]string{
	NOP: "nop", DUP: "dup", POP: "pop", EXCH: "exch",
	EQL: "eql", NEQ: "neq", LT: "lt", LE: "le", GT: "gt", GE: "ge",
	PLUS: "plus", MINUS: "minus", STAR: "star", SLASH: "slash", CEILDIV: "ceildiv",
	PERCENT: "percent", CIRCUMFLEX: "circumflex", AMPERSAND: "ampersand", PIPE: "pipe",
	LTLT: "ltlt", GTGT: "gtgt", POW: "pow", CONS: "cons", OFFSET: "offset", IN: "in",
	UPLUS: "uplus", UMINUS: "uminus", UBITNOT: "ubitnot", NOT: "not",
	CAST: "cast", ISA: "isa", TYPEOF: "typeof", SIZEOF: "sizeof", LEN: "len",
	ISMISSING: "ismissing",
	CONSTANT: "constant", MAKEARRAY: "makearray", MAKESTRUCT: "makestruct",
	MAKECLOSURE: "makeclosure", MAP: "map",
	PUSHF: "pushf", POPF: "popf", PUSHVAR: "pushvar", POPVAR: "popvar", SETVAR: "setvar",
	ATTR: "attr", SETFIELD: "setfield", GETATTR: "getattr",
	INDEX: "index", SETINDEX: "setindex", SLICE: "slice",
	JMP: "jmp", CJMP: "cjmp", CALL: "call", RETURN: "return",
	TRY: "try", ENDTRY: "endtry", RAISE: "raise", PRINT: "print",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

const variableStackEffect = 0x7f

// stackEffect records the static effect on the operand stack of each
// instruction kind; CALL/MAKEARRAY/MAKESTRUCT/PRINT are data-dependent and
// use variableStackEffect, resolved from the instruction's own Arg by
// effectOf.
var stackEffect = [...]int{
	NOP: 0, DUP: +1, POP: -1, EXCH: 0,
	EQL: -1, NEQ: -1, LT: -1, LE: -1, GT: -1, GE: -1,
	PLUS: -1, MINUS: -1, STAR: -1, SLASH: -1, CEILDIV: -1, PERCENT: -1,
	CIRCUMFLEX: -1, AMPERSAND: -1, PIPE: -1, LTLT: -1, GTGT: -1, POW: -1,
	CONS: -1, OFFSET: -1, IN: -1,
	UPLUS: 0, UMINUS: 0, UBITNOT: 0, NOT: 0,
	CAST: 0, ISA: 0, TYPEOF: 0, SIZEOF: +1, LEN: 0, ISMISSING: 0,
	CONSTANT: +1, MAKEARRAY: variableStackEffect, MAKESTRUCT: variableStackEffect,
	MAKECLOSURE: +1, MAP: -1,
	PUSHF: 0, POPF: 0, PUSHVAR: +1, POPVAR: -1, SETVAR: -1,
	ATTR: 0, SETFIELD: -2, GETATTR: 0,
	INDEX: -1, SETINDEX: -3, SLICE: -3,
	JMP: 0, CJMP: -1, CALL: variableStackEffect, RETURN: -1,
	TRY: 0, ENDTRY: 0, RAISE: -1,
	PRINT: variableStackEffect,
}

func isJump(op Opcode) bool { return opcodeJmpMin <= op && op <= opcodeJmpMax }

// pack combines a (back, over) lexical address into the single arg word
// carried by PUSHVAR/POPVAR/SETVAR, mirroring the teacher's CALL
// n>>8/n&0xff convention (lang/compiler/opcode.go).
func pack(back, over int) uint32 { return uint32(back)<<16 | uint32(uint16(over)) }

func unpack(arg uint32) (back, over int) { return int(arg >> 16), int(int16(uint16(arg))) }

// packCall combines positional/named argument counts the same way.
func packCall(positional, named int) uint32 { return uint32(positional)<<16 | uint32(uint16(named)) }

// packStruct combines a MAKESTRUCT's field count with the constant-pool
// index of its FieldNameList (spec §4.6 "struct field descriptors are
// emitted alongside the type metadata"), an 8-bit/24-bit split: a struct
// literal with more than 255 fields does not occur in practice, while 24
// bits leaves ample room for the constant pool.
func packStruct(n int, namesIdx uint32) uint32 { return uint32(n)<<24 | (namesIdx & 0xffffff) }

func unpackStruct(arg uint32) (n int, namesIdx uint32) { return int(arg >> 24), arg & 0xffffff }
