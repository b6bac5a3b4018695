package codegen

import (
	"strings"

	"github.com/poke-lang/poke/ast"
)

// Instruction is one emitted PVM instruction: an opcode plus one immediate
// operand word, Arg (a single index/count, or two values packed via
// pack()/packCall()/packStruct(), e.g. a (back, over) lexical address or a
// positional/named argument-count pair).
type Instruction struct {
	Op  Opcode
	Arg uint32
}

// Binding names one local slot of a Funcode, for diagnostics and tracing;
// mirrors lang/compiler/compiled.go's Binding.
type Binding struct {
	Name string
	Kind ast.DeclKind
}

// FieldNameList is a MAKESTRUCT's constant-pool payload: the literal's
// field names, in the same positional order as the values MAKESTRUCT pops,
// joined by NUL so the value stays comparable (and so usable as a
// constant-pool map key) rather than carried as a slice (spec §4.6 "struct
// field descriptors are emitted alongside the type metadata"). A mapped
// struct (MAP<type>) needs no such payload: its type constant is the
// StructType itself, whose Fields already describe it.
type FieldNameList string

func joinFieldNames(names []string) FieldNameList {
	return FieldNameList(strings.Join(names, "\x00"))
}

// Names splits the list back into its field names, in positional order.
func (l FieldNameList) Names() []string {
	if l == "" {
		return nil
	}
	return strings.Split(string(l), "\x00")
}

// Funcode is the compiled code of one function body (a LambdaExpr or the
// top-level Program), linearized from its CFG of blocks.
type Funcode struct {
	Name      string
	Code      []Instruction
	Locals    []Binding
	NumParams int
	MaxStack  int

	// VarargIndex is the index among the first NumParams locals that
	// collects a trailing vararg tail into an array, or -1 if this
	// function declares none (trans1.go's firstOptional/FirstOptional
	// guarantees at most one, trailing every other parameter).
	VarargIndex int
}

// Program is the top-level unit produced by Compile: the module's own
// top-level code plus every nested function discovered while compiling it.
type Program struct {
	Filename  string
	Constants []interface{}
	Functions []*Funcode
}
