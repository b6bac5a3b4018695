package codegen

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Disassemble renders p as a human-readable instruction listing, one
// function at a time in Functions order (Functions[0] is always the
// module's own top-level code, spec §4.6). Useful for debugging codegen
// and for golden-file tests that want a stable, readable failure diff
// instead of comparing raw Instruction slices.
func (p *Program) Disassemble() string {
	var b strings.Builder
	for i, fn := range p.Functions {
		fmt.Fprintf(&b, "function %d %s (params=%d)\n", i, fn.Name, fn.NumParams)
		b.WriteString(fn.disassembleLocals())
		for pc, ins := range fn.Code {
			fmt.Fprintf(&b, "  %4d  %s\n", pc, p.disassembleInstruction(ins))
		}
	}
	return b.String()
}

// disassembleLocals lists fn's bindings sorted by name, independent of
// their declaration (and hence slot) order, as a quick cross-reference
// separate from the raw, order-significant instruction listing above it.
func (fn *Funcode) disassembleLocals() string {
	if len(fn.Locals) == 0 {
		return ""
	}
	sorted := append([]Binding(nil), fn.Locals...)
	slices.SortFunc(sorted, func(a, b Binding) bool { return a.Name < b.Name })

	var b strings.Builder
	b.WriteString("  locals:")
	for _, loc := range sorted {
		fmt.Fprintf(&b, " %s(kind=%d)", loc.Name, loc.Kind)
	}
	b.WriteString("\n")
	return b.String()
}

// disassembleInstruction formats one instruction, decoding its Arg as a
// (back, over) lexical address for the opcodes that pack one.
func (p *Program) disassembleInstruction(ins Instruction) string {
	switch ins.Op {
	case PUSHVAR, POPVAR, SETVAR:
		back, over := unpack(ins.Arg)
		return fmt.Sprintf("%s (%d, %d)", ins.Op, back, over)
	case CONSTANT:
		if int(ins.Arg) < len(p.Constants) {
			return fmt.Sprintf("%s %#v", ins.Op, p.Constants[ins.Arg])
		}
		return fmt.Sprintf("%s #%d", ins.Op, ins.Arg)
	case PUSHF:
		return fmt.Sprintf("%s %d", ins.Op, ins.Arg)
	default:
		return ins.Op.String()
	}
}
