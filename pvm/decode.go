package pvm

// The instruction operand encodings below mirror codegen's own
// pack/unpack/packCall/packStruct exactly (codegen/opcode.go), but that
// package keeps them unexported since only its own compiler needs to
// build them; the interpreter needs to tear them back down, so the
// decode side is reimplemented here rather than exporting codegen's
// internals for a single caller.

// unpackBackOver decodes a PUSHVAR/POPVAR/SETVAR lexical address.
func unpackBackOver(arg uint32) (back, over int) {
	return int(arg >> 16), int(int16(uint16(arg)))
}

// unpackCounts decodes a CALL's positional/named argument counts, or a
// PRINT's argument count and format-string constant index (PRINT reuses
// CALL's packing, see codegen.go's PrintStmt case).
func unpackCounts(arg uint32) (a, b int) {
	return int(arg >> 16), int(uint16(arg))
}

// unpackStruct decodes a MAKESTRUCT's field count and FieldNameList
// constant-pool index.
func unpackStruct(arg uint32) (n int, namesIdx uint32) {
	return int(arg >> 24), arg & 0xffffff
}
