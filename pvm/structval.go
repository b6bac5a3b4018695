package pvm

import (
	"fmt"
	"strings"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/codegen"
)

// StructFieldValue pairs an optional name with its value, per spec §3.1
// "ordered sequence of (optional name, value) pairs".
type StructFieldValue struct {
	Name  string // "" for an anonymous/union member
	Value Value
}

// MappedOrigin records the IO space and extent a mapped composite was
// read from (supplemented from original_source's pkl-ast.c/pvm.h, which
// track an IOS id and an "extent" on every mapped struct alongside its
// own offset; spec.md's distillation only mentions this implicitly via
// the 'eoffset/'esize/'ename attribute table in §8). Backs AttrEOffset,
// AttrESize and AttrEName.
type MappedOrigin struct {
	IOSID  int
	Offset Offset // the mapped value's own start
	Extent uint64 // total bit-size consumed, including padding
	Name   string // the declared type's name, for 'ename
}

// StructBox is a poke struct (or union) value: an ordered sequence of
// (optional name, value) pairs, a pointer to its declaring type, and
// optionally its mapped origin (spec §3.1).
type StructBox struct {
	Typ    *ast.StructType
	Fields []StructFieldValue
	Origin *MappedOrigin // nil unless constructed by MAP
}

func (b *StructBox) typeName() string { return b.Typ.String() }

func (b *StructBox) str(vm *VM) string {
	parts := make([]string, len(b.Fields))
	for i, f := range b.Fields {
		if f.Name != "" {
			parts[i] = fmt.Sprintf("%s=%s", f.Name, vm.String(f.Value))
		} else {
			parts[i] = vm.String(f.Value)
		}
	}
	return b.typeName() + "{" + strings.Join(parts, ",") + "}"
}

// NewStruct boxes a struct literal's field values under typ, in
// declaration order, using names from codegen's FieldNameList payload
// (spec §4.6 "struct field descriptors are emitted alongside the type
// metadata").
func (vm *VM) NewStruct(typ *ast.StructType, names codegen.FieldNameList, values []Value) Value {
	ns := names.Names()
	fields := make([]StructFieldValue, len(values))
	for i, v := range values {
		name := ""
		if i < len(ns) {
			name = ns[i]
		}
		fields[i] = StructFieldValue{Name: name, Value: v}
	}
	return vm.arena.alloc(&StructBox{Typ: typ, Fields: fields})
}

// NewMappedStruct boxes a struct materialized by MAP, recording its
// origin for the 'eoffset/'esize/'ename attribute family.
func (vm *VM) NewMappedStruct(typ *ast.StructType, fields []StructFieldValue, origin MappedOrigin) Value {
	return vm.arena.alloc(&StructBox{Typ: typ, Fields: fields, Origin: &origin})
}

func (vm *VM) Struct(v Value) (*StructBox, bool) {
	if v.Tag() != TagBoxed {
		return nil, false
	}
	b, ok := vm.arena.get(v).(*StructBox)
	return b, ok
}

func (vm *VM) attr(b *StructBox, name string) (Value, error) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f.Value, nil
		}
	}
	return Null, vm.newException(EGeneric, fmt.Sprintf("no such field %q", name))
}

func (vm *VM) setField(b *StructBox, name string, val Value) error {
	for i, f := range b.Fields {
		if f.Name == name {
			b.Fields[i].Value = val
			return nil
		}
	}
	return vm.newException(EGeneric, fmt.Sprintf("no such field %q", name))
}
