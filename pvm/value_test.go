package pvm

import (
	"testing"

	"github.com/poke-lang/poke/ast"
	"github.com/poke-lang/poke/codegen"
	"github.com/poke-lang/poke/iodev"
	"github.com/poke-lang/poke/ios"
)

func newTestVM() *VM {
	return New(ios.New())
}

func TestInlineIntUintRoundTrip(t *testing.T) {
	v := NewInt(-5)
	if v.Tag() != TagInt || v.Int() != -5 {
		t.Fatalf("NewInt round-trip: got tag %v, value %d", v.Tag(), v.Int())
	}
	u := NewUint(42)
	if u.Tag() != TagUint || u.Uint() != 42 {
		t.Fatalf("NewUint round-trip: got tag %v, value %d", u.Tag(), u.Uint())
	}
}

func TestNullNeverBoxed(t *testing.T) {
	if Null.Tag() != TagNull {
		t.Fatalf("Null must carry TagNull, got %v", Null.Tag())
	}
}

func TestInt64BoxingThreshold(t *testing.T) {
	vm := newTestVM()
	// Fits in 32 bits inline (spec §3.1 "signed integer <=32 bits").
	small := vm.NewInt64(100)
	if small.Tag() != TagInt {
		t.Fatalf("expected a 32-bit value to stay inline, got tag %v", small.Tag())
	}
	// Does not fit: must box.
	big := vm.NewInt64(1 << 40)
	if big.Tag() != TagBoxed {
		t.Fatalf("expected a 64-bit value to box, got tag %v", big.Tag())
	}
	got, ok := vm.Int64(big)
	if !ok || got != 1<<40 {
		t.Fatalf("boxed int64 round-trip: got %d, %v", got, ok)
	}
}

func TestTruth(t *testing.T) {
	vm := newTestVM()
	cases := []struct {
		v    Value
		want bool
	}{
		{Null, false},
		{NewInt(0), false},
		{NewInt(1), true},
		{NewUint(0), false},
		{vm.NewInt64(0), false},
		{vm.NewInt64(7), true},
		{vm.NewString(""), true}, // every boxed composite is true regardless of contents
	}
	for _, c := range cases {
		if got := vm.Truth(c.v); got != c.want {
			t.Errorf("Truth(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestOffsetArithmeticNormalizesToGCD(t *testing.T) {
	// 2 bytes (unit 8) + 4 nibbles (unit 4) -> normalized to unit gcd(8,4)=4.
	a := Offset{Magnitude: 2, Unit: 8}
	b := Offset{Magnitude: 4, Unit: 4}
	sum := a.Add(b)
	if sum.Unit != 4 {
		t.Fatalf("expected unit to normalize to gcd(8,4)=4, got %d", sum.Unit)
	}
	if sum.Bits() != a.Bits()+b.Bits() {
		t.Fatalf("offset sum bits: got %d, want %d", sum.Bits(), a.Bits()+b.Bits())
	}
}

func TestArrayIndexOutOfBounds(t *testing.T) {
	vm := newTestVM()
	elemType := &ast.IntegralType{Size: 32, Signed: true}
	arr := vm.NewArray(elemType, []Value{NewInt(1), NewInt(2), NewInt(3)})

	v, err := vm.index(arr, NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 2 {
		t.Fatalf("index 1: got %d, want 2", v.Int())
	}

	if _, err := vm.index(arr, NewInt(5)); err == nil {
		t.Fatal("expected an out-of-bounds exception")
	} else if re, ok := err.(*raisedError); !ok {
		t.Fatalf("expected a raisedError, got %T", err)
	} else if exn, ok := vm.Exception(re.Exn); !ok || exn.Code != EOutOfBounds {
		t.Fatalf("expected EOutOfBounds, got %v", exn)
	}
}

func TestStructFieldAccess(t *testing.T) {
	vm := newTestVM()
	typ := &ast.StructType{Name: "Point", Fields: []ast.StructField{
		{Name: "x", Type: &ast.IntegralType{Size: 32, Signed: true}},
		{Name: "y", Type: &ast.IntegralType{Size: 32, Signed: true}},
	}}
	sv := vm.NewStruct(typ, codegen.FieldNameList("x\x00y"), []Value{NewInt(7), NewInt(9)})
	b, ok := vm.Struct(sv)
	if !ok {
		t.Fatal("expected a struct box")
	}
	v, err := vm.attr(b, "y")
	if err != nil {
		t.Fatal(err)
	}
	if v.Int() != 9 {
		t.Fatalf("field y: got %d, want 9", v.Int())
	}
	if err := vm.setField(b, "x", NewInt(100)); err != nil {
		t.Fatal(err)
	}
	v, _ = vm.attr(b, "x")
	if v.Int() != 100 {
		t.Fatalf("field x after set: got %d, want 100", v.Int())
	}
}

// TestMappedStructRoundTrip reproduces spec §8 scenario 7: given a
// memory IOS initialized to all zeros, mapping a Point struct, mutating
// a field, and re-mapping from the same offset observes the write.
func TestMappedStructRoundTrip(t *testing.T) {
	vm := newTestVM()
	sp, err := vm.IOS.Open("*mem*", iodev.FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	// Grow the backing store to 8 bytes of zeros.
	if err := sp.WriteInt(0, 32, ios.EndianMSB, 0); err != nil {
		t.Fatal(err)
	}
	if err := sp.WriteInt(32, 32, ios.EndianMSB, 0); err != nil {
		t.Fatal(err)
	}

	pointType := &ast.StructType{Name: "Point", Fields: []ast.StructField{
		{Name: "x", Type: &ast.IntegralType{Size: 32, Signed: true}},
		{Name: "y", Type: &ast.IntegralType{Size: 32, Signed: true}},
	}}

	v, _, err := vm.materialize(pointType, sp, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, ok := vm.Struct(v)
	if !ok {
		t.Fatal("expected a struct box from materialize")
	}
	if err := vm.setField(b, "x", vm.NewInt64(7)); err != nil {
		t.Fatal(err)
	}
	// setField alone doesn't persist; writing through the mapped origin
	// is the code generator's job for a field assignment on a mapped
	// value (spec §4.7 "Writes to a mapped field walk back to C2 to
	// persist"), exercised here directly via WriteInt at the origin.
	if err := sp.WriteInt(0, 32, ios.EndianMSB, 7); err != nil {
		t.Fatal(err)
	}

	v2, _, err := vm.materialize(pointType, sp, 0)
	if err != nil {
		t.Fatal(err)
	}
	b2, _ := vm.Struct(v2)
	xv, _ := vm.attr(b2, "x")
	yv, _ := vm.attr(b2, "y")
	xn, _ := vm.Int64(xv)
	yn, _ := vm.Int64(yv)
	if xn != 7 || yn != 0 {
		t.Fatalf("re-mapped Point: got {x=%d y=%d}, want {x=7 y=0}", xn, yn)
	}
}

func TestExceptionCodeStringsMatchSpecTable(t *testing.T) {
	cases := map[ExceptionCode]string{
		EGeneric:             "generic",
		EDivByZero:           "div-by-zero",
		ENoIOS:               "no-ios",
		ENoReturn:            "no-return",
		EOutOfBounds:         "out-of-bounds",
		EMapBounds:           "map-bounds",
		EEOF:                 "eof",
		ENoMap:               "no-map",
		EConversion:          "conversion",
		EInvalidElement:      "invalid-element",
		EConstraintViolation: "constraint-violation",
		EGenericIO:           "generic-io",
		ESignal:              "signal",
		EInvalidIOFlags:      "invalid-io-flags",
		EInvalidArgument:     "invalid-argument",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Errorf("ExceptionCode(%d).String() = %q, want %q", code, got, want)
		}
	}
}
