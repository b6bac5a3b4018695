package ios

import (
	"testing"

	"github.com/poke-lang/poke/iodev"
)

func TestOpenCloseCurrent(t *testing.T) {
	reg := New()
	a, err := reg.Open("*mem*", iodev.FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Current() != a {
		t.Fatal("opening a space should make it current")
	}

	b, err := reg.Open("*zero*", iodev.FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Current() != b {
		t.Fatal("opening a second space should make it current")
	}

	if err := reg.Close(b); err != nil {
		t.Fatal(err)
	}
	if reg.Current() != a {
		t.Fatal("closing the current space should fall back to the list head")
	}
	if len(reg.Spaces()) != 1 {
		t.Fatalf("expected 1 open space, got %d", len(reg.Spaces()))
	}
}

func TestOpenDuplicateHandlerRejected(t *testing.T) {
	reg := New()
	if _, err := reg.Open("*zero*", iodev.FlagReadWrite); err != nil {
		t.Fatal(err)
	}
	_, err := reg.Open("*zero*", iodev.FlagReadWrite)
	if err == nil {
		t.Fatal("expected duplicate-handler error")
	}
	if _, ok := err.(*ErrAlreadyOpen); !ok {
		t.Fatalf("expected *ErrAlreadyOpen, got %T", err)
	}
}

func TestSubRangePassthrough(t *testing.T) {
	reg := New()
	base, err := reg.Open("*mem*", iodev.FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	if err := base.WriteInt(0, 32, EndianMSB, 0x11223344); err != nil {
		t.Fatal(err)
	}

	handler := "sub://0/1/2/window"
	sub, err := reg.Open(handler, iodev.FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}

	got, err := sub.ReadInt(0, 16, false, EndianMSB, NegTwosComplement)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x2233 {
		t.Fatalf("sub-range read: got %#x, want 0x2233", got)
	}

	if err := sub.WriteInt(0, 8, EndianMSB, 0xAA); err != nil {
		t.Fatal(err)
	}
	got, err = base.ReadInt(8, 8, false, EndianMSB, NegTwosComplement)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xAA {
		t.Fatalf("write through sub-range not visible on base: got %#x", got)
	}
}

func TestSubRangeFailsAfterBaseClosed(t *testing.T) {
	reg := New()
	base, err := reg.Open("*mem*", iodev.FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := reg.Open("sub://0/0/4/window", iodev.FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	if err := reg.Close(base); err != nil {
		t.Fatal(err)
	}
	if _, err := sub.ReadInt(0, 8, false, EndianMSB, NegTwosComplement); err == nil {
		t.Fatal("expected sub-range read to fail once the base space is closed")
	}
}

func TestPermissionDeniedOnReadOnlySubRange(t *testing.T) {
	reg := New()
	if _, err := reg.Open("*mem*", iodev.FlagReadOnly); err != nil {
		t.Fatal(err)
	}
	sub, err := reg.Open("sub://0/0/4/window", iodev.FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	if err := sub.WriteInt(0, 8, EndianMSB, 1); err == nil {
		t.Fatal("expected write to fail: base space is read-only")
	}
}
