package ios

import (
	"testing"

	"github.com/poke-lang/poke/iodev"
)

func openMemSpace(t *testing.T, content []byte) *Space {
	t.Helper()
	reg := New()
	sp, err := reg.Open("*mem*", iodev.FlagReadWrite)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(content) > 0 {
		if err := sp.Device.Pwrite(content, 0); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return sp
}

func TestReadIntWorkedExamples(t *testing.T) {
	sp := openMemSpace(t, []byte{0xAB, 0xCD, 0xEF, 0x12})

	got, err := sp.ReadInt(4, 12, false, EndianMSB, NegTwosComplement)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xBCD {
		t.Fatalf("MSB int<12> at bit 4: got %#x, want 0xBCD", got)
	}

	got, err = sp.ReadInt(0, 12, false, EndianLSB, NegTwosComplement)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xDAB {
		t.Fatalf("LSB int<12> at bit 0: got %#x, want 0xDAB", got)
	}
}

func TestReadIntByteAligned(t *testing.T) {
	sp := openMemSpace(t, []byte{0x12, 0x34, 0x56, 0x78})

	got, err := sp.ReadInt(0, 32, false, EndianMSB, NegTwosComplement)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x12345678 {
		t.Fatalf("MSB int<32> byte-aligned: got %#x, want 0x12345678", got)
	}

	got, err = sp.ReadInt(0, 32, false, EndianLSB, NegTwosComplement)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x78563412 {
		t.Fatalf("LSB int<32> byte-aligned: got %#x, want 0x78563412", got)
	}
}

func TestReadIntSigned(t *testing.T) {
	sp := openMemSpace(t, []byte{0xFF})

	got, err := sp.ReadInt(0, 8, true, EndianMSB, NegTwosComplement)
	if err != nil {
		t.Fatal(err)
	}
	if got != -1 {
		t.Fatalf("two's complement -1: got %d", got)
	}

	got, err = sp.ReadInt(0, 8, true, EndianMSB, NegOnesComplement)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("one's complement 0xFF: got %d, want 0 (negative zero)", got)
	}
}

func TestReadIntRoundTrip(t *testing.T) {
	widths := []int{1, 3, 7, 8, 9, 12, 16, 31, 32, 57, 64}
	offsets := []int64{0, 1, 3, 4, 7, 8, 15}
	endians := []Endian{EndianMSB, EndianLSB}

	for _, bits := range widths {
		for _, off := range offsets {
			for _, end := range endians {
				sp := openMemSpace(t, make([]byte, 16))
				var value uint64
				if bits == 64 {
					value = 0xFEEDFACECAFEBEEF
				} else {
					value = (uint64(1) << uint(bits)) - 1
					value ^= 0x5A // perturb so it is not all-ones
					value &= (uint64(1) << uint(bits)) - 1
				}
				if err := sp.WriteInt(off, bits, end, int64(value)); err != nil {
					t.Fatalf("bits=%d off=%d endian=%v: write: %v", bits, off, end, err)
				}
				got, err := sp.ReadInt(off, bits, false, end, NegTwosComplement)
				if err != nil {
					t.Fatalf("bits=%d off=%d endian=%v: read: %v", bits, off, end, err)
				}
				if uint64(got) != value {
					t.Fatalf("bits=%d off=%d endian=%v: round trip got %#x want %#x", bits, off, end, got, value)
				}
			}
		}
	}
}

func TestWriteIntPreservesNeighbors(t *testing.T) {
	sp := openMemSpace(t, []byte{0xFF, 0xFF})
	if err := sp.WriteInt(4, 8, EndianMSB, 0); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 2)
	if err := sp.Device.Pread(buf, 0); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0xF0 || buf[1] != 0x0F {
		t.Fatalf("neighbor bits clobbered: got %08b %08b", buf[0], buf[1])
	}
}

func TestStringRoundTripByteAligned(t *testing.T) {
	sp := openMemSpace(t, make([]byte, 32))
	if err := sp.WriteString(0, "poke"); err != nil {
		t.Fatal(err)
	}
	got, err := sp.ReadString(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "poke" {
		t.Fatalf("got %q, want %q", got, "poke")
	}
}

func TestStringRoundTripUnaligned(t *testing.T) {
	sp := openMemSpace(t, make([]byte, 32))
	if err := sp.WriteString(3, "io"); err != nil {
		t.Fatal(err)
	}
	got, err := sp.ReadString(3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "io" {
		t.Fatalf("got %q, want %q", got, "io")
	}
}

func TestPermissionChecks(t *testing.T) {
	reg := New()
	sp, err := reg.Open("*mem*", iodev.FlagReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sp.ReadInt(0, 8, false, EndianMSB, NegTwosComplement); err != nil {
		t.Fatalf("read on read-only space should succeed: %v", err)
	}
	if err := sp.WriteInt(0, 8, EndianMSB, 1); err == nil {
		t.Fatal("write on read-only space should fail")
	}
}
