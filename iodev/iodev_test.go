package iodev

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// TestMemDeviceRoundTrip exercises spec §8's "device round-trip" property
// for the memory backend: writing b at o and reading it back at o yields b,
// and a read past size reports EOF.
func TestMemDeviceRoundTrip(t *testing.T) {
	b := NewMemBackend()
	dev, err := b.Open("*mem*", FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := dev.Pwrite(want, 10); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, len(want))
	if err := dev.Pread(got, 10); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round-trip: got %x, want %x", got, want)
	}

	size, err := dev.Size()
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 1)
	if err := dev.Pread(buf, size); AsStatus(err) != StatusEOF {
		t.Fatalf("read at size: got %v, want EOF", err)
	}
}

func TestMemDeviceGrowsInChunks(t *testing.T) {
	b := NewMemBackend()
	dev, err := b.Open("*mem*", FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Pwrite([]byte{1}, 1); err != nil {
		t.Fatal(err)
	}
	size, err := dev.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != memChunkSize {
		t.Fatalf("expected growth to round up to one chunk, got size %d", size)
	}
}

func TestMemBackendHandlerNormalize(t *testing.T) {
	b := NewMemBackend()
	if _, ok := b.HandlerNormalize("*mem*"); !ok {
		t.Fatal("expected *mem* to be claimed")
	}
	if _, ok := b.HandlerNormalize("*memory*"); !ok {
		t.Fatal("expected *memory* to be claimed")
	}
	if _, ok := b.HandlerNormalize("*zero*"); ok {
		t.Fatal("mem backend must not shadow the zero backend's handler")
	}
}

func TestZeroDevice(t *testing.T) {
	b := NewZeroBackend()
	dev, err := b.Open("*zero*", FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	buf := []byte{1, 2, 3}
	if err := dev.Pread(buf, 1<<40); err != nil {
		t.Fatal(err)
	}
	for _, c := range buf {
		if c != 0 {
			t.Fatalf("expected zeroed read, got %v", buf)
		}
	}
	if err := dev.Pwrite([]byte{9, 9, 9}, 0); err != nil {
		t.Fatal(err)
	}
	size, err := dev.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != infiniteSize {
		t.Fatalf("expected infinite size, got %d", size)
	}
}

func TestFileDeviceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, make([]byte, 16), 0o644); err != nil {
		t.Fatal(err)
	}
	b := NewFileBackend()
	dev, err := b.Open(path, FlagReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	defer dev.Close()

	want := []byte{1, 2, 3, 4}
	if err := dev.Pwrite(want, 4); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, len(want))
	if err := dev.Pread(got, 4); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("round-trip: got %x, want %x", got, want)
	}

	size, err := dev.Size()
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Pread(make([]byte, 4), size-1); AsStatus(err) != StatusEOF {
		t.Fatalf("read crossing size: got %v, want EOF", err)
	}
}

func TestFileBackendSchemeEscaping(t *testing.T) {
	b := NewFileBackend()
	canon, ok := b.HandlerNormalize("nbd://host/export")
	if !ok || canon != "./nbd://host/export" {
		t.Fatalf("expected scheme-shaped handler to be escaped, got %q, %v", canon, ok)
	}
	canon, ok = b.HandlerNormalize("plain/path.bin")
	if !ok || canon != "plain/path.bin" {
		t.Fatalf("expected a plain path to pass through unchanged, got %q, %v", canon, ok)
	}
}

// TestStreamReadBuffering reproduces spec §8 scenario 3: piping
// 01 02 03 04 05 into a stream IOS and reading through the chunk buffer.
func TestStreamReadBuffering(t *testing.T) {
	src := bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	b := &StreamBackend{Stdin: src}
	dev, err := b.Open("<stdin>", FlagReadOnly)
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 3)
	if err := dev.Pread(buf, 0); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte{1, 2, 3}) {
		t.Fatalf("pread(3,0): got %v, want [1 2 3]", buf)
	}

	buf = make([]byte, 3)
	if err := dev.Pread(buf, 2); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, []byte{3, 4, 5}) {
		t.Fatalf("pread(3,2): got %v, want [3 4 5]", buf)
	}

	if err := dev.Flush(2); err != nil {
		t.Fatal(err)
	}
	buf1 := make([]byte, 1)
	if err := dev.Pread(buf1, 2); err != nil {
		t.Fatal("chunk 0 is 2KiB: flushing at offset 2 must not drop it")
	}
	if err := dev.Pread(buf1, 0); err != nil {
		t.Fatal("offset 0 is still inside the un-dropped chunk 0 and must still succeed")
	}

	if err := dev.Flush(streamChunkSize + 1); err != nil {
		t.Fatal(err)
	}
	if err := dev.Pread(buf1, 0); AsStatus(err) != StatusEOF {
		t.Fatal("offset 0 must fail EOF only once flushing has advanced past chunk 0")
	}
}

func TestStreamWriteWatermark(t *testing.T) {
	var out bytes.Buffer
	b := &StreamBackend{Stdout: &out}
	dev, err := b.Open("<stdout>", FlagWriteOnly)
	if err != nil {
		t.Fatal(err)
	}
	if err := dev.Pwrite([]byte("ab"), 0); err != nil {
		t.Fatal(err)
	}
	if err := dev.Pwrite([]byte("cd"), 4); err != nil {
		t.Fatal(err)
	}
	if out.String() != "ab\x00\x00cd" {
		t.Fatalf("expected zero-padded write past watermark, got %q", out.String())
	}
	if err := dev.Pwrite([]byte("x"), 1); AsStatus(err) != StatusEOF {
		t.Fatal("write below watermark must fail EOF (DESIGN NOTES §9)")
	}
}

func TestRegistryResolveOrdersFileLast(t *testing.T) {
	r := NewRegistry()
	b, canon, ok := r.Resolve("*mem*")
	if !ok || b.Name() != "mem" || canon != "*mem*" {
		t.Fatalf("expected mem backend to claim *mem*, got %v %q %v", b, canon, ok)
	}
	b, _, ok = r.Resolve("some/plain/path")
	if !ok || b.Name() != "file" {
		t.Fatalf("expected file backend to be the universal fallback, got %v", b)
	}
}
