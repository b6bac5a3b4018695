package iodev

const memChunkSize = 4096

// MemBackend backs an in-process byte buffer; handler is the literal
// "*mem*" or "*memory*" (spec §4.1). It must not claim every "*...*"
// handler, or it would shadow the zero/null backend's "*zero*"/"*null*"
// handlers registered after it.
type MemBackend struct{}

func NewMemBackend() *MemBackend { return &MemBackend{} }

func (*MemBackend) Name() string { return "mem" }

func (*MemBackend) HandlerNormalize(handler string) (string, bool) {
	if handler == "*mem*" || handler == "*memory*" {
		return handler, true
	}
	return "", false
}

func (*MemBackend) Open(handler string, flags Flags) (Device, error) {
	if !flags.CanRead() && !flags.CanWrite() {
		flags = FlagReadWrite
	}
	return &memDevice{flags: flags}, nil
}

// memDevice grows by fixed-size chunks on writes past the end (spec
// §4.1); a read beyond the current end reports EOF rather than growing.
type memDevice struct {
	buf   []byte
	flags Flags
}

func (*memDevice) GetIfName() string { return "mem" }

func (d *memDevice) Pread(buf []byte, off uint64) error {
	if off >= uint64(len(d.buf)) {
		if len(buf) == 0 {
			return nil
		}
		return statusErr("pread", "mem", StatusEOF, "")
	}
	n := copy(buf, d.buf[off:])
	if n < len(buf) {
		return statusErr("pread", "mem", StatusEOF, "")
	}
	return nil
}

func (d *memDevice) Pwrite(buf []byte, off uint64) error {
	if !d.flags.CanWrite() {
		return statusErr("pwrite", "mem", StatusInvalidFlags, "device not opened for write")
	}
	need := off + uint64(len(buf))
	if need > uint64(len(d.buf)) {
		grown := ((need + memChunkSize - 1) / memChunkSize) * memChunkSize
		grow := make([]byte, grown-uint64(len(d.buf)))
		d.buf = append(d.buf, grow...)
	}
	copy(d.buf[off:], buf)
	return nil
}

func (d *memDevice) GetFlags() Flags { return d.flags }

func (d *memDevice) Size() (uint64, error) { return uint64(len(d.buf)), nil }

func (*memDevice) Flush(uint64) error { return nil }

func (*memDevice) Close() error { return nil }
