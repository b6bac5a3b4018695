package iodev

import (
	"io"
)

// streamChunkSize is the fixed chunk size of the stream buffer protocol
// (spec §4.1 "Stream buffer protocol"): 2 KiB.
const streamChunkSize = 2048

// StreamBackend backs stdin/stdout/stderr: stdin is read-through with a
// chunk-buffered back store, stdout/stderr are write-forward (spec §4.1).
type StreamBackend struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func NewStreamBackend() *StreamBackend { return &StreamBackend{} }

func (*StreamBackend) Name() string { return "stream" }

func (*StreamBackend) HandlerNormalize(handler string) (string, bool) {
	switch handler {
	case "<stdin>", "<stdout>", "<stderr>":
		return handler, true
	}
	return "", false
}

func (b *StreamBackend) Open(handler string, flags Flags) (Device, error) {
	switch handler {
	case "<stdin>":
		return newStreamReadDevice(b.Stdin), nil
	case "<stdout>":
		return newStreamWriteDevice(b.Stdout), nil
	case "<stderr>":
		return newStreamWriteDevice(b.Stderr), nil
	}
	return nil, statusErr("open", handler, StatusInvalidArgument, "unknown stream handler")
}

// chunkBuffer is the sparse, indexed chunk set described in spec §4.1: a
// slice of fixed-size chunks starting at chunk number `begin`, each
// either present (read from the underlying stream) or already forgotten.
type chunkBuffer struct {
	chunks     [][]byte // chunks[i] is chunk number begin+i
	begin      int      // first chunk number still held
	totalBytes uint64   // bytes ever read from the underlying stream (its end)
}

func (c *chunkBuffer) beginOffset() uint64 { return uint64(c.begin) * streamChunkSize }

// forgetTill drops every chunk whose chunk number is below off/CHUNK and
// advances the begin-offset (spec §4.1 "forget_till").
func (c *chunkBuffer) forgetTill(off uint64) {
	target := int(off / streamChunkSize)
	if target <= c.begin {
		return
	}
	drop := target - c.begin
	if drop > len(c.chunks) {
		drop = len(c.chunks)
	}
	c.chunks = c.chunks[drop:]
	c.begin = target
}

// ensureTill reads from r until the buffer holds at least byte offset
// end-1, appending whole chunks (spec §4.1 "fetch the tail from the
// underlying stream into the buffer atomically").
func (c *chunkBuffer) ensureTill(r io.Reader, end uint64) error {
	for c.totalBytes < end {
		chunk := make([]byte, streamChunkSize)
		n, err := io.ReadFull(r, chunk)
		if n > 0 {
			c.chunks = append(c.chunks, chunk[:n])
			c.totalBytes += uint64(n)
		}
		if err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return io.EOF
			}
			return err
		}
	}
	return nil
}

func (c *chunkBuffer) read(buf []byte, off uint64) error {
	if off < c.beginOffset() {
		return io.EOF
	}
	for i := range buf {
		pos := off + uint64(i)
		chunkNo := int(pos / streamChunkSize)
		idx := chunkNo - c.begin
		if idx < 0 || idx >= len(c.chunks) {
			return io.EOF
		}
		chunk := c.chunks[idx]
		off2 := int(pos % streamChunkSize)
		if off2 >= len(chunk) {
			return io.EOF
		}
		buf[i] = chunk[off2]
	}
	return nil
}

// streamReadDevice is the stdin-like half: reads at any offset at or
// above the buffer's begin-offset succeed, served from the chunk buffer,
// growing it from the underlying reader as needed (spec §4.1, §8 scenario 3).
type streamReadDevice struct {
	src io.Reader
	buf chunkBuffer
}

func newStreamReadDevice(r io.Reader) *streamReadDevice {
	return &streamReadDevice{src: r}
}

func (*streamReadDevice) GetIfName() string { return "stream" }

func (d *streamReadDevice) Pread(buf []byte, off uint64) error {
	end := off + uint64(len(buf))
	if end > d.buf.totalBytes {
		// ensureTill reads whole chunks past end, so it routinely hits the
		// underlying stream's EOF even when it buffered enough to satisfy
		// this particular read; only a non-EOF error from the source is
		// fatal here. Whether buf itself is actually satisfied is decided
		// below by d.buf.read.
		if err := d.buf.ensureTill(d.src, end); err != nil && err != io.EOF {
			return statusErr("pread", "stdin", StatusError, err.Error())
		}
	}
	if err := d.buf.read(buf, off); err != nil {
		return statusErr("pread", "stdin", StatusEOF, "")
	}
	return nil
}

func (*streamReadDevice) Pwrite([]byte, uint64) error {
	return statusErr("pwrite", "stdin", StatusInvalidFlags, "stdin is not writable")
}

func (*streamReadDevice) GetFlags() Flags { return FlagReadOnly }

func (d *streamReadDevice) Size() (uint64, error) { return ^uint64(0), nil }

// Flush advances the buffer's begin-offset to the chunk holding byte
// offset off (bits to bytes is the IO space's job; the device itself is
// handed a byte offset already — see ios.Flush), dropping earlier chunks
// (spec §4.2 "Flush(off)").
func (d *streamReadDevice) Flush(off uint64) error {
	d.buf.forgetTill(off)
	return nil
}

func (*streamReadDevice) Close() error { return nil }

// streamWriteDevice is the stdout/stderr-like half: write-forward with a
// high-water mark; a write past the mark pads with zeroes, a write
// before it fails EOF (spec §4.1, DESIGN NOTES §9 "stream write below
// watermark").
type streamWriteDevice struct {
	w     io.Writer
	water uint64
}

func newStreamWriteDevice(w io.Writer) *streamWriteDevice {
	return &streamWriteDevice{w: w}
}

func (*streamWriteDevice) GetIfName() string { return "stream" }

func (*streamWriteDevice) Pread([]byte, uint64) error {
	return statusErr("pread", "stdout", StatusInvalidFlags, "stream is not readable")
}

func (d *streamWriteDevice) Pwrite(buf []byte, off uint64) error {
	if off < d.water {
		return statusErr("pwrite", "stdout", StatusEOF, "write before watermark")
	}
	if off > d.water {
		pad := make([]byte, off-d.water)
		if _, err := d.w.Write(pad); err != nil {
			return statusErr("pwrite", "stdout", StatusError, err.Error())
		}
		d.water = off
	}
	if _, err := d.w.Write(buf); err != nil {
		return statusErr("pwrite", "stdout", StatusError, err.Error())
	}
	d.water += uint64(len(buf))
	return nil
}

func (*streamWriteDevice) GetFlags() Flags { return FlagWriteOnly }

func (d *streamWriteDevice) Size() (uint64, error) { return d.water, nil }

func (*streamWriteDevice) Flush(uint64) error { return nil }

func (*streamWriteDevice) Close() error { return nil }
