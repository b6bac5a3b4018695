package iodev

// ZeroBackend backs the zero/null device: reads return zeroed bytes at
// any offset, writes are discarded, size is "infinite" (spec §4.1).
type ZeroBackend struct{}

func NewZeroBackend() *ZeroBackend { return &ZeroBackend{} }

func (*ZeroBackend) Name() string { return "zero" }

func (*ZeroBackend) HandlerNormalize(handler string) (string, bool) {
	if handler == "*zero*" || handler == "*null*" {
		return handler, true
	}
	return "", false
}

func (*ZeroBackend) Open(string, Flags) (Device, error) { return &zeroDevice{}, nil }

type zeroDevice struct{}

func (*zeroDevice) GetIfName() string { return "zero" }

func (*zeroDevice) Pread(buf []byte, off uint64) error {
	for i := range buf {
		buf[i] = 0
	}
	return nil
}

func (*zeroDevice) Pwrite([]byte, uint64) error { return nil }

func (*zeroDevice) GetFlags() Flags { return FlagReadWrite }

// infiniteSize is 2^64-1, spec §4.1 "size is 'infinite' (2⁶⁴−1)".
const infiniteSize = ^uint64(0)

func (*zeroDevice) Size() (uint64, error) { return infiniteSize, nil }

func (*zeroDevice) Flush(uint64) error { return nil }

func (*zeroDevice) Close() error { return nil }
