// Package iodev implements the uniform byte-addressable device interface
// underlying every IO space (spec §4.1): a small closed set of backends
// (file, memory, process memory, sub-range, NBD, stream, zero/null), each
// exposing pread/pwrite/size/flush over whatever medium it wraps.
//
// Grounded on lang/machine/thread.go's typed-status-as-error idiom
// (jcorbin-gothird/internal/mem.LimitError: a small Go struct implementing
// error, carried as a value rather than a sentinel so callers can recover
// the offending offset) generalized to the closed Status enum spec §4.1
// mandates ("Returns use a small closed status enum").
package iodev

import "fmt"

// Status is the closed set of outcomes a device call reports (spec §4.1).
type Status int

const (
	StatusOK Status = iota
	StatusError
	StatusInvalidOffset
	StatusInvalidFlags
	StatusOOM
	StatusEOF
	StatusInvalidArgument
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	case StatusInvalidOffset:
		return "invalid offset"
	case StatusInvalidFlags:
		return "invalid flags"
	case StatusOOM:
		return "out of memory"
	case StatusEOF:
		return "eof"
	case StatusInvalidArgument:
		return "invalid argument"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// DeviceError pairs a Status with the operation and handler that produced
// it, so a failing Open can "report the exact error reason" (spec §4.1).
type DeviceError struct {
	Status  Status
	Op      string
	Handler string
	Detail  string
}

func (e *DeviceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Op, e.Handler, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Handler, e.Status)
}

func statusErr(op, handler string, status Status, detail string) error {
	return &DeviceError{Status: status, Op: op, Handler: handler, Detail: detail}
}

// AsStatus unwraps err's Status, defaulting to StatusError for any error
// that did not originate from this package (e.g. a wrapped os.PathError).
func AsStatus(err error) Status {
	if err == nil {
		return StatusOK
	}
	if se, ok := err.(*DeviceError); ok {
		return se.Status
	}
	return StatusError
}

// Flags is the 64-bit IO flag word (spec §6): low 8 bits are mode, bits
// 8..31 are generic, bits 32..63 are IOD-specific.
type Flags uint64

const (
	FlagRead     Flags = 1 << 0
	FlagWrite    Flags = 1 << 1
	FlagCreate   Flags = 1 << 4
	FlagTruncate Flags = 1 << 5

	FlagReadOnly  = FlagRead
	FlagWriteOnly = FlagWrite
	FlagReadWrite = FlagRead | FlagWrite
)

func (f Flags) CanRead() bool  { return f&FlagRead != 0 }
func (f Flags) CanWrite() bool { return f&FlagWrite != 0 }

// Device is the uniform interface every backend implements (spec §4.1).
type Device interface {
	// GetIfName reports this device's backend name, for diagnostics and
	// the `ios` REPL command this spec treats as an external collaborator.
	GetIfName() string
	Pread(buf []byte, off uint64) error
	Pwrite(buf []byte, off uint64) error
	GetFlags() Flags
	Size() (uint64, error)
	Flush(off uint64) error
	Close() error
}

// Backend is a registrable device constructor (spec §4.1 "each backend
// exposes get_if_name, handler_normalize, open...").
type Backend interface {
	Name() string
	// HandlerNormalize returns the canonical handler string this backend
	// would use for handler, and whether it claims it at all.
	HandlerNormalize(handler string) (string, bool)
	Open(handler string, flags Flags) (Device, error)
}

// Registry holds backends in declaration order; Open tries each
// HandlerNormalize in turn and the first match wins (spec §4.2 "the file
// backend, being the universal fallback, is last").
type Registry struct {
	backends []Backend
	sub      *SubBackend
}

// NewRegistry builds the default registry with every in-scope backend,
// ordered so the file backend is tried last (spec §4.2).
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewMemBackend())
	r.Register(NewProcMemBackend())
	r.sub = NewSubBackend()
	r.Register(r.sub)
	r.Register(NewNBDBackend())
	r.Register(NewStreamBackend())
	r.Register(NewZeroBackend())
	r.Register(NewFileBackend())
	return r
}

func (r *Registry) Register(b Backend) { r.backends = append(r.backends, b) }

// Backends returns the registry's backends in declaration order, for
// introspection (the `ios` shell command this spec treats as an
// external collaborator; cmd/pokec's own devices command uses this
// directly).
func (r *Registry) Backends() []Backend { return append([]Backend(nil), r.backends...) }

// SubBackend returns the registry's sub-range backend so a caller one
// layer up (ios, which owns the open-space list the sub-range device
// must look base spaces up in) can wire its lookup callback in after
// construction (spec §4.1 "sub://IOS/BASE/SIZE/NAME"; DESIGN NOTES §9
// "Open question — sub-IOS lifetime").
func (r *Registry) SubBackend() *SubBackend { return r.sub }

// Resolve finds the first backend whose HandlerNormalize claims handler,
// returning it and its canonical form; ordering matters (spec §4.2).
func (r *Registry) Resolve(handler string) (Backend, string, bool) {
	for _, b := range r.backends {
		if canon, ok := b.HandlerNormalize(handler); ok {
			return b, canon, true
		}
	}
	return nil, "", false
}
