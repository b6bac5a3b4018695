// Package ios implements the IO space layer (spec §4.2): space
// lifecycle (open/close/search/iterate/current), and bit-level
// integer/string reads and writes over the devices in package iodev.
//
// Grounded on lang/machine/thread.go's registry-of-live-resources shape
// (a process-wide mutable list with "current" selection, spec §5 "The
// open-IO-space list and current-space pointer are process-wide mutable
// state under the VM's sole control"), generalized from a single thread
// registry to ios's open-space list.
package ios

import (
	"fmt"

	"github.com/poke-lang/poke/iodev"
)

// Endian selects bit ordering for a read/write (spec §4.2).
type Endian int

const (
	EndianMSB Endian = iota
	EndianLSB
)

// NegEncoding selects how a negative signed value's raw bit pattern is
// interpreted (spec §4.2).
type NegEncoding int

const (
	NegTwosComplement NegEncoding = iota
	NegOnesComplement
)

// Space is an open IO space: a handle, the device backing it, an id, and
// a signed bit-level bias added to every user-supplied offset (spec
// §3.5).
type Space struct {
	ID      int
	Handler string
	Device  iodev.Device
	Bias    int64

	closed bool
}

func (s *Space) biasedOffset(off int64) int64 { return off + s.Bias }

// ErrAlreadyOpen is returned by Open when another space already wraps
// the same canonical handler (spec §4.2).
type ErrAlreadyOpen struct{ Handler string }

func (e *ErrAlreadyOpen) Error() string { return fmt.Sprintf("IO space already open: %s", e.Handler) }

// ErrBaseClosed is returned when a sub-IOS operation is attempted after
// its base space has been closed (spec §9 "Open question — sub-IOS
// lifetime", resolved as option (b): the id is retired rather than an
// invalidation protocol being threaded through every sub-device).
type ErrBaseClosed struct{ ID int }

func (e *ErrBaseClosed) Error() string { return fmt.Sprintf("base IO space %d is closed", e.ID) }

// ErrPermission is returned when a read is attempted on a space not
// opened for READ, or a write on one not opened for WRITE (spec §4.2
// "Permissions").
type ErrPermission struct{ Op, Handler string }

func (e *ErrPermission) Error() string {
	return fmt.Sprintf("permission denied: %s on %s", e.Op, e.Handler)
}

// Registry is the process-wide list of open spaces plus the current-space
// pointer (spec §3.5, §5). The zero value is ready to use once New
// populates its device registry.
type Registry struct {
	devices *iodev.Registry
	spaces  []*Space // open list, in open order; index 0 is "the list head"
	current *Space
	nextID  int
}

// New builds a Registry with the default device backends wired in,
// including the sub-range backend's lookup callback into this registry's
// own space list (spec §4.1 "sub://IOS/BASE/SIZE/NAME").
func New() *Registry {
	r := &Registry{devices: iodev.NewRegistry()}
	r.devices.SubBackend().SetLookup(r.lookupForSub)
	return r
}

// Backends returns the underlying device registry's backends in
// declaration order, for introspection.
func (r *Registry) Backends() []iodev.Backend { return r.devices.Backends() }

func (r *Registry) lookupForSub(id int) (iodev.Device, iodev.Flags, error) {
	sp := r.byID(id)
	if sp == nil || sp.closed {
		return nil, 0, &ErrBaseClosed{ID: id}
	}
	return sp.Device, sp.Device.GetFlags(), nil
}

func (r *Registry) byID(id int) *Space {
	for _, sp := range r.spaces {
		if sp.ID == id {
			return sp
		}
	}
	return nil
}

// Open resolves handler to a backend in declaration order (spec §4.2
// "Open selects a backend... the first that returns a non-null canonical
// handler wins"), rejects a duplicate canonical handler, and on success
// appends the new space to the list and makes it current. The id counter
// only advances once every possible error has been ruled out (spec §4.2
// "advanced only after all possible errors are ruled out").
func (r *Registry) Open(handler string, flags iodev.Flags) (*Space, error) {
	backend, canon, ok := r.devices.Resolve(handler)
	if !ok {
		return nil, fmt.Errorf("ios: no backend claims handler %q", handler)
	}
	for _, sp := range r.spaces {
		if sp.Handler == canon {
			return nil, &ErrAlreadyOpen{Handler: canon}
		}
	}
	dev, err := backend.Open(canon, flags)
	if err != nil {
		return nil, err
	}
	id := r.nextID
	r.nextID++
	sp := &Space{ID: id, Handler: canon, Device: dev}
	r.spaces = append(r.spaces, sp)
	r.current = sp
	return sp, nil
}

// Close releases the device, unlinks sp from the list, and if sp was
// current, makes the list head current (spec §4.2 "Close").
func (r *Registry) Close(sp *Space) error {
	for i, s := range r.spaces {
		if s == sp {
			r.spaces = append(r.spaces[:i], r.spaces[i+1:]...)
			break
		}
	}
	sp.closed = true
	if r.current == sp {
		if len(r.spaces) > 0 {
			r.current = r.spaces[0]
		} else {
			r.current = nil
		}
	}
	return sp.Device.Close()
}

// Current returns the designated current space, or nil if none is open.
func (r *Registry) Current() *Space { return r.current }

// SetCurrent makes sp the current space.
func (r *Registry) SetCurrent(sp *Space) { r.current = sp }

// Find searches the open list by handler.
func (r *Registry) Find(handler string) *Space {
	for _, sp := range r.spaces {
		if sp.Handler == handler {
			return sp
		}
	}
	return nil
}

// ByID searches the open list by id.
func (r *Registry) ByID(id int) *Space { return r.byID(id) }

// Spaces returns the open list in open order, for REPL introspection
// (`ios` command, an out-of-scope external collaborator per spec §1, but
// the iteration primitive it would call belongs here).
func (r *Registry) Spaces() []*Space { return append([]*Space(nil), r.spaces...) }

// Flush delegates to the device; on a stream device it also advances the
// chunk buffer's begin-offset (spec §4.2 "Flush(off)").
func (r *Registry) Flush(sp *Space, bitOff int64) error {
	return sp.Device.Flush(uint64(sp.biasedOffset(bitOff)) / 8)
}
