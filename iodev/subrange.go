package iodev

import (
	"fmt"
	"strconv"
	"strings"
)

// SubLookup resolves an IOS id to the base space's Device, flags and
// size, so the sub-range backend can forward pread/pwrite without owning
// the open-space list itself (spec §4.1 "sub://IOS/BASE/SIZE/NAME";
// DESIGN NOTES §9 sub-IOS lifetime open question). The ios package wires
// this callback in after building its own Space registry.
type SubLookup func(iosID int) (dev Device, flags Flags, err error)

// SubBackend implements sub-range IO spaces that alias a contiguous
// window of another, already-open space (spec §4.1).
type SubBackend struct {
	lookup SubLookup
}

func NewSubBackend() *SubBackend { return &SubBackend{} }

// SetLookup installs the base-space resolver; must be called once before
// any sub:// handler is opened.
func (b *SubBackend) SetLookup(fn SubLookup) { b.lookup = fn }

func (*SubBackend) Name() string { return "sub" }

func (*SubBackend) HandlerNormalize(handler string) (string, bool) {
	if !strings.HasPrefix(handler, "sub://") {
		return "", false
	}
	if _, _, _, _, err := parseSubHandler(handler); err != nil {
		return "", false
	}
	return handler, true
}

func parseSubHandler(handler string) (iosID int, base, size uint64, name string, err error) {
	rest := strings.TrimPrefix(handler, "sub://")
	parts := strings.SplitN(rest, "/", 4)
	if len(parts) != 4 {
		return 0, 0, 0, "", fmt.Errorf("malformed sub handler %q", handler)
	}
	iosID, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, "", err
	}
	base, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, 0, "", err
	}
	size, err = strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return 0, 0, 0, "", err
	}
	return iosID, base, size, parts[3], nil
}

func (b *SubBackend) Open(handler string, flags Flags) (Device, error) {
	if b.lookup == nil {
		return nil, statusErr("open", handler, StatusError, "sub-range backend not wired to a space registry")
	}
	iosID, base, size, name, err := parseSubHandler(handler)
	if err != nil {
		return nil, statusErr("open", handler, StatusInvalidArgument, err.Error())
	}
	baseDev, baseFlags, err := b.lookup(iosID)
	if err != nil {
		return nil, statusErr("open", handler, StatusError, err.Error())
	}
	effective := baseFlags
	if flags != 0 {
		effective &= flags | (baseFlags &^ (FlagRead | FlagWrite))
	}
	return &subDevice{lookup: b.lookup, base: baseDev, baseID: iosID, off: base, size: size, name: name, flags: effective}, nil
}

// subDevice forwards pread/pwrite to its base space's device, bounds
// checking against its declared window (spec §4.1). Per the lifetime
// decision in DESIGN.md, it looks the base device up by id on every call
// via lookup rather than caching baseDev across the base's lifetime; once
// the base space is closed, ios retires its id and a subsequent lookup
// fails rather than silently resolving a stale device.
type subDevice struct {
	lookup SubLookup
	base   Device
	baseID int
	off    uint64
	size   uint64
	name   string
	flags  Flags
}

func (d *subDevice) GetIfName() string { return "sub" }

func (d *subDevice) resolve() (Device, error) {
	if d.lookup == nil {
		return d.base, nil
	}
	dev, _, err := d.lookup(d.baseID)
	return dev, err
}

func (d *subDevice) Pread(buf []byte, off uint64) error {
	if off+uint64(len(buf)) > d.size {
		return statusErr("pread", d.name, StatusEOF, "")
	}
	base, err := d.resolve()
	if err != nil {
		return statusErr("pread", d.name, StatusError, err.Error())
	}
	return base.Pread(buf, d.off+off)
}

func (d *subDevice) Pwrite(buf []byte, off uint64) error {
	if !d.flags.CanWrite() {
		return statusErr("pwrite", d.name, StatusInvalidFlags, "device not opened for write")
	}
	if off+uint64(len(buf)) > d.size {
		return statusErr("pwrite", d.name, StatusEOF, "")
	}
	base, err := d.resolve()
	if err != nil {
		return statusErr("pwrite", d.name, StatusError, err.Error())
	}
	return base.Pwrite(buf, d.off+off)
}

func (d *subDevice) GetFlags() Flags { return d.flags }

func (d *subDevice) Size() (uint64, error) { return d.size, nil }

func (d *subDevice) Flush(off uint64) error {
	base, err := d.resolve()
	if err != nil {
		return statusErr("flush", d.name, StatusError, err.Error())
	}
	return base.Flush(d.off + off)
}

func (*subDevice) Close() error { return nil }
