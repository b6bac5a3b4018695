package iodev

import (
	"fmt"
	"strconv"
	"strings"
)

// ProcMemBackend addresses another process's memory through
// /proc/PID/mem; handler pid://N (spec §4.1).
type ProcMemBackend struct{}

func NewProcMemBackend() *ProcMemBackend { return &ProcMemBackend{} }

func (*ProcMemBackend) Name() string { return "procmem" }

func (*ProcMemBackend) HandlerNormalize(handler string) (string, bool) {
	if !strings.HasPrefix(handler, "pid://") {
		return "", false
	}
	if _, err := strconv.Atoi(strings.TrimPrefix(handler, "pid://")); err != nil {
		return "", false
	}
	return handler, true
}

// Open delegates pread/pwrite to a file device on /proc/N/mem and
// reports an infinite size (spec §4.1).
func (*ProcMemBackend) Open(handler string, flags Flags) (Device, error) {
	pid, err := strconv.Atoi(strings.TrimPrefix(handler, "pid://"))
	if err != nil {
		return nil, statusErr("open", handler, StatusInvalidArgument, err.Error())
	}
	path := fmt.Sprintf("/proc/%d/mem", pid)
	dev, err := (&FileBackend{}).Open(path, flags)
	if err != nil {
		return nil, statusErr("open", handler, StatusError, err.Error())
	}
	return &procMemDevice{inner: dev.(*fileDevice)}, nil
}

// procMemDevice wraps the underlying file device's pread/pwrite, with
// Size always reporting "infinite" (spec §4.1).
type procMemDevice struct {
	inner *fileDevice
}

func (*procMemDevice) GetIfName() string { return "procmem" }

func (d *procMemDevice) Pread(buf []byte, off uint64) error  { return d.inner.Pread(buf, off) }
func (d *procMemDevice) Pwrite(buf []byte, off uint64) error { return d.inner.Pwrite(buf, off) }
func (d *procMemDevice) GetFlags() Flags                     { return d.inner.GetFlags() }
func (d *procMemDevice) Size() (uint64, error)                { return ^uint64(0), nil }
func (d *procMemDevice) Flush(off uint64) error               { return d.inner.Flush(off) }
func (d *procMemDevice) Close() error                         { return d.inner.Close() }
