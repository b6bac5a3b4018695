package iodev

import (
	"io"
	"os"
	"strings"
)

// FileBackend is the universal fallback device: buffered file IO over the
// local filesystem (spec §4.1). It normalizes any handler it is given, so
// it must be registered last (spec §4.2).
type FileBackend struct{}

func NewFileBackend() *FileBackend { return &FileBackend{} }

func (*FileBackend) Name() string { return "file" }

// HandlerNormalize accepts any handler, prefixing "./" to a name that
// could otherwise collide with another backend's scheme syntax (spec
// §4.1 "prefixes ./ to names that could collide with scheme syntax").
func (*FileBackend) HandlerNormalize(handler string) (string, bool) {
	if looksLikeScheme(handler) {
		return "./" + handler, true
	}
	return handler, true
}

// looksLikeScheme reports whether handler has the shape SCHEME://... ,
// which every other backend's own normalization claims first; the file
// backend only ever sees such a string if no other backend matched it,
// in which case it must be disambiguated from a real scheme reference.
func looksLikeScheme(handler string) bool {
	if i := strings.Index(handler, "://"); i > 0 {
		for _, c := range handler[:i] {
			if !(c >= 'a' && c <= 'z' || c == '+') {
				return false
			}
		}
		return true
	}
	return false
}

func (*FileBackend) Open(handler string, flags Flags) (Device, error) {
	path := handler

	var osFlags int
	var requested bool
	if flags.CanRead() && flags.CanWrite() {
		osFlags, requested = os.O_RDWR, true
	} else if flags.CanWrite() {
		osFlags, requested = os.O_WRONLY, true
	} else if flags.CanRead() {
		osFlags, requested = os.O_RDONLY, true
	}
	if flags&FlagCreate != 0 {
		osFlags |= os.O_CREATE
	}
	if flags&FlagTruncate != 0 {
		osFlags |= os.O_TRUNC
	}

	var f *os.File
	var err error
	var effective Flags
	if requested {
		f, err = os.OpenFile(path, osFlags, 0o644)
		effective = flags & (FlagRead | FlagWrite | FlagCreate | FlagTruncate)
	} else {
		// No explicit mode requested: try read-write then read-only (spec §4.1).
		f, err = os.OpenFile(path, os.O_RDWR, 0o644)
		effective = FlagReadWrite
		if err != nil {
			f, err = os.OpenFile(path, os.O_RDONLY, 0o644)
			effective = FlagReadOnly
		}
	}
	if err != nil {
		return nil, statusErr("open", handler, StatusError, err.Error())
	}
	return &fileDevice{f: f, flags: effective}, nil
}

type fileDevice struct {
	f     *os.File
	flags Flags
}

func (*fileDevice) GetIfName() string { return "file" }

func (d *fileDevice) Pread(buf []byte, off uint64) error {
	n, err := d.f.ReadAt(buf, int64(off))
	if err == io.EOF && n == len(buf) {
		err = nil
	}
	if err == io.EOF || (err == nil && n < len(buf)) {
		return statusErr("pread", d.f.Name(), StatusEOF, "")
	}
	if err != nil {
		return statusErr("pread", d.f.Name(), StatusError, err.Error())
	}
	return nil
}

func (d *fileDevice) Pwrite(buf []byte, off uint64) error {
	if !d.flags.CanWrite() {
		return statusErr("pwrite", d.f.Name(), StatusInvalidFlags, "device not opened for write")
	}
	if _, err := d.f.WriteAt(buf, int64(off)); err != nil {
		return statusErr("pwrite", d.f.Name(), StatusError, err.Error())
	}
	return nil
}

func (d *fileDevice) GetFlags() Flags { return d.flags }

func (d *fileDevice) Size() (uint64, error) {
	fi, err := d.f.Stat()
	if err != nil {
		return 0, statusErr("size", d.f.Name(), StatusError, err.Error())
	}
	return uint64(fi.Size()), nil
}

func (d *fileDevice) Flush(uint64) error {
	if err := d.f.Sync(); err != nil {
		return statusErr("flush", d.f.Name(), StatusError, err.Error())
	}
	return nil
}

func (d *fileDevice) Close() error {
	if err := d.f.Close(); err != nil {
		return statusErr("close", d.f.Name(), StatusError, err.Error())
	}
	return nil
}
