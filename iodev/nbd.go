package iodev

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
)

// NBDBackend implements the Network Block Device client (spec §4.1);
// handler nbd://... or nbd+unix://....
type NBDBackend struct{}

func NewNBDBackend() *NBDBackend { return &NBDBackend{} }

func (*NBDBackend) Name() string { return "nbd" }

func (*NBDBackend) HandlerNormalize(handler string) (string, bool) {
	if strings.HasPrefix(handler, "nbd://") || strings.HasPrefix(handler, "nbd+unix://") {
		return handler, true
	}
	return "", false
}

const (
	nbdMagicIHAVEOPT  = 0x49484156454F5054
	nbdMagicREPLY     = 0x3e889045565a9
	nbdOptExportName  = 1
	nbdFlagFixedNewstyle = 1 << 0
	nbdFlagHasFlags   = 1 << 0
	nbdFlagReadOnly   = 1 << 1

	nbdCmdRead  = 0
	nbdCmdWrite = 1
	nbdRequestMagic = 0x25609513
	nbdSimpleReplyMagic = 0x67446698
)

// Open performs the NBD handshake (fixed newstyle negotiation, export
// name NAME from the handler path) and probes the export's read-only
// flag to determine writability (spec §4.1 "probes for writability").
func (*NBDBackend) Open(handler string, flags Flags) (Device, error) {
	network, addr, export, err := parseNBDHandler(handler)
	if err != nil {
		return nil, statusErr("open", handler, StatusInvalidArgument, err.Error())
	}
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, statusErr("open", handler, StatusError, err.Error())
	}
	size, readOnly, err := nbdHandshake(conn, export)
	if err != nil {
		conn.Close()
		return nil, statusErr("open", handler, StatusError, err.Error())
	}
	effective := FlagRead
	if !readOnly {
		effective |= FlagWrite
	}
	if flags != 0 {
		effective &= flags
	}
	return &nbdDevice{conn: conn, size: size, flags: effective}, nil
}

func parseNBDHandler(handler string) (network, addr, export string, err error) {
	network = "tcp"
	rest := handler
	switch {
	case strings.HasPrefix(handler, "nbd+unix://"):
		network = "unix"
		rest = strings.TrimPrefix(handler, "nbd+unix://")
	case strings.HasPrefix(handler, "nbd://"):
		rest = strings.TrimPrefix(handler, "nbd://")
	default:
		return "", "", "", fmt.Errorf("not an nbd handler: %q", handler)
	}
	parts := strings.SplitN(rest, "/", 2)
	addr = parts[0]
	if network == "tcp" && !strings.Contains(addr, ":") {
		addr += ":10809"
	}
	if len(parts) == 2 {
		export = parts[1]
	}
	return network, addr, export, nil
}

// nbdHandshake speaks the fixed newstyle negotiation down to a single
// NBD_OPT_EXPORT_NAME, returning the export's size and read-only flag.
func nbdHandshake(conn net.Conn, export string) (size uint64, readOnly bool, err error) {
	var magic [8]byte
	if _, err = io.ReadFull(conn, magic[:]); err != nil {
		return 0, false, err
	}
	if _, err = io.ReadFull(conn, magic[:]); err != nil { // IHAVEOPT
		return 0, false, err
	}
	var serverFlags uint16
	if err = binary.Read(conn, binary.BigEndian, &serverFlags); err != nil {
		return 0, false, err
	}
	if serverFlags&nbdFlagFixedNewstyle == 0 {
		return 0, false, fmt.Errorf("server does not support fixed newstyle negotiation")
	}
	if err = binary.Write(conn, binary.BigEndian, uint32(nbdFlagFixedNewstyle)); err != nil {
		return 0, false, err
	}

	if err = binary.Write(conn, binary.BigEndian, uint64(nbdMagicIHAVEOPT)); err != nil {
		return 0, false, err
	}
	if err = binary.Write(conn, binary.BigEndian, uint32(nbdOptExportName)); err != nil {
		return 0, false, err
	}
	if err = binary.Write(conn, binary.BigEndian, uint32(len(export))); err != nil {
		return 0, false, err
	}
	if _, err = io.WriteString(conn, export); err != nil {
		return 0, false, err
	}

	var exportSize uint64
	if err = binary.Read(conn, binary.BigEndian, &exportSize); err != nil {
		return 0, false, err
	}
	var transmitFlags uint16
	if err = binary.Read(conn, binary.BigEndian, &transmitFlags); err != nil {
		return 0, false, err
	}
	var zeroes [124]byte
	if _, err = io.ReadFull(conn, zeroes[:]); err != nil {
		return 0, false, err
	}
	return exportSize, transmitFlags&nbdFlagReadOnly != 0, nil
}

type nbdDevice struct {
	conn    net.Conn
	size    uint64
	flags   Flags
	handle  uint64
}

func (*nbdDevice) GetIfName() string { return "nbd" }

func (d *nbdDevice) request(cmd uint16, off uint64, buf []byte, write bool) error {
	d.handle++
	hdr := make([]byte, 28)
	binary.BigEndian.PutUint32(hdr[0:], nbdRequestMagic)
	binary.BigEndian.PutUint16(hdr[4:], 0)
	binary.BigEndian.PutUint16(hdr[6:], cmd)
	binary.BigEndian.PutUint64(hdr[8:], d.handle)
	binary.BigEndian.PutUint64(hdr[16:], off)
	binary.BigEndian.PutUint32(hdr[24:], uint32(len(buf)))
	if _, err := d.conn.Write(hdr); err != nil {
		return err
	}
	if write {
		if _, err := d.conn.Write(buf); err != nil {
			return err
		}
	}

	reply := make([]byte, 16)
	if _, err := io.ReadFull(d.conn, reply); err != nil {
		return err
	}
	errCode := binary.BigEndian.Uint32(reply[4:])
	if errCode != 0 {
		return fmt.Errorf("nbd error %d", errCode)
	}
	if !write {
		if _, err := io.ReadFull(d.conn, buf); err != nil {
			return err
		}
	}
	return nil
}

func (d *nbdDevice) Pread(buf []byte, off uint64) error {
	if err := d.request(nbdCmdRead, off, buf, false); err != nil {
		return statusErr("pread", "nbd", StatusError, err.Error())
	}
	return nil
}

func (d *nbdDevice) Pwrite(buf []byte, off uint64) error {
	if !d.flags.CanWrite() {
		return statusErr("pwrite", "nbd", StatusInvalidFlags, "export is read-only")
	}
	if err := d.request(nbdCmdWrite, off, buf, true); err != nil {
		return statusErr("pwrite", "nbd", StatusError, err.Error())
	}
	return nil
}

func (d *nbdDevice) GetFlags() Flags      { return d.flags }
func (d *nbdDevice) Size() (uint64, error) { return d.size, nil }
func (*nbdDevice) Flush(uint64) error      { return nil }
func (d *nbdDevice) Close() error          { return d.conn.Close() }
