package boardio

import (
	"fmt"

	"github.com/tarm/serial"
)

// SerialDebugTap optionally mirrors tick/endstop/state-transition events on
// a UART for bench debugging, the same way comm.RemoteDevice wraps
// github.com/tarm/serial for a device link, just write-only and
// best-effort here: losing a debug line is never a fault.
type SerialDebugTap struct {
	port *serial.Port
}

// NewSerialDebugTap opens a serial port at the given name/baud for
// debug-event mirroring. Returns an error if the port cannot be opened;
// callers that don't care about the debug tap should just ignore the
// error and leave the *SerialDebugTap nil.
func NewSerialDebugTap(name string, baud int) (*SerialDebugTap, error) {
	cfg := &serial.Config{Name: name, Baud: baud}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return &SerialDebugTap{port: port}, nil
}

// Logf writes a formatted debug line, ignoring write errors (a disconnected
// debug cable must never affect axis operation).
func (t *SerialDebugTap) Logf(format string, args ...interface{}) {
	if t == nil || t.port == nil {
		return
	}
	_, _ = fmt.Fprintf(t.port, format+"\r\n", args...)
}

// Close closes the underlying serial port.
func (t *SerialDebugTap) Close() error {
	if t == nil || t.port == nil {
		return nil
	}
	return t.port.Close()
}
