// Package console provides the kernel's text output path: a Device interface
// that early.Printf writes through, and a PL011 UART driver implementing it.
package console

import "io"

// Device is implemented by anything that can act as the kernel console.
// The method set is deliberately the combination of io.Writer and
// io.ByteWriter so that an ordinary bytes.Buffer can stand in for the real
// UART in tests.
type Device interface {
	io.Writer
	io.ByteWriter
}

// discard swallows output. It is the attached device between the very first
// instruction and the point where kmain brings up the UART, so that a
// Printf issued before console initialization is a no-op instead of a nil
// dereference.
type discard struct{}

func (discard) Write(data []byte) (int, error) { return len(data), nil }
func (discard) WriteByte(b byte) error         { return nil }

// Active is the device all kernel text output goes to.
var Active Device = discard{}

// Attach redirects kernel output to the supplied device. Attaching nil
// restores the discard sink.
func Attach(d Device) {
	if d == nil {
		Active = discard{}
		return
	}

	Active = d
}
