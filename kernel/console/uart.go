package console

import (
	"unsafe"

	"github.com/sudharson14/xv6-OS-for-arm-v8/board"
)

// PL011 register indices, in units of 4 bytes from the device base.
const (
	regDR   = 0  // data register
	regFR   = 6  // flag register
	regIBRD = 9  // integer baud rate register
	regFBRD = 10 // fractional baud rate register
	regLCR  = 11 // line control register
	regCR   = 12 // control register
	regIMSC = 14 // interrupt mask set/clear register
	regMIS  = 16 // masked interrupt status register
	regICR  = 17 // interrupt clear register
)

const (
	frTXFF = 1 << 5 // transmit FIFO full
	frRXFE = 1 << 4 // receive FIFO empty

	crRXE = 1 << 9 // enable receive
	crTXE = 1 << 8 // enable transmit
	crEN  = 1 << 0 // enable UART

	lcrFEN = 1 << 4 // enable FIFOs

	intRX = 1 << 4 // receive interrupt
	intTX = 1 << 5 // transmit interrupt

	bitRate = 19200
)

var (
	// regReadFn/regWriteFn access a device register. They are variables
	// so that tests, which cannot touch real MMIO, can substitute fakes
	// backed by ordinary memory.
	regReadFn = func(addr uintptr) uint32 {
		return *(*uint32)(unsafe.Pointer(addr))
	}
	regWriteFn = func(addr uintptr, val uint32) {
		*(*uint32)(unsafe.Pointer(addr)) = val
	}
)

// UART drives a PL011 serial port through its memory-mapped registers. The
// zero value is unusable until Init is called with the virtual address the
// device window is mapped at.
type UART struct {
	base uintptr
}

func (u *UART) reg(idx uintptr) uintptr {
	return u.base + idx*4
}

// Init programs the baud rate divisors and enables the transmitter,
// receiver and FIFOs.
func (u *UART) Init(base uintptr) {
	u.base = base

	u.write(regIBRD, uint32(board.UARTClk/(16*bitRate)))

	left := uint32(board.UARTClk % (16 * bitRate))
	u.write(regFBRD, (left*4+bitRate/2)/bitRate)

	u.write(regCR, u.read(regCR)|crEN|crRXE|crTXE)
	u.write(regLCR, u.read(regLCR)|lcrFEN)
}

func (u *UART) read(idx uintptr) uint32       { return regReadFn(u.reg(idx)) }
func (u *UART) write(idx uintptr, val uint32) { regWriteFn(u.reg(idx), val) }

// WriteByte implements io.ByteWriter, blocking while the transmit FIFO is
// full.
func (u *UART) WriteByte(b byte) error {
	for u.read(regFR)&frTXFF != 0 {
	}

	u.write(regDR, uint32(b))
	return nil
}

// Write implements io.Writer.
func (u *UART) Write(data []byte) (int, error) {
	for _, b := range data {
		u.WriteByte(b)
	}

	return len(data), nil
}

// ReadByte polls the receive FIFO, returning -1 when it is empty.
func (u *UART) ReadByte() int {
	if u.read(regFR)&frRXFE != 0 {
		return -1
	}

	return int(u.read(regDR) & 0xFF)
}

// EnableRx unmasks the receive interrupt at the device. Routing the IRQ to
// ServiceInterrupt is the caller's job, since the interrupt controller
// lives above this package.
func (u *UART) EnableRx() {
	u.write(regIMSC, intRX)
}

// ServiceInterrupt drains the receive FIFO into the supplied sink and
// acknowledges the interrupt. It is meant to be called from the ISR that
// the kernel registers for the UART's interrupt line.
func (u *UART) ServiceInterrupt(rx func(c int)) {
	if u.read(regMIS)&intRX != 0 {
		for {
			c := u.ReadByte()
			if c < 0 {
				break
			}
			rx(c)
		}
	}

	u.write(regICR, intRX|intTX)
}
