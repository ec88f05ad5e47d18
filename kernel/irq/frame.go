package irq

import (
	"io"

	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/console"
)

// Frame is the register file captured by the exception vector stubs on
// every EL1 entry and restored on return. The assembly pushes the fields
// in exactly this order, so the layout is a contract: 31 general-purpose
// registers, the saved EL0 stack pointer, the saved program counter
// (ELR_EL1) and the saved processor state (SPSR_EL1), 34 words in total.
// The low four bits of SPSR record which exception level the trap came
// from.
type Frame struct {
	R0   uint64
	R1   uint64
	R2   uint64
	R3   uint64
	R4   uint64
	R5   uint64
	R6   uint64
	R7   uint64
	R8   uint64
	R9   uint64
	R10  uint64
	R11  uint64
	R12  uint64
	R13  uint64
	R14  uint64
	R15  uint64
	R16  uint64
	R17  uint64
	R18  uint64
	R19  uint64
	R20  uint64
	R21  uint64
	R22  uint64
	R23  uint64
	R24  uint64
	R25  uint64
	R26  uint64
	R27  uint64
	R28  uint64
	R29  uint64
	R30  uint64 // user mode lr
	SP   uint64 // user mode sp
	PC   uint64 // user mode pc (ELR_EL1)
	SPSR uint64
}

// spsrELMask extracts the exception-level bits of a saved SPSR.
const spsrELMask = 0xF

// FromEL0 reports whether the trap was taken from user mode.
func (f *Frame) FromEL0() bool {
	return f.SPSR&spsrELMask == 0
}

// DumpTo writes a dump of the captured registers to w, one right-aligned
// "name: 0xvalue" line per register. The formatting is done by hand into
// a stack buffer so the dump can run from an abort handler without
// dragging fmt into the kernel.
func (f *Frame) DumpTo(w io.Writer) {
	dumpReg(w, []byte("sp"), f.SP)
	dumpReg(w, []byte("pc"), f.PC)
	dumpReg(w, []byte("spsr"), f.SPSR)

	regs := [...]uint64{
		f.R0, f.R1, f.R2, f.R3, f.R4, f.R5, f.R6, f.R7,
		f.R8, f.R9, f.R10, f.R11, f.R12, f.R13, f.R14, f.R15,
		f.R16, f.R17, f.R18, f.R19, f.R20, f.R21, f.R22, f.R23,
		f.R24, f.R25, f.R26, f.R27, f.R28, f.R29, f.R30,
	}
	for i, r := range regs {
		var name [3]byte
		n := append(name[:0], 'r')
		if i >= 10 {
			n = append(n, byte('0'+i/10))
		}
		n = append(n, byte('0'+i%10))

		dumpReg(w, n, r)
	}
}

// Print dumps the captured registers to the active console.
func (f *Frame) Print() {
	f.DumpTo(console.Active)
}

// dumpReg writes one "   name: 0xvalue\n" line, with the name
// right-justified so the colons line up down the dump.
func dumpReg(w io.Writer, name []byte, val uint64) {
	var line [28]byte
	b := line[:0]

	for i := len(name); i < 7; i++ {
		b = append(b, ' ')
	}
	b = append(b, name...)
	b = append(b, ':', ' ', '0', 'x')

	digits := false
	for shift := 60; shift >= 0; shift -= 4 {
		d := byte(val>>uint(shift)) & 0xF
		if d != 0 {
			digits = true
		}
		if !digits && shift != 0 {
			continue
		}

		if d < 10 {
			b = append(b, '0'+d)
		} else {
			b = append(b, 'a'+d-10)
		}
	}

	b = append(b, '\n')
	w.Write(b)
}
