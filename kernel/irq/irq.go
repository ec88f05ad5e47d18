// Package irq routes device interrupts: it defines the trapframe captured
// by the exception vectors, the ISR contract, and drivers for the two
// interrupt controllers this kernel knows about (GICv2 and the legacy
// PL190 VIC) behind a common Controller interface.
package irq

import (
	"unsafe"

	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/kfmt/early"
)

// ISR services one interrupt source. It runs with IRQs masked, on the
// kernel stack of whatever thread was interrupted.
type ISR func(tf *Frame, irq int)

// Controller is the contract between the trap layer and a concrete
// interrupt controller: registering a service routine for an interrupt
// line and dispatching whatever is currently pending.
type Controller interface {
	// Enable registers isr for the given interrupt line and unmasks it.
	Enable(irq int, isr ISR)

	// Dispatch identifies the pending interrupt, invokes its ISR and
	// acknowledges it.
	Dispatch(tf *Frame)
}

// defaultISR occupies every table slot no driver has claimed.
func defaultISR(tf *Frame, irq int) {
	early.Printf("unhandled interrupt: %d\n", irq)
}

var (
	// regReadFn/regWriteFn access a controller register. Variables so
	// tests can substitute fakes backed by ordinary memory.
	regReadFn = func(addr uintptr) uint32 {
		return *(*uint32)(unsafe.Pointer(addr))
	}
	regWriteFn = func(addr uintptr, val uint32) {
		*(*uint32)(unsafe.Pointer(addr)) = val
	}
)
