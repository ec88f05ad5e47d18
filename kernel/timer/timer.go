// Package timer produces the periodic tick that drives preemption, with
// two interchangeable sources: the SP804 dual timer found on older boards
// and the AArch64 virtual generic timer QEMU's virt machine provides.
// Both bump the same tick counter and wake sleepers through the
// scheduler.
package timer

import (
	"unsafe"

	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/proc"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/sync"
)

var (
	tickslock = sync.NewSpinlock("time")
	ticks     uint64
)

// tick is the shared ISR body: count the tick and wake anything sleeping
// on the counter.
func tick() {
	tickslock.Acquire()
	ticks++
	proc.Sched.Wakeup(unsafe.Pointer(&ticks))
	tickslock.Release()
}

// Ticks reads the tick counter.
func Ticks() uint64 {
	tickslock.Acquire()
	defer tickslock.Release()

	return ticks
}

// TicksChannel is the wait channel sleepers pass to the scheduler to be
// woken on the next tick.
func TicksChannel() unsafe.Pointer {
	return unsafe.Pointer(&ticks)
}

var (
	// regReadFn/regWriteFn access a timer register. Variables so tests
	// can substitute fakes backed by ordinary memory.
	regReadFn = func(addr uintptr) uint32 {
		return *(*uint32)(unsafe.Pointer(addr))
	}
	regWriteFn = func(addr uintptr, val uint32) {
		*(*uint32)(unsafe.Pointer(addr)) = val
	}
)
