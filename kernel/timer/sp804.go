package timer

import (
	"github.com/sudharson14/xv6-OS-for-arm-v8/board"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/irq"
)

// SP804 register indices, in units of 4 bytes.
const (
	timerLoad   = 0 // load register, for the periodic timer
	timerCurVal = 1 // current value of the counter
	timerCtrl   = 2 // control register
	timerIntClr = 3 // any write acknowledges the interrupt
)

// Control register bits.
const (
	timer32Bit    = 0x02
	timerIntEn    = 0x20
	timerPeriodic = 0x40
	timerEn       = 0x80
)

// SP804 drives an ARM dual-timer module: timer 0 produces the periodic
// tick, timer 1 serves as the free-running source for short busy delays.
type SP804 struct {
	base      uintptr // timer 0
	delayBase uintptr // timer 1
}

func (tm *SP804) reg(base, idx uintptr) uint32 {
	return regReadFn(base + idx*4)
}

func (tm *SP804) setReg(base, idx uintptr, val uint32) {
	regWriteFn(base+idx*4, val)
}

// Init programs timer 0 as a 32-bit periodic interrupt source firing hz
// times a second and routes its interrupt line to the tick ISR. base and
// delayBase are the virtual addresses the two timers are mapped at.
func (tm *SP804) Init(ctl irq.Controller, base, delayBase uintptr, hz int) {
	tm.base = base
	tm.delayBase = delayBase

	tm.setReg(tm.base, timerLoad, uint32(board.ClkHz/hz))
	tm.setReg(tm.base, timerCtrl, timerEn|timerPeriodic|timer32Bit|timerIntEn)

	ctl.Enable(board.IRQTimer01, tm.isr)
}

func (tm *SP804) isr(tf *irq.Frame, n int) {
	tick()
	tm.setReg(tm.base, timerIntClr, 1)
}

// MicroDelay busy-waits for at least us microseconds against timer 1.
func (tm *SP804) MicroDelay(us int) {
	tm.setReg(tm.delayBase, timerCtrl, timerEn|timer32Bit)
	tm.setReg(tm.delayBase, timerLoad, uint32(us))

	// The counter wraps to 0xFFFFFFFF after reaching zero.
	for int32(tm.reg(tm.delayBase, timerCurVal)) > 0 {
	}

	tm.setReg(tm.delayBase, timerCtrl, 0)
}
