package timer

import (
	"github.com/sudharson14/xv6-OS-for-arm-v8/board"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/cpu"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/irq"
)

// CNTV_CTL_EL0 bits.
const (
	cntvCtlEnable = 1 << 0
	cntvCtlMask   = 1 << 1
	cntvCtlStart  = 1 << 2
)

const hzPerUs = 1000000

var (
	// Generic-timer register accessors, overridable by tests since the
	// underlying MRS/MSR accesses fault in user mode.
	timerFreqFn   = cpu.TimerFrequency
	physCounterFn = cpu.PhysicalCounter
	readCtlFn     = cpu.ReadVTimerCtl
	writeCtlFn    = cpu.WriteVTimerCtl
	writeTvalFn   = cpu.WriteVTimerTval
)

// VTimer drives the AArch64 virtual generic timer, the tick source on
// QEMU's virt machine, through its system registers. Unlike the SP804 the
// downcount must be re-armed from the ISR on every expiry.
type VTimer struct {
	intervalUs uint64
}

func (vt *VTimer) stop() {
	ctl := readCtlFn()
	ctl &^= cntvCtlEnable | cntvCtlStart
	ctl |= cntvCtlMask
	writeCtlFn(ctl)
}

func (vt *VTimer) start() {
	ctl := readCtlFn()
	ctl |= cntvCtlEnable | cntvCtlStart
	ctl &^= cntvCtlMask
	writeCtlFn(ctl)
}

// reload programs the downcount for one tick interval.
func (vt *VTimer) reload() {
	writeTvalFn(vt.intervalUs * (timerFreqFn() / hzPerUs))
}

// Init arms the virtual timer to fire hz times a second and routes its
// private peripheral interrupt to the tick ISR.
func (vt *VTimer) Init(ctl irq.Controller, hz int) {
	vt.intervalUs = hzPerUs / uint64(hz)

	vt.stop()
	vt.reload()
	vt.start()

	ctl.Enable(board.IRQVTimer, vt.isr)
}

func (vt *VTimer) isr(tf *irq.Frame, n int) {
	tick()

	vt.stop()
	vt.reload()
	vt.start()
}

// MicroDelay busy-waits for at least us microseconds against the
// free-running physical counter.
func (vt *VTimer) MicroDelay(us int) {
	diff := uint64(us) * (timerFreqFn() / hzPerUs)

	for start, now := physCounterFn(), physCounterFn(); now < start+diff; now = physCounterFn() {
	}
}
