package timer

import (
	"testing"
	"unsafe"

	"github.com/sudharson14/xv6-OS-for-arm-v8/board"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/cpu"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/irq"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/proc"
)

func stubInterrupts(t *testing.T) {
	t.Helper()

	origEnable, origDisable, origEnabled := cpu.EnableInterrupts, cpu.DisableInterrupts, cpu.InterruptsEnabled
	t.Cleanup(func() {
		cpu.EnableInterrupts, cpu.DisableInterrupts, cpu.InterruptsEnabled = origEnable, origDisable, origEnabled
	})

	enabled := true
	cpu.EnableInterrupts = func() { enabled = true }
	cpu.DisableInterrupts = func() { enabled = false }
	cpu.InterruptsEnabled = func() bool { return enabled }
}

// wakeupSched records Wakeup channels.
type wakeupSched struct {
	wakeups []unsafe.Pointer
}

func (s *wakeupSched) Wakeup(ch unsafe.Pointer) { s.wakeups = append(s.wakeups, ch) }
func (s *wakeupSched) Kill(pid int) int         { return -1 }
func (s *wakeupSched) Exit()                    {}

func stubScheduler(t *testing.T) *wakeupSched {
	t.Helper()

	s := &wakeupSched{}
	proc.SetScheduler(s)
	t.Cleanup(func() { proc.SetScheduler(nil) })

	return s
}

// fakeController records ISR registrations and lets tests fire them.
type fakeController struct {
	isrs map[int]irq.ISR
}

func (c *fakeController) Enable(n int, isr irq.ISR) {
	if c.isrs == nil {
		c.isrs = make(map[int]irq.ISR)
	}
	c.isrs[n] = isr
}

func (c *fakeController) Dispatch(tf *irq.Frame) {}

// fakeRegs backs the MMIO seams with a sparse register file.
type fakeRegs struct {
	regs map[uintptr]uint32
}

func installFakeRegs(t *testing.T) *fakeRegs {
	t.Helper()

	f := &fakeRegs{regs: make(map[uintptr]uint32)}

	origRead, origWrite := regReadFn, regWriteFn
	t.Cleanup(func() { regReadFn, regWriteFn = origRead, origWrite })

	regReadFn = func(addr uintptr) uint32 { return f.regs[addr] }
	regWriteFn = func(addr uintptr, val uint32) { f.regs[addr] = val }

	return f
}

const (
	sp804Base  = uintptr(0x1c110000)
	sp804Delay = uintptr(0x1c120000)
)

func TestSP804Init(t *testing.T) {
	stubInterrupts(t)
	f := installFakeRegs(t)

	var (
		tm  SP804
		ctl fakeController
	)
	tm.Init(&ctl, sp804Base, sp804Delay, 100)

	if got := f.regs[sp804Base+timerLoad*4]; got != uint32(board.ClkHz/100) {
		t.Errorf("expected a load value of %d for 100 Hz; got %d", board.ClkHz/100, got)
	}

	want := uint32(timerEn | timerPeriodic | timer32Bit | timerIntEn)
	if got := f.regs[sp804Base+timerCtrl*4]; got != want {
		t.Errorf("expected control 0x%x; got 0x%x", want, got)
	}

	if ctl.isrs[board.IRQTimer01] == nil {
		t.Fatal("expected the tick ISR to be registered on the SP804 line")
	}
}

func TestSP804TickISR(t *testing.T) {
	stubInterrupts(t)
	sched := stubScheduler(t)
	f := installFakeRegs(t)

	var (
		tm  SP804
		ctl fakeController
	)
	tm.Init(&ctl, sp804Base, sp804Delay, 100)

	before := Ticks()
	for i := 0; i < 3; i++ {
		ctl.isrs[board.IRQTimer01](nil, board.IRQTimer01)
	}

	if got := Ticks() - before; got != 3 {
		t.Fatalf("expected 3 ticks; got %d", got)
	}

	if len(sched.wakeups) != 3 {
		t.Fatalf("expected 3 wakeups; got %d", len(sched.wakeups))
	}

	if sched.wakeups[0] != TicksChannel() {
		t.Error("expected sleepers on the tick counter to be woken")
	}

	if f.regs[sp804Base+timerIntClr*4] != 1 {
		t.Error("expected the interrupt to be acknowledged")
	}
}

func TestSP804MicroDelay(t *testing.T) {
	stubInterrupts(t)
	f := installFakeRegs(t)

	var (
		tm  SP804
		ctl fakeController
	)
	tm.Init(&ctl, sp804Base, sp804Delay, 100)

	// Model the downcounting timer 1: each read returns a smaller value
	// until it hits zero.
	remaining := int32(5)
	origRead := regReadFn
	regReadFn = func(addr uintptr) uint32 {
		if addr == sp804Delay+timerCurVal*4 {
			remaining--
			return uint32(remaining)
		}
		return origRead(addr)
	}

	tm.MicroDelay(5)

	if remaining > 0 {
		t.Error("expected the delay loop to drain the counter")
	}

	if got := f.regs[sp804Delay+timerCtrl*4]; got != 0 {
		t.Errorf("expected timer 1 to be disabled after the delay; control 0x%x", got)
	}
}
