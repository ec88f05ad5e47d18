// Package trap is the C-level half of the exception vector contract: the
// assembly stubs save the 34-register trapframe on the kernel stack, then
// call into this package with the frame, the exception level the trap was
// taken at and the ESR syndrome. Synchronous traps from user mode fan out
// to the system-call dispatcher or the abort handlers; IRQs go to the
// registered interrupt controller.
package trap

import (
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/cpu"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/irq"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/kfmt/early"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/proc"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/syscall"
)

// Exception classes from ESR_EL1.EC (bits 31:26).
const (
	ecUnknown      = 0x00
	ecSVC64        = 0x15
	ecInsnAbortLow = 0x20
	ecInsnAbortCur = 0x21
	ecDataAbortLow = 0x24
	ecDataAbortCur = 0x25
)

// controller is the interrupt controller IRQs dispatch through,
// registered from kmain during boot.
var controller irq.Controller

// Init hooks up the interrupt controller.
func Init(ctl irq.Controller) {
	controller = ctl
}

var (
	// readFARFn/disableIRQFn are used by tests to override privileged
	// register accesses.
	readFARFn    = cpu.ReadFAR
	disableIRQFn = cpu.DisableInterrupts
)

// Handler is the Go side of one vector-table entry.
type Handler func(tf *irq.Frame, el uint32, esr uint32)

// vectorTable covers the 4x4 AArch64 vector matrix: four entry groups
// (current EL on SP0, current EL on SPx, lower EL in AArch64, lower EL in
// AArch32), each with synchronous, IRQ, FIQ and SError slots. The kernel
// runs on SPx and user code is AArch64 only, so the other groups route to
// the complaint handlers.
var vectorTable = [16]Handler{
	// Current EL with SP0: never used.
	Bad, Bad, Bad, Bad,
	// Current EL with SPx: traps from the kernel itself.
	Sync, IRQ, Fiq, Error,
	// Lower EL, AArch64: traps from user mode.
	Sync, IRQ, Fiq, Error,
	// Lower EL, AArch32: unsupported.
	NA, NA, NA, NA,
}

// Vector is called by every assembly stub with its index in the vector
// matrix.
func Vector(idx int, tf *irq.Frame, el uint32, esr uint32) {
	vectorTable[idx&0xF](tf, el, esr)
}

// Sync fans a synchronous exception out by its ESR exception class.
func Sync(tf *irq.Frame, el uint32, esr uint32) {
	switch esr >> 26 {
	case ecSVC64:
		Swi(tf, el, esr)
	case ecDataAbortLow, ecDataAbortCur:
		DataAbort(tf, el, esr)
	case ecInsnAbortLow, ecInsnAbortCur:
		InsnAbort(tf, el, esr)
	case ecUnknown:
		Und(tf, el, esr)
	default:
		Bad(tf, el, esr)
	}
}

// Swi services a system call trap.
func Swi(tf *irq.Frame, el uint32, esr uint32) {
	proc.Current().TF = tf
	syscall.Dispatch()
}

// IRQ routes a device interrupt through the controller. proc is nil when
// the scheduler itself was interrupted.
func IRQ(tf *irq.Frame, el uint32, esr uint32) {
	if cur := proc.Current(); cur != nil {
		cur.TF = tf
	}

	controller.Dispatch(tf)
}

// DataAbort handles a synchronous data abort. A faulting user process is
// killed and reaped later; a fault in the kernel itself is unrecoverable.
func DataAbort(tf *irq.Frame, el uint32, esr uint32) {
	disableIRQFn()
	fa := readFARFn()

	if tf.FromEL0() {
		cur := proc.Current()
		early.Printf("Data abort esr 0x%x pc 0x%x addr 0x%x -- kill proc\n", esr, tf.PC, uint64(fa))
		proc.Sched.Kill(cur.PID)
		return
	}

	early.Printf("data abort: instruction 0x%x, fault addr 0x%x\n", tf.PC, uint64(fa))
	tf.Print()
	panic("kernel data abort")
}

// InsnAbort handles a synchronous instruction abort, with the same
// user/kernel split as DataAbort.
func InsnAbort(tf *irq.Frame, el uint32, esr uint32) {
	disableIRQFn()
	fa := readFARFn()

	if tf.FromEL0() {
		cur := proc.Current()
		early.Printf("Instruction abort esr 0x%x pc 0x%x addr 0x%x -- kill proc\n", esr, tf.PC, uint64(fa))
		proc.Sched.Kill(cur.PID)
		return
	}

	early.Printf("prefetch abort at: 0x%x\n", tf.PC)
	tf.Print()
	panic("kernel instruction abort")
}

// Und handles an undefined or unknown instruction trap.
func Und(tf *irq.Frame, el uint32, esr uint32) {
	disableIRQFn()

	if tf.FromEL0() {
		cur := proc.Current()
		early.Printf("Undefined trap esr 0x%x pc 0x%x -- kill proc\n", esr, tf.PC)
		proc.Sched.Kill(cur.PID)
		return
	}

	early.Printf("und at: 0x%x\n", tf.PC)
	tf.Print()
	panic("kernel undefined instruction")
}

// Reset should never be delivered after boot.
func Reset(tf *irq.Frame, el uint32, esr uint32) {
	disableIRQFn()
	early.Printf("reset at: 0x%x\n", tf.PC)
}

// NA is delivered for vector slots this kernel does not support.
func NA(tf *irq.Frame, el uint32, esr uint32) {
	disableIRQFn()
	early.Printf("n/a at: 0x%x\n", tf.PC)
}

// Fiq is delivered for fast interrupts, which this kernel never unmasks.
func Fiq(tf *irq.Frame, el uint32, esr uint32) {
	disableIRQFn()
	early.Printf("fiq at: 0x%x\n", tf.PC)
}

// Bad complains about an exception that has no meaningful handler.
func Bad(tf *irq.Frame, el uint32, esr uint32) {
	disableIRQFn()
	early.Printf("Bad Exception\n")
}

// Error is delivered for SError.
func Error(tf *irq.Frame, el uint32, esr uint32) {
	disableIRQFn()
	early.Printf("Error Exception\n")
}

// Default occupies table slots with nothing better to do.
func Default(tf *irq.Frame, el uint32, esr uint32) {
	disableIRQFn()
	early.Printf("Default Exception\n")
}

// HandleUserEvents runs on the return path to user mode: it verifies the
// saved processor state really is EL0 and gives a killed process its
// overdue exit.
func HandleUserEvents(tf *irq.Frame, el uint32, esr uint32) {
	if !tf.FromEL0() {
		panic("invalid saved processor state")
	}

	cur := proc.Current()
	if cur.Killed {
		early.Printf("proc killed: pid: %d name: %s EL:%d ESR:0x%x\n", cur.PID, cur.Name, el, esr)
		proc.Sched.Exit()
	}
}
