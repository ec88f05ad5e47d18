// Package cpu exposes the AArch64 system-level operations the rest of the
// kernel needs: interrupt masking, TLB and cache maintenance, translation
// register access and the generic-timer counter registers. The actual
// instructions live in cpu_arm64.s; the exported symbols are variables so
// that tests which run in user mode (where the underlying MSR/MRS accesses
// would fault) can substitute fakes, in the same way the vmm code overrides
// its switchTTBR0Fn/flushTLBFn calls.
package cpu

var (
	// EnableInterrupts unmasks IRQs at EL1 (DAIFClr, #2).
	EnableInterrupts = enableInterrupts

	// DisableInterrupts masks IRQs at EL1 (DAIFSet, #2).
	DisableInterrupts = disableInterrupts

	// InterruptsEnabled reports whether IRQs are currently unmasked
	// (reads the I bit of DAIF).
	InterruptsEnabled = interruptsEnabled

	// Halt stops the CPU. Used by kernel.Panic as the last step before
	// giving up.
	Halt = halt

	// FlushTLBEntry invalidates any cached translation for virtAddr.
	FlushTLBEntry = flushTLBEntry

	// FlushTLB invalidates the entire TLB (TLBI VMALLE1).
	FlushTLB = flushTLB

	// SwitchTTBR0 loads physAddr into TTBR0_EL1 and flushes the TLB.
	// Used by the VM runtime when activating a process's user address
	// space.
	SwitchTTBR0 = switchTTBR0

	// ActiveTTBR0 reads the physical address currently loaded in
	// TTBR0_EL1.
	ActiveTTBR0 = activeTTBR0

	// ReadFAR reads FAR_EL1, the faulting address captured by a
	// synchronous data or instruction abort.
	ReadFAR = readFAR

	// DSB issues a data synchronization barrier.
	DSB = dsb

	// ISB issues an instruction synchronization barrier.
	ISB = isb

	// InvalidateICache invalidates the instruction cache (IC IALLU).
	InvalidateICache = invalidateICache

	// TimerFrequency reads CNTFRQ_EL0, the generic timer frequency in Hz.
	TimerFrequency = timerFrequency

	// PhysicalCounter reads CNTPCT_EL0, the free-running physical
	// counter of the generic timer.
	PhysicalCounter = physicalCounter

	// ReadVTimerCtl and WriteVTimerCtl access CNTV_CTL_EL0, the control
	// register of the virtual generic timer.
	ReadVTimerCtl  = readVTimerCtl
	WriteVTimerCtl = writeVTimerCtl

	// WriteVTimerTval programs CNTV_TVAL_EL0, the downcounting compare
	// value of the virtual generic timer.
	WriteVTimerTval = writeVTimerTval

	// EnableMMU loads MAIR_EL1, TCR_EL1, the two translation bases and
	// VBAR_EL1, then sets SCTLR_EL1.M and performs the required
	// barrier/invalidate sequence. Called exactly once while still
	// running on the boot identity mapping.
	EnableMMU = enableMMU
)

func enableInterrupts()
func disableInterrupts()
func interruptsEnabled() bool
func halt()
func flushTLBEntry(virtAddr uintptr)
func flushTLB()
func switchTTBR0(physAddr uintptr)
func activeTTBR0() uintptr
func readFAR() uintptr
func dsb()
func isb()
func invalidateICache()
func timerFrequency() uint64
func physicalCounter() uint64
func readVTimerCtl() uint64
func writeVTimerCtl(val uint64)
func writeVTimerTval(val uint64)
func enableMMU(mair, tcr uint64, ttbr0, ttbr1, vbar uintptr)
