// Package proc holds the slice of process and per-CPU state this kernel
// core reads and writes, together with the Scheduler interface of the
// external scheduler the core calls into but does not implement. The
// filesystem contract lives in vmm as Inode.
package proc

import (
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/irq"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/mem/vmm"
)

// Proc is a process as seen from the VM and trap code. The scheduler owns
// the full record; these are the fields the core touches.
type Proc struct {
	Sz     uint64           // user image size in bytes
	Pgdir  vmm.AddressSpace // user page-table root
	KStack uintptr          // bottom of the kernel stack
	TF     *irq.Frame       // trapframe on the kernel stack
	Killed bool
	PID    int
	Name   string
}

// CPU is the per-CPU bookkeeping record. This target has exactly one, so
// the thread-local anchor the hardware would provide (TPIDR_EL1) collapses
// to a package variable. The interrupt-nesting counters that xv6 keeps
// here live with the lock code in kernel/sync instead.
type CPU struct {
	SchedCtx uintptr // scheduler context, opaque to the core
	Proc     *Proc   // process currently running on this cpu, or nil
}

var cpu0 CPU

// CurrentCPU returns the one CPU record.
func CurrentCPU() *CPU {
	return &cpu0
}

// Current returns the process running on this cpu, or nil while the
// scheduler itself runs.
func Current() *Proc {
	return cpu0.Proc
}

// SetCurrent installs p as the running process.
func SetCurrent(p *Proc) {
	cpu0.Proc = p
}
