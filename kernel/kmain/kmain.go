// Package kmain drives the boot sequence: bring up the early console,
// switch to the high-half translation regime, hand the physical memory
// ranges to the allocators, and configure interrupts and the tick source.
package kmain

import (
	"github.com/sudharson14/xv6-OS-for-arm-v8/board"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/console"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/cpu"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/irq"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/kfmt/early"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/mem"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/mem/pmm"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/mem/vmm"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/timer"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/trap"
)

// tickHz is the preemption tick rate.
const tickHz = 100

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

	uart   console.UART
	gic    irq.GIC
	vtimer timer.VTimer
)

// Kmain is the only Go symbol visible to the rt0 initialization code. The
// rt0 stub runs on the boot stack with translation still off, sets up a
// minimal g0 record, and passes in the addresses the linker script
// reserves: the two page-table roots with their L2 tables, the exception
// vector table and the first address past the kernel's BSS (a high-half
// address, like every symbol in the kernel image).
//
// Kmain is not expected to return. If it does, the rt0 code halts the CPU.
//
//go:noinline
func Kmain(kernelPGD, userPGD, kernelL2, userL2, vectors, kernelEnd uintptr) {
	// The early console talks to the UART through its physical address,
	// which the boot tables keep identity mapped.
	uart.Init(uintptr(board.UART0))
	console.Attach(&uart)
	early.Printf("starting xv6 for ARMv8...\n")

	bootTables := vmm.BootTables{
		KernelPGD: kernelPGD,
		UserPGD:   userPGD,
		KernelL2:  kernelL2,
		UserL2:    userL2,
	}
	bootTables.Init()
	bootTables.MapBootRegions()
	bootTables.Enable(vectors)

	// The high half is live; move the console onto the linear map.
	uart.Init(uintptr(board.P2V(board.UART0)))
	early.Printf("System Configure Completed...\n\n")
	early.Printf("Starting Kernel\n")

	// Page-table pages between the kernel image and the heap form the
	// boot reservoir; everything above the 2 MiB boot map becomes the
	// buddy-managed heap.
	pmm.PTFreeRange(kernelEnd, uintptr(board.P2V(board.InitKernMap)))

	kernelRoot := vmm.AddressSpaceAt(uintptr(board.P2V(board.Phys(kernelPGD))))
	vmm.PagingInit(kernelRoot, board.InitKernMap, board.Phystop)

	if err := pmm.Init(uintptr(board.P2V(board.InitKernMap)), mem.Size(board.Phystop-board.InitKernMap)); err != nil {
		kernel.Panic(err)
	}

	gic.Init(uintptr(board.P2V(board.GICBase)))
	trap.Init(&gic)

	// Route the UART's receive interrupt. The line discipline belongs to
	// the console layer outside this core, so received bytes are only
	// drained here.
	uart.EnableRx()
	gic.Enable(board.IRQUART0, func(tf *irq.Frame, n int) {
		uart.ServiceInterrupt(func(c int) {})
	})

	vtimer.Init(&gic, tickHz)

	cpu.EnableInterrupts()

	// The first user process and the scheduler loop live outside this
	// core; with nothing registered there is nothing left to run.
	kernel.Panic(errKmainReturned)
}
