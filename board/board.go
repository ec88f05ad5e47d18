// Package board holds the physical layout constants for QEMU's AArch64
// "virt" machine: RAM extent, device MMIO windows, the kernel's linear-map
// base, and the IRQ numbers the GICv2 distributor wires devices to.
package board

// Phys is a physical address. It is a distinct type from Virt so that the
// two address spaces cannot be mixed up without an explicit P2V/V2P call.
type Phys uint64

// Virt is a virtual address.
type Virt uint64

// RAM extent.
const (
	// PhyStart is the base of DRAM as modelled by QEMU's virt machine.
	PhyStart = Phys(0x40000000)

	// Phystop is the end of the 128 MiB RAM window.
	Phystop = Phys(0x48000000)
)

// Device MMIO windows. DevBase1 hosts the GIC distributor, DevBase2 the
// PL011 UART, DevBase3 a second device window mapped identically to its own
// physical base.
const (
	DevBase1 = Phys(0x08000000)
	DevBase2 = Phys(0x09000000)
	DevBase3 = Phys(0x0a000000)
	DevMemSz = 0x01000000

	UART0    = Phys(0x09000000)
	UARTClk  = 24000000 // Hz

	Timer0 = Phys(0x1c110000)
	Timer1 = Phys(0x1c120000)
	ClkHz  = 1000000 // SP804 input clock, Hz

	GICBase = Phys(0x08000000)
)

// GICv2 SPI/PPI interrupt numbering (distributor INTID space).
const (
	gicSGIBase = 0
	gicPPIBase = 16
	gicSPIBase = 32

	IRQTimer01 = gicSPIBase + 13 // SP804
	IRQTimer23 = gicSPIBase + 11
	IRQUART0   = gicSPIBase + 1
	IRQGraphic = gicSPIBase + 19
	IRQVTimer  = gicPPIBase + 11 // virtual generic timer, PPI
)

// Virtual memory layout.
const (
	// KernBase is the first virtual address of the kernel's linear map
	// of physical RAM: the byte at physical p (PhyStart <= p < Phystop)
	// is reachable at Virt(p) + KernBase.
	KernBase = Virt(0xFFFFFFFF00000000)

	// InitKernSz is the size of the boot-time identity mapping of low
	// RAM, built before the MMU is switched on.
	InitKernSz = 0x200000
)

// InitKernMap is the physical end of the boot identity mapping.
const InitKernMap = Phys(InitKernSz) + PhyStart

// V2P converts a kernel linear-map virtual address back to physical.
func V2P(v Virt) Phys { return Phys(v - Virt(KernBase)) }

// P2V converts a physical address within [PhyStart, Phystop) to its kernel
// linear-map virtual address.
func P2V(p Phys) Virt { return Virt(p) + KernBase }
