package vmm

import (
	"github.com/sudharson14/xv6-OS-for-arm-v8/board"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/cpu"
)

// Boot-time translation register values. The MAIR layout puts device
// memory at attribute index 0 and normal write-back cacheable RAM at
// index 4; TCR selects 4 KiB granules on both walks and a 32-bit (4 GiB)
// input region for each of TTBR0 and TTBR1 (T0SZ = T1SZ = 32).
const (
	mairValue = uint64(0xFF440C0400)
	tcrValue  = uint64(0x34B5203520)
)

// Block-descriptor templates for the 2 MiB boot mappings. RAM is normal
// cacheable memory, shared, writable and never executable from EL0;
// device windows use the strongly-ordered attribute index.
const (
	bootRAMFlags    = FlagAccess | FlagShared | APKernelRW | FlagNonSecure | FlagAttrNormal | FlagValid | FlagUXN
	bootDeviceFlags = FlagAccess | APKernelRW | FlagAttrDevice | FlagValid
)

var enableMMUFn = cpu.EnableMMU

// BootTables wires together the statically reserved translation tables the
// linker script sets aside: one PGD page per root plus four contiguous
// 4 KiB L2 tables each. All addresses are physical; this code runs before
// translation is switched on, when physical and virtual coincide.
type BootTables struct {
	KernelPGD uintptr
	UserPGD   uintptr
	KernelL2  uintptr
	UserL2    uintptr
}

// Init points the four PGD slots of both roots at their L2 tables. The
// kernel root's entries never change again after this.
func (bt BootTables) Init() {
	for idx := uint64(0); idx < ptrsPerPGD; idx++ {
		l2 := uint64(bt.KernelL2) + idx*4096
		*entryAt(bt.KernelPGD, idx) = pageTableEntry(l2) | pageTableEntry(FlagTable|FlagValid)

		l2 = uint64(bt.UserL2) + idx*4096
		*entryAt(bt.UserPGD, idx) = pageTableEntry(l2) | pageTableEntry(FlagTable|FlagValid)
	}
}

// mapChunks writes 2 MiB block descriptors covering [phys, phys+size) at
// virt into the L2 tables of both roots.
func (bt BootTables) mapChunks(virt uint64, phys board.Phys, size uint64, device bool) {
	flags := bootRAMFlags
	if device {
		flags = bootDeviceFlags
	}

	for off := uint64(0); off < size; off += pmdSize {
		desc := pageTableEntry(uint64(phys+board.Phys(off))&^(pmdSize-1)) | pageTableEntry(flags)

		va := virt + off
		slot := pmdIndex(va)

		kl2 := entryAt(bt.KernelPGD, pgdIndex(va)).tableAddr()
		*entryAt(uintptr(kl2), slot) = desc

		ul2 := entryAt(bt.UserPGD, pgdIndex(va)).tableAddr()
		*entryAt(uintptr(ul2), slot) = desc
	}
}

// MapBootRegions builds the minimal pre-MMU picture: low RAM identity
// mapped and mirrored into the high half, the UART window identity mapped
// so the early console keeps working, and every device window mirrored
// into the high half at its own physical base.
func (bt BootTables) MapBootRegions() {
	kernBase := uint64(board.KernBase)

	// Low RAM: identity plus high-half alias.
	bt.mapChunks(uint64(board.PhyStart), board.PhyStart, board.InitKernSz, false)
	bt.mapChunks(kernBase+uint64(board.PhyStart), board.PhyStart, board.InitKernSz, false)

	// The UART sits in DevBase2; keep it reachable at its physical
	// address until the stack moves to the high half.
	bt.mapChunks(uint64(board.DevBase2), board.DevBase2, board.DevMemSz, true)

	bt.mapChunks(kernBase+uint64(board.DevBase1), board.DevBase1, board.DevMemSz, true)
	bt.mapChunks(kernBase+uint64(board.DevBase2), board.DevBase2, board.DevMemSz, true)
	bt.mapChunks(kernBase+uint64(board.DevBase3), board.DevBase3, board.DevMemSz, true)
}

// Enable loads the translation registers and turns the MMU on. vectors is
// the physical address of the exception vector table.
func (bt BootTables) Enable(vectors uintptr) {
	enableMMUFn(mairValue, tcrValue, bt.UserPGD, bt.KernelPGD, vectors)
}

// PagingInit extends the kernel root's high-half map over the rest of
// physical RAM, [physLow, physHi), with 4 KiB pages. Run once the MMU is
// on; the page-table pages it needs come from the boot reservoir.
func PagingInit(kernelRoot AddressSpace, physLow, physHi board.Phys) {
	kernelRoot.mapPages(uint64(board.P2V(physLow)), uint64(physHi-physLow), physLow, APKernelRW)
	flushTLBFn()
}
