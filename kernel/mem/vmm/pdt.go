package vmm

import (
	"unsafe"

	"github.com/sudharson14/xv6-OS-for-arm-v8/board"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/cpu"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/mem"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/mem/pmm"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/sync"
)

var (
	// ptAllocFn/ptFreeFn source and sink page-table pages. Variables so
	// tests can substitute allocators backed by ordinary Go memory.
	ptAllocFn = pmm.PTAlloc
	ptFreeFn  = pmm.PTFree

	// allocPageFn/freePageFn source and sink the 4 KiB data pages user
	// mappings point at.
	allocPageFn = func() (uintptr, *kernel.Error) {
		frame, err := pmm.Alloc(mem.MaxOrder)
		if err != nil {
			return 0, err
		}
		return frame.Address(), nil
	}
	freePageFn = func(addr uintptr) {
		pmm.Free(pmm.Frame(addr), mem.MaxOrder)
	}

	// p2vFn/v2pFn translate between the kernel linear map and physical
	// addresses. Tests run the page-table code over Go memory where the
	// two coincide.
	p2vFn = func(p board.Phys) uintptr { return uintptr(board.P2V(p)) }
	v2pFn = func(v uintptr) board.Phys { return board.V2P(board.Virt(v)) }

	// switchTTBR0Fn/flushTLBFn are used by tests to override calls that
	// would fault if executed in user mode.
	switchTTBR0Fn = cpu.SwitchTTBR0
	flushTLBFn    = cpu.FlushTLB

	// ptePtrFn returns a pointer to the entry at the supplied address.
	// Used by tests to observe the walk; inlined when building the
	// kernel.
	ptePtrFn = func(entryAddr uintptr) *pageTableEntry {
		return (*pageTableEntry)(unsafe.Pointer(entryAddr))
	}
)

// AddressSpace is one user address space: a PGD root page plus the PMD, PT
// and data pages reachable from it. The zero value denotes "no address
// space"; a usable one comes from NewAddressSpace or CopyUVM.
type AddressSpace struct {
	root uintptr // kernel linear-map address of the PGD page
}

// NewAddressSpace allocates an empty root.
func NewAddressSpace() AddressSpace {
	return AddressSpace{root: ptAllocFn()}
}

// AddressSpaceAt wraps an already-built root, such as the statically
// reserved kernel page table.
func AddressSpaceAt(root uintptr) AddressSpace {
	return AddressSpace{root: root}
}

// Root returns the kernel linear-map address of the PGD page.
func (as AddressSpace) Root() uintptr {
	return as.root
}

func pgdIndex(va uint64) uint64 { return (va >> pgdShift) & (ptrsPerPGD - 1) }
func pmdIndex(va uint64) uint64 { return (va >> pmdShift) & (ptrsPerPMD - 1) }
func pteIndex(va uint64) uint64 { return (va >> pageShift) & (ptrsPerPTE - 1) }

func entryAt(table uintptr, idx uint64) *pageTableEntry {
	return ptePtrFn(table + uintptr(idx)*8)
}

// walk returns the PTE for va, descending PGD→PMD→PT and allocating the
// intermediate tables on demand when alloc is set. A nil return means some
// level was absent and alloc was false.
func (as AddressSpace) walk(va uint64, alloc bool) *pageTableEntry {
	pgd := entryAt(as.root, pgdIndex(va))

	var pmdBase uintptr
	if pgd.HasAnyFlag(FlagTable | FlagValid) {
		pmdBase = p2vFn(board.Phys(pgd.tableAddr()))
	} else {
		if !alloc {
			return nil
		}
		pmdBase = ptAllocFn()
		*pgd = pageTableEntry(v2pFn(pmdBase)) | pageTableEntry(FlagTable|FlagValid)
	}

	pmd := entryAt(pmdBase, pmdIndex(va))

	var ptBase uintptr
	if pmd.HasAnyFlag(FlagTable | FlagValid) {
		ptBase = p2vFn(board.Phys(pmd.tableAddr()))
	} else {
		if !alloc {
			return nil
		}
		ptBase = ptAllocFn()
		*pmd = pageTableEntry(v2pFn(ptBase)) | pageTableEntry(FlagTable|FlagValid)
	}

	return entryAt(ptBase, pteIndex(va))
}

// mapPages installs leaf mappings covering [va, va+size) onto the physical
// range starting at pa, at 4 KiB granularity with the supplied access
// permissions. Mapping over a present entry is a fatal kernel bug.
func (as AddressSpace) mapPages(va, size uint64, pa board.Phys, ap PageTableEntryFlag) {
	a := alignDown(va, pageSize)
	last := alignDown(va+size-1, pageSize)

	for {
		pte := as.walk(a, true)

		if pte.HasAnyFlag(FlagPage | FlagValid) {
			panic("remap")
		}

		*pte = pageTableEntry(uint64(pa)&pteAddrMask) |
			pageTableEntry(FlagAccess|FlagShared|ap|FlagNonSecure|FlagAttrNormal|FlagPage|FlagValid)

		if a == last {
			break
		}

		a += pageSize
		pa += board.Phys(pageSize)
	}
}

// Activate loads this address space into TTBR0, making it the translation
// regime for user addresses, and flushes the TLB.
func (as AddressSpace) Activate() {
	sync.PushCli()
	defer sync.PopCli()

	if as.root == 0 {
		panic("switchuvm: no pgdir")
	}

	switchTTBR0Fn(uintptr(v2pFn(as.root)))
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}

func alignDown(v, align uint64) uint64 {
	return v &^ (align - 1)
}
