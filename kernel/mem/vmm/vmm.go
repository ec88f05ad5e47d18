// Package vmm builds and mutates the user and kernel page tables: address
// space growth, fork-style duplication, teardown and the user/kernel copy
// paths the system-call layer relies on.
package vmm

import (
	"unsafe"

	"github.com/sudharson14/xv6-OS-for-arm-v8/board"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/kfmt/early"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/mem"
)

// Inode is the slice of the filesystem contract the VM runtime consumes:
// reading file content into a program segment. The filesystem itself lives
// outside this kernel core.
type Inode interface {
	// Readi reads up to len(dst) bytes starting at the given file
	// offset, returning the number of bytes read or a negative value on
	// error.
	Readi(dst []byte, off uint32) int
}

// byteSlice overlays a byte slice on a raw kernel address.
func byteSlice(addr uintptr, n uint64) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(n))
}

// InitUVM maps a single page at user address 0 containing the supplied
// bootstrap image, readable and writable from both EL0 and EL1. The image
// must fit inside one page; the remainder of the page is zeroed.
func (as AddressSpace) InitUVM(data []byte) *kernel.Error {
	if uint64(len(data)) >= pageSize {
		panic("inituvm: more than a page")
	}

	page, err := allocPageFn()
	if err != nil {
		return err
	}

	mem.Memset(page, 0, mem.PageSize)
	as.mapPages(0, pageSize, v2pFn(page), APUserRW)
	copy(byteSlice(page, pageSize), data)

	return nil
}

// LoadUVM reads sz bytes at the given offset of ip into the already-mapped
// user range starting at addr, page by page. It returns -1 on a short
// read. addr must be page aligned.
func (as AddressSpace) LoadUVM(addr uint64, ip Inode, offset, sz uint32) int {
	if addr%pageSize != 0 {
		panic("loaduvm: addr must be page aligned")
	}

	for i := uint32(0); i < sz; i += uint32(pageSize) {
		pte := as.walk(addr+uint64(i), false)
		if pte == nil {
			panic("loaduvm: address should exist")
		}

		pa := board.Phys(uint64(*pte) & pteAddrMask)

		n := sz - i
		if n > uint32(pageSize) {
			n = uint32(pageSize)
		}

		if ip.Readi(byteSlice(p2vFn(pa), uint64(n)), offset+i) != int(n) {
			return -1
		}
	}

	return 0
}

// AllocUVM grows a user image from oldsz to newsz bytes, allocating and
// mapping zeroed pages for the new range. It returns the new size, or 0
// after undoing any partial progress when memory runs out or the request
// exceeds the user address-space limit.
func (as AddressSpace) AllocUVM(oldsz, newsz uint64) uint64 {
	if newsz >= UAddrSize {
		return 0
	}

	if newsz < oldsz {
		return oldsz
	}

	for a := alignUp(oldsz, pageSize); a < newsz; a += pageSize {
		page, err := allocPageFn()
		if err != nil {
			early.Printf("allocuvm out of memory\n")
			as.DeallocUVM(newsz, oldsz)
			return 0
		}

		mem.Memset(page, 0, mem.PageSize)
		as.mapPages(a, pageSize, v2pFn(page), APUserRW)
	}

	return newsz
}

// DeallocUVM shrinks a user image from oldsz to newsz bytes, unmapping
// every page in between and returning its physical page to the allocator.
// A PMD hole (no page table for the region) advances the cursor to the
// next 2 MiB boundary. Returns the new size.
func (as AddressSpace) DeallocUVM(oldsz, newsz uint64) uint64 {
	if newsz >= oldsz {
		return oldsz
	}

	for a := alignUp(newsz, pageSize); a < oldsz; a += pageSize {
		pte := as.walk(a, false)

		if pte == nil {
			// No page table covers this address; resume at the
			// next page directory boundary.
			a = alignUp(a+pageSize, pmdSize) - pageSize
		} else if pte.HasAnyFlag(FlagPage | FlagValid) {
			pa := uint64(*pte) & pteAddrMask
			if pa == 0 {
				panic("deallocuvm")
			}

			freePageFn(p2vFn(board.Phys(pa)))
			*pte = 0
		}
	}

	return newsz
}

// FreeVM releases an entire user address space: every mapped data page
// first, then the page-table pages bottom-up, and finally the root itself.
func (as AddressSpace) FreeVM() {
	if as.root == 0 {
		panic("freevm: no pgdir")
	}

	as.DeallocUVM(UAddrSize, 0)

	for j := uint64(0); j < ptrsPerPGD; j++ {
		pgd := entryAt(as.root, j)
		if !pgd.HasAnyFlag(FlagTable | FlagValid) {
			continue
		}

		pmdBase := p2vFn(board.Phys(pgd.tableAddr()))
		for i := uint64(0); i < ptrsPerPMD; i++ {
			pmd := entryAt(pmdBase, i)
			if pmd.HasAnyFlag(FlagTable | FlagValid) {
				ptFreeFn(p2vFn(board.Phys(pmd.tableAddr())))
			}
		}

		ptFreeFn(pmdBase)
	}

	ptFreeFn(as.root)
}

// CopyUVM duplicates the first sz bytes of this address space into a fresh
// root, copying page contents byte for byte and preserving each leaf's
// access permissions. Every page below sz must be present. On allocation
// failure the partially built tree is torn down and an error returned.
func (as AddressSpace) CopyUVM(sz uint64) (AddressSpace, *kernel.Error) {
	d := NewAddressSpace()

	for i := uint64(0); i < sz; i += pageSize {
		pte := as.walk(i, false)
		if pte == nil {
			panic("copyuvm: pte should exist")
		}

		if !pte.HasAnyFlag(FlagPage | FlagValid) {
			panic("copyuvm: page not present")
		}

		pa := uint64(*pte) & pteAddrMask
		ap := pte.ap()

		page, err := allocPageFn()
		if err != nil {
			d.FreeVM()
			return AddressSpace{}, err
		}

		copy(byteSlice(page, pageSize), byteSlice(p2vFn(board.Phys(pa)), pageSize))
		d.mapPages(i, pageSize, v2pFn(page), ap)
	}

	return d, nil
}

// ClearPTEU rewrites the PTE for uva to be kernel-only, turning the page
// into an EL0-inaccessible guard (used below the user stack to catch
// overflow). The mapping must exist.
func (as AddressSpace) ClearPTEU(uva uint64) {
	pte := as.walk(uva, false)
	if pte == nil {
		panic("clearpteu")
	}

	pte.ClearFlags(apMask)
}
