package vmm

import (
	"github.com/sudharson14/xv6-OS-for-arm-v8/board"
)

// UVA2KA maps a user virtual address to the kernel linear-map address of
// the page backing it. It returns 0 when no page is mapped at uva or when
// the page is not an ordinary user-read-write page (a guard page produced
// by ClearPTEU fails this check on purpose).
func (as AddressSpace) UVA2KA(uva uint64) uintptr {
	pte := as.walk(uva, false)
	if pte == nil || !pte.HasAnyFlag(FlagPage|FlagValid) {
		return 0
	}

	if pte.ap() != APUserRW {
		return 0
	}

	return p2vFn(board.Phys(uint64(*pte) & pteAddrMask))
}

// CopyOut copies src into this address space at user address va, going
// through the kernel linear map so it works even when the address space is
// not the active one. It returns -1 if any page in the destination range
// is missing or not user-writable; bytes copied before such a page is
// reached are not undone.
func (as AddressSpace) CopyOut(va uint64, src []byte) int {
	buf := src

	for len(buf) > 0 {
		va0 := alignDown(va, pageSize)
		pa0 := as.UVA2KA(va0)

		if pa0 == 0 {
			return -1
		}

		n := pageSize - (va - va0)
		if n > uint64(len(buf)) {
			n = uint64(len(buf))
		}

		copy(byteSlice(pa0+uintptr(va-va0), n), buf[:n])

		buf = buf[n:]
		va = va0 + pageSize
	}

	return 0
}
