package pmm

import (
	"unsafe"

	"github.com/sudharson14/xv6-OS-for-arm-v8/board"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/mem"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/sync"
)

// ptFreeNode is written into the first 8 bytes of a free page-table page,
// turning the free page-table pages themselves into an intrusive singly
// linked list. This avoids needing separate bookkeeping storage for pages
// donated before the buddy allocator exists.
type ptFreeNode struct {
	next *ptFreeNode
}

var ptPool struct {
	lock sync.Spinlock
	head *ptFreeNode
}

// ptHeapBase is the lowest address managed by the buddy allocator. A
// page-table page at or above it is handed back to the buddy allocator on
// free; pages below it belong to the boot reservoir and only ever cycle
// through the intrusive free list. A variable so tests can relocate the
// boundary around their fake memory.
var ptHeapBase = uintptr(board.P2V(board.InitKernMap))

// ptNodeAt reinterprets the page-table page at addr as a free-list node.
// Declared as a variable so tests can swap in a fake backed by ordinary Go
// memory instead of a raw physical address.
var ptNodeAt = func(addr uintptr) *ptFreeNode {
	return (*ptFreeNode)(unsafe.Pointer(addr))
}

// PTAlloc hands out a single zeroed page-table page (mem.PTSize bytes,
// suitable for use as a PGD, PMD or PT level). It first drains the pool
// built by PTFreeRange/PTFree; once that pool is empty it falls back to the
// buddy allocator at mem.PTOrder. Running out of page-table memory is
// fatal: by the time the pool and the heap are both empty the kernel has no
// way to make progress.
func PTAlloc() uintptr {
	ptPool.lock.Acquire()
	node := ptPool.head
	if node != nil {
		ptPool.head = node.next
	}
	ptPool.lock.Release()

	var addr uintptr
	if node != nil {
		addr = uintptr(unsafe.Pointer(node))
	} else {
		frame, err := Alloc(mem.PTOrder)
		if err != nil {
			panic("oom: PTAlloc")
		}
		addr = frame.Address()
	}

	mem.Memset(addr, 0, mem.PTSize)
	return addr
}

// PTFree returns a single page-table page to the source it came from:
// pages carved out of the kernel heap go back to the buddy allocator,
// pages from the boot reservoir go back on the intrusive free list.
func PTFree(addr uintptr) {
	if addr >= ptHeapBase {
		Free(Frame(addr), mem.PTOrder)
		return
	}

	node := ptNodeAt(addr)
	ptPool.lock.Acquire()
	node.next = ptPool.head
	ptPool.head = node
	ptPool.lock.Release()
}

// PTFreeRange seeds the page-table pool with every mem.PTSize-aligned page
// in [start, end). Used once at boot to donate the reservoir of page-table
// pages that sits between the kernel image and the heap, before the buddy
// allocator is usable.
func PTFreeRange(start, end uintptr) {
	for addr := alignUp(start, uintptr(mem.PTSize)); addr+uintptr(mem.PTSize) <= end; addr += uintptr(mem.PTSize) {
		node := ptNodeAt(addr)
		ptPool.lock.Acquire()
		node.next = ptPool.head
		ptPool.head = node
		ptPool.lock.Release()
	}
}

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}
