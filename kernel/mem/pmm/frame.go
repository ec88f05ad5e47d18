// Package pmm implements physical memory management: a buddy allocator over
// the kernel heap and a page-table-page pool layered on top of it.
package pmm

import "github.com/sudharson14/xv6-OS-for-arm-v8/kernel/mem"

// Frame is the address of a block the buddy allocator manages, expressed
// in bytes, not page numbers. The kernel initializes the pool over the
// linear map, so at runtime these are high-half virtual addresses whose
// physical counterparts are a V2P offset away.
type Frame uintptr

// InvalidFrame is returned by allocators when they fail to reserve memory.
const InvalidFrame = Frame(0)

// IsValid returns true if this is a valid (non-zero) frame.
func (f Frame) IsValid() bool {
	return f != InvalidFrame
}

// Address returns the address of this frame as a uintptr.
func (f Frame) Address() uintptr {
	return uintptr(f)
}

// Size returns the frame's size given the buddy order it was allocated at.
func Size(order mem.BuddyOrder) mem.Size {
	return mem.Size(1) << order
}
