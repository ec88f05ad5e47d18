package pmm

import (
	"math/bits"
	"testing"

	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/cpu"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/mem"
)

// stubInterrupts replaces the DAIF accessors, which would fault when
// executed in user mode, with a software model of the interrupt enable bit.
func stubInterrupts(t *testing.T) {
	t.Helper()

	origEnable, origDisable, origEnabled := cpu.EnableInterrupts, cpu.DisableInterrupts, cpu.InterruptsEnabled
	t.Cleanup(func() {
		cpu.EnableInterrupts, cpu.DisableInterrupts, cpu.InterruptsEnabled = origEnable, origDisable, origEnabled
	})

	enabled := true
	cpu.EnableInterrupts = func() { enabled = true }
	cpu.DisableInterrupts = func() { enabled = false }
	cpu.InterruptsEnabled = func() bool { return enabled }
}

func initTestPool(t *testing.T, size mem.Size) uintptr {
	t.Helper()
	stubInterrupts(t)

	base := uintptr(1) << 20
	if err := Init(base, size); err != nil {
		t.Fatal(err)
	}

	return base
}

func expectPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()

	fn()
}

// freeBlocks walks an order's mark list and collects the indices of every
// free block it records.
func freeBlocks(order mem.BuddyOrder) []uint64 {
	var out []uint64
	p := &kmem.pools[orderSlot(order)]
	for idx := p.head; idx != nilMark; idx = p.marks[idx].next {
		bitmap := p.marks[idx].bitmap
		for bitmap != 0 {
			bit := bits.TrailingZeros32(bitmap)
			out = append(out, uint64(idx)*blocksPerMark+uint64(bit))
			bitmap &^= 1 << uint(bit)
		}
	}

	return out
}

func TestInitIgnoresPartialBlocks(t *testing.T) {
	initTestPool(t, 4*4096+100)

	if exp, got := mem.Size(4*4096), TotalBytes(); got != exp {
		t.Fatalf("expected the pool to manage %d bytes; got %d", exp, got)
	}

	if got := FreeBytes(); got != TotalBytes() {
		t.Fatalf("expected all managed bytes to start out free; got %d", got)
	}
}

func TestAllocAlignment(t *testing.T) {
	initTestPool(t, 64*4096)

	for order := mem.MinOrder; order <= mem.MaxOrder; order++ {
		frame, err := Alloc(order)
		if err != nil {
			t.Fatalf("[order %d] %v", order, err)
		}

		if blockSize := uint64(1) << order; uint64(frame)%blockSize != 0 {
			t.Errorf("[order %d] expected block to be aligned to %d bytes; got 0x%x", order, blockSize, uint64(frame))
		}
	}
}

func TestAllocNonOverlapAndConservation(t *testing.T) {
	initTestPool(t, 16*4096)

	type alloc struct {
		addr Frame
		size mem.Size
	}

	var (
		outstanding []alloc
		total       mem.Size
	)

	orders := []mem.BuddyOrder{6, 12, 8, 6, 10, 7, 12, 9}
	for _, order := range orders {
		frame, err := Alloc(order)
		if err != nil {
			t.Fatalf("[order %d] %v", order, err)
		}

		size := mem.Size(1) << order
		for _, other := range outstanding {
			if uint64(frame) < uint64(other.addr)+uint64(other.size) && uint64(other.addr) < uint64(frame)+uint64(size) {
				t.Fatalf("block [0x%x, +%d) overlaps block [0x%x, +%d)", uint64(frame), size, uint64(other.addr), other.size)
			}
		}

		outstanding = append(outstanding, alloc{frame, size})
		total += size

		if exp := TotalBytes() - total; FreeBytes() != exp {
			t.Fatalf("expected %d free bytes with %d allocated; got %d", exp, total, FreeBytes())
		}
	}

	for _, a := range outstanding {
		Free(a.addr, a.size.BuddyOrder())
	}

	if FreeBytes() != TotalBytes() {
		t.Fatalf("expected the pool to be fully free again; got %d of %d", FreeBytes(), TotalBytes())
	}
}

func TestSplitAndCoalesce(t *testing.T) {
	initTestPool(t, 4096)

	a, err := Alloc(mem.MinOrder)
	if err != nil {
		t.Fatal(err)
	}

	b, err := Alloc(mem.MinOrder)
	if err != nil {
		t.Fatal(err)
	}

	// The two smallest blocks are carved out of the same 4 KiB block and
	// must be buddies.
	if uint64(a)^uint64(b) != uint64(1)<<mem.MinOrder {
		t.Fatalf("expected buddy blocks; got 0x%x and 0x%x", uint64(a), uint64(b))
	}

	Free(b, mem.MinOrder)
	Free(a, mem.MinOrder)

	// Freeing both buddies must coalesce all the way back up to a single
	// free block at the top order, leaving every smaller order empty.
	for order := mem.MinOrder; order < mem.MaxOrder; order++ {
		if blocks := freeBlocks(order); len(blocks) != 0 {
			t.Errorf("[order %d] expected no free blocks after coalescing; got %v", order, blocks)
		}
	}

	if blocks := freeBlocks(mem.MaxOrder); len(blocks) != 1 {
		t.Errorf("expected a single free top-order block; got %v", blocks)
	}

	if FreeBytes() != TotalBytes() {
		t.Errorf("expected %d free bytes; got %d", TotalBytes(), FreeBytes())
	}
}

func TestAllocExhaustion(t *testing.T) {
	initTestPool(t, 2*4096)

	for i := 0; i < 2; i++ {
		if _, err := Alloc(mem.MaxOrder); err != nil {
			t.Fatal(err)
		}
	}

	frame, err := Alloc(mem.MaxOrder)
	if err == nil {
		t.Fatal("expected an out of memory error")
	}

	if frame != InvalidFrame {
		t.Fatalf("expected InvalidFrame on failed allocation; got 0x%x", uint64(frame))
	}

	// A request for a smaller block has no larger block left to split
	// either.
	if _, err = Alloc(mem.MinOrder); err == nil {
		t.Fatal("expected an out of memory error")
	}
}

func TestDoubleFreePanics(t *testing.T) {
	initTestPool(t, 2*4096)

	a, err := Alloc(mem.MinOrder)
	if err != nil {
		t.Fatal(err)
	}

	// Allocate the buddy as well so the first free cannot coalesce.
	if _, err = Alloc(mem.MinOrder); err != nil {
		t.Fatal(err)
	}

	Free(a, mem.MinOrder)
	expectPanic(t, func() { Free(a, mem.MinOrder) })
}

func TestMisalignedFreePanics(t *testing.T) {
	base := initTestPool(t, 2*4096)

	if _, err := Alloc(mem.MinOrder); err != nil {
		t.Fatal(err)
	}

	expectPanic(t, func() { Free(Frame(base+100), mem.MinOrder) })
}

func TestOutOfRangeOrderPanics(t *testing.T) {
	base := initTestPool(t, 2*4096)

	expectPanic(t, func() { Alloc(mem.MaxOrder + 1) })
	expectPanic(t, func() { Alloc(mem.MinOrder - 1) })
	expectPanic(t, func() { Free(Frame(base), mem.MaxOrder+1) })
}
