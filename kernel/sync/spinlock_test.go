package sync

import (
	"testing"

	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/cpu"
)

// stubInterrupts models the DAIF interrupt-enable bit in software and
// returns a pointer to it so tests can inspect and prime the state.
func stubInterrupts(t *testing.T) *bool {
	t.Helper()

	origEnable, origDisable, origEnabled := cpu.EnableInterrupts, cpu.DisableInterrupts, cpu.InterruptsEnabled
	t.Cleanup(func() {
		cpu.EnableInterrupts, cpu.DisableInterrupts, cpu.InterruptsEnabled = origEnable, origDisable, origEnabled
		ncli = 0
		intena = false
	})

	enabled := true
	cpu.EnableInterrupts = func() { enabled = true }
	cpu.DisableInterrupts = func() { enabled = false }
	cpu.InterruptsEnabled = func() bool { return enabled }

	return &enabled
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

func TestPushPopCliNesting(t *testing.T) {
	enabled := stubInterrupts(t)

	PushCli()
	if *enabled {
		t.Fatal("expected interrupts to be masked after PushCli")
	}

	PushCli()
	PopCli()
	if *enabled {
		t.Fatal("expected interrupts to stay masked while nested")
	}

	PopCli()
	if !*enabled {
		t.Fatal("expected the outermost PopCli to restore interrupts")
	}
}

func TestPopCliRestoresPriorState(t *testing.T) {
	enabled := stubInterrupts(t)

	// Interrupts were already off before the critical section; the
	// outermost PopCli must leave them off.
	*enabled = false

	PushCli()
	PopCli()

	if *enabled {
		t.Fatal("expected interrupts to stay masked after the critical section")
	}
}

func TestPopCliMisuse(t *testing.T) {
	enabled := stubInterrupts(t)

	t.Run("interrupts enabled inside a critical section", func(t *testing.T) {
		PushCli()
		*enabled = true
		expectPanic(t, PopCli)
		*enabled = false
		ncli = 0
	})

	t.Run("unmatched PopCli", func(t *testing.T) {
		*enabled = false
		expectPanic(t, PopCli)
		ncli = 0
	})
}

func TestSpinlock(t *testing.T) {
	enabled := stubInterrupts(t)

	l := NewSpinlock("test")

	l.Acquire()

	if !l.Holding() {
		t.Fatal("expected Holding to report the lock as held")
	}

	if *enabled {
		t.Fatal("expected interrupts to be masked while the lock is held")
	}

	l.Release()

	if l.Holding() {
		t.Fatal("expected Holding to report the lock as free")
	}

	if !*enabled {
		t.Fatal("expected interrupts back on after release")
	}
}

func TestSpinlockMisuse(t *testing.T) {
	stubInterrupts(t)

	l := NewSpinlock("test")

	t.Run("re-acquire while held", func(t *testing.T) {
		l.Acquire()
		expectPanic(t, l.Acquire)
		// The failed acquire pushed a cli level before panicking.
		PopCli()
		l.Release()
	})

	t.Run("release while free", func(t *testing.T) {
		expectPanic(t, l.Release)
	})
}
