// Package sync provides the interrupt-masking locking primitives used
// throughout the kernel. There is exactly one CPU, so a "spinlock" never
// actually spins against another core; it only has to be safe against
// reentrancy from an interrupt handler on the same core, which is why
// acquiring one also disables interrupts.
package sync

import "github.com/sudharson14/xv6-OS-for-arm-v8/kernel/cpu"

// cli depth tracking. ncli counts nested PushCli calls; intena records
// whether interrupts were enabled the moment the outermost PushCli ran, so
// PopCli can restore the pre-critical-section state instead of always
// re-enabling.
var (
	ncli   int
	intena bool
)

// PushCli disables interrupts, remembering whether they were enabled so a
// matching PopCli can restore that state. Calls nest: only the outermost
// PushCli/PopCli pair actually toggles the interrupt enable bit.
func PushCli() {
	enabled := cpu.InterruptsEnabled()
	cpu.DisableInterrupts()
	if ncli == 0 {
		intena = enabled
	}
	ncli++
}

// PopCli reverses one PushCli. It panics if interrupts are currently
// enabled, since that means some code re-enabled them inside a critical
// section, and if the nesting count underflows.
func PopCli() {
	if cpu.InterruptsEnabled() {
		panic("PopCli: interrupts enabled while holding a lock")
	}
	ncli--
	if ncli < 0 {
		panic("PopCli: unmatched call")
	}
	if ncli == 0 && intena {
		cpu.EnableInterrupts()
	}
}

// Spinlock is a mutual-exclusion lock. Acquire/Release just delegate to
// PushCli/PopCli and track a locked flag for diagnostics; on a uniprocessor
// target the interrupt mask alone is sufficient for correctness.
type Spinlock struct {
	name   string
	locked bool
}

// NewSpinlock returns a named, initially-unlocked lock. The name is only
// used for diagnostics.
func NewSpinlock(name string) Spinlock {
	return Spinlock{name: name}
}

// Acquire blocks (by disabling interrupts; there is no contention to spin
// on) until the lock is held by the caller.
func (l *Spinlock) Acquire() {
	PushCli()
	if l.locked {
		panic("Spinlock.Acquire: already held by this cpu: " + l.name)
	}
	l.locked = true
}

// Release releases a lock held by the caller.
func (l *Spinlock) Release() {
	if !l.locked {
		panic("Spinlock.Release: not held: " + l.name)
	}
	l.locked = false
	PopCli()
}

// Holding reports whether the lock is currently held.
func (l *Spinlock) Holding() bool {
	return l.locked
}
