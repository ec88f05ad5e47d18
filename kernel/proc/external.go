package proc

import "unsafe"

// Scheduler is the contract the trap, timer and system-call code hold
// against the process scheduler, which lives outside this kernel core.
type Scheduler interface {
	// Wakeup marks every process sleeping on the channel runnable.
	Wakeup(ch unsafe.Pointer)

	// Kill flags the process for termination, returning 0 on success
	// and -1 if no such pid exists. The process keeps running until it
	// next crosses the kernel boundary.
	Kill(pid int) int

	// Exit terminates the current process. It does not return.
	Exit()
}

// nopScheduler stands in until a real scheduler registers itself, so that
// early boot code (and tests that never exercise these paths) can run
// without one.
type nopScheduler struct{}

func (nopScheduler) Wakeup(ch unsafe.Pointer) {}
func (nopScheduler) Kill(pid int) int         { return -1 }
func (nopScheduler) Exit()                    { panic("exit: no scheduler registered") }

// Sched is the registered scheduler.
var Sched Scheduler = nopScheduler{}

// SetScheduler registers the scheduler implementation. Registering nil
// restores the inert placeholder.
func SetScheduler(s Scheduler) {
	if s == nil {
		Sched = nopScheduler{}
		return
	}

	Sched = s
}
