package syscall

import (
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/kfmt/early"
	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/proc"
)

// HandlerFunc implements one system call. It extracts its own arguments
// via ArgInt/ArgPtr/ArgStr and returns the value destined for the
// caller's x0.
type HandlerFunc func() int64

// handlers is the dispatch table, indexed by call number. Slots stay nil
// until the owning subsystem registers an implementation; the process and
// filesystem layers live outside this core and plug theirs in at boot.
var handlers [maxSyscall + 1]HandlerFunc

// Register installs fn as the implementation of call number num.
func Register(num int, fn HandlerFunc) {
	if num <= 0 || num > maxSyscall {
		panic("syscall: register: bad call number")
	}

	handlers[num] = fn
}

// Dispatch decodes and runs the system call described by the current
// process's trapframe. The handler's return value is deposited in the
// saved x0, except for exec, whose success replaces the caller's register
// state entirely. An unknown call number yields -1.
func Dispatch() {
	cur := proc.Current()
	num := int(cur.TF.R0)

	if num > 0 && num <= maxSyscall && handlers[num] != nil {
		ret := handlers[num]()

		// In ARM, parameters to main (argc, argv) are passed in r0
		// and r1; do not clobber them on a successful exec.
		if num != SysExec {
			cur.TF.R0 = uint64(ret)
		}
	} else {
		early.Printf("%d %s: unknown sys call %d\n", cur.PID, cur.Name, num)
		cur.TF.R0 = ^uint64(0)
	}
}
