// Package syscall implements the system-call ABI: extracting call numbers
// and arguments from the trapframe, validating user pointers against the
// process image, and dispatching to the registered handlers.
//
// User code traps with the call number in x0 and up to four arguments in
// x1..x4; the result travels back in x0. Handlers pull their arguments
// through ArgInt/ArgPtr/ArgStr, which bounds-check everything against the
// calling process before the kernel touches it.
package syscall

import (
	"unsafe"

	"github.com/sudharson14/xv6-OS-for-arm-v8/kernel/proc"
)

// FetchInt reads a 64-bit integer at user virtual address addr, rejecting
// addresses that reach past the process image. Returns 0 on success, -1
// on a bad address.
func FetchInt(addr uint64, ip *int64) int {
	cur := proc.Current()
	if addr >= cur.Sz || addr+8 > cur.Sz {
		return -1
	}

	*ip = *(*int64)(unsafe.Pointer(uintptr(addr)))
	return 0
}

// FetchStr locates the NUL-terminated string at user virtual address
// addr. It does not copy: *s is pointed at the user bytes, which cannot
// change underneath the kernel since there is no shared writable memory.
// Returns the length of the string, or -1 if addr is out of range or the
// string is not terminated inside the process image.
func FetchStr(addr uint64, s *string) int {
	cur := proc.Current()
	if addr >= cur.Sz {
		return -1
	}

	for p := addr; p < cur.Sz; p++ {
		if *(*byte)(unsafe.Pointer(uintptr(p))) == 0 {
			n := int(p - addr)
			*s = unsafe.String((*byte)(unsafe.Pointer(uintptr(addr))), n)
			return n
		}
	}

	return -1
}

// ArgInt fetches the nth system-call argument (n in [0,3]) from the
// trapframe. Asking for an argument beyond the ABI's four is a kernel
// bug.
func ArgInt(n int, ip *int64) int {
	tf := proc.Current().TF

	switch n {
	case 0:
		*ip = int64(tf.R1)
	case 1:
		*ip = int64(tf.R2)
	case 2:
		*ip = int64(tf.R3)
	case 3:
		*ip = int64(tf.R4)
	default:
		panic("too many system call parameters")
	}

	return 0
}

// ArgPtr fetches the nth argument as a pointer to size bytes of user
// memory, verifying that the whole range lies inside the process image.
func ArgPtr(n int, pp *uintptr, size int) int {
	var i int64
	if ArgInt(n, &i) < 0 {
		return -1
	}

	cur := proc.Current()
	if uint64(i) >= cur.Sz || uint64(i)+uint64(size) > cur.Sz {
		return -1
	}

	*pp = uintptr(i)
	return 0
}

// ArgStr fetches the nth argument as a NUL-terminated user string,
// returning its length or -1 if the pointer or termination check fails.
func ArgStr(n int, s *string) int {
	var addr int64
	if ArgInt(n, &addr) < 0 {
		return -1
	}

	return FetchStr(uint64(addr), s)
}
