package main

import "github.com/sudharson14/xv6-OS-for-arm-v8/kernel/kmain"

var bootArgs [6]uintptr

// main makes a dummy call to the actual kernel main entrypoint function. It
// is intentionally defined to prevent the Go compiler from optimizing away
// the real kernel code.
//
// A global variable is passed as the argument list to Kmain to prevent the
// compiler from inlining the actual call and removing Kmain from the
// generated .o file; the rt0 assembly calls Kmain directly with the
// addresses the linker script reserves.
func main() {
	kmain.Kmain(bootArgs[0], bootArgs[1], bootArgs[2], bootArgs[3], bootArgs[4], bootArgs[5])
}
