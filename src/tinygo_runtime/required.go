//go:build tinygo.riscv64

// Package tinygo_runtime holds the symbols the assembly entry and the board
// runtime in modtinygo/tinysbi-files link against.
package tinygo_runtime

import (
	"device/riscv"

	"tinysbi/src/boot/bss"
	"tinysbi/src/boot/stub"
	"tinysbi/src/lib/trust"
)

// logLevel is set at build time:
//
//	tinygo build -ldflags "-X tinysbi/src/tinygo_runtime.logLevel=debug"
var logLevel string

// tinysbiMain is where the trampoline jumps with a0 and a1 untouched, so it
// receives the hart id and device tree address the previous stage left
// there.
//
//export tinysbi_main
func tinysbiMain(hartID uintptr, dtb uintptr) {
	bss.ZeroBSS()
	heapReset()
	trust.SetAbortHook(halt)
	// an unknown name gets the default level
	level, _ := trust.ParseLevel(logLevel)
	stub.Run(hartID, dtb, virtDevices{}, level)
	halt()
}

// provided by the board runtime
//
//export tinysbi_heap_reset
func heapReset()

//export tinysbi_putchar
func putchar(c uint8) {
	trust.PutChar(c)
}

//export tinysbi_abort
func abort() {
	trust.Fatalf("runtime abort")
}

func halt() {
	for {
		riscv.Asm("wfi")
	}
}
