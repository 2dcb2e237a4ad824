//go:build tinysbi

package runtime

// Board runtime for the tinysbi target. Control never passes through main
// or run: the entry in src/boot/trampoline jumps to tinysbi_main, which
// zeroes the bss itself and then calls tinysbi_heap_reset. What remains here
// is what the rest of the runtime links against.

// provided by tinysbi/src/tinygo_runtime
//
//export tinysbi_putchar
func tinysbiPutchar(c byte)

//export tinysbi_abort
func tinysbiAbort()

// tinysbiHeapReset points the allocator at _heap_start. run() would do this
// but is never called, and the bump pointer lives in the bss that has just
// been zeroed.
//
//go:noinline
//export tinysbi_heap_reset
func tinysbiHeapReset() {
	heapptr = heapStart
}

func putchar(c byte) {
	tinysbiPutchar(c)
}

func getchar() byte {
	return 0
}

func buffered() int {
	return 0
}

// abort is called by panic().
func abort() {
	tinysbiAbort()
	for {
	}
}

func exit(code int) {
	abort()
}

// No timer is wired up before the device tree has been read, so time does
// not move.
func ticks() timeUnit {
	return 0
}

func sleepTicks(d timeUnit) {
}

func ticksToNanoseconds(t timeUnit) int64 {
	return int64(t) * 1000
}

func nanosecondsToTicks(ns int64) timeUnit {
	return timeUnit(ns / 1000)
}
