// Package bss clears the uninitialized data region before any Go code
// touches a global.
package bss

import "tinysbi/src/hardware/mmio"

// Zero clears [start,end) one byte at a time. Each store goes through mmio so
// it is never merged into a bulk clear and is visible to any other hart that
// is parked and watching this memory.
func Zero(start, end uintptr) {
	for p := start; p < end; p++ {
		mmio.Store8(p, 0)
	}
}
