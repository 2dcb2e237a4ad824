//go:build tinygo

package bss

import "unsafe"

//go:extern sbss
var sbss [0]byte

//go:extern ebss
var ebss [0]byte

// ZeroBSS clears the region the linker script brackets with sbss/ebss. It
// must run before anything reads or writes a package level variable.
func ZeroBSS() {
	Zero(uintptr(unsafe.Pointer(&sbss)), uintptr(unsafe.Pointer(&ebss)))
}
