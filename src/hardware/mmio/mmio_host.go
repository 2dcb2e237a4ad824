//go:build !tinygo

package mmio

import "unsafe"

//go:noinline
func Store8(addr uintptr, v uint8) {
	*(*uint8)(unsafe.Pointer(addr)) = v
}

//go:noinline
func Load8(addr uintptr) uint8 {
	return *(*uint8)(unsafe.Pointer(addr))
}

//go:noinline
func Store32(addr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = v
}

//go:noinline
func Load32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

//go:noinline
func Store64(addr uintptr, v uint64) {
	*(*uint64)(unsafe.Pointer(addr)) = v
}

//go:noinline
func Load64(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr))
}
