//go:build tinygo.riscv64

// Command firmware is the image qemu loads with -bios. Control arrives at
// _start in the trampoline, which jumps to tinysbi_main; main itself is
// never reached.
//
//	modtinygo/install.sh
//	tinygo build -target=tinysbi -o build/tinysbi.elf ./src/firmware
//	tinysbi verify build/tinysbi.elf
//	qemu-system-riscv64 -machine virt -nographic -bios build/tinysbi.elf
package main

import _ "tinysbi/src/tinygo_runtime"

func main() {
}
