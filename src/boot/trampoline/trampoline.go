// Package trampoline holds the machine entry point. The code itself lives in
// entry_riscv64.S, which the tinysbi TinyGo target links ahead of everything
// else; this file names the symbols that tie it to the linker layout and to
// the Go side of the boot.
package trampoline

const (
	// EntrySymbol is where the previous boot stage jumps.
	EntrySymbol = "_start"
	// MainSymbol is the first Go code to run; it gets a0/a1 as arguments.
	MainSymbol = "tinysbi_main"
	// Source is the assembly file relative to this package.
	Source = "entry_riscv64.S"
)
