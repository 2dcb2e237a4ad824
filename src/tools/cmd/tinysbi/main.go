package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"tinysbi/src/boot/linker"
	"tinysbi/src/boot/trampoline"
	"tinysbi/src/lib/machineinfo"
	"tinysbi/src/tools/entrycheck"
)

var verbose = flag.Int("v", 0, "verbosity level: 0 terse (default), 1 debug info")

func usage() {
	fmt.Fprintf(os.Stderr, `usage: tinysbi [-v n] command [args]
	ld -o DIR [-origin ADDR] [-length N] [-stack N] [-heap N]   write DIR/%s
	dtb FILE                                                    describe a dumped device tree
	verify ELF                                                  check the image's entry trampoline
	monitor -p PTY [-expect S] [-timeout D]                     copy a serial console to stdout
`, linker.ScriptName)
	os.Exit(1)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("tinysbi: ")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}
	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "ld":
		ldCommand(args)
	case "dtb":
		dtbCommand(args)
	case "verify":
		verifyCommand(args)
	case "monitor":
		monitorCommand(args)
	default:
		usage()
	}
}

func ldCommand(args []string) {
	def := linker.DefaultLayout()
	fs := flag.NewFlagSet("ld", flag.ExitOnError)
	out := fs.String("o", ".", "directory to write the linker script to")
	origin := fs.Uint64("origin", def.Origin, "load address of the image")
	length := fs.Uint64("length", def.Length, "size of the memory region")
	stack := fs.Uint64("stack", def.StackSize, "boot stack size in bytes")
	heap := fs.Uint64("heap", def.HeapSize, "heap size in bytes")
	fs.Parse(args)

	l := def
	l.Origin = *origin
	l.Length = *length
	l.StackSize = *stack
	l.HeapSize = *heap
	path := linker.MustWriteScript(*out, l)
	if *verbose > 0 {
		log.Printf("wrote %s (origin %#x, length %#x, stack %#x, heap %#x)", path, l.Origin, l.Length, l.StackSize, l.HeapSize)
	}
}

func dtbCommand(args []string) {
	fs := flag.NewFlagSet("dtb", flag.ExitOnError)
	strict := fs.Bool("strict", false, "accept no header irregularities")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}
	blob, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		log.Fatalf("%v", err)
	}
	quirks := machineinfo.DefaultQuirks
	if *strict {
		quirks = nil
	}
	desc, err := machineinfo.ParseBytes(blob, quirks)
	if err != nil {
		log.Fatalf("%s: %v", fs.Arg(0), err)
	}
	describe(os.Stdout, &desc)
}

func verifyCommand(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	entry := fs.String("entry", trampoline.EntrySymbol, "symbol the image starts at")
	target := fs.String("target", trampoline.MainSymbol, "symbol the entry must jump to, empty for any")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
	}
	r, err := entrycheck.CheckELF(fs.Arg(0), *entry, *target)
	if err != nil {
		log.Fatalf("%s: %v", fs.Arg(0), err)
	}
	fmt.Printf("%s: %s at %#x in %s, %d instructions, jumps to %#x\n",
		fs.Arg(0), *entry, r.Entry, r.Section, r.Instructions, r.Target)
}
