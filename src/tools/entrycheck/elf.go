package entrycheck

import (
	"debug/elf"
	"fmt"
	"io"
)

var NotRISCV error = &violation{"not a RISC-V image"}
var NoEntrySymbol error = &violation{"entry symbol not found"}
var NoEntrySection error = &violation{"entry symbol is not inside a loaded section"}
var WrongTarget error = &violation{"entry does not jump to the expected function"}

// ELFReport is a Report placed in the image.
type ELFReport struct {
	Report
	Entry  uint64
	Target uint64
	// Section holds the entry, normally .text with the entry section first.
	Section string
}

// CheckELF finds entry in the image at path and runs CheckCode on it. When
// target is not empty the jump must land on that symbol.
func CheckELF(path, entry, target string) (ELFReport, error) {
	f, err := elf.Open(path)
	if err != nil {
		return ELFReport{}, err
	}
	defer f.Close()
	if f.Machine != elf.EM_RISCV {
		return ELFReport{}, NotRISCV
	}
	syms, err := f.Symbols()
	if err != nil {
		return ELFReport{}, fmt.Errorf("%s: %w", path, err)
	}
	entryAddr, ok := lookup(syms, entry)
	if !ok {
		return ELFReport{}, fmt.Errorf("%s: %w", entry, NoEntrySymbol)
	}
	sec := containing(f, entryAddr)
	if sec == nil {
		return ELFReport{}, NoEntrySection
	}
	n := sec.Addr + sec.Size - entryAddr
	if n > 4*MaxInstructions {
		n = 4 * MaxInstructions
	}
	code := make([]byte, n)
	if _, err := sec.ReadAt(code, int64(entryAddr-sec.Addr)); err != nil && err != io.EOF {
		return ELFReport{}, err
	}
	report, err := CheckCode(code)
	result := ELFReport{Report: report, Entry: entryAddr, Section: sec.Name}
	if err != nil {
		return result, err
	}
	result.Target = report.Target(entryAddr)
	if target != "" {
		want, ok := lookup(syms, target)
		if !ok {
			return result, fmt.Errorf("%s: %w", target, NoEntrySymbol)
		}
		if want != result.Target {
			return result, fmt.Errorf("jumps to %#x, %s is at %#x: %w", result.Target, target, want, WrongTarget)
		}
	}
	return result, nil
}

func lookup(syms []elf.Symbol, name string) (uint64, bool) {
	for _, s := range syms {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

func containing(f *elf.File, addr uint64) *elf.Section {
	for _, s := range f.Sections {
		if s.Type != elf.SHT_PROGBITS || s.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		if addr >= s.Addr && addr < s.Addr+s.Size {
			return s
		}
	}
	return nil
}
