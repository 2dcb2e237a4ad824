package linker

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"text/template"
)

// these names are the only contract between the script, the trampoline and
// the zero initializer
const (
	SymbolBSSStart = "sbss"
	SymbolBSSEnd   = "ebss"
	SymbolStackTop = "boot_stack_top"
	EntrySection   = ".text.entry"
	ScriptName     = "linker.ld"
)

// Layout is the memory map handed to the link step. Everything is placed in
// a single contiguous region starting at Origin. HeapSize bytes above the
// stack are all the runtime may allocate from. Parsing the device tree
// takes none of it; logging and fatal diagnostics take a little.
type Layout struct {
	Arch      string
	Entry     string
	Origin    uint64
	Length    uint64
	StackSize uint64
	HeapSize  uint64
}

// DefaultLayout is the map for qemu's virt machine when the image is loaded
// with -bios.
func DefaultLayout() Layout {
	return Layout{
		Arch:      "riscv",
		Entry:     "_start",
		Origin:    0x8000_0000,
		Length:    2 << 20,
		StackSize: 4096 * 2,
		HeapSize:  4096,
	}
}

type LayoutError struct {
	field string
	value uint64
	why   string
}

func (l *LayoutError) Error() string {
	return fmt.Sprintf("bad layout: %s=0x%x %s", l.field, l.value, l.why)
}

func (l Layout) Validate() error {
	switch {
	case l.Length == 0:
		return &LayoutError{"length", l.Length, "must be non-zero"}
	case l.Origin&0xf != 0:
		return &LayoutError{"origin", l.Origin, "must be 16 byte aligned"}
	case l.StackSize == 0 || l.StackSize&0xf != 0:
		return &LayoutError{"stack", l.StackSize, "must be a non-zero multiple of 16"}
	case l.HeapSize&0xf != 0:
		return &LayoutError{"heap", l.HeapSize, "must be a multiple of 16"}
	case l.StackSize >= l.Length:
		return &LayoutError{"stack", l.StackSize, "does not leave room for the image"}
	case l.HeapSize >= l.Length-l.StackSize:
		return &LayoutError{"heap", l.HeapSize, "does not leave room for the image"}
	case l.Arch == "" || l.Entry == "":
		return &LayoutError{"arch/entry", 0, "must be named"}
	}
	return nil
}

type scriptParams struct {
	Layout
	BSSStart     string
	BSSEnd       string
	StackTop     string
	EntrySection string
}

var scriptTemplate = template.Must(template.New("linker").Parse(scriptTemplateText))

// Script renders the linker script for l.
func (l Layout) Script() ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := scriptTemplate.Execute(&buf, scriptParams{
		Layout:       l,
		BSSStart:     SymbolBSSStart,
		BSSEnd:       SymbolBSSEnd,
		StackTop:     SymbolStackTop,
		EntrySection: EntrySection,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteScript renders l into dir/linker.ld and returns the path written.
func WriteScript(dir string, l Layout) (string, error) {
	text, err := l.Script()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ScriptName)
	if err := os.WriteFile(path, text, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// MustWriteScript is WriteScript for build steps: there is nothing to do
// without the script, so any failure ends the build.
func MustWriteScript(dir string, l Layout) string {
	path, err := WriteScript(dir, l)
	if err != nil {
		log.Fatalf("unable to write linker script: %v", err)
	}
	return path
}
