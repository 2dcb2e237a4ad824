package machineinfo

import (
	"unsafe"

	"tinysbi/src/lib/dtb"
	"tinysbi/src/lib/trust"
)

// Parse reads the blob at p, accepting DefaultQuirks.
func Parse(p unsafe.Pointer) (MachineDescription, error) {
	d, err := dtb.FromRawPointer(p, defaultTolerates)
	if err != nil {
		return MachineDescription{}, err
	}
	return describe(&d)
}

// ParseWith is Parse with an explicit allow-list. A nil list accepts
// nothing.
func ParseWith(p unsafe.Pointer, quirks []Quirk) (MachineDescription, error) {
	d, err := dtb.FromRawPointer(p, filterFor(quirks))
	if err != nil {
		return MachineDescription{}, err
	}
	return describe(&d)
}

// ParseBytes is for blobs held in memory, such as a tree dumped by qemu to a
// file.
func ParseBytes(b []byte, quirks []Quirk) (MachineDescription, error) {
	d, err := dtb.FromBytes(b, filterFor(quirks))
	if err != nil {
		return MachineDescription{}, err
	}
	return describe(&d)
}

func describe(d *dtb.Dtb) (MachineDescription, error) {
	var w walker
	if err := w.walk(d); err != nil {
		return MachineDescription{}, err
	}
	desc := w.desc
	desc.Blob = Range{Start: d.Addr(), End: d.Addr() + uintptr(d.TotalSize())}
	return desc, nil
}

// FromDTB is the boot path: the address comes straight from a register and
// there is nothing sensible to do with a bad tree except stop.
func FromDTB(ptr uintptr) MachineDescription {
	desc, err := Parse(unsafe.Pointer(ptr))
	if err != nil {
		trust.Fatalf("unable to read device tree at %x: %v", ptr, err)
	}
	return desc
}
