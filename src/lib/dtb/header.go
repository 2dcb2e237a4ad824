// Package dtb reads a flattened device tree in place. The blob is viewed
// where the previous boot stage left it and every name or property an
// Iterator returns points into it, so parsing and iterating do not allocate
// on the success path.
package dtb

import (
	"strconv"
	"unsafe"
)

const (
	Magic           = 0xd00dfeed
	CurrentVersion  = 17
	CompatVersion   = 16
	HeaderSize      = 40
	memRsvAlignment = 8
)

// Header mirrors the on-disk header; all fields are big endian in the blob.
type Header struct {
	Magic           uint32
	TotalSize       uint32
	OffStruct       uint32
	OffStrings      uint32
	OffMemRsvmap    uint32
	Version         uint32
	LastCompVersion uint32
	BootCPUIDPhys   uint32
	SizeStrings     uint32
	SizeStruct      uint32
}

type HeaderErrorKind uint8

const (
	NilPointer HeaderErrorKind = iota + 1
	Misaligned
	BadMagic
	Version
	LastCompVersion
	TotalSize
	MemRsvOffset
	StructOffset
	StructSize
	StringsOffset
)

func (k HeaderErrorKind) String() string {
	switch k {
	case NilPointer:
		return "nil pointer"
	case Misaligned:
		return "misaligned"
	case BadMagic:
		return "bad magic"
	case Version:
		return "version"
	case LastCompVersion:
		return "last compatible version"
	case TotalSize:
		return "total size"
	case MemRsvOffset:
		return "memory reservation offset"
	case StructOffset:
		return "structure offset"
	case StructSize:
		return "structure size"
	case StringsOffset:
		return "strings offset"
	}
	return "unknown"
}

// HeaderError describes one thing wrong with a header. Value carries the
// offending field (for Misaligned, the alignment of the blob address).
type HeaderError struct {
	Kind  HeaderErrorKind
	Value uint32
}

func (e HeaderError) Error() string {
	return "dtb header: " + e.Kind.String() + " " + strconv.FormatUint(uint64(e.Value), 10)
}

// Filter reports whether an irregularity can be ignored. Only Misaligned(4),
// Version and LastCompVersion are ever offered to a filter; the remaining
// kinds would make the walk read outside the blob and are always fatal.
type Filter func(HeaderError) bool

func be32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func readHeader(b []byte) Header {
	return Header{
		Magic:           be32(b[0:]),
		TotalSize:       be32(b[4:]),
		OffStruct:       be32(b[8:]),
		OffStrings:      be32(b[12:]),
		OffMemRsvmap:    be32(b[16:]),
		Version:         be32(b[20:]),
		LastCompVersion: be32(b[24:]),
		BootCPUIDPhys:   be32(b[28:]),
		SizeStrings:     be32(b[32:]),
		SizeStruct:      be32(b[36:]),
	}
}

// alignment returns the largest of 1, 2, 4, 8 that divides addr.
func alignment(addr uintptr) uint32 {
	switch {
	case addr&7 == 0:
		return 8
	case addr&3 == 0:
		return 4
	case addr&1 == 0:
		return 2
	}
	return 1
}

func soft(e HeaderError, tolerate Filter) error {
	if tolerate != nil && tolerate(e) {
		return nil
	}
	return e
}

// check validates h against a blob placed at an address of the given
// alignment. The first problem that is not tolerated is returned.
func (h *Header) check(align uint32, tolerate Filter) error {
	if align < 4 {
		return HeaderError{Misaligned, align}
	}
	if align < 8 {
		if err := soft(HeaderError{Misaligned, align}, tolerate); err != nil {
			return err
		}
	}
	if h.Magic != Magic {
		return HeaderError{BadMagic, h.Magic}
	}
	if h.Version < CurrentVersion {
		if err := soft(HeaderError{Version, h.Version}, tolerate); err != nil {
			return err
		}
	}
	if h.LastCompVersion != CompatVersion {
		if err := soft(HeaderError{LastCompVersion, h.LastCompVersion}, tolerate); err != nil {
			return err
		}
	}
	total := uint64(h.TotalSize)
	switch {
	case total < HeaderSize:
		return HeaderError{TotalSize, h.TotalSize}
	case h.OffMemRsvmap < HeaderSize || h.OffMemRsvmap%memRsvAlignment != 0 || uint64(h.OffMemRsvmap) >= total:
		return HeaderError{MemRsvOffset, h.OffMemRsvmap}
	case h.OffStruct < HeaderSize || h.OffStruct%4 != 0 || uint64(h.OffStruct) >= total:
		return HeaderError{StructOffset, h.OffStruct}
	case h.Version >= CurrentVersion && (h.SizeStruct%4 != 0 || uint64(h.OffStruct)+uint64(h.SizeStruct) > total):
		return HeaderError{StructSize, h.SizeStruct}
	case h.OffStrings < HeaderSize || uint64(h.OffStrings)+uint64(h.SizeStrings) > total:
		return HeaderError{StringsOffset, h.OffStrings}
	}
	return nil
}

// Dtb is a validated blob. It is a small value and is meant to live on the
// stack of whoever parses it.
type Dtb struct {
	blob    []byte
	header  Header
	structs []byte
	strings []byte
}

// FromRawPointer validates the header at p and derives the blob's extent
// from it; no length is needed from the caller.
func FromRawPointer(p unsafe.Pointer, tolerate Filter) (Dtb, error) {
	if p == nil {
		return Dtb{}, HeaderError{NilPointer, 0}
	}
	align := alignment(uintptr(p))
	if align < 4 {
		return Dtb{}, HeaderError{Misaligned, align}
	}
	h := readHeader(unsafe.Slice((*byte)(p), HeaderSize))
	if h.Magic != Magic {
		return Dtb{}, HeaderError{BadMagic, h.Magic}
	}
	if h.TotalSize < HeaderSize {
		return Dtb{}, HeaderError{TotalSize, h.TotalSize}
	}
	return newDtb(unsafe.Slice((*byte)(p), h.TotalSize), h, align, tolerate)
}

// FromBytes is FromRawPointer for a blob already held in memory, such as one
// read from a file. The header's total size must fit in b.
func FromBytes(b []byte, tolerate Filter) (Dtb, error) {
	if len(b) < HeaderSize {
		return Dtb{}, HeaderError{TotalSize, uint32(len(b))}
	}
	h := readHeader(b)
	if h.Magic != Magic {
		return Dtb{}, HeaderError{BadMagic, h.Magic}
	}
	if uint64(h.TotalSize) > uint64(len(b)) {
		return Dtb{}, HeaderError{TotalSize, h.TotalSize}
	}
	return newDtb(b[:h.TotalSize], h, alignment(uintptr(unsafe.Pointer(&b[0]))), tolerate)
}

func newDtb(blob []byte, h Header, align uint32, tolerate Filter) (Dtb, error) {
	if err := h.check(align, tolerate); err != nil {
		return Dtb{}, err
	}
	structEnd := uint64(h.TotalSize)
	if h.Version >= CurrentVersion {
		structEnd = uint64(h.OffStruct) + uint64(h.SizeStruct)
	}
	return Dtb{
		blob:    blob,
		header:  h,
		structs: blob[h.OffStruct:structEnd],
		strings: blob[h.OffStrings : uint64(h.OffStrings)+uint64(h.SizeStrings)],
	}, nil
}

func (d *Dtb) Header() Header {
	return d.header
}

// Addr is where the blob starts in memory.
func (d *Dtb) Addr() uintptr {
	if len(d.blob) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&d.blob[0]))
}

func (d *Dtb) TotalSize() int {
	return len(d.blob)
}
