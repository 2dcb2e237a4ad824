// Package machineinfo reduces the device tree the previous boot stage hands
// over to the handful of facts the firmware needs: where memory is, how many
// harts there are, and where the console, test device and timer live.
//
// Parsing a good tree does not allocate. The description is a plain value
// returned by copy, the walk keeps its iterator in the caller's frame, and the
// model string is copied into a fixed buffer so the description stays valid
// if the blob is overwritten. Only the error paths allocate.
package machineinfo

import "tinysbi/src/lib/dtb"

// ModelCapacity is the number of bytes of the model string that are kept.
const ModelCapacity = 64

// InlineString holds up to ModelCapacity bytes in place.
type InlineString struct {
	buf [ModelCapacity]byte
	n   uint8
}

// Set copies b, silently dropping whatever does not fit.
func (s *InlineString) Set(b []byte) {
	s.n = uint8(copy(s.buf[:], b))
}

func (s *InlineString) SetString(v string) {
	s.n = uint8(copy(s.buf[:], v))
}

func (s *InlineString) Bytes() []byte {
	return s.buf[:s.n]
}

func (s InlineString) String() string {
	return string(s.buf[:s.n])
}

func (s InlineString) Len() int {
	return int(s.n)
}

func (s InlineString) Cap() int {
	return ModelCapacity
}

func (s InlineString) Equal(v string) bool {
	return string(s.buf[:s.n]) == v
}

// Range is the half-open interval [Start, End). The zero Range means the
// thing it describes was not found.
type Range struct {
	Start uintptr
	End   uintptr
}

func (r Range) IsEmpty() bool {
	return r.End <= r.Start
}

func (r Range) Len() uintptr {
	if r.IsEmpty() {
		return 0
	}
	return r.End - r.Start
}

func (r Range) Contains(addr uintptr) bool {
	return addr >= r.Start && addr < r.End
}

func fromDtb(r dtb.Range) Range {
	return Range{Start: uintptr(r.Start), End: uintptr(r.End)}
}

type MachineDescription struct {
	// Blob is where the device tree itself sits.
	Blob            Range
	Model           InlineString
	CPUCount        int
	Memory          Range
	Console         Range
	TestDevice      Range
	TimerController Range
}
