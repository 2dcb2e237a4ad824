// Package dtbtest builds flattened device trees for tests.
package dtbtest

import (
	"bytes"
	"encoding/binary"
	"unsafe"
)

const (
	beginNode = 1
	endNode   = 2
	prop      = 3
	nop       = 4
	end       = 9
)

// header field offsets, for tests that corrupt a built blob
const (
	OffsetMagic           = 0
	OffsetTotalSize       = 4
	OffsetStruct          = 8
	OffsetStrings         = 12
	OffsetMemRsvmap       = 16
	OffsetVersion         = 20
	OffsetLastCompVersion = 24
	OffsetSizeStrings     = 32
	OffsetSizeStruct      = 36
)

type Builder struct {
	structure bytes.Buffer
	strings   bytes.Buffer
	stringMap map[string]uint32
}

func NewBuilder() *Builder {
	return &Builder{stringMap: make(map[string]uint32)}
}

func (f *Builder) putU32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	f.structure.Write(buf[:])
}

func (f *Builder) pad() {
	for f.structure.Len()%4 != 0 {
		f.structure.WriteByte(0)
	}
}

func (f *Builder) addString(s string) uint32 {
	if off, ok := f.stringMap[s]; ok {
		return off
	}
	off := uint32(f.strings.Len())
	f.strings.WriteString(s)
	f.strings.WriteByte(0)
	f.stringMap[s] = off
	return off
}

func (f *Builder) BeginNode(name string) *Builder {
	f.putU32(beginNode)
	f.structure.WriteString(name)
	f.structure.WriteByte(0)
	f.pad()
	return f
}

func (f *Builder) EndNode() *Builder {
	f.putU32(endNode)
	return f
}

func (f *Builder) Nop() *Builder {
	f.putU32(nop)
	return f
}

func (f *Builder) Bytes(name string, data []byte) *Builder {
	f.putU32(prop)
	f.putU32(uint32(len(data)))
	f.putU32(f.addString(name))
	f.structure.Write(data)
	f.pad()
	return f
}

func (f *Builder) Str(name, value string) *Builder {
	return f.Bytes(name, append([]byte(value), 0))
}

func (f *Builder) Empty(name string) *Builder {
	return f.Bytes(name, nil)
}

func (f *Builder) U32(name string, values ...uint32) *Builder {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint32(data[4*i:], v)
	}
	return f.Bytes(name, data)
}

// Reg64 writes a reg with two address and two size cells per interval, the
// way qemu's virt machine does at the root and in soc.
func (f *Builder) Reg64(intervals ...[2]uint64) *Builder {
	var cells []uint32
	for _, iv := range intervals {
		size := iv[1] - iv[0]
		cells = append(cells, uint32(iv[0]>>32), uint32(iv[0]), uint32(size>>32), uint32(size))
	}
	return f.U32("reg", cells...)
}

// Build terminates the structure block and lays out header, an empty memory
// reservation map, structure and strings.
func (f *Builder) Build() []byte {
	f.putU32(end)
	for f.strings.Len()%4 != 0 {
		f.strings.WriteByte(0)
	}
	const headerSize = 40
	memRsvOff := uint32(headerSize)
	structOff := memRsvOff + 16
	structSize := uint32(f.structure.Len())
	stringsOff := structOff + structSize
	stringsSize := uint32(f.strings.Len())
	total := stringsOff + stringsSize

	result := make([]byte, total)
	hdr := []uint32{0xd00dfeed, total, structOff, stringsOff, memRsvOff, 17, 16, 0, stringsSize, structSize}
	for i, v := range hdr {
		binary.BigEndian.PutUint32(result[4*i:], v)
	}
	copy(result[structOff:], f.structure.Bytes())
	copy(result[stringsOff:], f.strings.Bytes())
	return result
}

// SetField overwrites one header word of a built blob.
func SetField(blob []byte, offset int, v uint32) {
	binary.BigEndian.PutUint32(blob[offset:], v)
}

// At copies blob into a fresh buffer so that it starts offset bytes past an
// 8 byte boundary, returning the buffer and the copy's slice of it.
func At(blob []byte, offset int) (backing []uint64, placed []byte) {
	backing = make([]uint64, (len(blob)+offset)/8+1)
	raw := u64bytes(backing)
	placed = raw[offset : offset+len(blob)]
	copy(placed, blob)
	return backing, placed
}

func u64bytes(b []uint64) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&b[0])), len(b)*8)
}

// QemuVirt is a trimmed version of the tree qemu hands to -bios on the virt
// machine with two harts.
func QemuVirt() []byte {
	f := NewBuilder()
	f.BeginNode("")
	f.U32("#address-cells", 2).U32("#size-cells", 2)
	f.Str("compatible", "riscv-virtio")
	f.Str("model", "qemu,virt")

	f.BeginNode("chosen").Str("stdout-path", "/soc/uart@10000000").EndNode()

	f.BeginNode("cpus")
	f.U32("#address-cells", 1).U32("#size-cells", 0)
	f.U32("timebase-frequency", 10000000)
	for i, name := range []string{"cpu@0", "cpu@1"} {
		f.BeginNode(name)
		f.Str("device_type", "cpu")
		f.U32("reg", uint32(i))
		f.Str("riscv,isa", "rv64imafdc")
		f.BeginNode("interrupt-controller").U32("#interrupt-cells", 1).Empty("interrupt-controller").EndNode()
		f.EndNode()
	}
	f.BeginNode("cpu-map").BeginNode("cluster0").BeginNode("core0").U32("cpu", 1).EndNode().EndNode().EndNode()
	f.EndNode()

	f.BeginNode("memory@80000000")
	f.Str("device_type", "memory")
	f.Reg64([2]uint64{0x8000_0000, 0x8800_0000})
	f.EndNode()

	f.BeginNode("soc")
	f.U32("#address-cells", 2).U32("#size-cells", 2)
	f.Str("compatible", "simple-bus")
	f.Empty("ranges")
	f.BeginNode("test@100000").Str("compatible", "sifive,test0").Reg64([2]uint64{0x10_0000, 0x10_1000}).EndNode()
	f.BeginNode("uart@10000000").Str("compatible", "ns16550a").Reg64([2]uint64{0x1000_0000, 0x1000_0100}).EndNode()
	f.BeginNode("plic@c000000").Str("compatible", "sifive,plic-1.0.0").Reg64([2]uint64{0xc00_0000, 0x1000_0000}).EndNode()
	f.BeginNode("clint@2000000").Str("compatible", "riscv,clint0").Reg64([2]uint64{0x200_0000, 0x201_0000}).EndNode()
	f.EndNode()

	f.EndNode()
	return f.Build()
}
