package dtb

const (
	PropModel        = "model"
	PropReg          = "reg"
	PropAddressCells = "#address-cells"
	PropSizeCells    = "#size-cells"
	PropCompatible   = "compatible"
)

// Str is a view of a NUL-free run of bytes inside the blob.
type Str struct {
	b []byte
}

func (s Str) Bytes() []byte {
	return s.b
}

// String copies; keep it off the boot path.
func (s Str) String() string {
	return string(s.b)
}

func (s Str) Len() int {
	return len(s.b)
}

func (s Str) Equal(t string) bool {
	if len(s.b) != len(t) {
		return false
	}
	for i := range s.b {
		if s.b[i] != t[i] {
			return false
		}
	}
	return true
}

func (s Str) HasPrefix(p string) bool {
	if len(s.b) < len(p) {
		return false
	}
	return Str{s.b[:len(p)]}.Equal(p)
}

func (s Str) HasAnyPrefix(prefixes []string) bool {
	for _, p := range prefixes {
		if s.HasPrefix(p) {
			return true
		}
	}
	return false
}

// UnitName is the part of a node name before the '@'.
func (s Str) UnitName() Str {
	for i, b := range s.b {
		if b == '@' {
			return Str{s.b[:i]}
		}
	}
	return s
}

type Property struct {
	Name  Str
	Value []byte
}

// Str interprets the value as a single string, dropping the terminator and
// anything after it.
func (p Property) Str() Str {
	for i, b := range p.Value {
		if b == 0 {
			return Str{p.Value[:i]}
		}
	}
	return Str{p.Value}
}

func (p Property) U32() (uint32, bool) {
	if len(p.Value) != 4 {
		return 0, false
	}
	return be32(p.Value), true
}

// Reg reads the value as (address, size) pairs using the cells ctx says
// apply to the property's node.
func (p Property) Reg(ctx *Context) Reg {
	return Reg{data: p.Value, addressCells: ctx.AddressCells(), sizeCells: ctx.SizeCells()}
}

// Range is the half-open interval [Start, End).
type Range struct {
	Start uint64
	End   uint64
}

type Reg struct {
	data         []byte
	addressCells uint32
	sizeCells    uint32
}

// Next returns the next interval, or false once the value is exhausted or
// the cell sizes make no sense.
func (r *Reg) Next() (Range, bool) {
	if r.addressCells == 0 || r.addressCells > 4 || r.sizeCells > 4 {
		return Range{}, false
	}
	n := int(r.addressCells+r.sizeCells) * 4
	if len(r.data) < n {
		return Range{}, false
	}
	start := cells(r.data[:r.addressCells*4])
	size := cells(r.data[r.addressCells*4 : n])
	r.data = r.data[n:]
	return Range{Start: start, End: start + size}, true
}

// cells folds big endian 32 bit cells, keeping the low 64 bits.
func cells(b []byte) uint64 {
	var v uint64
	for i := 0; i+4 <= len(b); i += 4 {
		v = v<<32 | uint64(be32(b[i:]))
	}
	return v
}
