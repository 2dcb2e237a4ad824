// Package console turns text into bytes for a byte-at-a-time device.
// Nothing here allocates for string, byte slice or integer arguments, so it
// is safe to use as soon as a stack exists.
package console

// Console is a device that accepts one byte at a time.
type Console interface {
	PutChar(c byte)
}

type Printer struct {
	C Console
}

func (p Printer) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		p.C.PutChar(s[i])
	}
}

func (p Printer) WriteBytes(b []byte) {
	for _, c := range b {
		p.C.PutChar(c)
	}
}

// WriteHex writes v in hex, zero padded to digits (at most 16).
func (p Printer) WriteHex(v uint64, digits int) {
	var buf [24]byte
	p.WriteBytes(formatUint(buf[:], v, 16, digits, '0'))
}

func (p Printer) WriteDec(v int64) {
	var buf [24]byte
	p.WriteBytes(formatInt(buf[:], v, 10, 0, ' '))
}

const hexDigits = "0123456789abcdef"

// formatUint renders v right aligned at the end of buf.
func formatUint(buf []byte, v uint64, base uint64, width int, pad byte) []byte {
	i := len(buf)
	for {
		i--
		buf[i] = hexDigits[v%base]
		v /= base
		if v == 0 {
			break
		}
	}
	for len(buf)-i < width && i > 0 {
		i--
		buf[i] = pad
	}
	return buf[i:]
}

func formatInt(buf []byte, v int64, base uint64, width int, pad byte) []byte {
	if v >= 0 {
		return formatUint(buf, uint64(v), base, width, pad)
	}
	if pad == '0' {
		out := formatUint(buf, uint64(-v), base, width-1, '0')
		start := len(buf) - len(out) - 1
		buf[start] = '-'
		return buf[start:]
	}
	out := formatUint(buf, uint64(-v), base, 0, ' ')
	start := len(buf) - len(out) - 1
	buf[start] = '-'
	for len(buf)-start < width && start > 0 {
		start--
		buf[start] = ' '
	}
	return buf[start:]
}
