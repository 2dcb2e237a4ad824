package console

// Printf understands %s, %d, %x, %v and %%, with an optional '-' (left
// align), '0' (zero pad) and width. Mistakes are written into the output
// rather than reported, the same way fmt does.
func (p Printer) Printf(format string, values ...interface{}) {
	current := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			p.C.PutChar(c)
			continue
		}
		if i == len(format)-1 {
			p.WriteString("%!(NOVERB)")
			return
		}
		if format[i+1] == '%' {
			p.C.PutChar('%')
			i++
			continue
		}
		spec, n, ok := snarfSpecifier(format, i+1)
		i += n
		if !ok {
			p.WriteString("%!(NOVERB)")
			return
		}
		if current >= len(values) {
			p.WriteString("%!")
			p.C.PutChar(spec.verb)
			p.WriteString("(MISSING)")
			continue
		}
		p.printValue(spec, values[current])
		current++
	}
}

type specifier struct {
	verb  byte
	width int
	left  bool
	zero  bool
}

// snarfSpecifier reads flags, width and verb starting at start. It returns
// how many bytes it consumed.
func snarfSpecifier(s string, start int) (specifier, int, bool) {
	var spec specifier
	for i := start; i < len(s); i++ {
		switch c := s[i]; {
		case c == '-':
			spec.left = true
		case c == '0' && spec.width == 0:
			spec.zero = true
		case c >= '0' && c <= '9':
			spec.width = spec.width*10 + int(c-'0')
		default:
			spec.verb = c
			return spec, i - start + 1, true
		}
	}
	return spec, len(s) - start, false
}

type stringer interface {
	String() string
}

func (p Printer) printValue(spec specifier, value interface{}) {
	var buf [24]byte
	switch spec.verb {
	case 'd', 'x', 'v':
		base := uint64(10)
		if spec.verb == 'x' {
			base = 16
		}
		pad := byte(' ')
		if spec.zero && !spec.left {
			pad = '0'
		}
		width := spec.width
		if spec.left {
			width = 0
		}
		var out []byte
		switch v := value.(type) {
		case int:
			out = formatInt(buf[:], int64(v), base, width, pad)
		case int8:
			out = formatInt(buf[:], int64(v), base, width, pad)
		case int16:
			out = formatInt(buf[:], int64(v), base, width, pad)
		case int32:
			out = formatInt(buf[:], int64(v), base, width, pad)
		case int64:
			out = formatInt(buf[:], v, base, width, pad)
		case uint:
			out = formatUint(buf[:], uint64(v), base, width, pad)
		case uint8:
			out = formatUint(buf[:], uint64(v), base, width, pad)
		case uint16:
			out = formatUint(buf[:], uint64(v), base, width, pad)
		case uint32:
			out = formatUint(buf[:], uint64(v), base, width, pad)
		case uint64:
			out = formatUint(buf[:], v, base, width, pad)
		case uintptr:
			out = formatUint(buf[:], uint64(v), base, width, pad)
		default:
			if spec.verb == 'v' {
				p.printString(spec, value)
				return
			}
			p.mismatch(spec.verb)
			return
		}
		p.WriteBytes(out)
		p.padRight(spec, len(out))
	case 's':
		p.printString(spec, value)
	default:
		p.WriteString("%!")
		p.C.PutChar(spec.verb)
		p.WriteString("(BADVERB)")
	}
}

func (p Printer) printString(spec specifier, value interface{}) {
	var n int
	switch v := value.(type) {
	case string:
		n = len(v)
		p.padLeft(spec, n)
		p.WriteString(v)
	case []byte:
		n = len(v)
		p.padLeft(spec, n)
		p.WriteBytes(v)
	case bool:
		s := "false"
		if v {
			s = "true"
		}
		n = len(s)
		p.padLeft(spec, n)
		p.WriteString(s)
	case error:
		s := v.Error()
		n = len(s)
		p.padLeft(spec, n)
		p.WriteString(s)
	case stringer:
		s := v.String()
		n = len(s)
		p.padLeft(spec, n)
		p.WriteString(s)
	default:
		p.mismatch(spec.verb)
		return
	}
	p.padRight(spec, n)
}

func (p Printer) padLeft(spec specifier, n int) {
	if spec.left {
		return
	}
	for i := n; i < spec.width; i++ {
		p.C.PutChar(' ')
	}
}

func (p Printer) padRight(spec specifier, n int) {
	if !spec.left {
		return
	}
	for i := n; i < spec.width; i++ {
		p.C.PutChar(' ')
	}
}

func (p Printer) mismatch(verb byte) {
	p.WriteString("%!")
	p.C.PutChar(verb)
	p.WriteString("(BADTYPE)")
}
