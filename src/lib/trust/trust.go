// Package trust is the boot logger. Messages go to whatever console was
// attached with SetConsole, one byte at a time; until then only the abort
// path does anything.
package trust

import "tinysbi/src/lib/console"

type MaskLevel int

const (
	Nothing   MaskLevel = 0x0
	ErrorMask MaskLevel = 0x1
	WarnMask  MaskLevel = 0x2
	InfoMask  MaskLevel = 0x4
	DebugMask MaskLevel = 0x8
	TraceMask MaskLevel = 0x10
	fatalMask MaskLevel = 0x80
)

const DefaultLevel = ErrorMask | WarnMask | InfoMask

var (
	level   = fatalMask | DefaultLevel
	out     console.Printer
	hasOut  bool
	abortFn = haltForever
)

// SetConsole attaches the sink for all further messages. Passing nil
// detaches it.
func SetConsole(c console.Console) {
	out = console.Printer{C: c}
	hasOut = c != nil
}

// PutChar writes straight to the attached console, ignoring the level.
func PutChar(c byte) {
	if hasOut {
		out.C.PutChar(c)
	}
}

// SetLevel sets the mask to the given level and everything more severe, so
// SetLevel(InfoMask) also prints warnings and errors. It returns the
// previous mask.
func SetLevel(mask MaskLevel) MaskLevel {
	result := Nothing
	switch {
	case mask&TraceMask > 0:
		result |= TraceMask
		fallthrough
	case mask&DebugMask > 0:
		result |= DebugMask
		fallthrough
	case mask&InfoMask > 0:
		result |= InfoMask
		fallthrough
	case mask&WarnMask > 0:
		result |= WarnMask
		fallthrough
	case mask&ErrorMask > 0:
		result |= ErrorMask
	}
	r := level &^ fatalMask
	level = result | fatalMask
	return r
}

func Level() MaskLevel {
	return level &^ fatalMask
}

// ParseLevel maps the names accepted at build time to a mask. The empty
// string gives DefaultLevel.
func ParseLevel(name string) (MaskLevel, bool) {
	switch name {
	case "":
		return DefaultLevel, true
	case "off":
		return Nothing, true
	case "error":
		return ErrorMask, true
	case "warn":
		return ErrorMask | WarnMask, true
	case "info":
		return ErrorMask | WarnMask | InfoMask, true
	case "debug":
		return ErrorMask | WarnMask | InfoMask | DebugMask, true
	case "trace":
		return ErrorMask | WarnMask | InfoMask | DebugMask | TraceMask, true
	}
	return DefaultLevel, false
}

func logf(l MaskLevel, format string, params ...interface{}) {
	if level&l == 0 || !hasOut {
		return
	}
	switch {
	case l&fatalMask > 0:
		out.WriteString("FATAL:")
	case l&ErrorMask > 0:
		out.WriteString("ERROR:")
	case l&WarnMask > 0:
		out.WriteString(" WARN:")
	case l&InfoMask > 0:
		out.WriteString(" INFO:")
	case l&DebugMask > 0:
		out.WriteString("DEBUG:")
	case l&TraceMask > 0:
		out.WriteString("TRACE:")
	}
	out.Printf(format, params...)
	if len(format) == 0 || format[len(format)-1] != '\n' {
		out.C.PutChar('\n')
	}
}

// SetAbortHook replaces what Fatalf does after printing and returns the
// previous hook.
func SetAbortHook(fn func()) func() {
	prev := abortFn
	abortFn = fn
	return prev
}

// Fatalf is not maskable. It prints the message if there is a console and
// then calls the abort hook, which must not return; if it does, Fatalf
// spins.
func Fatalf(format string, params ...interface{}) {
	logf(fatalMask, format, params...)
	abortFn()
	haltForever()
}

//Errorf prints the given log message (format + params) using the ErrorMask level.
func Errorf(format string, params ...interface{}) {
	logf(ErrorMask, format, params...)
}

//Warnf prints the given log message (format + params) using the WarnMask level.
func Warnf(format string, params ...interface{}) {
	logf(WarnMask, format, params...)
}

//Infof prints the given log message (format + params) using the InfoMask level.
func Infof(format string, params ...interface{}) {
	logf(InfoMask, format, params...)
}

//Debugf prints the given log message (format + params) using the DebugMask level.
func Debugf(format string, params ...interface{}) {
	logf(DebugMask, format, params...)
}

//Tracef prints the given log message (format + params) using the TraceMask level.
func Tracef(format string, params ...interface{}) {
	logf(TraceMask, format, params...)
}

func haltForever() {
	for {
	}
}
