package trust

import (
	"strings"
	"testing"
)

type recorder struct {
	strings.Builder
}

func (r *recorder) PutChar(c byte) {
	r.WriteByte(c)
}

type aborted struct{}

// capture attaches a fresh console and an abort hook that panics, undoing
// both when the test ends.
func capture(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{}
	SetConsole(r)
	prevLevel := SetLevel(DefaultLevel)
	prevHook := SetAbortHook(func() { panic(aborted{}) })
	t.Cleanup(func() {
		SetConsole(nil)
		SetLevel(prevLevel)
		SetAbortHook(prevHook)
	})
	return r
}

func mustAbort(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if _, ok := recover().(aborted); !ok {
			t.Fatalf("expected the abort hook to run")
		}
	}()
	fn()
}

func TestLevelsFilter(t *testing.T) {
	r := capture(t)
	SetLevel(WarnMask)
	Errorf("e%d", 1)
	Warnf("w")
	Infof("i")
	Debugf("d")
	want := "ERROR:e1\n WARN:w\n"
	if r.String() != want {
		t.Errorf("got %q, want %q", r.String(), want)
	}
}

func TestTracefNeedsTraceLevel(t *testing.T) {
	r := capture(t)
	Tracef("hidden %x", 1)
	SetLevel(TraceMask)
	Tracef("t%x", 0xab)
	Debugf("d")
	if want := "TRACE:tab\nDEBUG:d\n"; r.String() != want {
		t.Errorf("got %q, want %q", r.String(), want)
	}
}

func TestSetLevelIsCumulative(t *testing.T) {
	capture(t)
	SetLevel(DebugMask)
	if got, want := Level(), ErrorMask|WarnMask|InfoMask|DebugMask; got != want {
		t.Errorf("Level() = %#x, want %#x", got, want)
	}
	prev := SetLevel(Nothing)
	if prev != ErrorMask|WarnMask|InfoMask|DebugMask {
		t.Errorf("SetLevel returned %#x", prev)
	}
	if Level() != Nothing {
		t.Errorf("Level() = %#x after turning logging off", Level())
	}
}

func TestNewlineNotDoubled(t *testing.T) {
	r := capture(t)
	Infof("one\n")
	Infof("")
	if want := " INFO:one\n INFO:\n"; r.String() != want {
		t.Errorf("got %q, want %q", r.String(), want)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want MaskLevel
		ok   bool
	}{
		{"", DefaultLevel, true},
		{"off", Nothing, true},
		{"error", ErrorMask, true},
		{"warn", ErrorMask | WarnMask, true},
		{"trace", ErrorMask | WarnMask | InfoMask | DebugMask | TraceMask, true},
		{"loud", DefaultLevel, false},
	}
	for _, c := range cases {
		got, ok := ParseLevel(c.name)
		if got != c.want || ok != c.ok {
			t.Errorf("ParseLevel(%q) = %#x, %v; want %#x, %v", c.name, got, ok, c.want, c.ok)
		}
	}
}

func TestFatalfIgnoresMask(t *testing.T) {
	r := capture(t)
	SetLevel(Nothing)
	mustAbort(t, func() { Fatalf("no console at %x", uintptr(0x1000)) })
	if want := "FATAL:no console at 1000\n"; r.String() != want {
		t.Errorf("got %q, want %q", r.String(), want)
	}
}

func TestFatalfWithoutConsole(t *testing.T) {
	capture(t)
	SetConsole(nil)
	mustAbort(t, func() { Fatalf("nobody hears this") })
}

func TestPutCharWithoutConsole(t *testing.T) {
	capture(t)
	SetConsole(nil)
	PutChar('x')
}
