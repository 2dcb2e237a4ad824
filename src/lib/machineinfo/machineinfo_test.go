package machineinfo

import (
	"errors"
	"runtime"
	"strings"
	"testing"
	"unsafe"

	"tinysbi/src/lib/dtb"
	"tinysbi/src/lib/dtb/dtbtest"
	"tinysbi/src/lib/trust"
)

func parseAt(t *testing.T, blob []byte, offset int) (MachineDescription, error) {
	t.Helper()
	backing, placed := dtbtest.At(blob, offset)
	desc, err := Parse(unsafe.Pointer(&placed[0]))
	runtime.KeepAlive(backing)
	return desc, err
}

func mustParse(t *testing.T, blob []byte) MachineDescription {
	t.Helper()
	desc, err := parseAt(t, blob, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return desc
}

func checkRange(t *testing.T, what string, got Range, start, end uintptr) {
	t.Helper()
	if got.Start != start || got.End != end {
		t.Errorf("%s = %#x..%#x, want %#x..%#x", what, got.Start, got.End, start, end)
	}
}

// tree is a root with qemu's cell sizes and whatever body adds.
func tree(body func(f *dtbtest.Builder)) []byte {
	f := dtbtest.NewBuilder()
	f.BeginNode("")
	f.U32("#address-cells", 2).U32("#size-cells", 2)
	body(f)
	f.EndNode()
	return f.Build()
}

func cpus(f *dtbtest.Builder, n int) {
	f.BeginNode("cpus").U32("#address-cells", 1).U32("#size-cells", 0)
	for i := 0; i < n; i++ {
		f.BeginNode("cpu@" + string(rune('0'+i))).Str("device_type", "cpu").U32("reg", uint32(i)).EndNode()
	}
	f.EndNode()
}

func TestQemuVirt(t *testing.T) {
	blob := dtbtest.QemuVirt()
	backing, placed := dtbtest.At(blob, 0)
	desc, err := Parse(unsafe.Pointer(&placed[0]))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !desc.Model.Equal("qemu,virt") {
		t.Errorf("model = %q", desc.Model.String())
	}
	if desc.CPUCount != 2 {
		t.Errorf("cpu count = %d, want 2", desc.CPUCount)
	}
	checkRange(t, "memory", desc.Memory, 0x8000_0000, 0x8800_0000)
	checkRange(t, "console", desc.Console, 0x1000_0000, 0x1000_0100)
	checkRange(t, "test device", desc.TestDevice, 0x10_0000, 0x10_1000)
	checkRange(t, "timer", desc.TimerController, 0x200_0000, 0x201_0000)
	base := uintptr(unsafe.Pointer(&placed[0]))
	checkRange(t, "blob", desc.Blob, base, base+uintptr(len(blob)))
	runtime.KeepAlive(backing)
}

func TestModelRoundTrip(t *testing.T) {
	for _, model := range []string{"", "x", "riscv-virtio,qemu", strings.Repeat("m", ModelCapacity)} {
		desc := mustParse(t, tree(func(f *dtbtest.Builder) { f.Str("model", model) }))
		if desc.Model.String() != model {
			t.Errorf("model = %q, want %q", desc.Model.String(), model)
		}
	}
}

func TestModelTruncated(t *testing.T) {
	long := strings.Repeat("abcdefghij", 10)
	desc := mustParse(t, tree(func(f *dtbtest.Builder) { f.Str("model", long) }))
	if desc.Model.Len() != ModelCapacity {
		t.Fatalf("model length = %d, want %d", desc.Model.Len(), ModelCapacity)
	}
	if desc.Model.String() != long[:ModelCapacity] {
		t.Errorf("model = %q", desc.Model.String())
	}
}

func TestModelOnlyFromRoot(t *testing.T) {
	desc := mustParse(t, tree(func(f *dtbtest.Builder) {
		f.BeginNode("soc").Str("model", "not me").EndNode()
	}))
	if desc.Model.Len() != 0 {
		t.Errorf("model = %q, want empty", desc.Model.String())
	}
}

func TestCPUCount(t *testing.T) {
	for _, n := range []int{0, 1, 4, 8} {
		desc := mustParse(t, tree(func(f *dtbtest.Builder) { cpus(f, n) }))
		if desc.CPUCount != n {
			t.Errorf("cpu count = %d, want %d", desc.CPUCount, n)
		}
	}
}

func TestCPUNeedsReg(t *testing.T) {
	desc := mustParse(t, tree(func(f *dtbtest.Builder) {
		f.BeginNode("cpus").U32("#address-cells", 1).U32("#size-cells", 0)
		f.BeginNode("cpu@0").U32("reg", 0).EndNode()
		f.BeginNode("cpu@1").Str("status", "disabled").EndNode()
		f.BeginNode("cpu-map").U32("reg", 7).EndNode()
		f.EndNode()
	}))
	if desc.CPUCount != 1 {
		t.Errorf("cpu count = %d, want 1", desc.CPUCount)
	}
}

func TestAbsentClassesAreEmpty(t *testing.T) {
	desc := mustParse(t, tree(func(f *dtbtest.Builder) { f.Str("model", "bare") }))
	for name, r := range map[string]Range{
		"memory":  desc.Memory,
		"console": desc.Console,
		"test":    desc.TestDevice,
		"timer":   desc.TimerController,
	} {
		if r != (Range{}) || !r.IsEmpty() || r.Len() != 0 {
			t.Errorf("%s = %#x..%#x, want 0..0", name, r.Start, r.End)
		}
	}
	if desc.CPUCount != 0 {
		t.Errorf("cpu count = %d", desc.CPUCount)
	}
}

func TestDecoyOutsideSoc(t *testing.T) {
	desc := mustParse(t, tree(func(f *dtbtest.Builder) {
		f.BeginNode("fake-uart@9000").Reg64([2]uint64{0x9000, 0x9100}).EndNode()
		f.BeginNode("uart@9000").Reg64([2]uint64{0x9000, 0x9100}).EndNode()
		f.BeginNode("platform").
			BeginNode("uart@a000").Reg64([2]uint64{0xa000, 0xa100}).EndNode().
			EndNode()
		f.BeginNode("soc").U32("#address-cells", 2).U32("#size-cells", 2)
		f.BeginNode("fake-uart@b000").Reg64([2]uint64{0xb000, 0xb100}).EndNode()
		f.EndNode()
	}))
	if !desc.Console.IsEmpty() {
		t.Errorf("console = %#x..%#x, want 0..0", desc.Console.Start, desc.Console.End)
	}
}

func TestFirstMatchWins(t *testing.T) {
	desc := mustParse(t, tree(func(f *dtbtest.Builder) {
		f.BeginNode("memory@80000000").Reg64([2]uint64{0x8000_0000, 0x9000_0000}).EndNode()
		f.BeginNode("memory@100000000").Reg64([2]uint64{0x1_0000_0000, 0x2_0000_0000}).EndNode()
		f.BeginNode("soc").U32("#address-cells", 2).U32("#size-cells", 2)
		f.BeginNode("serial@10000000").Reg64([2]uint64{0x1000_0000, 0x1000_0100}).EndNode()
		f.BeginNode("uart@10001000").Reg64([2]uint64{0x1000_1000, 0x1000_1100}).EndNode()
		f.EndNode()
	}))
	checkRange(t, "memory", desc.Memory, 0x8000_0000, 0x9000_0000)
	checkRange(t, "console", desc.Console, 0x1000_0000, 0x1000_0100)
}

func TestFirstIntervalOnly(t *testing.T) {
	desc := mustParse(t, tree(func(f *dtbtest.Builder) {
		f.BeginNode("memory@80000000").
			Reg64([2]uint64{0x8000_0000, 0x8100_0000}, [2]uint64{0x9000_0000, 0x9100_0000}).
			EndNode()
	}))
	checkRange(t, "memory", desc.Memory, 0x8000_0000, 0x8100_0000)
	if !desc.Memory.Contains(0x80ff_ffff) || desc.Memory.Contains(0x8100_0000) {
		t.Errorf("memory containment is wrong")
	}
}

func TestSocCellsApply(t *testing.T) {
	desc := mustParse(t, tree(func(f *dtbtest.Builder) {
		f.BeginNode("soc").U32("#address-cells", 1).U32("#size-cells", 1)
		f.BeginNode("clint@2000000").U32("reg", 0x200_0000, 0x1_0000).EndNode()
		f.EndNode()
	}))
	checkRange(t, "timer", desc.TimerController, 0x200_0000, 0x201_0000)
}

func TestEmptyIntervalIsSkipped(t *testing.T) {
	desc := mustParse(t, tree(func(f *dtbtest.Builder) {
		f.BeginNode("soc").U32("#address-cells", 2).U32("#size-cells", 2)
		f.BeginNode("uart@9000").Reg64([2]uint64{0x9000, 0x9000}).EndNode()
		f.BeginNode("serial@10000000").Reg64([2]uint64{0x1000_0000, 0x1000_0100}).EndNode()
		f.BeginNode("test@100000").U32("reg", 0, 0x10_0000, 0xffff_ffff, 0xffff_ffff).EndNode()
		f.BeginNode("clint@ffff0000").U32("reg", 0xffff_ffff, 0xffff_0000, 0, 0x1_0000).EndNode()
		f.BeginNode("clint@2000000").Reg64([2]uint64{0x200_0000, 0x201_0000}).EndNode()
		f.EndNode()
	}))
	checkRange(t, "console", desc.Console, 0x1000_0000, 0x1000_0100)
	checkRange(t, "test device", desc.TestDevice, 0, 0)
	checkRange(t, "timer", desc.TimerController, 0x200_0000, 0x201_0000)
}

func TestParseDoesNotAllocate(t *testing.T) {
	backing, placed := dtbtest.At(dtbtest.QemuVirt(), 4)
	p := unsafe.Pointer(&placed[0])
	var desc MachineDescription
	var err error
	allocs := testing.AllocsPerRun(100, func() {
		desc, err = Parse(p)
	})
	runtime.KeepAlive(backing)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if allocs != 0 {
		t.Errorf("Parse made %v allocations, want 0", allocs)
	}
	if desc.CPUCount != 2 || desc.Console.IsEmpty() {
		t.Errorf("description = %+v", desc)
	}
}

func TestToleratedLastCompVersion(t *testing.T) {
	blob := dtbtest.QemuVirt()
	dtbtest.SetField(blob, dtbtest.OffsetLastCompVersion, 2)
	desc, err := parseAt(t, blob, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if desc.CPUCount != 2 {
		t.Errorf("cpu count = %d", desc.CPUCount)
	}

	_, err = ParseBytes(blob, nil)
	var he dtb.HeaderError
	if !errors.As(err, &he) || he.Kind != dtb.LastCompVersion || he.Value != 2 {
		t.Errorf("strict parse: got %v", err)
	}
}

func TestToleratedAlignment(t *testing.T) {
	blob := dtbtest.QemuVirt()
	if _, err := parseAt(t, blob, 4); err != nil {
		t.Fatalf("Parse at +4: %v", err)
	}
	backing, placed := dtbtest.At(blob, 4)
	_, err := ParseWith(unsafe.Pointer(&placed[0]), nil)
	runtime.KeepAlive(backing)
	var he dtb.HeaderError
	if !errors.As(err, &he) || he.Kind != dtb.Misaligned || he.Value != 4 {
		t.Errorf("strict parse at +4: got %v", err)
	}
	if _, err := parseAt(t, blob, 2); err == nil {
		t.Errorf("Parse at +2 succeeded")
	}
}

func TestExtraQuirk(t *testing.T) {
	blob := dtbtest.QemuVirt()
	dtbtest.SetField(blob, dtbtest.OffsetVersion, 16)
	if _, err := ParseBytes(blob, DefaultQuirks); err == nil {
		t.Fatalf("version 16 accepted by default")
	}
	quirks := append([]Quirk{{Kind: dtb.Version, Value: 16}}, DefaultQuirks...)
	if _, err := ParseBytes(blob, quirks); err != nil {
		t.Errorf("version 16 with quirk: %v", err)
	}
}

func TestCorruptMagicAborts(t *testing.T) {
	blob := dtbtest.QemuVirt()
	dtbtest.SetField(blob, dtbtest.OffsetMagic, 0xfeedd00d)
	backing, placed := dtbtest.At(blob, 0)
	defer runtime.KeepAlive(backing)

	var out strings.Builder
	trust.SetConsole(sink{&out})
	type abort struct{}
	prev := trust.SetAbortHook(func() { panic(abort{}) })
	defer func() {
		trust.SetAbortHook(prev)
		trust.SetConsole(nil)
		if _, ok := recover().(abort); !ok {
			t.Fatalf("FromDTB returned instead of aborting")
		}
		if !strings.Contains(out.String(), "bad magic") {
			t.Errorf("diagnostic = %q", out.String())
		}
	}()
	FromDTB(uintptr(unsafe.Pointer(&placed[0])))
}

type sink struct {
	b *strings.Builder
}

func (s sink) PutChar(c byte) {
	s.b.WriteByte(c)
}

func TestInlineString(t *testing.T) {
	var s InlineString
	if s.Len() != 0 || s.Cap() != ModelCapacity || s.String() != "" {
		t.Fatalf("zero value: len %d cap %d %q", s.Len(), s.Cap(), s.String())
	}
	s.SetString("hello")
	if !s.Equal("hello") || string(s.Bytes()) != "hello" {
		t.Errorf("got %q", s.String())
	}
	s.Set(nil)
	if s.Len() != 0 {
		t.Errorf("Set(nil) left %q", s.String())
	}
}
