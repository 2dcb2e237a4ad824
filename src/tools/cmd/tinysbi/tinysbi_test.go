package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"tinysbi/src/lib/dtb/dtbtest"
	"tinysbi/src/lib/machineinfo"
)

func TestDescribe(t *testing.T) {
	desc, err := machineinfo.ParseBytes(dtbtest.QemuVirt(), machineinfo.DefaultQuirks)
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	desc.TimerController = machineinfo.Range{}
	var out bytes.Buffer
	describe(&out, &desc)
	want := `model:       qemu,virt
harts:       2
memory:      0x80000000..0x88000000 (0x8000000 bytes)
console:     0x10000000..0x10000100 (0x100 bytes)
test device: 0x00100000..0x00101000 (0x1000 bytes)
timer:       (none)
`
	if out.String() != want {
		t.Errorf("got\n%s\nwant\n%s", out.String(), want)
	}
}

func TestWatchFindsExpectAcrossReads(t *testing.T) {
	in := iotest.OneByteReader(strings.NewReader("boot...\nmachine: qemu,virt\nmore"))
	var out bytes.Buffer
	found, err := watch(in, &out, []byte("machine: qemu"))
	if err != nil || !found {
		t.Fatalf("found %v, err %v", found, err)
	}
	if out.String() != "boot...\nmachine: qemu" {
		t.Errorf("copied %q", out.String())
	}
}

func TestWatchWithoutExpectCopiesAll(t *testing.T) {
	var out bytes.Buffer
	found, err := watch(strings.NewReader("all of it"), &out, nil)
	if err != io.EOF || found {
		t.Fatalf("found %v, err %v", found, err)
	}
	if out.String() != "all of it" {
		t.Errorf("copied %q", out.String())
	}
}

func TestWatchMissing(t *testing.T) {
	found, err := watch(strings.NewReader("nothing here"), io.Discard, []byte("TinySBI"))
	if found || err != io.EOF {
		t.Errorf("found %v, err %v", found, err)
	}
}
