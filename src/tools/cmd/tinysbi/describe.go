package main

import (
	"fmt"
	"io"

	"tinysbi/src/lib/machineinfo"
)

func describe(w io.Writer, desc *machineinfo.MachineDescription) {
	fmt.Fprintf(w, "model:       %s\n", desc.Model.Bytes())
	fmt.Fprintf(w, "harts:       %d\n", desc.CPUCount)
	describeRange(w, "memory", desc.Memory)
	describeRange(w, "console", desc.Console)
	describeRange(w, "test device", desc.TestDevice)
	describeRange(w, "timer", desc.TimerController)
}

func describeRange(w io.Writer, what string, r machineinfo.Range) {
	if r.IsEmpty() {
		fmt.Fprintf(w, "%-12s (none)\n", what+":")
		return
	}
	fmt.Fprintf(w, "%-12s %#010x..%#010x (%#x bytes)\n", what+":", r.Start, r.End, r.Len())
}
