// Package stub is what runs once the trampoline has a stack and the bss is
// clear: find the hardware, say hello on the console and ask the emulator
// to stop.
package stub

import (
	"tinysbi/src/lib/console"
	"tinysbi/src/lib/machineinfo"
	"tinysbi/src/lib/trust"
)

const Banner = `
___       __ __ _
 | . _   (_ |__)|
 | || |\/__)|__)|
-------/---------
`

// Shutdowner ends the run, normally by telling the emulator to exit.
type Shutdowner interface {
	Pass()
	Fail(code uint16)
}

type Timer interface {
	MTime() uint64
}

// Devices turns a discovered address range into a driver. Run only asks for
// devices whose range is non-empty.
type Devices interface {
	Console(r machineinfo.Range) console.Console
	Shutdown(r machineinfo.Range) Shutdowner
	Timer(r machineinfo.Range) Timer
}

// Run brings the machine described by the tree at dtb up to the point of
// printing the banner, then signals success through the test device. It
// only returns if the Shutdowner does.
func Run(hartID, dtb uintptr, d Devices, level trust.MaskLevel) machineinfo.MachineDescription {
	machine := machineinfo.FromDTB(dtb)
	if machine.Console.IsEmpty() {
		trust.Fatalf("no console in device tree at %x", dtb)
	}
	c := d.Console(machine.Console)
	trust.SetConsole(c)
	trust.SetLevel(level)

	p := console.Printer{C: c}
	p.WriteString(Banner)
	p.WriteString("machine: ")
	p.WriteBytes(machine.Model.Bytes())
	p.WriteString("\n")

	trust.Infof("hart %d, %d harts", hartID, machine.CPUCount)
	logRange("device tree", machine.Blob)
	logRange("memory", machine.Memory)
	logRange("console", machine.Console)
	logRange("test device", machine.TestDevice)
	logRange("timer", machine.TimerController)
	if !machine.TimerController.IsEmpty() {
		trust.Debugf("mtime %d", d.Timer(machine.TimerController).MTime())
	}

	if machine.TestDevice.IsEmpty() {
		trust.Fatalf("no test device, cannot shut down")
	}
	d.Shutdown(machine.TestDevice).Pass()
	return machine
}

func logRange(what string, r machineinfo.Range) {
	if r.IsEmpty() {
		trust.Warnf("%-11s not found", what)
		return
	}
	trust.Infof("%-11s %016x..%016x", what, r.Start, r.End)
}
