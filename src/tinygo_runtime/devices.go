//go:build tinygo.riscv64

package tinygo_runtime

import (
	"tinysbi/src/boot/stub"
	"tinysbi/src/hardware/virt"
	"tinysbi/src/lib/console"
	"tinysbi/src/lib/machineinfo"
)

// virtDevices builds qemu virt drivers at whatever base the tree gave.
type virtDevices struct{}

func (virtDevices) Console(r machineinfo.Range) console.Console {
	u := virt.UART16550{Base: r.Start}
	u.Init()
	return u
}

func (virtDevices) Shutdown(r machineinfo.Range) stub.Shutdowner {
	return virt.TestDevice{Base: r.Start}
}

func (virtDevices) Timer(r machineinfo.Range) stub.Timer {
	return virt.CLINT{Base: r.Start}
}
