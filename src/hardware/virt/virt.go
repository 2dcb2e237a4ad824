// Package virt drives the three devices of qemu's riscv virt machine the
// firmware uses: the 16550 console, the SiFive test device and the CLINT.
// Each one is addressed by the base found in the device tree.
package virt

import "tinysbi/src/hardware/mmio"

// 16550: register offsets (byte wide registers, stride 1)
const (
	uartTHR = 0x00 //write
	uartIER = 0x01
	uartFCR = 0x02 //write
	uartLCR = 0x03
	uartLSR = 0x05 //readonly
)

// 16550: line status register bitfields
const (
	DataReady               = 1 << 0
	TransmitHoldingRegEmpty = 1 << 5
	TransmitterEmpty        = 1 << 6
)

// 16550: values written during Init
const (
	lineControl8N1     = 0x03
	fifoEnableAndClear = 0x07
	interruptsDisabled = 0x00
)

type UART16550 struct {
	Base uintptr
}

// Init leaves the baud rate alone; qemu ignores it and a real loader will
// already have set it.
func (u UART16550) Init() {
	mmio.Store8(u.Base+uartIER, interruptsDisabled)
	mmio.Store8(u.Base+uartLCR, lineControl8N1)
	mmio.Store8(u.Base+uartFCR, fifoEnableAndClear)
}

// PutChar waits for room in the transmitter and writes c.
func (u UART16550) PutChar(c byte) {
	for mmio.Load8(u.Base+uartLSR)&TransmitHoldingRegEmpty == 0 {
	}
	mmio.Store8(u.Base+uartTHR, c)
}

// test device: values written to the base register
const (
	TestPass  = 0x5555
	TestFail  = 0x3333
	TestReset = 0x7777
)

type TestDevice struct {
	Base uintptr
}

// Pass ends the emulation with exit status 0.
func (d TestDevice) Pass() {
	mmio.Store32(d.Base, TestPass)
}

// Fail ends the emulation with the given exit status.
func (d TestDevice) Fail(code uint16) {
	mmio.Store32(d.Base, uint32(code)<<16|TestFail)
}

func (d TestDevice) Reset() {
	mmio.Store32(d.Base, TestReset)
}

// clint: register offsets
const (
	clintMSIP     = 0x0000 //4 bytes per hart
	clintMTimeCmp = 0x4000 //8 bytes per hart
	clintMTime    = 0xbff8
)

type CLINT struct {
	Base uintptr
}

func (c CLINT) MTime() uint64 {
	return mmio.Load64(c.Base + clintMTime)
}

func (c CLINT) SetTimeCmp(hart uint, v uint64) {
	mmio.Store64(c.Base+clintMTimeCmp+8*uintptr(hart), v)
}

// MSIP raises or clears the machine software interrupt of hart.
func (c CLINT) MSIP(hart uint, on bool) {
	var v uint32
	if on {
		v = 1
	}
	mmio.Store32(c.Base+clintMSIP+4*uintptr(hart), v)
}
