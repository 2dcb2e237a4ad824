// Package mmio is the single place that touches device and boot memory by
// address. On the target every access is volatile; the host build exists so
// the code above it can be tested against ordinary buffers.
package mmio
