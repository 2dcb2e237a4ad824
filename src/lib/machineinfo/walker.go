package machineinfo

import "tinysbi/src/lib/dtb"

const (
	nodeCPUs   = "cpus"
	nodeSoc    = "soc"
	prefixCPU  = "cpu@"
	prefixMem  = "memory"
	prefixUART = "uart"
	prefixSer  = "serial"
	prefixTest = "test"
	prefixTime = "clint"
)

type class uint8

const (
	classNone class = iota
	classCPU
	classMemory
	classConsole
	classTest
	classTimer
)

// walker fills in a description as an Iterator goes by. found has one bit
// per class so that a second node of an already recorded class is never
// entered. The description is held by value so the whole walk lives in the
// caller's frame.
type walker struct {
	desc  MachineDescription
	found uint8
}

func (w *walker) has(c class) bool {
	return w.found&(1<<c) != 0
}

// socClass says which device a node directly under soc describes.
func socClass(name dtb.Str) class {
	switch {
	case name.HasPrefix(prefixUART), name.HasPrefix(prefixSer):
		return classConsole
	case name.HasPrefix(prefixTest):
		return classTest
	case name.HasPrefix(prefixTime):
		return classTimer
	}
	return classNone
}

// nodeClass is the class of the node a property belongs to.
func nodeClass(ctx *dtb.Context) class {
	name := ctx.Name()
	switch ctx.Depth() {
	case 1:
		if name.HasPrefix(prefixMem) {
			return classMemory
		}
	case 2:
		parent := ctx.Parent()
		switch {
		case parent.Equal(nodeCPUs) && name.HasPrefix(prefixCPU):
			return classCPU
		case parent.Equal(nodeSoc):
			return socClass(name)
		}
	}
	return classNone
}

func (w *walker) node(ctx *dtb.Context, name dtb.Str) dtb.WalkOperation {
	switch {
	case ctx.IsRoot():
		switch {
		case name.Equal(nodeCPUs), name.Equal(nodeSoc):
			return dtb.StepInto
		case name.HasPrefix(prefixMem) && !w.has(classMemory):
			return dtb.StepInto
		}
	case ctx.Depth() == 1 && ctx.Name().Equal(nodeCPUs):
		if name.HasPrefix(prefixCPU) {
			return dtb.StepInto
		}
	case ctx.Depth() == 1 && ctx.Name().Equal(nodeSoc):
		if c := socClass(name); c != classNone && !w.has(c) {
			return dtb.StepInto
		}
	}
	return dtb.StepOver
}

func (w *walker) property(ctx *dtb.Context, p dtb.Property) dtb.WalkOperation {
	if ctx.IsRoot() {
		if p.Name.Equal(dtb.PropModel) {
			w.desc.Model.Set(p.Str().Bytes())
		}
		return dtb.StepInto
	}
	if !p.Name.Equal(dtb.PropReg) {
		return dtb.StepInto
	}
	c := nodeClass(ctx)
	if c == classCPU {
		w.desc.CPUCount++
		return dtb.StepOut
	}
	reg := p.Reg(ctx)
	r, ok := reg.Next()
	if !ok || r.End <= r.Start {
		// An empty or wrapping interval is no better than none; a later
		// reg or a later node of the class may still supply one.
		return dtb.StepInto
	}
	switch c {
	case classMemory:
		w.desc.Memory = fromDtb(r)
	case classConsole:
		w.desc.Console = fromDtb(r)
	case classTest:
		w.desc.TestDevice = fromDtb(r)
	case classTimer:
		w.desc.TimerController = fromDtb(r)
	default:
		return dtb.StepInto
	}
	w.found |= 1 << c
	return dtb.StepOut
}

// walk runs the policy over d, leaving the result in w.desc.
func (w *walker) walk(d *dtb.Dtb) error {
	it := d.Iter()
	for it.Next() {
		switch it.Kind() {
		case dtb.EventNode:
			it.Decide(w.node(it.Context(), it.NodeName()))
		case dtb.EventProperty:
			it.Decide(w.property(it.Context(), it.Property()))
		}
	}
	return it.Err()
}
