package machineinfo

import "tinysbi/src/lib/dtb"

// Quirk names one header irregularity that is accepted instead of aborting
// the boot. AnyValue accepts the kind whatever its value.
type Quirk struct {
	Kind     dtb.HeaderErrorKind
	Value    uint32
	AnyValue bool
}

func (q Quirk) matches(e dtb.HeaderError) bool {
	return q.Kind == e.Kind && (q.AnyValue || q.Value == e.Value)
}

// DefaultQuirks is what firmware loaded by qemu needs: the blob is only
// guaranteed 4 byte alignment, and some versions of qemu write a last
// compatible version other than 16.
var DefaultQuirks = []Quirk{
	{Kind: dtb.Misaligned, Value: 4},
	{Kind: dtb.LastCompVersion, AnyValue: true},
}

func tolerated(quirks []Quirk, e dtb.HeaderError) bool {
	for _, q := range quirks {
		if q.matches(e) {
			return true
		}
	}
	return false
}

// defaultTolerates is DefaultQuirks as a filter that needs no closure.
func defaultTolerates(e dtb.HeaderError) bool {
	return tolerated(DefaultQuirks, e)
}

func filterFor(quirks []Quirk) dtb.Filter {
	if quirks == nil {
		return nil
	}
	return func(e dtb.HeaderError) bool {
		return tolerated(quirks, e)
	}
}
