package models

// AddrRange names a half-open guest address range: ROM, RAM, or a single
// known ROM probe instruction. The fault classifier (package fault) walks a
// slice of these to decide whether a faulting address belongs to guest
// memory at all, before it ever asks whether the fault is a benign probe.
type AddrRange struct {
	Name       string
	Start, End uint64
}

// Contains reports whether addr falls inside the range.
func (r AddrRange) Contains(addr uint64) bool {
	return r.Start <= addr && addr < r.End
}

// Overlaps reports whether r and o share any address.
func (r AddrRange) Overlaps(o AddrRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// Ranges is an ordered list of address ranges, typically ROM followed by
// RAM, used to classify a faulting address as guest memory or not.
type Ranges []AddrRange

// Find returns the first range containing addr, or false if none does.
func (rs Ranges) Find(addr uint64) (AddrRange, bool) {
	for _, r := range rs {
		if r.Contains(addr) {
			return r, true
		}
	}
	return AddrRange{}, false
}

// InAny reports whether addr falls inside any of the ranges.
func (rs Ranges) InAny(addr uint64) bool {
	_, ok := rs.Find(addr)
	return ok
}
