package cpu

import "github.com/pkg/errors"

type hookInfo struct {
	htype int
	start uint64
	end   uint64
}

func (h *hookInfo) Type() int {
	return h.htype
}

func (h *hookInfo) Contains(addr uint64) bool {
	return h.start > h.end || addr >= h.start && addr <= h.end
}

type hinfo interface {
	Type() int
}

type memFaultHook struct {
	hookInfo
	cb func(Cpu, int, uint64, int, int64) bool
}

// Hooks dispatches HOOK_MEM_ERR callbacks over a range of guest addresses.
// The interpreter/JIT core this package stands in for exposes a full
// Unicorn-style hook set (block, code, interrupt, mem-access tracing), but
// nothing in this glue layer ever registers anything but a fault handler,
// so those other kinds aren't modeled here.
type Hooks struct {
	cpu Cpu

	memFault []*memFaultHook
}

// NewHooks creates a dispatcher and, if mem is non-nil, wires it so mem's
// read/write path calls OnFault whenever a guest memory access fails.
func NewHooks(cpu Cpu, mem *Mem) *Hooks {
	h := &Hooks{cpu: cpu}
	if mem != nil {
		mem.hooks = h
	}
	return h
}

func (h *Hooks) HookAdd(htype int, cb interface{}, start, end uint64, extra ...int) (Hook, error) {
	if htype != HOOK_MEM_ERR {
		return nil, errors.Errorf("hook type %d not supported by this glue layer's memory model", htype)
	}
	hh := &memFaultHook{hookInfo{htype, start, end}, cb.(func(Cpu, int, uint64, int, int64) bool)}
	h.memFault = append(h.memFault, hh)
	return hh, nil
}

func (h *Hooks) HookDel(hh Hook) error {
	info, ok := hh.(hinfo)
	if !ok || info.Type() != HOOK_MEM_ERR {
		return nil
	}
	var tmp []*memFaultHook
	for _, v := range h.memFault {
		if v != hh {
			tmp = append(tmp, v)
		}
	}
	h.memFault = tmp
	return nil
}

// OnFault runs every registered fault hook covering addr, returning true if
// any of them claims the fault as recoverable.
func (h *Hooks) OnFault(access int, addr uint64, size int, val int64) bool {
	for _, v := range h.memFault {
		if v.Contains(addr) {
			if v.cb(h.cpu, access, addr, size, val) {
				return true
			}
		}
	}
	return false
}
