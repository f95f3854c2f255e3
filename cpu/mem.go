package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Mem wraps MemSim into the byte-addressable, big-endian guest memory the
// mock core (and, through it, guestmem) reads and writes. Every access that
// misses a mapped page or fails its protection check runs through the
// fault-hook dispatch below rather than only returning a Go error: this
// mirrors how the original core hands the host SIGSEGV to a fault handler
// instead of unwinding on the spot, so a registered HOOK_MEM_ERR (the fault
// classifier, in this project) gets a chance to call the access
// recoverable before the caller decides whether to give up.
type Mem struct {
	bits uint
	// MemMapProt returns an error for a region that does not fit inside mask
	// calculated by NewMem using ^uint64(0) >> (64 - bits)
	mask uint64
	// Mem.hooks is set when passing *Mem to NewHooks()
	hooks *Hooks
	// MemSim is private, so any cpu-facing functionality needs to be wrapped by Mem
	sim *MemSim

	order binary.ByteOrder
}

func NewMem(bits uint, order binary.ByteOrder) *Mem {
	return &Mem{
		bits:  bits,
		mask:  ^uint64(0) >> (64 - bits),
		sim:   &MemSim{},
		order: order,
	}
}

func (m *Mem) MemMapProt(addr, size uint64, prot int) error {
	if addr&^m.mask != 0 || (addr+size-1)&^m.mask != 0 {
		return errors.New("region outside memory range")
	}
	m.sim.Map(addr, size, prot)
	return nil
}

// fault runs any registered HOOK_MEM_ERR callback covering the failed
// access and records its verdict on the error so the caller (the mock
// core's fetch loop, in particular) can tell a recoverable fault from one
// that should propagate.
func (m *Mem) fault(err error, val int64) error {
	merr, ok := err.(*MemError)
	if !ok || m.hooks == nil {
		return err
	}
	merr.Recoverable = m.hooks.OnFault(accessForEnum(merr.Enum), merr.Addr, merr.Size, val)
	return merr
}

func accessForEnum(enum int) int {
	switch enum {
	case MEM_FETCH_UNMAPPED, MEM_FETCH_PROT:
		return MEM_FETCH
	case MEM_WRITE_UNMAPPED, MEM_WRITE_PROT:
		return MEM_WRITE
	default:
		return MEM_READ
	}
}

// MemReadInto reads len(p) bytes at addr with no protection check, the path
// MemRead and the mock core's Cpu.MemRead/MemReadInto use (ReadMacInt* in
// guestmem/sim goes through ReadUint instead).
func (m *Mem) MemReadInto(p []byte, addr uint64) error {
	if err := m.sim.Read(addr, p, 0); err != nil {
		return m.fault(err, 0)
	}
	return nil
}

func (m *Mem) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

// MemFetch reads an instruction word, distinguishing a fetch fault from a
// data-access fault for whatever HOOK_MEM_ERR callback is watching.
func (m *Mem) MemFetch(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.sim.Read(addr, p, PROT_EXEC); err != nil {
		return nil, m.fault(err, 0)
	}
	return p, nil
}

func (m *Mem) MemWrite(addr uint64, p []byte) error {
	if err := m.sim.Write(addr, p, 0); err != nil {
		return m.fault(err, 0)
	}
	return nil
}

func (m *Mem) ReadUint(addr uint64, size, prot int) (uint64, error) {
	if size > 8 {
		return 0, errors.Errorf("MemReadUint size too large: %d > 8", size)
	}
	p := make([]byte, size)
	if err := m.sim.Read(addr, p, prot); err != nil {
		return 0, m.fault(err, 0)
	}
	return UnpackUint(m.order, size, p)
}

func (m *Mem) WriteUint(addr uint64, size, prot int, val uint64) error {
	var buf [8]byte
	if size > 8 {
		return errors.Errorf("MemWriteUint size too large: %d > 8", size)
	}
	if _, err := PackUint(m.order, size, buf[:], val); err != nil {
		return err
	}
	if err := m.sim.Write(addr, buf[:size], prot); err != nil {
		return m.fault(err, int64(val))
	}
	return nil
}
