// Package sim provides a flat, in-process guestmem.Memory backed by the
// cpu package's byte-addressable memory simulator, for use in tests that
// need a real (if small) guest address space rather than a real ROM/RAM
// mapping.
package sim

import (
	"encoding/binary"

	"github.com/mtennes/macemu/cpu"
)

// Memory implements guestmem.Memory over a single mapped region of guest
// address space.
type Memory struct {
	mem *cpu.Mem
}

// New creates a simulated guest address space and maps [0, size) as
// read/write/execute memory.
func New(size uint64) *Memory {
	m := &Memory{mem: cpu.NewMem(32, binary.BigEndian)}
	if err := m.mem.MemMapProt(0, size, cpu.PROT_ALL); err != nil {
		panic(err)
	}
	return m
}

// Wrap builds a guestmem.Memory over an already-mapped *cpu.Mem, so tests
// can drive guest memory and a mock CPU's instruction fetches off the same
// backing address space.
func Wrap(mem *cpu.Mem) *Memory {
	return &Memory{mem: mem}
}

func (m *Memory) ReadMacInt8(addr uint32) uint8 {
	v, err := m.mem.ReadUint(uint64(addr), 1, 0)
	if err != nil {
		panic(err)
	}
	return uint8(v)
}

func (m *Memory) ReadMacInt16(addr uint32) uint16 {
	v, err := m.mem.ReadUint(uint64(addr), 2, 0)
	if err != nil {
		panic(err)
	}
	return uint16(v)
}

func (m *Memory) ReadMacInt32(addr uint32) uint32 {
	v, err := m.mem.ReadUint(uint64(addr), 4, 0)
	if err != nil {
		panic(err)
	}
	return uint32(v)
}

func (m *Memory) WriteMacInt8(addr uint32, v uint8) {
	if err := m.mem.WriteUint(uint64(addr), 1, 0, uint64(v)); err != nil {
		panic(err)
	}
}

func (m *Memory) WriteMacInt16(addr uint32, v uint16) {
	if err := m.mem.WriteUint(uint64(addr), 2, 0, uint64(v)); err != nil {
		panic(err)
	}
}

func (m *Memory) WriteMacInt32(addr uint32, v uint32) {
	if err := m.mem.WriteUint(uint64(addr), 4, 0, uint64(v)); err != nil {
		panic(err)
	}
}

// Raw exposes the underlying byte simulator for fixture setup that needs
// bulk writes (e.g. loading a ROM image or an instruction stream).
func (m *Memory) Raw() *cpu.Mem { return m.mem }
