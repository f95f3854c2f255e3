package engine

import (
	"encoding/binary"

	"github.com/mtennes/macemu/cpu"
)

// PackAddr encodes n as a big-endian 32-bit guest address.
func PackAddr(n uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	return buf[:]
}

// UnpackAddr decodes a big-endian 32-bit guest address.
func UnpackAddr(p []byte) uint32 {
	return binary.BigEndian.Uint32(p)
}

// PushBytes decrements the guest stack pointer by len(p) and writes p at
// the new SP, growing the stack downward as PowerPC does.
func (e *Engine) PushBytes(p []byte) (uint32, error) {
	sp, err := e.regRead32(cpu.GPR(1))
	if err != nil {
		return 0, err
	}
	sp -= uint32(len(p))
	if err := e.regWrite32(cpu.GPR(1), sp); err != nil {
		return 0, err
	}
	return sp, e.CPU.MemWrite(uint64(sp), p)
}

// PopBytes reads len(p) bytes from the current guest SP into p, then
// increments SP past them.
func (e *Engine) PopBytes(p []byte) error {
	sp, err := e.regRead32(cpu.GPR(1))
	if err != nil {
		return err
	}
	if err := e.CPU.MemReadInto(p, uint64(sp)); err != nil {
		return err
	}
	return e.regWrite32(cpu.GPR(1), sp+uint32(len(p)))
}

// Push pushes a single 32-bit word onto the guest stack.
func (e *Engine) Push(n uint32) (uint32, error) {
	return e.PushBytes(PackAddr(n))
}

// Pop pops a single 32-bit word off the guest stack.
func (e *Engine) Pop() (uint32, error) {
	var buf [4]byte
	if err := e.PopBytes(buf[:]); err != nil {
		return 0, err
	}
	return UnpackAddr(buf[:]), nil
}
