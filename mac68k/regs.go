// Package mac68k implements the fixed register mapping between the PowerPC
// register file and the 68k register snapshot passed across the EMUL_OP and
// execute_68k boundary.
package mac68k

import (
	"github.com/mtennes/macemu/cpu"
)

// Snapshot is a 68k register file: eight data registers and seven address
// registers. a7 (the stack pointer) is not part of the snapshot — it lives
// directly in the guest stack pointer (GPR1) and is never round-tripped
// through Marshal/Unmarshal.
type Snapshot struct {
	D [8]uint32
	A [7]uint32
}

// gprBase{D,A} give the first GPR in each contiguous window of the fixed
// mapping: d0..d7 <- GPR8..GPR15, a0..a6 <- GPR16..GPR22.
const (
	gprBaseD = 8
	gprBaseA = 16
	gprSP    = 1
)

// Marshal reads GPR8..GPR15 and GPR16..GPR22 out of c into a fresh 68k
// register snapshot, per the fixed d/a mapping. It does not touch a7; the
// caller reads the guest stack pointer (GPR1) separately if needed.
func Marshal(c cpu.Cpu) (*Snapshot, error) {
	var s Snapshot
	for i := 0; i < len(s.D); i++ {
		v, err := c.RegRead(cpu.GPR(gprBaseD + i))
		if err != nil {
			return nil, err
		}
		s.D[i] = uint32(v)
	}
	for i := 0; i < len(s.A); i++ {
		v, err := c.RegRead(cpu.GPR(gprBaseA + i))
		if err != nil {
			return nil, err
		}
		s.A[i] = uint32(v)
	}
	return &s, nil
}

// Unmarshal writes a 68k register snapshot back into GPR8..GPR15 and
// GPR16..GPR22. Guest SP (GPR1) is left untouched, matching invariant I2:
// EMUL_OP handlers only ever update the d/a window, never the stack.
func Unmarshal(c cpu.Cpu, s *Snapshot) error {
	for i, v := range s.D {
		if err := c.RegWrite(cpu.GPR(gprBaseD+i), uint64(v)); err != nil {
			return err
		}
	}
	for i, v := range s.A {
		if err := c.RegWrite(cpu.GPR(gprBaseA+i), uint64(v)); err != nil {
			return err
		}
	}
	return nil
}

// SP returns the current 68k stack pointer, which aliases GPR1 rather than
// being carried in the snapshot.
func SP(c cpu.Cpu) (uint32, error) {
	v, err := c.RegRead(cpu.GPR(gprSP))
	return uint32(v), err
}
