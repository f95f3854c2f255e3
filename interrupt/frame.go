package interrupt

import (
	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/engine"
	"github.com/mtennes/macemu/kernel"
	"github.com/mtennes/macemu/opcode"
)

// rotl32 rotates a 32-bit word left by sh bits, PowerPC style.
func rotl32(x uint32, sh uint) uint32 {
	sh &= 31
	return x<<sh | x>>(32-sh)
}

// maskPPC builds a PowerPC-style bit mask covering bits mb..me inclusive,
// numbered with bit 0 as the most significant bit (the convention rlwimi's
// operands use), wrapping if mb > me.
func maskPPC(mb, me uint) uint32 {
	var m uint32
	if mb <= me {
		for i := mb; i <= me; i++ {
			m |= 1 << (31 - i)
		}
		return m
	}
	for i := uint(0); i <= me; i++ {
		m |= 1 << (31 - i)
	}
	for i := mb; i <= 31; i++ {
		m |= 1 << (31 - i)
	}
	return m
}

// rlwimiDot implements `rlwimi. dst,src,sh,mb,me`: rotate src left by sh,
// insert the masked bits into dst, and return the result along with the
// CR0 field the "." form records (signed comparison of the result to 0;
// XER SO is not modeled at this layer).
func rlwimiDot(dst, src uint32, sh, mb, me uint) (result uint32, cr0 uint32) {
	mask := maskPPC(mb, me)
	result = (dst &^ mask) | (rotl32(src, sh) & mask)
	switch {
	case int32(result) < 0:
		cr0 = 0x8 << 28 // LT
	case int32(result) > 0:
		cr0 = 0x4 << 28 // GT
	default:
		cr0 = 0x2 << 28 // EQ
	}
	return result, cr0
}

// buildFrame is interrupt(entry): it synthesizes a nanokernel interrupt
// entry frame on e, runs the core at entry, and unwinds the frame
// (PC/LR/CTR/SP) on return.
func buildFrame(e *engine.Engine, entry, altStack uint32) error {
	savedPC, err := regRead32(e, cpu.PC)
	if err != nil {
		return err
	}
	savedLR, err := regRead32(e, cpu.LR)
	if err != nil {
		return err
	}
	savedCTR, err := regRead32(e, cpu.CTR)
	if err != nil {
		return err
	}
	savedSP, err := regRead32(e, cpu.GPR(1))
	if err != nil {
		return err
	}

	if err := regWrite32(e, cpu.GPR(1), altStack); err != nil {
		return err
	}

	trampAddr := e.Kernel.OpcodeTableAddr() // any fixed scratch word works; reuse the opcode-table page
	e.Mem.WriteMacInt32(trampAddr, opcode.EncodeExecReturn())
	if err := regWrite32(e, cpu.GPR(10), trampAddr); err != nil {
		return err
	}
	if err := regWrite32(e, cpu.GPR(12), trampAddr); err != nil {
		return err
	}

	for n := 7; n <= 13; n++ {
		v, err := regRead32(e, cpu.GPR(n))
		if err != nil {
			return err
		}
		e.Mem.WriteMacInt32(e.Kernel.SaveAreaGPRAddr(n), v)
	}

	e.Kernel.SaveSP(savedSP)
	gpr6, err := regRead32(e, cpu.GPR(6))
	if err != nil {
		return err
	}
	e.Kernel.SaveGPR6(gpr6)

	saveAreaPtr := e.Mem.ReadMacInt32(e.Kernel.Base + kernel.OffsetInterruptSaveArea)
	if err := regWrite32(e, cpu.GPR(6), saveAreaPtr); err != nil {
		return err
	}

	r7 := e.Kernel.R7SeedAddr()
	r7, cr0 := rlwimiDot(r7, r7, 8, 0, 0)
	if err := regWrite32(e, cpu.GPR(7), r7); err != nil {
		return err
	}

	const gpr11 = 0xf072
	if err := regWrite32(e, cpu.GPR(11), gpr11); err != nil {
		return err
	}
	cr, err := e.CPU.RegRead(cpu.CR)
	if err != nil {
		return err
	}
	cr = uint64(uint32(cr)&0x000fffff | uint32(gpr11)&0xfff00000)
	cr = uint64(uint32(cr) | cr0)
	if err := e.CPU.RegWrite(cpu.CR, cr); err != nil {
		return err
	}

	if err := e.CPU.Execute(uint64(entry)); err != nil {
		return err
	}

	if err := regWrite32(e, cpu.PC, savedPC); err != nil {
		return err
	}
	if err := regWrite32(e, cpu.LR, savedLR); err != nil {
		return err
	}
	if err := regWrite32(e, cpu.CTR, savedCTR); err != nil {
		return err
	}
	return regWrite32(e, cpu.GPR(1), savedSP)
}

func regRead32(e *engine.Engine, r cpu.Reg) (uint32, error) {
	v, err := e.CPU.RegRead(r)
	return uint32(v), err
}

func regWrite32(e *engine.Engine, r cpu.Reg, v uint32) error {
	return e.CPU.RegWrite(r, uint64(v))
}
