package engine

import (
	"github.com/pkg/errors"

	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/mac68k"
	"github.com/mtennes/macemu/opcode"
)

// supervisorCR is the CR value execute_68k sets before entering the
// nanokernel opcode-table dispatch, marking the guest as running with
// supervisor privileges for the duration of the 68k-interpreter step.
const supervisorCR = 0x40000000

// ExecutePPC saves LR, installs the scratch EXEC_RETURN trampoline as the
// return address, and runs the core at entry. No GPR or FPR window needs
// saving: entry is expected to behave like an ordinary PowerPC call.
func (e *Engine) ExecutePPC(entry uint32) error {
	savedLR, err := e.regRead32(cpu.LR)
	if err != nil {
		return err
	}
	if err := e.regWrite32(cpu.LR, e.installTrampoline()); err != nil {
		return err
	}
	if err := e.CPU.Execute(uint64(entry)); err != nil {
		return err
	}
	return e.regWrite32(cpu.LR, savedLR)
}

// ExecuteMacOS invokes a Mac OS PPC routine through its transition vector
// tvect, which points to {proc, toc}. Up to seven arguments are passed in
// GPR3..GPR9; the routine's result is read back from GPR3.
func (e *Engine) ExecuteMacOS(tvect uint32, args ...uint32) (uint32, error) {
	if len(args) > 7 {
		return 0, errors.Errorf("execute_macos: %d args exceeds the 7-argument limit", len(args))
	}
	proc := e.Mem.ReadMacInt32(tvect)
	toc := e.Mem.ReadMacInt32(tvect + 4)

	savedPC, err := e.regRead32(cpu.PC)
	if err != nil {
		return 0, err
	}
	savedLR, err := e.regRead32(cpu.LR)
	if err != nil {
		return 0, err
	}
	savedCTR, err := e.regRead32(cpu.CTR)
	if err != nil {
		return 0, err
	}
	if err := e.regWrite32(cpu.LR, e.installTrampoline()); err != nil {
		return 0, err
	}

	sp, err := e.regRead32(cpu.GPR(1))
	if err != nil {
		return 0, err
	}
	if err := e.regWrite32(cpu.GPR(1), sp-64); err != nil {
		return 0, err
	}

	savedGPR2, err := e.regRead32(cpu.GPR(2))
	if err != nil {
		return 0, err
	}
	savedArgs := make([]uint32, len(args))
	for i := range savedArgs {
		if savedArgs[i], err = e.regRead32(cpu.GPR(3 + i)); err != nil {
			return 0, err
		}
	}

	if err := e.regWrite32(cpu.GPR(2), toc); err != nil {
		return 0, err
	}
	for i, a := range args {
		if err := e.regWrite32(cpu.GPR(3+i), a); err != nil {
			return 0, err
		}
	}

	if err := e.CPU.Execute(uint64(proc)); err != nil {
		return 0, err
	}

	result, err := e.regRead32(cpu.GPR(3))
	if err != nil {
		return 0, err
	}

	if err := e.regWrite32(cpu.GPR(2), savedGPR2); err != nil {
		return 0, err
	}
	for i, v := range savedArgs {
		if err := e.regWrite32(cpu.GPR(3+i), v); err != nil {
			return 0, err
		}
	}
	if err := e.regWrite32(cpu.GPR(1), sp); err != nil {
		return 0, err
	}
	if err := e.regWrite32(cpu.PC, savedPC); err != nil {
		return 0, err
	}
	if err := e.regWrite32(cpu.LR, savedLR); err != nil {
		return 0, err
	}
	if err := e.regWrite32(cpu.CTR, savedCTR); err != nil {
		return 0, err
	}
	return result, nil
}

// CallMacOS1 through CallMacOS7 are the fixed-arity convenience wrappers
// the surrounding emulator's ROM glue expects, matching call_macos1..7.
func (e *Engine) CallMacOS1(tvect, a0 uint32) (uint32, error) { return e.ExecuteMacOS(tvect, a0) }
func (e *Engine) CallMacOS2(tvect, a0, a1 uint32) (uint32, error) {
	return e.ExecuteMacOS(tvect, a0, a1)
}
func (e *Engine) CallMacOS3(tvect, a0, a1, a2 uint32) (uint32, error) {
	return e.ExecuteMacOS(tvect, a0, a1, a2)
}
func (e *Engine) CallMacOS4(tvect, a0, a1, a2, a3 uint32) (uint32, error) {
	return e.ExecuteMacOS(tvect, a0, a1, a2, a3)
}
func (e *Engine) CallMacOS5(tvect, a0, a1, a2, a3, a4 uint32) (uint32, error) {
	return e.ExecuteMacOS(tvect, a0, a1, a2, a3, a4)
}
func (e *Engine) CallMacOS6(tvect, a0, a1, a2, a3, a4, a5 uint32) (uint32, error) {
	return e.ExecuteMacOS(tvect, a0, a1, a2, a3, a4, a5)
}
func (e *Engine) CallMacOS7(tvect, a0, a1, a2, a3, a4, a5, a6 uint32) (uint32, error) {
	return e.ExecuteMacOS(tvect, a0, a1, a2, a3, a4, a5, a6)
}

// gpr13to31 and fpr14to31 name the register windows execute_68k saves and
// restores around a nested 68k-interpreter step (invariant I2).
var gpr13to31 = func() []cpu.Reg {
	regs := make([]cpu.Reg, 0, 19)
	for n := 13; n <= 31; n++ {
		regs = append(regs, cpu.GPR(n))
	}
	return regs
}()

var fpr14to31 = func() []cpu.Reg {
	regs := make([]cpu.Reg, 0, 18)
	for n := 14; n <= 31; n++ {
		regs = append(regs, cpu.FPR(n))
	}
	return regs
}()

func (e *Engine) saveRegs(regs []cpu.Reg) ([]uint64, error) {
	saved := make([]uint64, len(regs))
	for i, r := range regs {
		v, err := e.CPU.RegRead(r)
		if err != nil {
			return nil, err
		}
		saved[i] = v
	}
	return saved, nil
}

func (e *Engine) restoreRegs(regs []cpu.Reg, saved []uint64) error {
	for i, r := range regs {
		if err := e.CPU.RegWrite(r, saved[i]); err != nil {
			return err
		}
	}
	return nil
}

// Execute68k runs a single step of the in-ROM 68k interpreter, marshaling
// regs into the fixed PPC register windows on entry and back out on
// return. The caller must be inside an EMUL_OP handler (run mode
// MODE_EMUL_OP) when calling this. Execute68k reports a violation of that
// precondition by returning an error before touching any register; it does
// not call Lifecycle.Fatal or the quit hook itself.
func (e *Engine) Execute68k(entry uint32, regs *mac68k.Snapshot) error {
	if e.Mode() != ModeEmulOp {
		return errors.Errorf("execute_68k: called outside MODE_EMUL_OP (mode=%s)", e.Mode())
	}

	savedPC, err := e.regRead32(cpu.PC)
	if err != nil {
		return err
	}
	savedLR, err := e.regRead32(cpu.LR)
	if err != nil {
		return err
	}
	savedCTR, err := e.regRead32(cpu.CTR)
	if err != nil {
		return err
	}
	savedCR, err := e.regRead32(cpu.CR)
	if err != nil {
		return err
	}

	sp, err := e.regRead32(cpu.GPR(1))
	if err != nil {
		return err
	}
	newSP := sp - 56
	e.Mem.WriteMacInt32(newSP, sp) // classic PPC back-chain: old SP at [new SP]
	if err := e.regWrite32(cpu.GPR(1), newSP); err != nil {
		return err
	}
	e.Mem.WriteMacInt32(newSP+4, e.installTrampoline())

	savedGPR, err := e.saveRegs(gpr13to31)
	if err != nil {
		return err
	}
	savedFPR, err := e.saveRegs(fpr14to31)
	if err != nil {
		return err
	}

	if err := e.regWrite32(cpu.CR, supervisorCR); err != nil {
		return err
	}
	if err := mac68k.Unmarshal(e.CPU, regs); err != nil {
		return err
	}

	if err := e.regWrite32(cpu.GPR(23), 0); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.GPR(24), entry); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.GPR(25), e.Mem.ReadMacInt32(e.Addrs.SRSlot)); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.GPR(26), 0); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.GPR(28), 0); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.GPR(29), e.Kernel.NanokernelOpcodeTableAddr()); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.GPR(30), e.Kernel.EmulatorDispatchAddr()); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.GPR(31), e.Kernel.OpcodeTableAddr()); err != nil {
		return err
	}

	e.SetMode(Mode68K)

	insn := e.Mem.ReadMacInt16(entry)
	if err := e.regWrite32(cpu.GPR(24), entry+2); err != nil {
		return err
	}
	ext := int32(int16(e.Mem.ReadMacInt16(entry + 2)))
	if err := e.regWrite32(cpu.GPR(27), uint32(ext)); err != nil {
		return err
	}
	table, err := e.regRead32(cpu.GPR(29))
	if err != nil {
		return err
	}
	table += uint32(insn) * 8
	if err := e.regWrite32(cpu.GPR(29), table); err != nil {
		return err
	}

	if err := e.CPU.Execute(uint64(table)); err != nil {
		return err
	}

	sr, err := e.regRead32(cpu.GPR(25))
	if err != nil {
		return err
	}
	e.Mem.WriteMacInt32(e.Addrs.SRSlot, sr)
	e.SetMode(ModeEmulOp)

	updated, err := mac68k.Marshal(e.CPU)
	if err != nil {
		return err
	}
	*regs = *updated

	if err := e.restoreRegs(gpr13to31, savedGPR); err != nil {
		return err
	}
	if err := e.restoreRegs(fpr14to31, savedFPR); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.GPR(1), sp); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.PC, savedPC); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.LR, savedLR); err != nil {
		return err
	}
	if err := e.regWrite32(cpu.CTR, savedCTR); err != nil {
		return err
	}
	return e.regWrite32(cpu.CR, savedCR)
}

// ExecuteNative runs a native-op selector directly from host code, without
// a guest trap word already installed anywhere: it stages the selector's
// pre-assembled synthetic opcode (from nativeops.Table()) at NativeOpSite,
// points both the PC+4 fallthrough and LR at a trailing EXEC_RETURN word,
// and executes there. This is the Go-idiom counterpart of the original's
// ExecuteNative(selector), simplified to this project's synthetic-opcode
// encoding rather than the Mixed Mode Manager's routine-descriptor trick.
func (e *Engine) ExecuteNative(opcodeWord uint32) error {
	savedLR, err := e.regRead32(cpu.LR)
	if err != nil {
		return err
	}
	site := e.Addrs.NativeOpSite
	ret := site + 4
	e.Mem.WriteMacInt32(site, opcodeWord)
	e.Mem.WriteMacInt32(ret, opcode.EncodeExecReturn())
	if err := e.regWrite32(cpu.LR, ret); err != nil {
		return err
	}
	if err := e.CPU.Execute(uint64(site)); err != nil {
		return err
	}
	return e.regWrite32(cpu.LR, savedLR)
}

// Execute68kTrap runs a single 68k A-Trap opcode followed by RTS, matching
// the original's Execute68kTrap(trap, regs): the trap and its RTS follower
// are staged at NativeOpSite the same way ExecuteNative stages a synthetic
// PowerPC opcode, then run through Execute68k.
func (e *Engine) Execute68kTrap(trap uint16, regs *mac68k.Snapshot) error {
	const rts = 0x4e75
	site := e.Addrs.NativeOpSite
	e.Mem.WriteMacInt16(site, trap)
	e.Mem.WriteMacInt16(site+2, rts)
	return e.Execute68k(site, regs)
}
