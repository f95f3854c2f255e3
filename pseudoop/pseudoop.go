// Package pseudoop wires the synthetic-opcode decoder into a running
// engine: the one decode-table registration that turns EMUL_RETURN,
// EXEC_RETURN, EXEC_NATIVE and EMUL_OP trap words into calls against the
// native-op dispatcher, the 68k-op dispatcher, and the lifecycle's quit
// hook.
package pseudoop

import (
	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/engine"
	"github.com/mtennes/macemu/mac68k"
	"github.com/mtennes/macemu/nativeops"
	"github.com/mtennes/macemu/opcode"
)

// EmulOpFunc is the external 68k-op dispatcher: given the marshaled 68k
// register snapshot, the current 68k PC (from GPR24), and the
// interpreter-extension table index, it runs one 68k-op step and mutates
// regs in place.
type EmulOpFunc func(regs *mac68k.Snapshot, pc68 uint32, index int) error

// Handler is the decode hook installed against every engine's core. One
// Handler serves both the main and (if present) interrupt engine, since
// both share the same Lifecycle and native-op dispatcher.
type Handler struct {
	Lifecycle *engine.Lifecycle
	Native    *nativeops.Dispatcher
	EmulOp    EmulOpFunc
}

// Register installs the handler as the decode-table entry for primary
// opcode 6 on c. Call it once per engine's core before running guest code.
func (h *Handler) Register(c cpu.Cpu) error {
	return c.RegisterOpcode(opcode.Primary, cpu.CflowJump|cpu.CflowTrap, h.decode)
}

// engineFor resolves which Engine wraps the core that just trapped, so
// native-op dispatch reads/writes the right guest memory and kernel-data
// block when the interrupt engine (rather than main) is executing.
func (h *Handler) engineFor(c cpu.Cpu) *engine.Engine {
	if in := h.Lifecycle.Interrupt; in != nil && in.CPU == c {
		return in
	}
	return h.Lifecycle.Main
}

func (h *Handler) decode(c cpu.Cpu, word uint32) error {
	op := opcode.Decode(word)
	switch op.Kind {
	case opcode.KindEmulReturn:
		h.Lifecycle.Terminate("EMUL_RETURN")
		return c.Stop()

	case opcode.KindExecReturn:
		c.SetReturnFlag(true)
		return nil

	case opcode.KindExecNative:
		if h.Native == nil {
			h.Lifecycle.Fatal("pseudoop: EXEC_NATIVE trapped with no native-op dispatcher installed")
			return nil
		}
		if err := h.Native.Dispatch(h.engineFor(c), op.Selector); err != nil {
			return err
		}
		return advancePC(c, op.ViaLR)

	case opcode.KindEmulOp:
		return h.handleEmulOp(c, op.Index)
	}
	return nil
}

// handleEmulOp implements the EMUL_OP branch of the pseudo-op decode hook:
// marshal the 68k view of the register file, hand it to the external
// 68k-op dispatcher alongside the current 68k PC and table index, then
// unmarshal the (possibly updated) snapshot back and restore MODE_68K.
func (h *Handler) handleEmulOp(c cpu.Cpu, index int) error {
	regs, err := mac68k.Marshal(c)
	if err != nil {
		return err
	}

	e := h.engineFor(c)
	e.SetMode(engine.ModeEmulOp)

	pc68, err := c.RegRead(cpu.GPR(24))
	if err != nil {
		return err
	}

	if h.EmulOp != nil {
		if err := h.EmulOp(regs, uint32(pc68), index); err != nil {
			return err
		}
	}

	if err := mac68k.Unmarshal(c, regs); err != nil {
		return err
	}
	e.SetMode(engine.Mode68K)
	return advancePC(c, false)
}

// advancePC implements the shared "PC := LR, or PC := PC+4" tail every
// pseudo-op branch that doesn't terminate the guest ends with.
func advancePC(c cpu.Cpu, viaLR bool) error {
	if viaLR {
		lr, err := c.RegRead(cpu.LR)
		if err != nil {
			return err
		}
		return c.RegWrite(cpu.PC, lr)
	}
	pc, err := c.RegRead(cpu.PC)
	if err != nil {
		return err
	}
	return c.RegWrite(cpu.PC, pc+4)
}
