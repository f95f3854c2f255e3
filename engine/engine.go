// Package engine implements the run-mode register, the context-saving
// trampolines, and the engine lifecycle that sit between the host emulator
// and an external PowerPC interpreter/JIT core.
package engine

import (
	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/guestmem"
	"github.com/mtennes/macemu/kernel"
	"github.com/mtennes/macemu/opcode"
)

// Mode is the tri-state run-mode word: what the guest was doing the last
// time the host regained control.
type Mode uint32

const (
	Mode68K Mode = iota
	ModeNative
	ModeEmulOp
)

func (m Mode) String() string {
	switch m {
	case Mode68K:
		return "MODE_68K"
	case ModeNative:
		return "MODE_NATIVE"
	case ModeEmulOp:
		return "MODE_EMUL_OP"
	default:
		return "MODE_UNKNOWN"
	}
}

// Addrs collects the low-memory guest addresses the engine touches outside
// the kernel-data block: the run-mode word, a one-word scratch trampoline,
// the "MSB of SR" slot execute_68k seeds into GPR25, and the "Mac OS stack
// sniffer" word the interrupt injector clears. None of these are part of
// kernel-data proper (see the Glossary distinguishing the two); their
// concrete values are chosen by whoever builds the Engine (cmd/ppcglue
// fixes one layout).
type Addrs struct {
	RunMode      uint32
	Trampoline   uint32
	SRSlot       uint32
	StackSniffer uint32

	// NativeOpSite is a two-word scratch area ExecuteNative uses to stage
	// a synthetic opcode and its EXEC_RETURN follower; distinct from
	// Trampoline so a host-initiated ExecuteNative call never collides
	// with the interrupt injector's own EMUL_OP-mode trampoline bytes at
	// Trampoline+4..Trampoline+16.
	NativeOpSite uint32
}

// Engine owns one PowerPC core instance and the guest memory it drives.
// Exactly one "main" engine always exists; a second "interrupt" engine may
// exist in async-IRQ mode (see package interrupt). Both share the same
// guest memory and kernel-data block.
type Engine struct {
	CPU    cpu.Cpu
	Mem    guestmem.Memory
	Kernel *kernel.Data
	Addrs  Addrs
}

// New builds an Engine over an already-constructed PPC core and guest
// memory. The caller is responsible for registering the pseudo-op decode
// hook (package pseudoop) before running any guest code.
func New(c cpu.Cpu, mem guestmem.Memory, kd *kernel.Data, addrs Addrs) *Engine {
	return &Engine{CPU: c, Mem: mem, Kernel: kd, Addrs: addrs}
}

// Mode reads the current run-mode word.
func (e *Engine) Mode() Mode {
	return Mode(e.Mem.ReadMacInt32(e.Addrs.RunMode))
}

// SetMode writes the run-mode word.
func (e *Engine) SetMode(m Mode) {
	e.Mem.WriteMacInt32(e.Addrs.RunMode, uint32(m))
}

// installTrampoline (re)writes the scratch EXEC_RETURN opcode used as a
// fake return address by every trampoline. It is idempotent, so nested
// trampolines writing the same word never race destructively; the host
// call stack alone tracks nesting.
func (e *Engine) installTrampoline() uint32 {
	e.Mem.WriteMacInt32(e.Addrs.Trampoline, opcode.EncodeExecReturn())
	return e.Addrs.Trampoline
}

// regRead32/regWrite32 are thin uint32 wrappers around the Cpu register
// interface, which speaks uint64 to stay width-agnostic across register
// kinds.
func (e *Engine) regRead32(r cpu.Reg) (uint32, error) {
	v, err := e.CPU.RegRead(r)
	return uint32(v), err
}

func (e *Engine) regWrite32(r cpu.Reg, v uint32) error {
	return e.CPU.RegWrite(r, uint64(v))
}

