// Package cpu defines the boundary between the glue layer and the PowerPC
// interpreter/JIT core. The core itself is an external collaborator: this
// package only describes the register file, decode-hook, and execution
// surface the glue layer needs from it.
package cpu

// Reg names one slot of the PPC register file. GPRs and FPRs are addressed
// via GPR(n)/FPR(n) rather than 64 individual constants.
type Reg int

const (
	numGPR = 32
	numFPR = 32

	GPR0 Reg = 0
	FPR0 Reg = GPR0 + numGPR
	spBase Reg = FPR0 + numFPR
)

// PC, LR, CTR, CR and XER live past the GPR/FPR banks.
const (
	PC Reg = spBase + iota
	LR
	CTR
	CR
	XER
)

// GPR returns the register enum for general-purpose register n (0..31).
func GPR(n int) Reg { return GPR0 + Reg(n) }

// FPR returns the register enum for floating-point register n (0..31).
func FPR(n int) Reg { return FPR0 + Reg(n) }

// Hook is an opaque handle returned by HookAdd, passed back to HookDel.
type Hook interface{}

// DecodeFunc is called by the core when it decodes an instruction word that
// matches a registered primary opcode. It receives the raw instruction word
// and the core itself; PC advancement is the handler's responsibility.
type DecodeFunc func(c Cpu, word uint32) error

// Cflow describes how a registered opcode affects control flow, mirroring
// the flags a real decode table would carry so the core can still reason
// about basic-block boundaries around a synthetic instruction.
type Cflow int

const (
	CflowNone Cflow = 0
	CflowJump Cflow = 1 << iota
	CflowTrap
)

// Cpu is the minimum surface the glue layer requires from the PowerPC
// interpreter/JIT core: register access, guest memory access, decode-table
// registration for the pseudo-op extension, and the ability to run and stop.
type Cpu interface {
	RegRead(reg Reg) (uint64, error)
	RegWrite(reg Reg, val uint64) error

	MemRead(addr, size uint64) ([]byte, error)
	MemReadInto(p []byte, addr uint64) error
	MemWrite(addr uint64, p []byte) error

	// RegisterOpcode installs a decode-table entry for the given primary
	// opcode field. Only one handler may be registered per primary opcode.
	RegisterOpcode(primary uint32, flow Cflow, fn DecodeFunc) error

	// Execute runs the core starting at entry until it returns from a
	// synthetic EXEC_RETURN, a pending interrupt is observed at a
	// basic-block boundary, or Stop is called.
	Execute(entry uint64) error
	Stop() error

	// SetReturnFlag/ReturnFlag manage the core's "return from execute"
	// special flag, set by the EXEC_RETURN pseudo-op handler.
	SetReturnFlag(v bool)
	ReturnFlag() bool

	// SetPendingInterrupt/PendingInterrupt manage the level-triggered
	// interrupt-pending flag the core checks at basic-block edges.
	SetPendingInterrupt(v bool)
	PendingInterrupt() bool

	// FlushCache invalidates any JIT translations covering [start, end).
	FlushCache(start, end uint64) error

	HookAdd(htype int, cb interface{}, begin, end uint64, extra ...int) (Hook, error)
	HookDel(hook Hook) error

	// ContextSave/ContextRestore snapshot the entire register bank, used
	// to hand a fresh engine (e.g. the interrupt engine) a clean starting
	// state or to reuse one across runs.
	ContextSave(reuse interface{}) (interface{}, error)
	ContextRestore(ctx interface{}) error

	Close() error
}
