// Package mock provides a fake implementation of cpu.Cpu for tests. The real
// PowerPC interpreter/JIT core is an external dependency of this project, so
// unit tests drive the glue layer against this minimal stand-in instead: a
// register file, a byte-addressable memory, and a fetch loop that only knows
// how to dispatch registered primary opcodes.
package mock

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/mtennes/macemu/cpu"
)

type regFile struct {
	vals map[cpu.Reg]uint64
}

func newRegFile() *regFile {
	return &regFile{vals: make(map[cpu.Reg]uint64)}
}

func (r *regFile) read(reg cpu.Reg) (uint64, error) {
	return r.vals[reg], nil
}

func (r *regFile) write(reg cpu.Reg, val uint64) error {
	r.vals[reg] = val
	return nil
}

// Cpu is a fake PPC core: enough register/memory/decode plumbing to drive
// the glue layer's trampolines and pseudo-op dispatch end to end in tests.
type Cpu struct {
	Mem *cpu.Mem

	regs    *regFile
	decode  map[uint32]cpu.DecodeFunc
	hooks   *cpu.Hooks
	stopped bool

	returnFlag    bool
	pendingIntr   bool
	flushedRanges [][2]uint64

	// MaxSteps bounds the fetch loop so a runaway test fixture doesn't
	// hang forever; zero means "use the default".
	MaxSteps int
}

// New returns a mock core with a 32-bit big-endian guest address space, the
// byte order every classic Mac OS guest uses.
func New() *Cpu {
	c := &Cpu{
		Mem:    cpu.NewMem(32, binary.BigEndian),
		regs:   newRegFile(),
		decode: make(map[uint32]cpu.DecodeFunc),
	}
	c.hooks = cpu.NewHooks(c, c.Mem)
	return c
}

// Map installs a read/write/execute region of guest memory, letting test
// fixtures populate ROM/RAM before calling Execute.
func (c *Cpu) Map(addr, size uint64) error {
	return c.Mem.MemMapProt(addr, size, cpu.PROT_ALL)
}

func (c *Cpu) RegRead(reg cpu.Reg) (uint64, error)      { return c.regs.read(reg) }
func (c *Cpu) RegWrite(reg cpu.Reg, val uint64) error   { return c.regs.write(reg, val) }
func (c *Cpu) MemRead(addr, size uint64) ([]byte, error) { return c.Mem.MemRead(addr, size) }
func (c *Cpu) MemReadInto(p []byte, addr uint64) error   { return c.Mem.MemReadInto(p, addr) }
func (c *Cpu) MemWrite(addr uint64, p []byte) error      { return c.Mem.MemWrite(addr, p) }

func (c *Cpu) RegisterOpcode(primary uint32, flow cpu.Cflow, fn cpu.DecodeFunc) error {
	if _, ok := c.decode[primary]; ok {
		return errors.Errorf("opcode %d already registered", primary)
	}
	c.decode[primary] = fn
	return nil
}

// Execute fetches 32-bit big-endian instruction words starting at entry and
// dispatches any word whose top 6 bits match a registered primary opcode.
// Unregistered words are treated as a one-instruction no-op that advances PC
// by 4; real ISA decode is the job of the external core this stands in for.
// A fetch that misses mapped memory is offered to any registered
// HOOK_MEM_ERR callback before giving up; if the callback claims it as
// recoverable, execution resumes at the next word instead of erroring out.
func (c *Cpu) Execute(entry uint64) error {
	c.stopped = false
	c.returnFlag = false
	if err := c.regs.write(cpu.PC, entry); err != nil {
		return err
	}
	max := c.MaxSteps
	if max == 0 {
		max = 100000
	}
	for i := 0; i < max; i++ {
		if c.stopped || c.returnFlag {
			return nil
		}
		if c.pendingIntr {
			return nil
		}
		pc, _ := c.regs.read(cpu.PC)
		word, err := c.Mem.MemFetch(pc, 4)
		if err != nil {
			if merr, ok := err.(*cpu.MemError); ok && merr.Recoverable {
				if err := c.regs.write(cpu.PC, pc+4); err != nil {
					return err
				}
				continue
			}
			return errors.Wrapf(err, "fetch at %#x", pc)
		}
		insn := uint32(word[0])<<24 | uint32(word[1])<<16 | uint32(word[2])<<8 | uint32(word[3])
		primary := insn >> 26
		if fn, ok := c.decode[primary]; ok {
			if err := fn(c, insn); err != nil {
				return err
			}
		} else {
			if err := c.regs.write(cpu.PC, pc+4); err != nil {
				return err
			}
		}
	}
	return errors.New("mock cpu: step limit exceeded")
}

func (c *Cpu) Stop() error {
	c.stopped = true
	return nil
}

func (c *Cpu) SetReturnFlag(v bool) { c.returnFlag = v }
func (c *Cpu) ReturnFlag() bool     { return c.returnFlag }

func (c *Cpu) SetPendingInterrupt(v bool) { c.pendingIntr = v }
func (c *Cpu) PendingInterrupt() bool     { return c.pendingIntr }

func (c *Cpu) FlushCache(start, end uint64) error {
	c.flushedRanges = append(c.flushedRanges, [2]uint64{start, end})
	return nil
}

// FlushedRanges reports every range passed to FlushCache, for assertions.
func (c *Cpu) FlushedRanges() [][2]uint64 { return c.flushedRanges }

func (c *Cpu) HookAdd(htype int, cb interface{}, begin, end uint64, extra ...int) (cpu.Hook, error) {
	return c.hooks.HookAdd(htype, cb, begin, end, extra...)
}
func (c *Cpu) HookDel(hook cpu.Hook) error { return c.hooks.HookDel(hook) }

func (c *Cpu) ContextSave(reuse interface{}) (interface{}, error) {
	m, ok := reuse.(map[cpu.Reg]uint64)
	if !ok || m == nil {
		m = make(map[cpu.Reg]uint64, len(c.regs.vals))
	}
	for k, v := range c.regs.vals {
		m[k] = v
	}
	return m, nil
}

func (c *Cpu) ContextRestore(ctx interface{}) error {
	m, ok := ctx.(map[cpu.Reg]uint64)
	if !ok {
		return errors.New("mock cpu: incorrect context type")
	}
	c.regs = &regFile{vals: m}
	return nil
}

func (c *Cpu) Close() error { return nil }
