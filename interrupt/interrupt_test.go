package interrupt

import (
	"testing"

	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/cpu/mock"
	"github.com/mtennes/macemu/engine"
	"github.com/mtennes/macemu/guestmem/sim"
	"github.com/mtennes/macemu/kernel"
	"github.com/mtennes/macemu/opcode"
)

// execReturnDecoder stands in for the pseudo-op decode hook in tests that
// only care about a trampoline's save/restore behavior.
func execReturnDecoder(c cpu.Cpu, word uint32) error {
	c.SetReturnFlag(true)
	return nil
}

func packWord(w uint32) []byte {
	return []byte{byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w)}
}

func newTestLifecycle(t *testing.T) (*engine.Lifecycle, *mock.Cpu) {
	t.Helper()
	c := mock.New()
	if err := c.Map(0, 0x8000); err != nil {
		t.Fatal(err)
	}
	mem := sim.Wrap(c.Mem)
	kd := &kernel.Data{Mem: mem, Base: 0x3000}
	addrs := engine.Addrs{RunMode: 0x10, Trampoline: 0x14, SRSlot: 0x28, StackSniffer: 0x2c}
	e := engine.New(c, mem, kd, addrs)
	return &engine.Lifecycle{Main: e}, c
}

func TestHandleInterruptMode68K(t *testing.T) {
	l, c := newTestLifecycle(t)
	l.Main.SetMode(engine.Mode68K)

	const levelWordAddr = 0x5100
	l.Main.Mem.WriteMacInt32(l.Main.Kernel.Base+kernel.OffsetInterruptLevel, levelWordAddr)
	l.Main.Mem.WriteMacInt32(l.Main.Kernel.Base+kernel.OffsetInterruptMask, 0x30)
	l.Main.Mem.WriteMacInt16(levelWordAddr, 0)
	c.RegWrite(cpu.CR, 0x05)

	l.SignalDevice(1)
	if err := HandleInterrupt(l, Config{}); err != nil {
		t.Fatal(err)
	}

	if got := l.Main.Mem.ReadMacInt16(levelWordAddr); got != 1 {
		t.Fatalf("expected interrupt-level word set to 1, got %d", got)
	}
	cr, _ := c.RegRead(cpu.CR)
	if cr != 0x35 {
		t.Fatalf("expected CR = 0x35, got %#x", cr)
	}
}

func TestHandleInterruptDisabledIsNoOp(t *testing.T) {
	l, _ := newTestLifecycle(t)
	l.Main.SetMode(engine.Mode68K)
	l.Main.Mem.WriteMacInt32(l.Main.Kernel.Base+kernel.OffsetInterruptLevel, 0x5100)
	l.Main.Mem.WriteMacInt16(0x5100, 0)
	l.DisableInterrupt()
	l.SignalDevice(1)

	if err := HandleInterrupt(l, Config{}); err != nil {
		t.Fatal(err)
	}
	if got := l.Main.Mem.ReadMacInt16(0x5100); got != 0 {
		t.Fatalf("expected no-op while disabled, level word changed to %d", got)
	}
}

func TestHandleInterruptNoPendingFlagsIsNoOp(t *testing.T) {
	l, _ := newTestLifecycle(t)
	l.Main.SetMode(engine.Mode68K)
	l.Main.Mem.WriteMacInt32(l.Main.Kernel.Base+kernel.OffsetInterruptLevel, 0x5100)
	l.Main.Mem.WriteMacInt16(0x5100, 0)

	if err := HandleInterrupt(l, Config{}); err != nil {
		t.Fatal(err)
	}
	if got := l.Main.Mem.ReadMacInt16(0x5100); got != 0 {
		t.Fatalf("expected no-op with no pending device flags, level word changed to %d", got)
	}
}

func TestHandleInterruptModeNativeAlreadyInNanokernelIsNoOp(t *testing.T) {
	l, c := newTestLifecycle(t)
	l.Main.SetMode(engine.ModeNative)
	c.RegWrite(cpu.GPR(1), uint64(l.Main.Kernel.Base))
	l.SignalDevice(1)

	if err := HandleInterrupt(l, Config{NativeEnabled: true}); err != nil {
		t.Fatal(err)
	}
	if l.InterruptsDisabled() {
		t.Fatal("B2: expected no disable-counter change when SP == kernel-data base")
	}
}

func TestHandleInterruptModeEmulOpUsesSRSlot(t *testing.T) {
	l, c := newTestLifecycle(t)
	if err := c.RegisterOpcode(opcode.Primary, cpu.CflowJump|cpu.CflowTrap, execReturnDecoder); err != nil {
		t.Fatal(err)
	}
	l.Main.SetMode(engine.ModeEmulOp)

	const tableBase = 0x2000
	l.Main.Mem.WriteMacInt32(l.Main.Kernel.Base+kernel.OffsetNanokernelOpcodeTable, tableBase)
	l.Main.Mem.WriteMacInt32(l.Main.Kernel.Base+kernel.OffsetEmulatorDispatch, 0x2100)
	// Execute68k dispatches to tableBase + opcode*8, so the EXEC_RETURN
	// stand-in goes at the slot of the trampoline's first opcode word.
	first := uint64(emulOpTrampoline[0])<<8 | uint64(emulOpTrampoline[1])
	dispatch := tableBase + first*8
	if err := c.Map(dispatch&^0xfff, 0x1000); err != nil {
		t.Fatal(err)
	}
	c.Mem.MemWrite(dispatch, packWord(opcode.EncodeExecReturn()))
	c.RegWrite(cpu.GPR(1), 0x7000)

	// A level word with the low three bits clear lets the injection run;
	// HandleInterrupt must restore the word afterward and never touch the
	// kernel-data interrupt-level word MODE_68K uses instead.
	l.Main.Mem.WriteMacInt32(l.Main.Addrs.SRSlot, 0)
	l.Main.Mem.WriteMacInt32(l.Main.Kernel.Base+kernel.OffsetInterruptLevel, 0x5100)
	l.Main.Mem.WriteMacInt16(0x5100, 0)

	l.SignalDevice(1)
	if err := HandleInterrupt(l, Config{EmulOpEnabled: true}); err != nil {
		t.Fatal(err)
	}

	if got := l.Main.Mem.ReadMacInt32(l.Main.Addrs.SRSlot); got != 0 {
		t.Fatalf("expected SRSlot restored to its original level 0, got %#x", got)
	}
	if got := l.Main.Mem.ReadMacInt16(0x5100); got != 0 {
		t.Fatalf("expected kernel-data interrupt-level word untouched, got %d", got)
	}
}
