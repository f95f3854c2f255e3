package pseudoop

import (
	"testing"

	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/cpu/mock"
	"github.com/mtennes/macemu/engine"
	"github.com/mtennes/macemu/guestmem/sim"
	"github.com/mtennes/macemu/kernel"
	"github.com/mtennes/macemu/mac68k"
	"github.com/mtennes/macemu/nativeops"
	"github.com/mtennes/macemu/opcode"
)

func newTestHandler(t *testing.T) (*Handler, *engine.Engine, *mock.Cpu) {
	t.Helper()
	c := mock.New()
	if err := c.Map(0, 0x8000); err != nil {
		t.Fatal(err)
	}
	mem := sim.Wrap(c.Mem)
	kd := &kernel.Data{Mem: mem, Base: 0x3000}
	addrs := engine.Addrs{RunMode: 0x10, Trampoline: 0x14, SRSlot: 0x28, StackSniffer: 0x2c}
	e := engine.New(c, mem, kd, addrs)
	l := &engine.Lifecycle{Main: e}
	h := &Handler{Lifecycle: l, Native: &nativeops.Dispatcher{Lifecycle: l}}
	if err := h.Register(c); err != nil {
		t.Fatal(err)
	}
	return h, e, c
}

func TestExecReturnSetsFlag(t *testing.T) {
	_, _, c := newTestHandler(t)
	c.Mem.MemWrite(0, packWord(opcode.EncodeExecReturn()))
	if err := c.Execute(0); err != nil {
		t.Fatal(err)
	}
	if !c.ReturnFlag() {
		t.Fatal("expected return flag set")
	}
}

func TestEmulReturnInvokesQuitHook(t *testing.T) {
	h, _, c := newTestHandler(t)
	var reason string
	h.Lifecycle.Quit = func(r string) { reason = r }
	c.Mem.MemWrite(0, packWord(opcode.EncodeEmulReturn()))
	if err := c.Execute(0); err != nil {
		t.Fatal(err)
	}
	if reason != "EMUL_RETURN" {
		t.Fatalf("expected quit hook invoked with EMUL_RETURN, got %q", reason)
	}
}

func TestExecNativeAdvancesPCWhenNotViaLR(t *testing.T) {
	h, _, c := newTestHandler(t)
	h.Native.PatchNameRegistry = func() {}
	c.Mem.MemWrite(0, packWord(opcode.EncodeExecNative(nativeops.PatchNameRegistry, false)))
	c.Mem.MemWrite(4, packWord(opcode.EncodeExecReturn()))
	if err := c.Execute(0); err != nil {
		t.Fatal(err)
	}
	pc, _ := c.RegRead(cpu.PC)
	if pc != 4 {
		t.Fatalf("expected PC advanced to 4, got %#x", pc)
	}
}

func TestExecNativeReturnsViaLRWhenBitSet(t *testing.T) {
	h, _, c := newTestHandler(t)
	h.Native.PatchNameRegistry = func() {}
	c.RegWrite(cpu.LR, 0x9000)
	if err := c.Map(0x9000, 0x1000); err != nil {
		t.Fatal(err)
	}
	c.Mem.MemWrite(0x9000, packWord(opcode.EncodeExecReturn()))
	c.Mem.MemWrite(0, packWord(opcode.EncodeExecNative(nativeops.PatchNameRegistry, true)))
	if err := c.Execute(0); err != nil {
		t.Fatal(err)
	}
	pc, _ := c.RegRead(cpu.PC)
	if pc != 0x9000 {
		t.Fatalf("expected PC == LR (0x9000), got %#x", pc)
	}
}

func TestExecNativeVideoVBLRoundTrip(t *testing.T) {
	h, _, c := newTestHandler(t)
	vbl := 0
	h.Native.Video = &countingVideo{&vbl}
	c.Mem.MemWrite(0, packWord(opcode.EncodeExecNative(nativeops.VideoVBL, false)))
	c.Mem.MemWrite(4, packWord(opcode.EncodeExecReturn()))
	if err := c.Execute(0); err != nil {
		t.Fatal(err)
	}
	if vbl != 1 {
		t.Fatalf("expected VBL observed exactly once, got %d", vbl)
	}
	pc, _ := c.RegRead(cpu.PC)
	if pc != 4 {
		t.Fatalf("expected PC returned to caller at PC+4, got %#x", pc)
	}
}

type countingVideo struct{ vbl *int }

func (v *countingVideo) InstallAccel()               {}
func (v *countingVideo) VBL()                        { *v.vbl++ }
func (v *countingVideo) DriverIO(a [5]uint32) int16  { return 0 }

func TestEmulOpMarshalsDispatchesAndRestoresMode(t *testing.T) {
	h, e, c := newTestHandler(t)
	e.SetMode(engine.Mode68K)

	c.RegWrite(cpu.GPR(8), 1) // d0
	c.RegWrite(cpu.GPR(16), 10) // a0
	c.RegWrite(cpu.GPR(24), 0x2000) // 68k PC

	var gotPC uint32
	var gotIndex int
	var modeDuringDispatch engine.Mode
	h.EmulOp = func(regs *mac68k.Snapshot, pc68 uint32, index int) error {
		gotPC, gotIndex = pc68, index
		modeDuringDispatch = e.Mode()
		regs.D[0] = 42
		return nil
	}

	// EMUL_OP subcode index 0 -> sub-function 3.
	c.Mem.MemWrite(0, packWord(opcode.EncodeEmulOp(0)))
	c.Mem.MemWrite(4, packWord(opcode.EncodeExecReturn()))
	if err := c.Execute(0); err != nil {
		t.Fatal(err)
	}

	if gotPC != 0x2000 {
		t.Fatalf("expected 68k PC 0x2000 passed to dispatcher, got %#x", gotPC)
	}
	if gotIndex != 0 {
		t.Fatalf("expected index 0, got %d", gotIndex)
	}
	if modeDuringDispatch != engine.ModeEmulOp {
		t.Fatalf("expected MODE_EMUL_OP during dispatch, got %s", modeDuringDispatch)
	}
	if e.Mode() != engine.Mode68K {
		t.Fatalf("expected mode restored to MODE_68K after dispatch, got %s", e.Mode())
	}
	d0, _ := c.RegRead(cpu.GPR(8))
	if d0 != 42 {
		t.Fatalf("expected updated d0 unmarshaled back into GPR8, got %d", d0)
	}
	pc, _ := c.RegRead(cpu.PC)
	if pc != 4 {
		t.Fatalf("expected PC advanced by 4, got %#x", pc)
	}
}

func packWord(w uint32) []byte {
	return []byte{byte(w >> 24), byte(w >> 16), byte(w >> 8), byte(w)}
}
