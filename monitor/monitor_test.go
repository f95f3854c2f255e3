package monitor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/cpu/mock"
	"github.com/mtennes/macemu/engine"
	"github.com/mtennes/macemu/guestmem/sim"
	"github.com/mtennes/macemu/kernel"
	"github.com/mtennes/macemu/models"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	c := mock.New()
	if err := c.Map(0, 0x10000); err != nil {
		t.Fatal(err)
	}
	mem := sim.Wrap(c.Mem)
	kd := &kernel.Data{Mem: mem, Base: 0x3000}
	addrs := engine.Addrs{RunMode: 0x10, Trampoline: 0x14, SRSlot: 0x28, StackSniffer: 0x2c}
	return engine.New(c, mem, kd, addrs)
}

func TestEnterDebuggerRecordsAndPrintsDump(t *testing.T) {
	var out bytes.Buffer
	m := New(&out)
	m.EnterDebugger("fault: unrecoverable\n")
	if m.LastDump() != "fault: unrecoverable\n" {
		t.Fatalf("unexpected LastDump: %q", m.LastDump())
	}
	if !strings.Contains(out.String(), "unrecoverable") {
		t.Fatalf("expected dump printed, got %q", out.String())
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	m := New(&out)
	if err := m.Dispatch("nonesuch"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "command not found") {
		t.Fatalf("expected not-found message, got %q", out.String())
	}
}

func TestDispatchRegsAndLogCommands(t *testing.T) {
	var out bytes.Buffer
	m := New(&out)
	e := newTestEngine(t)
	e.CPU.RegWrite(cpu.PC, 0x1234)
	diff := &models.StatusDiff{C: e.CPU}
	l := &engine.Lifecycle{Main: e}

	RegisterDefaultCommands(m, diff, l)

	if err := m.Dispatch("regs"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "1234") {
		t.Fatalf("expected regs dump to include pc, got %q", out.String())
	}

	out.Reset()
	if err := m.Dispatch("log"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "guest entries") {
		t.Fatalf("expected stats line, got %q", out.String())
	}
}
