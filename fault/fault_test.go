package fault

import (
	"strings"
	"testing"

	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/cpu/mock"
	"github.com/mtennes/macemu/engine"
	"github.com/mtennes/macemu/guestmem/sim"
	"github.com/mtennes/macemu/kernel"
	"github.com/mtennes/macemu/models"
)

func newTestClassifier(t *testing.T) (*Classifier, *mock.Cpu) {
	t.Helper()
	c := mock.New()
	if err := c.Map(0, 0x10000); err != nil {
		t.Fatal(err)
	}
	rom := models.Ranges{{Name: "rom", Start: 0x4000, End: 0x8000}}
	ram := models.Ranges{{Name: "ram", Start: 0x1000, End: 0x2000}}
	return &Classifier{ROM: rom, RAM: ram}, c
}

type claimingScreen struct{ claim bool }

func (s claimingScreen) ClaimFault(addr uint32) bool { return s.claim }

func TestClassifyScreenDirtyClaims(t *testing.T) {
	fc, c := newTestClassifier(t)
	fc.ScreenDirty = claimingScreen{claim: true}
	if got := fc.Classify(c, 0x9000, 0x9000); got != OutcomeClaimed {
		t.Fatalf("expected OutcomeClaimed, got %v", got)
	}
}

func TestClassifyFaultInROMAddressSkips(t *testing.T) {
	fc, c := newTestClassifier(t)
	if got := fc.Classify(c, 0x4500, 0x9000); got != OutcomeSkipInstruction {
		t.Fatalf("expected OutcomeSkipInstruction for ROM-address fault, got %v", got)
	}
}

func TestClassifyKnownProbeSkips(t *testing.T) {
	fc, c := newTestClassifier(t)
	c.RegWrite(cpu.GPR(3), 0x1234)
	fc.Probes = []Probe{{Name: "slot-probe", PC: 0x4100, Regs: map[cpu.Reg]uint32{cpu.GPR(3): 0x1234}}}
	if got := fc.Classify(c, 0x9000, 0x4100); got != OutcomeSkipInstruction {
		t.Fatalf("expected OutcomeSkipInstruction for known probe, got %v", got)
	}
}

func TestClassifyProbeMismatchIsUnrecoverableWithoutIgnoreSEGV(t *testing.T) {
	fc, c := newTestClassifier(t)
	c.RegWrite(cpu.GPR(3), 0xffff)
	fc.Probes = []Probe{{Name: "slot-probe", PC: 0x4100, Regs: map[cpu.Reg]uint32{cpu.GPR(3): 0x1234}}}
	var reason string
	fc.Lifecycle = &engine.Lifecycle{Main: newTestEngine(t), Quit: func(r string) { reason = r }}
	if got := fc.Classify(c, 0x9000, 0x4100); got != OutcomeUnrecoverable {
		t.Fatalf("expected OutcomeUnrecoverable, got %v", got)
	}
	if !strings.Contains(reason, "unrecoverable guest fault") {
		t.Fatalf("expected quit hook to receive a fault dump, got %q", reason)
	}
}

func TestClassifyIgnoreSEGVPreferenceSkips(t *testing.T) {
	fc, c := newTestClassifier(t)
	prefs := &models.Prefs{}
	prefs.SetBool(models.PrefIgnoreSEGV, true)
	fc.Prefs = prefs
	if got := fc.Classify(c, 0x9000, 0x1500); got != OutcomeSkipInstruction {
		t.Fatalf("expected OutcomeSkipInstruction via ignoresegv preference, got %v", got)
	}
}

func TestClassifyOutsideKnownRangesIsUnrecoverable(t *testing.T) {
	fc, c := newTestClassifier(t)
	var reason string
	fc.Lifecycle = &engine.Lifecycle{Main: newTestEngine(t), Quit: func(r string) { reason = r }}
	if got := fc.Classify(c, 0x9000, 0x9000); got != OutcomeUnrecoverable {
		t.Fatalf("expected OutcomeUnrecoverable outside ROM/RAM, got %v", got)
	}
	if reason == "" {
		t.Fatal("expected quit hook invoked")
	}
}

func TestClassifyMonitorReceivesDump(t *testing.T) {
	fc, c := newTestClassifier(t)
	var dump string
	fc.Monitor = recordingMonitor{&dump}
	fc.Lifecycle = &engine.Lifecycle{Main: newTestEngine(t), Quit: func(string) {}}
	fc.Classify(c, 0x9000, 0x9000)
	if !strings.Contains(dump, "pc=0x00009000") {
		t.Fatalf("expected monitor dump to include pc, got %q", dump)
	}
}

type recordingMonitor struct{ dump *string }

func (m recordingMonitor) EnterDebugger(dump string) { *m.dump = dump }

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
