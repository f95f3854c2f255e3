// Package fault implements the fault classifier: the handler the host
// signal subsystem calls into when guest execution takes a memory fault,
// deciding whether it is a known, safely-skippable probe or an
// unrecoverable guest error.
package fault

import (
	"fmt"

	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/engine"
	"github.com/mtennes/macemu/models"
)

// Outcome is the classifier's verdict, communicated back to the signal
// handler plumbing (an external collaborator) so it knows how to resume
// or terminate the faulting thread.
type Outcome int

const (
	// OutcomeClaimed means an external screen-dirty handler already
	// serviced the fault; the signal handler should return success.
	OutcomeClaimed Outcome = iota
	// OutcomeSkipInstruction means the PPC core should retry at PC+4.
	OutcomeSkipInstruction
	// OutcomeUnrecoverable means the classifier has already dumped state
	// and invoked the quit hook; there is nothing left for the caller to
	// do but unwind.
	OutcomeUnrecoverable
)

// Probe names a known Mac OS install/driver routine that deliberately
// touches memory in a way that faults on this host: a fixed guest PC plus
// the register contents seen at that PC for a genuine probe.
type Probe struct {
	Name string
	PC   uint32
	Regs map[cpu.Reg]uint32
}

// Matches reports whether the core's live register state at PC matches
// this probe's fixed signature.
func (p Probe) Matches(c cpu.Cpu, pc uint32) bool {
	if p.PC != pc {
		return false
	}
	for r, want := range p.Regs {
		got, err := c.RegRead(r)
		if err != nil || uint32(got) != want {
			return false
		}
	}
	return true
}

// ScreenDirtyHandler is the external collaborator given first refusal on
// every fault: video frame-buffer dirty tracking often relies on
// deliberately unmapped pages.
type ScreenDirtyHandler interface {
	ClaimFault(addr uint32) bool
}

// Monitor is the external debugger/monitor UI handed a register-and-log
// dump when a fault can't be classified as recoverable.
type Monitor interface {
	EnterDebugger(dump string)
}

// Classifier holds everything the fault handler needs to make its call:
// the guest ROM/RAM extents, the known-probe table, the "ignoresegv"
// preference, and the external collaborators it defers to or falls back
// on.
type Classifier struct {
	ROM models.Ranges
	RAM models.Ranges

	Probes []Probe
	Prefs  *models.Prefs

	ScreenDirty ScreenDirtyHandler
	Monitor     Monitor
	Lifecycle   *engine.Lifecycle

	// RegSet overrides the register window dumped on an unrecoverable
	// fault; nil uses models.DefaultRegSet.
	RegSet []models.NamedReg
}

// Classify runs the four-step decision from the fault-handling design: an
// external claim, a ROM-address hit, a known-probe or ignoresegv-preference
// hit, or an unrecoverable fault that dumps state and quits.
func (fc *Classifier) Classify(c cpu.Cpu, addr, pc uint32) Outcome {
	if fc.ScreenDirty != nil && fc.ScreenDirty.ClaimFault(addr) {
		return OutcomeClaimed
	}
	if fc.ROM.InAny(uint64(addr)) {
		return OutcomeSkipInstruction
	}
	if fc.ROM.InAny(uint64(pc)) || fc.RAM.InAny(uint64(pc)) {
		for _, p := range fc.Probes {
			if p.Matches(c, pc) {
				return OutcomeSkipInstruction
			}
		}
		if fc.Prefs != nil && fc.Prefs.PrefsFindBool(models.PrefIgnoreSEGV) {
			return OutcomeSkipInstruction
		}
	}
	fc.handleUnrecoverable(c, addr, pc)
	return OutcomeUnrecoverable
}

func (fc *Classifier) handleUnrecoverable(c cpu.Cpu, addr, pc uint32) {
	regs := fc.RegSet
	if regs == nil {
		regs = models.DefaultRegSet()
	}
	diff := &models.StatusDiff{C: c, Regs: regs}
	changes, err := diff.Changes(false)

	dump := changesDump(addr, pc, changes, err)
	if fc.Monitor != nil {
		fc.Monitor.EnterDebugger(dump)
	}
	if fc.Lifecycle != nil {
		fc.Lifecycle.Fatal(dump)
	}
}

func changesDump(addr, pc uint32, changes *models.Changes, err error) string {
	header := fmt.Sprintf("fault: unrecoverable guest fault at pc=0x%08x addr=0x%08x\n", pc, addr)
	if err != nil {
		return header + "fault: register dump unavailable: " + err.Error()
	}
	return header + changes.String(false)
}
