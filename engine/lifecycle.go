package engine

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/mtennes/macemu/models"
	"github.com/mtennes/macemu/trace"
)

// QuitFunc is the external "quit hook": a fatal programmer error or a
// clean EMUL_RETURN both funnel into it. It never returns in a real
// emulator; tests substitute a func that records the call instead.
type QuitFunc func(reason string)

// Lifecycle owns the main engine, the optional interrupt engine, and the
// process-wide state the specification's ABI forces to be global: the
// current-engine pointer and the interrupt-disable nesting counter. It
// implements the external entry points init_emul_ppc/exit_emul_ppc/
// emul_ppc.
type Lifecycle struct {
	Main      *Engine
	Interrupt *Engine // nil unless async-IRQ mode is compiled in

	Prefs *models.Prefs
	Quit  QuitFunc

	// Gate lets an attached monitor/debugger pause the run loop between
	// guest entries: calling Gate.Lock() blocks the next Run until the
	// debugger calls Gate.Unlock().
	Gate models.InterruptGate

	// Trace records one KindExecutePPC frame per Run call when set, in the
	// surrounding emulator's own struc+snappy execution-trace format at a
	// coarser, host-side granularity; nested trampoline entries, native-op
	// dispatches and interrupts are not recorded. Nil disables tracing.
	Trace *trace.Writer

	current      *Engine
	disableCount uint32
	pendingFlags uint32

	steps uint64
}

// Init installs the current engine as Main and records that
// init_emul_ppc has run. The caller is responsible for installing the
// fault handler and the debugger commands the specification names as
// external collaborators.
func (l *Lifecycle) Init() {
	l.current = l.Main
}

// Exit tears down the lifecycle. There is no persisted state to flush;
// this exists to pair with Init and returns the final stats line for the
// caller to print.
func (l *Lifecycle) Exit() string {
	return l.Stats()
}

// Stats reports a one-line summary, in the spirit of the surrounding
// emulator's own startup/shutdown banners.
func (l *Lifecycle) Stats() string {
	return fmt.Sprintf("emul_ppc: %d guest entries, disable-depth=%d, pending-flags=%#x",
		atomic.LoadUint64(&l.steps), atomic.LoadUint32(&l.disableCount), atomic.LoadUint32(&l.pendingFlags))
}

// Current returns the engine presently marked "current". In single-engine
// mode this is always Main.
func (l *Lifecycle) Current() *Engine {
	if l.current == nil {
		return l.Main
	}
	return l.current
}

// SetCurrent switches the current-engine pointer, used by the interrupt
// injector to hand control to the interrupt engine and back.
func (l *Lifecycle) SetCurrent(e *Engine) {
	l.current = e
}

// Run is emul_ppc(entry): the main emulation loop entry point. It holds
// Gate for the duration of the guest entry, so a debugger that has called
// Gate.Lock() blocks new entries until it releases it.
func (l *Lifecycle) Run(entry uint32) error {
	l.Gate.Lock()
	defer l.Gate.Unlock()
	step := atomic.AddUint64(&l.steps, 1)
	if l.Trace != nil {
		l.Trace.Record(trace.Frame{Kind: trace.KindExecutePPC, Step: step, Addr: entry})
	}
	return l.Main.ExecutePPC(entry)
}

// TriggerInterrupt sets the pending-interrupt flag on the main engine
// only, per the specification: the interrupt engine, if present, is never
// signalled this way.
func (l *Lifecycle) TriggerInterrupt() {
	l.Main.CPU.SetPendingInterrupt(true)
}

// SignalDevice ORs a device-signaled interrupt-flag bit into the pending
// bitmask the injector consults. Bits are defined by the caller's device
// models; this layer only tracks whether any are set.
func (l *Lifecycle) SignalDevice(bit uint32) {
	for {
		old := atomic.LoadUint32(&l.pendingFlags)
		if atomic.CompareAndSwapUint32(&l.pendingFlags, old, old|bit) {
			return
		}
	}
}

// ClearDeviceFlags resets the pending device interrupt-flags bitmask,
// called once the injector has acted on it.
func (l *Lifecycle) ClearDeviceFlags() {
	atomic.StoreUint32(&l.pendingFlags, 0)
}

// PendingFlags returns the current device-signaled interrupt-flags
// bitmask.
func (l *Lifecycle) PendingFlags() uint32 {
	return atomic.LoadUint32(&l.pendingFlags)
}

// DisableInterrupt increments the process-wide interrupt-disable nesting
// counter. While it is greater than zero, the injector early-exits
// (invariant I5).
func (l *Lifecycle) DisableInterrupt() {
	atomic.AddUint32(&l.disableCount, 1)
}

// EnableInterrupt decrements the nesting counter. Calling it more times
// than DisableInterrupt was called is a caller contract violation — the
// counter is unsigned and must not underflow — so EnableInterrupt then
// returns an error and leaves the counter at zero.
func (l *Lifecycle) EnableInterrupt() error {
	for {
		old := atomic.LoadUint32(&l.disableCount)
		if old == 0 {
			return errors.New("EnableInterrupt: disable counter underflow")
		}
		if atomic.CompareAndSwapUint32(&l.disableCount, old, old-1) {
			return nil
		}
	}
}

// InterruptsDisabled reports whether the nesting counter is currently
// greater than zero.
func (l *Lifecycle) InterruptsDisabled() bool {
	return atomic.LoadUint32(&l.disableCount) > 0
}

// FlushCodeCache invalidates JIT translations in [start, end) on every
// engine the lifecycle owns.
func (l *Lifecycle) FlushCodeCache(start, end uint64) error {
	if err := l.Main.CPU.FlushCache(start, end); err != nil {
		return err
	}
	if l.Interrupt != nil {
		return l.Interrupt.CPU.FlushCache(start, end)
	}
	return nil
}

// quit invokes the external quit hook if one was installed, otherwise
// panics — losing the hook is itself a programmer error in the host
// wiring, not a guest fault.
func (l *Lifecycle) quit(reason string) {
	if l.Quit != nil {
		l.Quit(reason)
		return
	}
	panic("engine: fatal error with no quit hook installed: " + reason)
}

// Fatal reports a programmer-error condition (an unmet precondition, an
// unknown selector) per the error handling design: log and invoke the
// external quit hook.
func (l *Lifecycle) Fatal(reason string) {
	log.Printf("engine: fatal: %s", reason)
	l.quit(reason)
}

// Terminate is the clean-shutdown counterpart to Fatal: it funnels an
// EMUL_RETURN trap into the same external quit hook, distinguished only by
// the reason string a caller passes.
func (l *Lifecycle) Terminate(reason string) {
	l.quit(reason)
}
