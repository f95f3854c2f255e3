// Package interrupt implements the asynchronous interrupt injector: the
// component that turns a device-signaled interrupt into a synthesized
// nanokernel entry, or a direct level-word write, depending on what the
// guest was doing when the signal arrived.
package interrupt

import (
	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/engine"
	"github.com/mtennes/macemu/mac68k"
)

// ROM names which of the two hard-coded 68k-interrupt entry points a
// MODE_NATIVE injection should target.
type ROM int

const (
	NewWorldROM ROM = iota
	OldWorldROM
)

// Config carries the ROM-specific and mode-specific values the injector
// needs that are not part of kernel-data: the two hard-coded nanokernel
// entry addresses, the mask ORed into the MODE_NATIVE pending-level word,
// the alternate interrupt stack, and whether MODE_NATIVE/MODE_EMUL_OP
// injection is compiled in at all (both are "only if enabled" per the
// specification).
type Config struct {
	NewWorldEntry uint32
	OldWorldEntry uint32
	ROM           ROM

	PendingLevelMask uint32
	AltStack         uint32

	NativeEnabled bool
	EmulOpEnabled bool
}

func (c Config) entry() uint32 {
	if c.ROM == OldWorldROM {
		return c.OldWorldEntry
	}
	return c.NewWorldEntry
}

// emulOpTrampoline is a small constant 68k instruction stream: it pushes a
// fake format word and SR, then jumps through 68k vector 0x64 (the
// interrupt autovector level 1 slot). Bytes are placeholders for the
// actual nanokernel trap sequence; what matters to this layer is that it
// is a fixed, host-owned 68k routine run via Execute68k.
var emulOpTrampoline = []byte{
	0x3f, 0x3c, 0x00, 0x00, // move.w #0,-(sp)   ; fake format word
	0x40, 0xe7, // move sr,-(sp)     ; fake SR
	0x20, 0x78, 0x00, 0x64, // movea.l $64.w,a0 ; level-1 autovector
	0x4e, 0xd0, // jmp (a0)
}

// HandleInterrupt is handle_interrupt: invoked synchronously from the main
// engine's execution context. It early-exits if interrupts are disabled or
// no device has signaled, then branches on run mode.
func HandleInterrupt(l *engine.Lifecycle, cfg Config) error {
	if l.InterruptsDisabled() || l.PendingFlags() == 0 {
		return nil
	}

	main := l.Main
	main.Mem.WriteMacInt16(main.Addrs.StackSniffer, 0)

	switch main.Mode() {
	case engine.Mode68K:
		main.Mem.WriteMacInt16(main.Kernel.InterruptLevelAddr(), 1)
		cr, err := main.CPU.RegRead(cpu.CR)
		if err != nil {
			return err
		}
		mask := main.Mem.ReadMacInt32(main.Kernel.InterruptMaskAddr())
		return main.CPU.RegWrite(cpu.CR, cr|uint64(mask))

	case engine.ModeNative:
		if !cfg.NativeEnabled {
			return nil
		}
		return handleNative(l, cfg)

	case engine.ModeEmulOp:
		if !cfg.EmulOpEnabled {
			return nil
		}
		return handleEmulOp(l)
	}
	return nil
}

func handleNative(l *engine.Lifecycle, cfg Config) error {
	main := l.Main
	sp, err := main.CPU.RegRead(cpu.GPR(1))
	if err != nil {
		return err
	}
	// B2: already inside the nanokernel, nothing to do.
	if uint32(sp) == main.Kernel.Base {
		return nil
	}

	main.Mem.WriteMacInt16(main.Kernel.InterruptLevelAddr(), 1)
	pendingAddr := main.Kernel.PendingLevelAddr()
	main.Mem.WriteMacInt32(pendingAddr, main.Mem.ReadMacInt32(pendingAddr)|cfg.PendingLevelMask)

	l.DisableInterrupt()
	active := l.Interrupt
	if active == nil {
		active = main
	}
	l.SetCurrent(active)
	err = buildFrame(active, cfg.entry(), cfg.AltStack)
	l.SetCurrent(main)
	if enableErr := l.EnableInterrupt(); err == nil {
		err = enableErr
	}
	return err
}

// handleEmulOp preempts MODE_EMUL_OP by rewriting the saved 68k
// interrupt-level word (XLM_68K_R25, the SR/R25 slot execute_68k reads and
// writes back at Addrs.SRSlot) rather than the kernel-data interrupt-level
// word MODE_68K uses: the guest is inside the in-ROM 68k emulator, whose
// current interrupt mask lives in the register window Execute68k
// marshals, not in kernel-data.
func handleEmulOp(l *engine.Lifecycle) error {
	main := l.Main
	levelAddr := main.Addrs.SRSlot
	level := main.Mem.ReadMacInt32(levelAddr)
	if level&0x7 != 0 {
		return nil
	}
	main.Mem.WriteMacInt32(levelAddr, 0x21)

	trampAddr := main.Addrs.Trampoline + 4
	for i, b := range emulOpTrampoline {
		main.Mem.WriteMacInt8(trampAddr+uint32(i), b)
	}
	if err := main.Execute68k(trampAddr, &mac68k.Snapshot{}); err != nil {
		return err
	}

	main.Mem.WriteMacInt32(levelAddr, level)
	return nil
}
