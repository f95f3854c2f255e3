// Command ppcglue wires the CPU-engine glue layer up standalone: it builds
// a lifecycle, registers the pseudo-op decoder, and runs the guest at the
// given entry point. It exists to exercise init_emul_ppc/emul_ppc/
// exit_emul_ppc end to end; a real emulator supplies its own PowerPC
// interpreter/JIT core (this package uses the in-repo mock core, the only
// one available without an external dependency) and its own ROM/RAM image.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/cpu/mock"
	"github.com/mtennes/macemu/engine"
	"github.com/mtennes/macemu/fault"
	"github.com/mtennes/macemu/guestmem/sim"
	"github.com/mtennes/macemu/kernel"
	"github.com/mtennes/macemu/models"
	"github.com/mtennes/macemu/monitor"
	"github.com/mtennes/macemu/nativeops"
	"github.com/mtennes/macemu/pseudoop"
	"github.com/mtennes/macemu/trace"
)

// Fixed low-memory layout for this standalone wiring. These addresses are
// this command's own choice; package kernel supplies only the offsets
// inside the kernel-data block at kernelBase.
const (
	// memSize/romEnd are sized to keep the fixed ROM addresses
	// fault.DefaultProbes names (up to 0x4a10a0) inside the ROM range.
	memSize = 8 << 20
	romBase = 0
	romEnd  = 0x500000

	runModeAddr = 0x0100
	trampoline  = 0x0104
	// trampoline+4..trampoline+16 is reserved for the interrupt injector's
	// own EMUL_OP-mode 68k trampoline bytes (see interrupt.handleEmulOp);
	// srSlotAddr and stackSniffer must stay clear of that range.
	srSlotAddr   = 0x0120
	stackSniffer = 0x0124
	nativeOpSite = 0x0130
	kernelBase   = 0x1000
)

func main() {
	entry := flag.Uint64("entry", 0x2000, "guest PowerPC entry point")
	jit := flag.Bool("jit", false, "enable JIT preference (jit pref)")
	ignoreSEGV := flag.Bool("ignoresegv", false, "skip unclassified faults instead of quitting")
	traceOut := flag.String("trace", "", "path to write a binary execution trace to")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*entry, *jit, *ignoreSEGV, *traceOut); err != nil {
		log.Fatal(err)
	}
}

func run(entry uint64, jit, ignoreSEGV bool, tracePath string) error {
	c := mock.New()
	if err := c.Map(0, memSize); err != nil {
		return err
	}
	mem := sim.Wrap(c.Mem)
	kd := &kernel.Data{Mem: mem, Base: kernelBase}
	addrs := engine.Addrs{
		RunMode:      runModeAddr,
		Trampoline:   trampoline,
		SRSlot:       srSlotAddr,
		StackSniffer: stackSniffer,
		NativeOpSite: nativeOpSite,
	}
	main := engine.New(c, mem, kd, addrs)

	prefs := &models.Prefs{}
	prefs.SetBool(models.PrefJIT, jit)
	prefs.SetBool(models.PrefIgnoreSEGV, ignoreSEGV)

	l := &engine.Lifecycle{
		Main:  main,
		Prefs: prefs,
		Quit:  func(reason string) { log.Fatalf("ppcglue: %s", reason) },
	}

	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			return err
		}
		defer f.Close()
		w, err := trace.NewWriter(f)
		if err != nil {
			return err
		}
		defer w.Close()
		l.Trace = w
	}

	mon := monitor.New(os.Stdout)
	diff := &models.StatusDiff{C: c}
	monitor.RegisterDefaultCommands(mon, diff, l)

	classifier := &fault.Classifier{
		ROM:       models.Ranges{{Name: "rom", Start: romBase, End: romEnd}},
		RAM:       models.Ranges{{Name: "ram", Start: romEnd, End: memSize}},
		Probes:    fault.DefaultProbes(romBase),
		Prefs:     prefs,
		Monitor:   mon,
		Lifecycle: l,
	}
	faultHook := func(faultCPU cpu.Cpu, access int, addr uint64, size int, value int64) bool {
		pc, _ := faultCPU.RegRead(cpu.PC)
		return classifier.Classify(faultCPU, uint32(addr), uint32(pc)) != fault.OutcomeUnrecoverable
	}
	if _, err := c.HookAdd(cpu.HOOK_MEM_ERR, faultHook, 0, ^uint64(0)); err != nil {
		return err
	}

	native := &nativeops.Dispatcher{Lifecycle: l}
	handler := &pseudoop.Handler{Lifecycle: l, Native: native}
	if err := handler.Register(c); err != nil {
		return err
	}

	l.Init()
	if err := l.Run(uint32(entry)); err != nil {
		return err
	}
	fmt.Println(l.Exit())
	return nil
}
