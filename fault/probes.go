package fault

import "github.com/mtennes/macemu/cpu"

// DefaultProbes returns the fixed set of known-benign ROM instruction
// probes the original sigsegv_handler special-cases before ever consulting
// the ignoresegv preference, relative to romBase (the guest address ROM
// contents are mapped at). Three of the five named probes accept either of
// two GPR values, matching the original's OR'd guard; each is represented
// here as two Probe entries sharing a name.
func DefaultProbes(romBase uint32) []Probe {
	return []Probe{
		{
			Name: "MacOS 8 VM settings install",
			PC:   romBase + 0x488160,
			Regs: map[cpu.Reg]uint32{cpu.GPR(20): 0xf8000000},
		},
		{
			Name: "MacOS 8.5 install",
			PC:   romBase + 0x488140,
			Regs: map[cpu.Reg]uint32{cpu.GPR(16): 0xf8000000},
		},
		{
			Name: "MacOS 8 serial drivers on startup",
			PC:   romBase + 0x48e080,
			Regs: map[cpu.Reg]uint32{cpu.GPR(8): 0xf3012002},
		},
		{
			Name: "MacOS 8 serial drivers on startup",
			PC:   romBase + 0x48e080,
			Regs: map[cpu.Reg]uint32{cpu.GPR(8): 0xf3012000},
		},
		{
			Name: "MacOS 8.1 serial drivers on startup",
			PC:   romBase + 0x48c5e0,
			Regs: map[cpu.Reg]uint32{cpu.GPR(20): 0xf3012002},
		},
		{
			Name: "MacOS 8.1 serial drivers on startup",
			PC:   romBase + 0x48c5e0,
			Regs: map[cpu.Reg]uint32{cpu.GPR(20): 0xf3012000},
		},
		{
			Name: "MacOS 8.1 serial drivers on startup (alternate ROM)",
			PC:   romBase + 0x4a10a0,
			Regs: map[cpu.Reg]uint32{cpu.GPR(20): 0xf3012002},
		},
		{
			Name: "MacOS 8.1 serial drivers on startup (alternate ROM)",
			PC:   romBase + 0x4a10a0,
			Regs: map[cpu.Reg]uint32{cpu.GPR(20): 0xf3012000},
		},
	}
}
