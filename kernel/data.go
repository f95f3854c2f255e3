// Package kernel names the fixed guest-memory layout of the Mac OS ROM's
// kernel-data block: the pointers and low-memory slots the nanokernel and
// the in-ROM 68k emulator use to talk to each other, and that the interrupt
// injector and native-op dispatcher must read or write directly.
//
// Offsets not given a concrete value by the specification this project
// implements (the nanokernel opcode-table pointer, the 68k-emulator
// dispatch address, and the two fixed low-memory globals used outside the
// kernel-data block) are implementer choices; see DESIGN.md.
package kernel

import "github.com/mtennes/macemu/guestmem"

// Offsets into the kernel-data block. Fields marked "pointer" hold the
// address of another guest-memory location; the Data accessor methods read
// that pointer and return the address. Fields marked "value" are read or
// written directly.
const (
	// OffsetEmulatorData is a pointer to the 68k emulator's private data,
	// itself containing the pending-interrupt-level word at +0xdc.
	OffsetEmulatorData = 0x658 // pointer

	// OffsetInterruptSaveArea is a pointer to the per-interrupt GPR save
	// area the nanokernel entry frame writes into (see Data.SaveAreaGPRAddr).
	OffsetInterruptSaveArea = 0x65c // pointer

	// OffsetR7Seed holds the word interrupt() loads into GPR7 before
	// entering the nanokernel; the word itself is the seed and is not
	// dereferenced.
	OffsetR7Seed = 0x660 // value

	// OffsetInterruptMask is the 32-bit mask handle_interrupt ORs directly
	// into CR when preempting MODE_68K; a direct value, not a pointer.
	OffsetInterruptMask = 0x674 // value

	// OffsetInterruptLevel is a pointer to the 16-bit word set to 1 to
	// signal a pending interrupt to the in-guest 68k interpreter.
	OffsetInterruptLevel = 0x67c // pointer

	// OffsetSPSave and OffsetGPR6Save are direct value slots inside the
	// kernel-data block itself, not pointers.
	OffsetSPSave   = 0x004 // value: nanokernel entry SP
	OffsetGPR6Save = 0x018 // value: caller's GPR6 before interrupt()

	// OffsetOpcodeTable is added directly to the kernel-data base (not
	// dereferenced) to seed GPR31 on entry to execute_68k.
	OffsetOpcodeTable = 0x1000

	// OffsetNanokernelOpcodeTable and OffsetEmulatorDispatch are pointers
	// seeded into GPR29 and GPR30 on entry to execute_68k. Neither offset
	// is given a concrete value by the specification this project
	// implements; see DESIGN.md.
	OffsetNanokernelOpcodeTable = 0x664 // pointer
	OffsetEmulatorDispatch      = 0x668 // pointer
)

// Interrupt-save-area offsets, relative to the pointer at
// OffsetInterruptSaveArea. GPR7..GPR13 land eight bytes apart starting
// here (0x13c, 0x144, ..., 0x16c), matching the double-register slots the
// nanokernel entry frame reserves for each.
const saveAreaGPRBase = 0x13c

// EmulatorPendingLevelOffset is added to the pointer at OffsetEmulatorData
// to reach the pending-interrupt-level mask.
const EmulatorPendingLevelOffset = 0xdc

// Data wraps guest memory with the kernel-data base address, giving named
// accessors instead of scattering raw offsets through the injector and
// dispatcher code.
type Data struct {
	Mem  guestmem.Memory
	Base uint32
}

// deref reads the pointer stored at Base+offset.
func (d *Data) deref(offset uint32) uint32 {
	return d.Mem.ReadMacInt32(d.Base + offset)
}

// InterruptLevelAddr returns the address of the 16-bit interrupt-level word.
func (d *Data) InterruptLevelAddr() uint32 { return d.deref(OffsetInterruptLevel) }

// InterruptMaskAddr returns the address of the 32-bit CR-mask word, a
// direct slot inside the kernel-data block (not a pointer to dereference).
func (d *Data) InterruptMaskAddr() uint32 { return d.Base + OffsetInterruptMask }

// PendingLevelAddr returns the address of the MODE_NATIVE pending-level
// mask word, nested inside the emulator-data structure.
func (d *Data) PendingLevelAddr() uint32 {
	return d.deref(OffsetEmulatorData) + EmulatorPendingLevelOffset
}

// R7SeedAddr returns the word stored at OffsetR7Seed, which interrupt()
// loads into GPR7 as is (it is not used as an address to read through).
func (d *Data) R7SeedAddr() uint32 { return d.deref(OffsetR7Seed) }

// NanokernelOpcodeTableAddr returns the pointer seeded into GPR29 on entry
// to execute_68k.
func (d *Data) NanokernelOpcodeTableAddr() uint32 { return d.deref(OffsetNanokernelOpcodeTable) }

// EmulatorDispatchAddr returns the pointer seeded into GPR30 on entry to
// execute_68k.
func (d *Data) EmulatorDispatchAddr() uint32 { return d.deref(OffsetEmulatorDispatch) }

// SaveAreaGPRAddr returns the address of GPRn's slot (7 <= n <= 13) in the
// per-interrupt register save area.
func (d *Data) SaveAreaGPRAddr(n int) uint32 {
	base := d.deref(OffsetInterruptSaveArea)
	return base + saveAreaGPRBase + uint32(n-7)*8
}

// SaveSP writes the nanokernel entry stack pointer directly into the
// kernel-data block (not through a pointer).
func (d *Data) SaveSP(sp uint32) { d.Mem.WriteMacInt32(d.Base+OffsetSPSave, sp) }

// SaveGPR6 writes the caller's GPR6 directly into the kernel-data block.
func (d *Data) SaveGPR6(v uint32) { d.Mem.WriteMacInt32(d.Base+OffsetGPR6Save, v) }

// OpcodeTableAddr returns kernel-data-base + OffsetOpcodeTable, the value
// seeded into GPR31 on entry to execute_68k (the nanokernel opcode table
// seeded into GPR29 is NanokernelOpcodeTableAddr). This is a direct address
// computation, not a dereference.
func (d *Data) OpcodeTableAddr() uint32 { return d.Base + OffsetOpcodeTable }
