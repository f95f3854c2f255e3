package nativeops

import "github.com/mtennes/macemu/opcode"

// Table returns the parallel table of pre-assembled EXEC_NATIVE opcode
// words, one per selector, that the surrounding emulator patches into ROM
// trap vectors and Resource Manager entry points so guest code can invoke
// these host services directly.
//
// The five Resource Manager thunks return via LR, since patching a
// routine's first instruction replaces the routine entirely: guest callers
// still expect a normal call/return. Every other selector traps from a
// vector stub that falls through to PC+4.
func Table() []uint32 {
	t := make([]uint32, numSelectors)
	for sel := 0; sel < numSelectors; sel++ {
		_, viaLR := resourceSlot(sel)
		t[sel] = opcode.EncodeExecNative(sel, viaLR)
	}
	return t
}
