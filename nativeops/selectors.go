// Package nativeops implements the native-op dispatcher: the switch a
// synthetic EXEC_NATIVE trap lands in, and the Resource Manager thunk that
// is one of its categories.
package nativeops

// Selector values are the 5-bit field EXEC_NATIVE carries in bits 21..25 of
// the synthetic opcode word. They are grouped by category exactly as the
// dispatcher switches on them; the numeric values only need to be stable
// and distinct, since the guest only ever sees them pre-encoded via Table.
const (
	// Simple host calls: no arguments read from registers beyond what the
	// call itself needs, no register-carried return value.
	PatchNameRegistry = iota
	VideoInstallAccel
	VideoVBL
	DisableInterrupt
	EnableInterrupt
	MakeExecutable

	// Call-with-GPR-args.
	VideoDriverIO

	EtherOpen
	EtherClose
	EtherWPut
	EtherRSrv

	SerialOpen
	SerialPrimeIn
	SerialPrimeOut
	SerialControl
	SerialStatus
	SerialClose
	SerialNothing

	// Resource-manager thunks, in the order the ROM's five patched entry
	// points are stashed.
	GetResource
	Get1Resource
	GetIndResource
	Get1IndResource
	RGetResource

	numSelectors
)

// resourceSelectors lists the five thunk selectors in the order their
// original-entry slots are indexed.
var resourceSelectors = [5]int{GetResource, Get1Resource, GetIndResource, Get1IndResource, RGetResource}

func resourceSlot(selector int) (int, bool) {
	for i, s := range resourceSelectors {
		if s == selector {
			return i, true
		}
	}
	return 0, false
}
