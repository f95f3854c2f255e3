// Package devices declares the minimal interfaces the native-op dispatcher
// needs from the surrounding emulator's device models. Their
// implementations (real video/ethernet/serial drivers) are external
// collaborators; this layer only names the calls it makes into them.
package devices

// Video is the subset of the video driver the native-op table can invoke:
// accelerated-mode installation, vertical-blank notification, and the
// generic 5-argument driver entry point.
type Video interface {
	InstallAccel()
	VBL()
	// DriverIO runs the video driver's control/status entry with five
	// register arguments, returning a value sign-extended into GPR3.
	DriverIO(args [5]uint32) int16
}

// Ether is the subset of the Ethernet driver reachable through NATIVE_OPs.
// Each method receives its call's raw GPR argument window and returns the
// value to place in GPR3; hosts without an Ethernet device (or on
// little-endian hosts, per the specification's default) may implement
// these as no-ops returning 0.
type Ether interface {
	Open(args []uint32) uint32
	Close(args []uint32) uint32
	WPut(args []uint32) uint32
	RSrv(args []uint32) uint32
}

// Serial is the subset of the serial driver reachable through NATIVE_OPs.
type Serial interface {
	Open(args []uint32) uint32
	PrimeIn(args []uint32) uint32
	PrimeOut(args []uint32) uint32
	Control(args []uint32) uint32
	Status(args []uint32) uint32
	Close(args []uint32) uint32
	Nothing(args []uint32) uint32
}

// ResourceManager is the post-call hook the Resource Manager thunk invokes
// after running the original entry point: it may rewrite the returned
// handle's contents if it was a purgeable CODE resource.
type ResourceManager interface {
	CheckLoad(resType uint32, resID int16, handle uint32)
}
