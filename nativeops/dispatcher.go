package nativeops

import (
	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/devices"
	"github.com/mtennes/macemu/engine"
)

// Dispatcher holds the host-side collaborators the native-op table
// switches into. Any collaborator left nil degrades its selectors to a
// no-op returning zero, so a host wiring only the pieces it needs (e.g. no
// Ethernet device) doesn't have to stub the rest.
type Dispatcher struct {
	Lifecycle *engine.Lifecycle

	Video     devices.Video
	Ether     devices.Ether
	Serial    devices.Serial
	Resources devices.ResourceManager

	PatchNameRegistry func()
	MakeExecutableFn  func(addr, length uint32)

	// OriginalEntries holds the five low-memory addresses the surrounding
	// emulator stashed each patched Resource Manager routine's original
	// entry point into, indexed by GetResource=0 .. RGetResource=4.
	OriginalEntries [5]uint32
}

func regRead32(e *engine.Engine, r cpu.Reg) (uint32, error) {
	v, err := e.CPU.RegRead(r)
	return uint32(v), err
}

func regWrite32(e *engine.Engine, r cpu.Reg, v uint32) error {
	return e.CPU.RegWrite(r, uint64(v))
}

// Dispatch runs the native-op table entry for selector on e, the engine
// that trapped into EXEC_NATIVE. An unknown selector is a fatal programmer
// error per the error-handling design: it is reported to the lifecycle's
// quit hook rather than returned, since the caller (the pseudo-op decode
// hook) has no meaningful recovery path either way.
func (d *Dispatcher) Dispatch(e *engine.Engine, selector int) error {
	switch selector {
	case PatchNameRegistry:
		if d.PatchNameRegistry != nil {
			d.PatchNameRegistry()
		}
		return nil

	case VideoInstallAccel:
		if d.Video != nil {
			d.Video.InstallAccel()
		}
		return nil

	case VideoVBL:
		if d.Video != nil {
			d.Video.VBL()
		}
		return nil

	case DisableInterrupt:
		d.Lifecycle.DisableInterrupt()
		return nil

	case EnableInterrupt:
		return d.Lifecycle.EnableInterrupt()

	case MakeExecutable:
		return d.makeExecutable(e)

	case VideoDriverIO:
		return d.videoDriverIO(e)

	case EtherOpen, EtherClose, EtherWPut, EtherRSrv:
		return d.etherCall(e, selector)

	case SerialOpen, SerialPrimeIn, SerialPrimeOut, SerialControl, SerialStatus, SerialClose, SerialNothing:
		return d.serialCall(e, selector)

	case GetResource, Get1Resource, GetIndResource, Get1IndResource, RGetResource:
		slot, _ := resourceSlot(selector)
		return d.resourceThunk(e, slot)

	default:
		d.Lifecycle.Fatal("nativeops: unknown selector")
		return nil
	}
}

func (d *Dispatcher) makeExecutable(e *engine.Engine) error {
	addr, err := regRead32(e, cpu.GPR(3))
	if err != nil {
		return err
	}
	length, err := regRead32(e, cpu.GPR(4))
	if err != nil {
		return err
	}
	if d.MakeExecutableFn != nil {
		d.MakeExecutableFn(addr, length)
	}
	return nil
}

// argWindow reads the five-register argument window GPR3..GPR7 that every
// call-with-GPR-args selector shares.
func argWindow(e *engine.Engine) ([]uint32, error) {
	args := make([]uint32, 5)
	for i := range args {
		v, err := regRead32(e, cpu.GPR(3+i))
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (d *Dispatcher) videoDriverIO(e *engine.Engine) error {
	args, err := argWindow(e)
	if err != nil {
		return err
	}
	var result int16
	if d.Video != nil {
		var a [5]uint32
		copy(a[:], args)
		result = d.Video.DriverIO(a)
	}
	return regWrite32(e, cpu.GPR(3), uint32(int32(result)))
}

func (d *Dispatcher) etherCall(e *engine.Engine, selector int) error {
	args, err := argWindow(e)
	if err != nil {
		return err
	}
	var result uint32
	if d.Ether != nil {
		switch selector {
		case EtherOpen:
			result = d.Ether.Open(args)
		case EtherClose:
			result = d.Ether.Close(args)
		case EtherWPut:
			result = d.Ether.WPut(args)
		case EtherRSrv:
			result = d.Ether.RSrv(args)
		}
	}
	// With no Ether device configured, or on a little-endian host per the
	// specification's default, this silently returns 0 rather than
	// faulting: absence of an Ethernet device is an expected deployment.
	return regWrite32(e, cpu.GPR(3), result)
}

func (d *Dispatcher) serialCall(e *engine.Engine, selector int) error {
	args, err := argWindow(e)
	if err != nil {
		return err
	}
	var result uint32
	if d.Serial != nil {
		switch selector {
		case SerialOpen:
			result = d.Serial.Open(args)
		case SerialPrimeIn:
			result = d.Serial.PrimeIn(args)
		case SerialPrimeOut:
			result = d.Serial.PrimeOut(args)
		case SerialControl:
			result = d.Serial.Control(args)
		case SerialStatus:
			result = d.Serial.Status(args)
		case SerialClose:
			result = d.Serial.Close(args)
		case SerialNothing:
			result = d.Serial.Nothing(args)
		}
	}
	return regWrite32(e, cpu.GPR(3), result)
}
