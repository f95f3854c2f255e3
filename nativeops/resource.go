package nativeops

import (
	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/engine"
)

// resourceThunk is get_resource_common: it runs the original (unpatched)
// Resource Manager routine and gives the host a chance to react to what it
// loaded, per slot (0=GetResource .. 4=RGetResource).
func (d *Dispatcher) resourceThunk(e *engine.Engine, slot int) error {
	resType, err := regRead32(e, cpu.GPR(3))
	if err != nil {
		return err
	}
	rawID, err := regRead32(e, cpu.GPR(4))
	if err != nil {
		return err
	}
	resID := int16(uint16(rawID))

	sp, err := regRead32(e, cpu.GPR(1))
	if err != nil {
		return err
	}
	if err := regWrite32(e, cpu.GPR(1), sp-56); err != nil {
		return err
	}

	originalEntry := e.Mem.ReadMacInt32(d.OriginalEntries[slot])
	if err := e.ExecutePPC(originalEntry); err != nil {
		return err
	}

	handle, err := regRead32(e, cpu.GPR(3))
	if err != nil {
		return err
	}
	if d.Resources != nil {
		d.Resources.CheckLoad(resType, resID, handle)
	}

	if err := regWrite32(e, cpu.GPR(3), handle); err != nil {
		return err
	}
	return regWrite32(e, cpu.GPR(1), sp)
}
