// Package asm assembles PowerPC and 68k instruction bytes for test
// fixtures, using the keystone-engine bindings rather than hand-encoding
// opcodes.
package asm

import (
	ks "github.com/keystone-engine/keystone/bindings/go/keystone"
	"github.com/pkg/errors"
)

// Keystone wraps a lazily-opened keystone assembler for a fixed
// architecture and mode.
type Keystone struct {
	Arch ks.Architecture
	Mode ks.Mode
	ks   *ks.Keystone
}

// PPC32BE returns a Keystone assembler configured for big-endian 32-bit
// PowerPC, the architecture the nanokernel and 68k emulator run on.
func PPC32BE() *Keystone {
	return &Keystone{Arch: ks.ARCH_PPC, Mode: ks.MODE_PPC32 | ks.MODE_BIG_ENDIAN}
}

// M68K returns a Keystone assembler configured for 68k, used to build
// EMUL_OP trampoline fixtures.
func M68K() *Keystone {
	return &Keystone{Arch: ks.ARCH_M68K, Mode: ks.MODE_BIG_ENDIAN}
}

func (k *Keystone) Open() (err error) {
	k.ks, err = ks.New(k.Arch, k.Mode)
	return errors.Wrap(err, "ks.New() failed")
}

func (k *Keystone) Asm(asm string, addr uint64) ([]byte, error) {
	if k.ks == nil {
		if err := k.Open(); err != nil {
			return nil, err
		}
	}
	out, _, ok := k.ks.Assemble(asm, addr)
	if !ok {
		return nil, errors.Wrap(k.ks.LastError(), "ks.Assemble() failed")
	}
	return out, nil
}
