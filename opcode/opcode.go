// Package opcode implements the synthetic PowerPC instruction the glue
// layer overlays on primary opcode 6, an escape hatch guest code uses to
// trap back into the host emulator.
package opcode

// Primary is the PowerPC primary opcode field this project claims for its
// pseudo-op extension. It is unused by the real ISA.
const Primary uint32 = 6

// Sub-function values packed into the low six bits of a synthetic
// instruction word.
const (
	EmulReturn = 0
	ExecReturn = 1
	ExecNative = 2
	// Sub-function values 3 and above are EMUL_OP traps; the 68k-op table
	// index is (sub - EmulOpBase).
	EmulOpBase = 3
)

const (
	subFuncMask = 0x3f
	primaryMask = 0x3f
	primaryPos  = 26

	// EXEC_NATIVE field layout: selector occupies bits 21..25, bit 20 is
	// the "return via LR" flag.
	selectorMask = 0x1f
	selectorPos  = 21
	viaLRBit     = 1 << 20
)

// Kind tags the decoded sub-function of a synthetic instruction, letting
// dispatch switch over an exhaustive sum type instead of raw integers.
type Kind int

const (
	KindEmulReturn Kind = iota
	KindExecReturn
	KindExecNative
	KindEmulOp
)

// Op is a decoded synthetic instruction.
type Op struct {
	Kind Kind

	// Selector and ViaLR are populated for KindExecNative.
	Selector int
	ViaLR    bool

	// Index is populated for KindEmulOp: the 68k-interpreter-extension
	// table index, i.e. (sub-function - EmulOpBase).
	Index int
}

// encode builds a raw synthetic instruction word: primary opcode 6 in bits
// 31..26, sub-function in the low six bits, with selector/via-LR bits (used
// only by EXEC_NATIVE) folded in separately.
func encode(sub uint32) uint32 {
	return Primary<<primaryPos | (sub & subFuncMask)
}

// EncodeEmulReturn returns the EMUL_RETURN instruction word.
func EncodeEmulReturn() uint32 { return encode(EmulReturn) }

// EncodeExecReturn returns the EXEC_RETURN instruction word.
func EncodeExecReturn() uint32 { return encode(ExecReturn) }

// EncodeExecNative returns an EXEC_NATIVE instruction word selecting the
// given native-op table entry. When viaLR is true, the handler returns
// through LR instead of falling through to PC+4.
func EncodeExecNative(selector int, viaLR bool) uint32 {
	word := encode(ExecNative) | uint32(selector&selectorMask)<<selectorPos
	if viaLR {
		word |= viaLRBit
	}
	return word
}

// EncodeEmulOp returns an EMUL_OP instruction word for 68k-interpreter
// extension table index idx.
func EncodeEmulOp(idx int) uint32 {
	return encode(uint32(EmulOpBase + idx))
}

// IsSynthetic reports whether word carries this project's primary opcode.
func IsSynthetic(word uint32) bool {
	return (word >> primaryPos) == Primary
}

// Decode classifies a raw instruction word already known to carry primary
// opcode 6. Behavior is undefined if IsSynthetic(word) is false.
func Decode(word uint32) Op {
	sub := word & subFuncMask
	switch sub {
	case EmulReturn:
		return Op{Kind: KindEmulReturn}
	case ExecReturn:
		return Op{Kind: KindExecReturn}
	case ExecNative:
		return Op{
			Kind:     KindExecNative,
			Selector: int((word >> selectorPos) & selectorMask),
			ViaLR:    word&viaLRBit != 0,
		}
	default:
		return Op{Kind: KindEmulOp, Index: int(sub) - EmulOpBase}
	}
}
