// Package guestmem describes the byte-addressable, big-endian guest memory
// the emulator's surrounding code provides. The real implementation lives
// outside this project (ROM/RAM backing store, video RAM aliasing, and so
// on); this package only pins down the accessor names the glue layer calls.
package guestmem

// Memory is the endian-aware guest memory accessor surface consumed
// throughout the glue layer. Every value in guest memory is big-endian.
type Memory interface {
	ReadMacInt8(addr uint32) uint8
	ReadMacInt16(addr uint32) uint16
	ReadMacInt32(addr uint32) uint32

	WriteMacInt8(addr uint32, v uint8)
	WriteMacInt16(addr uint32, v uint16)
	WriteMacInt32(addr uint32, v uint32)
}
