package apt

import (
	"encoding/binary"
	"fmt"
)

// Protocol constants
const (
	// Header size in bytes. Every APT message begins with a six-byte header;
	// short messages are header-only, long messages append a payload.
	HeaderSize = 6

	// AddrHost is the bus address of the controlling host.
	AddrHost uint8 = 0x01

	// AddrDevice is the bus address of a generic APT device.
	AddrDevice uint8 = 0x50

	// longMessageFlag is set on the destination byte of messages that carry a
	// payload after the header.
	longMessageFlag uint8 = 0x80
)

// Identity is the two-byte code distinguishing APT message types. It is
// transmitted little-endian in the first two header bytes.
type Identity uint16

// String formats the identity the way the protocol documentation writes it.
func (id Identity) String() string {
	return fmt.Sprintf("0x%04X", uint16(id))
}

// Header represents the fixed six-byte APT message header.
//
// For short (header-only) messages Param1 and Param2 are command parameters.
// For long messages the same two bytes carry the payload length as a
// little-endian uint16 and the destination byte has its top bit set.
type Header struct {
	ID     Identity // Message identity
	Param1 uint8    // First parameter byte, or payload length low byte
	Param2 uint8    // Second parameter byte, or payload length high byte
	Dest   uint8    // Destination address
	Source uint8    // Source address
}

// Encode encodes the header into buf, which must be at least HeaderSize bytes.
func (h *Header) Encode(buf []byte) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(h.ID))
	buf[2] = h.Param1
	buf[3] = h.Param2
	buf[4] = h.Dest
	buf[5] = h.Source
}

// Decode decodes the header from buf.
func (h *Header) Decode(buf []byte) error {
	if len(buf) < HeaderSize {
		return ErrShortHeader
	}

	h.ID = Identity(binary.LittleEndian.Uint16(buf[0:2]))
	h.Param1 = buf[2]
	h.Param2 = buf[3]
	h.Dest = buf[4]
	h.Source = buf[5]

	return nil
}

// Long reports whether the destination byte marks this as a long message.
func (h *Header) Long() bool {
	return h.Dest&longMessageFlag != 0
}

// DeclaredLength returns the payload length carried in the parameter bytes of
// a long message header.
func (h *Header) DeclaredLength() int {
	return int(uint16(h.Param1) | uint16(h.Param2)<<8)
}
