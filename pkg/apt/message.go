package apt

import "encoding/binary"

// Message represents a complete APT protocol message: the six-byte header and,
// for long messages, the payload that follows it. Messages are immutable once
// constructed; the frame decoder is the only producer of inbound messages.
type Message struct {
	Header  Header
	Payload []byte
}

// Short builds a header-only command addressed from the host to the device.
func Short(id Identity, param1, param2 uint8) *Message {
	return &Message{
		Header: Header{
			ID:     id,
			Param1: param1,
			Param2: param2,
			Dest:   AddrDevice,
			Source: AddrHost,
		},
	}
}

// Long builds a header-plus-payload command addressed from the host to the
// device. The payload length is written into the parameter bytes and the long
// flag is set on the destination byte.
func Long(id Identity, payload []byte) *Message {
	return &Message{
		Header: Header{
			ID:     id,
			Param1: uint8(len(payload)),
			Param2: uint8(len(payload) >> 8),
			Dest:   AddrDevice | longMessageFlag,
			Source: AddrHost,
		},
		Payload: payload,
	}
}

// ID returns the message identity.
func (m *Message) ID() Identity {
	return m.Header.ID
}

// Len returns the total wire length of the message in bytes.
func (m *Message) Len() int {
	return HeaderSize + len(m.Payload)
}

// Encode encodes the message to its wire representation.
func (m *Message) Encode() []byte {
	buf := make([]byte, m.Len())
	m.Header.Encode(buf)
	copy(buf[HeaderSize:], m.Payload)
	return buf
}

// Uint16 reads a little-endian uint16 from the payload at the given offset.
func (m *Message) Uint16(offset int) uint16 {
	return binary.LittleEndian.Uint16(m.Payload[offset:])
}

// Uint32 reads a little-endian uint32 from the payload at the given offset.
func (m *Message) Uint32(offset int) uint32 {
	return binary.LittleEndian.Uint32(m.Payload[offset:])
}

// Int32 reads a little-endian int32 from the payload at the given offset.
func (m *Message) Int32(offset int) int32 {
	return int32(binary.LittleEndian.Uint32(m.Payload[offset:]))
}
