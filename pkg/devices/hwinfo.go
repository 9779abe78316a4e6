package devices

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// hwInfoPayloadSize is the payload of a hardware info reply: the 90-byte
// message minus its header.
const hwInfoPayloadSize = 84

// Hardware types reported in the hardware info block.
const (
	HardwareTypeBrushlessDC  = 44
	HardwareTypeMultiChannel = 45
)

// HardwareInfo is the controller's self-description block.
type HardwareInfo struct {
	SerialNumber    uint32
	ModelNumber     string
	HardwareType    uint16
	FirmwareVersion string
	Notes           string
	HardwareVersion uint16
	ModState        uint16
	ChannelCount    uint16
}

// parseHardwareInfo decodes the 84-byte hardware info payload.
//
// Layout: serial number u32, model number char[8], hardware type u16,
// firmware version u32 (minor, interim, major, unused), notes char[48],
// 12 empty bytes, hardware version u16, mod state u16, channel count u16.
func parseHardwareInfo(payload []byte) (*HardwareInfo, error) {
	if len(payload) != hwInfoPayloadSize {
		return nil, fmt.Errorf("hardware info payload is %d bytes, want %d", len(payload), hwInfoPayloadSize)
	}

	fwMinor := payload[14]
	fwInterim := payload[15]
	fwMajor := payload[16]

	return &HardwareInfo{
		SerialNumber:    binary.LittleEndian.Uint32(payload[0:]),
		ModelNumber:     cString(payload[4:12]),
		HardwareType:    binary.LittleEndian.Uint16(payload[12:]),
		FirmwareVersion: fmt.Sprintf("%d.%d.%d", fwMajor, fwInterim, fwMinor),
		Notes:           cString(payload[18:66]),
		HardwareVersion: binary.LittleEndian.Uint16(payload[78:]),
		ModState:        binary.LittleEndian.Uint16(payload[80:]),
		ChannelCount:    binary.LittleEndian.Uint16(payload[82:]),
	}, nil
}

// cString trims a fixed-width NUL-padded field.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimRight(b, " "))
}
