package devices

import (
	"encoding/binary"
	"fmt"
)

// statusPayloadSize is the payload of a DC status update: the 20-byte message
// minus its header.
const statusPayloadSize = 14

// Status bits reported by DC servo controllers.
const (
	StatusHardwareLimitCW  uint32 = 0x00000001
	StatusHardwareLimitCCW uint32 = 0x00000002
	StatusMovingForward    uint32 = 0x00000010
	StatusMovingReverse    uint32 = 0x00000020
	StatusJoggingForward   uint32 = 0x00000040
	StatusJoggingReverse   uint32 = 0x00000080
	StatusHoming           uint32 = 0x00000200
	StatusHomed            uint32 = 0x00000400
	StatusTracking         uint32 = 0x00001000
	StatusSettled          uint32 = 0x00002000
	StatusMotionError      uint32 = 0x00004000
	StatusCurrentLimit     uint32 = 0x01000000
	StatusChannelEnabled   uint32 = 0x80000000
)

// StatusUpdate is one DC status report from the controller.
type StatusUpdate struct {
	Channel    uint16
	Position   int32
	Velocity   uint16
	StatusBits uint32
}

// parseStatusUpdate decodes the 14-byte DC status payload: channel u16,
// position i32, velocity u16, reserved u16, status bits u32.
func parseStatusUpdate(payload []byte) (*StatusUpdate, error) {
	if len(payload) != statusPayloadSize {
		return nil, fmt.Errorf("status payload is %d bytes, want %d", len(payload), statusPayloadSize)
	}
	return &StatusUpdate{
		Channel:    binary.LittleEndian.Uint16(payload[0:]),
		Position:   int32(binary.LittleEndian.Uint32(payload[2:])),
		Velocity:   binary.LittleEndian.Uint16(payload[6:]),
		StatusBits: binary.LittleEndian.Uint32(payload[10:]),
	}, nil
}

// Homed reports whether the homing sequence has completed.
func (s *StatusUpdate) Homed() bool {
	return s.StatusBits&StatusHomed != 0
}

// Moving reports whether the stage is in motion, jogging included.
func (s *StatusUpdate) Moving() bool {
	const moving = StatusMovingForward | StatusMovingReverse | StatusJoggingForward | StatusJoggingReverse
	return s.StatusBits&moving != 0
}

// Settled reports whether the servo has settled at its target.
func (s *StatusUpdate) Settled() bool {
	return s.StatusBits&StatusSettled != 0
}

// Enabled reports whether drive to the motor is enabled.
func (s *StatusUpdate) Enabled() bool {
	return s.StatusBits&StatusChannelEnabled != 0
}
