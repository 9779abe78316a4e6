package apt

import (
	"bytes"
	"testing"
)

func TestHeaderEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		header Header
		wire   []byte
	}{
		{
			name:   "short command",
			header: Header{ID: MsgMotMoveHome, Param1: 0x01, Param2: 0x00, Dest: AddrDevice, Source: AddrHost},
			wire:   []byte{0x43, 0x04, 0x01, 0x00, 0x50, 0x01},
		},
		{
			name:   "long command",
			header: Header{ID: MsgMotMoveAbsolute, Param1: 0x06, Param2: 0x00, Dest: AddrDevice | longMessageFlag, Source: AddrHost},
			wire:   []byte{0x53, 0x04, 0x06, 0x00, 0xD0, 0x01},
		},
		{
			name:   "device to host",
			header: Header{ID: MsgMotMoveHomed, Param1: 0x01, Param2: 0x00, Dest: AddrHost, Source: AddrDevice},
			wire:   []byte{0x44, 0x04, 0x01, 0x00, 0x01, 0x50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, HeaderSize)
			tt.header.Encode(buf)
			if !bytes.Equal(buf, tt.wire) {
				t.Errorf("Encode() = % X, want % X", buf, tt.wire)
			}

			var decoded Header
			if err := decoded.Decode(tt.wire); err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if decoded != tt.header {
				t.Errorf("Decode() = %+v, want %+v", decoded, tt.header)
			}
		})
	}
}

func TestHeaderDecodeShortBuffer(t *testing.T) {
	var h Header
	if err := h.Decode([]byte{0x43, 0x04, 0x01}); err != ErrShortHeader {
		t.Errorf("Decode() error = %v, want %v", err, ErrShortHeader)
	}
}

func TestHeaderLong(t *testing.T) {
	short := Header{ID: MsgMotMoveHome, Dest: AddrDevice}
	if short.Long() {
		t.Error("Long() = true for short message header")
	}

	long := Header{ID: MsgMotMoveAbsolute, Param1: 0x34, Param2: 0x12, Dest: AddrDevice | longMessageFlag}
	if !long.Long() {
		t.Error("Long() = false for long message header")
	}
	if got := long.DeclaredLength(); got != 0x1234 {
		t.Errorf("DeclaredLength() = %d, want %d", got, 0x1234)
	}
}
