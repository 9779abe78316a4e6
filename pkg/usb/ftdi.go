package usb

import (
	"fmt"
	"time"

	"github.com/google/gousb"
)

// FTDI vendor requests used to program the UART bridge on APT controllers.
const (
	ftdiReqReset       = 0x00
	ftdiReqModemCtrl   = 0x01
	ftdiReqSetFlowCtrl = 0x02
	ftdiReqSetBaudRate = 0x03
	ftdiReqSetData     = 0x04
)

// FTDI request values.
const (
	ftdiResetAll = 0x0000
	ftdiPurgeRX  = 0x0001
	ftdiPurgeTX  = 0x0002

	// Baud rate divisor for 115200 baud.
	ftdiBaud115200 = 0x001A

	// Eight data bits, one stop bit, no parity.
	ftdiData8N1 = 0x0008

	// RTS/CTS flow control, carried in the high byte of the value.
	ftdiFlowRTSCTS = 0x0200

	// Assert RTS.
	ftdiSetRTSHigh = 0x0202
)

// purgeDwell is the settle time around the RX/TX purge, per the APT
// communications protocol's recommended initialization sequence.
const purgeDwell = 50 * time.Millisecond

// initSerialPort programs the controller's FTDI bridge the way the APT
// protocol requires: 115200 baud, 8N1 framing, purged buffers, RTS/CTS flow
// control with RTS asserted.
func initSerialPort(dev *gousb.Device) error {
	steps := []struct {
		name    string
		request uint8
		value   uint16
	}{
		{"reset", ftdiReqReset, ftdiResetAll},
		{"set baud rate", ftdiReqSetBaudRate, ftdiBaud115200},
		{"set framing", ftdiReqSetData, ftdiData8N1},
		{"pre-purge dwell", 0, 0},
		{"purge rx", ftdiReqReset, ftdiPurgeRX},
		{"purge tx", ftdiReqReset, ftdiPurgeTX},
		{"post-purge dwell", 0, 0},
		{"set flow control", ftdiReqSetFlowCtrl, ftdiFlowRTSCTS},
		{"assert rts", ftdiReqModemCtrl, ftdiSetRTSHigh},
	}

	for _, step := range steps {
		if step.name == "pre-purge dwell" || step.name == "post-purge dwell" {
			time.Sleep(purgeDwell)
			continue
		}
		rType := uint8(gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice)
		if _, err := dev.Control(rType, step.request, step.value, 0, nil); err != nil {
			return fmt.Errorf("ftdi %s: %w", step.name, err)
		}
	}
	return nil
}

// stripModemStatus removes the two FTDI modem-status bytes that prefix each
// max-packet-sized chunk of an inbound bulk transfer, returning only protocol
// payload. raw must hold whole chunks except possibly the last.
func stripModemStatus(raw []byte, maxPacket int) []byte {
	if maxPacket <= 2 {
		return nil
	}
	out := make([]byte, 0, len(raw))
	for len(raw) > 0 {
		chunk := raw
		if len(chunk) > maxPacket {
			chunk = chunk[:maxPacket]
		}
		raw = raw[len(chunk):]
		if len(chunk) <= 2 {
			continue
		}
		out = append(out, chunk[2:]...)
	}
	return out
}
