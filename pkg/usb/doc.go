// Package usb opens Thorlabs APT controllers as duplex byte streams.
//
// It handles enumeration by serial number, claiming the control interface,
// programming the on-board FTDI UART bridge (baud rate, framing, flow
// control), and stripping the FTDI modem-status bytes from inbound bulk
// transfers. The resulting Port is a plain io.ReadWriteCloser carrying the
// raw APT byte stream; framing and dispatch live in pkg/link.
package usb
