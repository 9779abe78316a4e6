package usb

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/gousb"
)

// Thorlabs APT controllers enumerate as FTDI serial bridges.
const (
	vendorFTDI = gousb.ID(0x0403)

	endpointIn  = 1
	endpointOut = 2
)

// Errors returned by Open.
var (
	ErrNotFound = fmt.Errorf("usb: no device with matching serial number")
	ErrMultiple = fmt.Errorf("usb: serial number matches more than one device")
)

// Port is an open APT controller presented as a duplex byte stream. Reads
// return protocol bytes with the FTDI modem-status prefix already stripped.
// Port is safe for one concurrent reader and one concurrent writer.
type Port struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	intf *gousb.Interface
	cfg  *gousb.Config
	in   *gousb.InEndpoint
	out  *gousb.OutEndpoint

	maxPacket int

	// pending holds stripped bytes from the last bulk transfer that the
	// caller has not consumed yet.
	pending []byte
	raw     []byte

	closeOnce sync.Once
	closeErr  error
}

var _ io.ReadWriteCloser = (*Port)(nil)

// Serials lists the serial numbers of all connected FTDI-bridged controllers.
func Serials() ([]string, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorFTDI
	})
	for _, dev := range devs {
		defer dev.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("usb: enumerating devices: %w", err)
	}

	serials := make([]string, 0, len(devs))
	for _, dev := range devs {
		sn, err := dev.SerialNumber()
		if err != nil {
			continue
		}
		serials = append(serials, sn)
	}
	return serials, nil
}

// Open claims the controller with the given serial number and programs its
// serial bridge, returning a ready byte stream. Exactly one connected device
// must carry the serial number.
func Open(serial string) (*Port, error) {
	ctx := gousb.NewContext()

	port, err := open(ctx, serial)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	return port, nil
}

func open(ctx *gousb.Context, serial string) (*Port, error) {
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorFTDI
	})
	if err != nil {
		for _, dev := range devs {
			dev.Close()
		}
		return nil, fmt.Errorf("usb: enumerating devices: %w", err)
	}

	var match *gousb.Device
	for _, dev := range devs {
		sn, snErr := dev.SerialNumber()
		if snErr == nil && sn == serial && match == nil {
			match = dev
			continue
		}
		if snErr == nil && sn == serial && match != nil {
			match.Close()
			dev.Close()
			return nil, fmt.Errorf("%w: %q", ErrMultiple, serial)
		}
		dev.Close()
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, serial)
	}

	if err := match.SetAutoDetach(true); err != nil {
		match.Close()
		return nil, fmt.Errorf("usb: detaching kernel driver: %w", err)
	}

	cfg, err := match.Config(1)
	if err != nil {
		match.Close()
		return nil, fmt.Errorf("usb: claiming configuration: %w", err)
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		match.Close()
		return nil, fmt.Errorf("usb: claiming interface: %w", err)
	}

	in, err := intf.InEndpoint(endpointIn)
	if err != nil {
		intf.Close()
		cfg.Close()
		match.Close()
		return nil, fmt.Errorf("usb: opening IN endpoint: %w", err)
	}
	out, err := intf.OutEndpoint(endpointOut)
	if err != nil {
		intf.Close()
		cfg.Close()
		match.Close()
		return nil, fmt.Errorf("usb: opening OUT endpoint: %w", err)
	}

	if err := initSerialPort(match); err != nil {
		intf.Close()
		cfg.Close()
		match.Close()
		return nil, err
	}

	maxPkt := in.Desc.MaxPacketSize
	return &Port{
		ctx:       ctx,
		dev:       match,
		intf:      intf,
		cfg:       cfg,
		in:        in,
		out:       out,
		maxPacket: maxPkt,
		raw:       make([]byte, maxPkt*16),
	}, nil
}

// Read fills p with protocol bytes, blocking until at least one byte of
// payload arrives. Transfers holding only modem-status bytes are skipped.
func (p *Port) Read(b []byte) (int, error) {
	for len(p.pending) == 0 {
		n, err := p.in.Read(p.raw)
		if n > 0 {
			p.pending = stripModemStatus(p.raw[:n], p.maxPacket)
		}
		if err != nil && len(p.pending) == 0 {
			return 0, err
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Write sends b to the controller's OUT endpoint.
func (p *Port) Write(b []byte) (int, error) {
	return p.out.Write(b)
}

// Close releases the interface and USB context. Safe to call more than once.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		p.intf.Close()
		if err := p.cfg.Close(); err != nil {
			p.closeErr = err
		}
		if err := p.dev.Close(); err != nil && p.closeErr == nil {
			p.closeErr = err
		}
		if p.ctx != nil {
			if err := p.ctx.Close(); err != nil && p.closeErr == nil {
				p.closeErr = err
			}
		}
	})
	return p.closeErr
}
