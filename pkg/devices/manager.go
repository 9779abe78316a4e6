package devices

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/optomotion/aptlink/pkg/link"
	"github.com/optomotion/aptlink/pkg/usb"
)

// DialFunc opens a raw byte stream to the controller with the given serial
// number.
type DialFunc func(serial string) (io.ReadWriteCloser, error)

// Manager opens controllers on demand and hands out one shared Device per
// serial number. A controller is opened at most once; concurrent callers for
// the same serial get the same Device.
type Manager struct {
	dial     DialFunc
	log      zerolog.Logger
	linkOpts []link.Option

	mu      sync.Mutex
	devices map[string]*Device
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDialer replaces the USB dialer, mainly for tests.
func WithDialer(dial DialFunc) ManagerOption {
	return func(m *Manager) { m.dial = dial }
}

// WithLogger sets the logger for the manager and its devices.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// WithLinkOptions passes connection options through to every opened device.
func WithLinkOptions(opts ...link.Option) ManagerOption {
	return func(m *Manager) { m.linkOpts = opts }
}

// NewManager returns a Manager that opens controllers over USB.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		log:     zerolog.Nop(),
		devices: make(map[string]*Device),
		dial: func(serial string) (io.ReadWriteCloser, error) {
			return usb.Open(serial)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Device returns the controller with the given serial number, opening it on
// first use.
func (m *Manager) Device(serial string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if dev, ok := m.devices[serial]; ok {
		return dev, nil
	}

	transport, err := m.dial(serial)
	if err != nil {
		return nil, fmt.Errorf("opening device %q: %w", serial, err)
	}

	linkOpts := append([]link.Option{link.WithLogger(m.log)}, m.linkOpts...)
	conn := link.NewConn(transport, linkOpts...)
	dev := New(conn, serial, m.log)
	m.devices[serial] = dev

	m.log.Info().Str("serial", serial).Msg("device opened")
	return dev, nil
}

// KDC101 returns the K-Cube DC servo controller with the given serial number,
// opening it on first use.
func (m *Manager) KDC101(serial string) (*KDC101, error) {
	dev, err := m.Device(serial)
	if err != nil {
		return nil, err
	}
	return NewKDC101(dev)
}

// Close disconnects every open device. The manager can be reused afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for serial, dev := range m.devices {
		if err := dev.Disconnect(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.devices, serial)
	}
	return firstErr
}
