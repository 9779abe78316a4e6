package devices

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/optomotion/aptlink/pkg/apt"
	"github.com/optomotion/aptlink/pkg/link"
)

// Response deadlines. Commands the controller acknowledges immediately use
// the short timeout; motion commands wait for the mechanics to finish.
const (
	ShortTimeout = 500 * time.Millisecond
	LongTimeout  = time.Minute
)

// Channel enable states on the wire.
const (
	chanStateEnabled  = 0x01
	chanStateDisabled = 0x02
)

// Device is one APT motor controller on an open connection. All methods are
// safe for concurrent use; the underlying connection multiplexes them onto
// the single physical link.
type Device struct {
	conn   *link.Conn
	serial string
	log    zerolog.Logger
}

// New wraps an open connection to the controller with the given serial
// number.
func New(conn *link.Conn, serial string, log zerolog.Logger) *Device {
	return &Device{
		conn:   conn,
		serial: serial,
		log:    log.With().Str("serial", serial).Logger(),
	}
}

// Serial returns the controller's serial number.
func (d *Device) Serial() string {
	return d.serial
}

// Identify flashes the front-panel LED of the controller so an operator can
// pick it out of a rack. The controller sends no reply.
func (d *Device) Identify() error {
	return d.conn.Send(apt.Short(apt.MsgModIdentify, 0, 0))
}

// HardwareInfo queries the controller for its hardware description block.
func (d *Device) HardwareInfo(ctx context.Context) (*HardwareInfo, error) {
	reply, err := d.conn.Request(ctx, apt.Short(apt.MsgHwReqInfo, 0, 0), apt.MsgHwGetInfo, ShortTimeout)
	if err != nil {
		return nil, fmt.Errorf("hardware info: %w", err)
	}
	info, err := parseHardwareInfo(reply.Payload)
	if err != nil {
		return nil, fmt.Errorf("hardware info: %w", err)
	}
	return info, nil
}

// Home starts the homing sequence on the given channel and blocks until the
// controller reports it complete. Homing runs the stage to its limit switch,
// so the long timeout applies.
func (d *Device) Home(ctx context.Context, channel uint8) error {
	d.log.Debug().Uint8("channel", channel).Msg("homing")

	_, err := d.conn.Request(ctx, apt.Short(apt.MsgMotMoveHome, channel, 0), apt.MsgMotMoveHomed, LongTimeout)
	if err != nil {
		return fmt.Errorf("homing channel %d: %w", channel, err)
	}
	return nil
}

// MoveAbsolute commands a move to an absolute position in encoder counts and
// blocks until the controller reports the move complete.
func (d *Device) MoveAbsolute(ctx context.Context, channel uint16, position int32) error {
	d.log.Debug().
		Uint16("channel", channel).
		Int32("position", position).
		Msg("moving")

	payload := make([]byte, 6)
	binary.LittleEndian.PutUint16(payload[0:], channel)
	binary.LittleEndian.PutUint32(payload[2:], uint32(position))

	_, err := d.conn.Request(ctx, apt.Long(apt.MsgMotMoveAbsolute, payload), apt.MsgMotMoveCompleted, LongTimeout)
	if err != nil {
		return fmt.Errorf("moving channel %d to %d: %w", channel, position, err)
	}
	return nil
}

// Stop halts any motion on the channel. A profiled stop decelerates along the
// configured ramp; an immediate stop cuts drive at once.
func (d *Device) Stop(ctx context.Context, channel uint8, immediate bool) error {
	mode := uint8(0x02) // profiled
	if immediate {
		mode = 0x01
	}

	_, err := d.conn.Request(ctx, apt.Short(apt.MsgMotMoveStop, channel, mode), apt.MsgMotMoveStopped, LongTimeout)
	if err != nil {
		return fmt.Errorf("stopping channel %d: %w", channel, err)
	}
	return nil
}

// SetChannelEnabled enables or disables drive on the channel, then reads the
// state back to confirm the controller applied it.
func (d *Device) SetChannelEnabled(ctx context.Context, channel uint8, enabled bool) error {
	state := uint8(chanStateDisabled)
	if enabled {
		state = chanStateEnabled
	}

	if err := d.conn.Send(apt.Short(apt.MsgModSetChanEnableState, channel, state)); err != nil {
		return fmt.Errorf("setting channel %d enable state: %w", channel, err)
	}

	got, err := d.ChannelEnabled(ctx, channel)
	if err != nil {
		return fmt.Errorf("verifying channel %d enable state: %w", channel, err)
	}
	if got != enabled {
		return fmt.Errorf("channel %d enable state not applied: want %v, controller reports %v", channel, enabled, got)
	}
	return nil
}

// ChannelEnabled reports whether drive is enabled on the channel.
func (d *Device) ChannelEnabled(ctx context.Context, channel uint8) (bool, error) {
	reply, err := d.conn.Request(ctx, apt.Short(apt.MsgModReqChanEnableState, channel, 0), apt.MsgModGetChanEnableState, ShortTimeout)
	if err != nil {
		return false, fmt.Errorf("channel %d enable state: %w", channel, err)
	}
	return reply.Header.Param2 == chanStateEnabled, nil
}

// Status queries a single status snapshot for the channel.
func (d *Device) Status(ctx context.Context, channel uint8) (*StatusUpdate, error) {
	reply, err := d.conn.Request(ctx, apt.Short(apt.MsgMotReqDcStatusUpdate, channel, 0), apt.MsgMotGetDcStatusUpdate, ShortTimeout)
	if err != nil {
		return nil, fmt.Errorf("status for channel %d: %w", channel, err)
	}
	status, err := parseStatusUpdate(reply.Payload)
	if err != nil {
		return nil, fmt.Errorf("status for channel %d: %w", channel, err)
	}
	return status, nil
}

// StartStatusUpdates asks the controller to stream periodic status updates.
// Received updates are delivered to subscriptions from StatusUpdates.
func (d *Device) StartStatusUpdates() error {
	return d.conn.Send(apt.Short(apt.MsgHwStartUpdateMsgs, 0, 0))
}

// StopStatusUpdates stops the periodic status stream.
func (d *Device) StopStatusUpdates() error {
	return d.conn.Send(apt.Short(apt.MsgHwStopUpdateMsgs, 0, 0))
}

// StatusUpdates subscribes to the stream of unsolicited status updates. The
// caller must Close the subscription when done.
func (d *Device) StatusUpdates() (*link.Subscription, error) {
	return d.conn.Subscribe(apt.MsgMotGetDcStatusUpdate)
}

// SuspendEndOfMoveMessages stops the controller from reporting move
// completion, leaving only status updates. Request-style moves need these
// messages, so suspend only around raw streaming use.
func (d *Device) SuspendEndOfMoveMessages() error {
	return d.conn.Send(apt.Short(apt.MsgMotSuspendEndOfMoveMsgs, 0, 0))
}

// ResumeEndOfMoveMessages re-enables move completion reports.
func (d *Device) ResumeEndOfMoveMessages() error {
	return d.conn.Send(apt.Short(apt.MsgMotResumeEndOfMoveMsgs, 0, 0))
}

// Disconnect tells the controller the host is going away, then closes the
// connection.
func (d *Device) Disconnect() error {
	// Best effort; the controller may already be gone.
	_ = d.conn.Send(apt.Short(apt.MsgHwDisconnect, 0, 0))
	return d.conn.Close()
}

// Close closes the underlying connection without notifying the controller.
func (d *Device) Close() error {
	return d.conn.Close()
}
