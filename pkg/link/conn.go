package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/optomotion/aptlink/pkg/apt"
)

// Conn drives one APT connection over an already-open duplex byte channel.
// A background goroutine decodes incoming frames and publishes them to the
// connection's Registry; callers issue commands with Send and correlated
// request/response exchanges with Request, from as many goroutines as they
// like.
type Conn struct {
	transport io.ReadWriteCloser
	reg       *Registry
	log       zerolog.Logger
	opts      options

	// wmu serializes writes to the single physical OUT path.
	wmu sync.Mutex

	done     chan struct{}
	failOnce sync.Once
	errMu    sync.Mutex
	err      error

	closeOnce sync.Once
}

// NewConn starts a connection over the given transport. The transport must
// preserve byte order and deliver a single continuous stream; the USB adapter
// in pkg/usb satisfies this.
func NewConn(transport io.ReadWriteCloser, opts ...Option) *Conn {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Conn{
		transport: transport,
		reg:       NewRegistry(o.buffer),
		log:       o.logger,
		opts:      o,
		done:      make(chan struct{}),
	}

	go c.readLoop()
	return c
}

// readLoop is the single USB read path: it decodes frames and dispatches them
// until the transport ends or framing fails. Dispatch is fire-and-forget; a
// slow subscriber can never stall the framing of the next message.
func (c *Conn) readLoop() {
	dec := apt.NewDecoder(c.transport)
	for {
		m, err := dec.Next()
		if err != nil {
			c.fail(err)
			return
		}

		c.log.Trace().
			Stringer("id", m.ID()).
			Int("len", m.Len()).
			Msg("received")

		if !c.reg.Publish(m) {
			if c.opts.onUnmatched != nil {
				c.opts.onUnmatched(m)
			} else {
				c.log.Trace().Stringer("id", m.ID()).Msg("dropped unmatched message")
			}
		}
	}
}

// fail records the connection error and releases every waiter. Framing past
// a decode error cannot be trusted, so the whole connection comes down.
func (c *Conn) fail(err error) {
	c.failOnce.Do(func() {
		if errors.Is(err, io.EOF) {
			err = ErrDisconnected
		}

		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()

		c.log.Debug().Err(err).Msg("connection failed")
		c.reg.Shutdown(err)
		close(c.done)
	})
}

// Err returns the error that terminated the connection, or nil while it is
// still running.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Done returns a channel closed when the connection has terminated.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Send writes a command to the outbound transport. Safe for concurrent use;
// writes are serialized so concurrent commands never interleave on the wire.
func (c *Conn) Send(m *apt.Message) error {
	select {
	case <-c.done:
		return fmt.Errorf("sending %s: %w", m.ID(), c.Err())
	default:
	}

	c.log.Trace().
		Stringer("id", m.ID()).
		Int("len", m.Len()).
		Msg("sending")

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.transport.Write(m.Encode()); err != nil {
		return fmt.Errorf("sending %s: %w", m.ID(), err)
	}
	return nil
}

// Subscribe returns a receive handle for every future message of the given
// identity. Callers streaming unsolicited notifications (status updates)
// subscribe directly; request/response callers should use Request instead.
func (c *Conn) Subscribe(id apt.Identity) (*Subscription, error) {
	sub, err := c.reg.Subscribe(id)
	if err != nil {
		return nil, err
	}

	if slot, ok := apt.ChannelSlot(id); ok {
		c.log.Trace().
			Stringer("id", id).
			Str("channel", apt.ChannelName(slot)).
			Msg("subscribed")
	}
	return sub, nil
}

// Request sends cmd and awaits the first message with the expected identity.
// The subscription is registered before the command is written, so the
// response cannot slip past in the gap.
//
// A non-positive timeout falls back to the connection's default. Exactly one
// outcome is observed: the response, ErrTimeout, the context's error, or the
// connection's terminal error, whichever wins the race. This layer never
// retries; only the caller knows whether re-sending a motion command is safe.
func (c *Conn) Request(ctx context.Context, cmd *apt.Message, expect apt.Identity, timeout time.Duration) (*apt.Message, error) {
	sub, err := c.reg.Subscribe(expect)
	if err != nil {
		return nil, err
	}
	defer sub.Close()

	if err := c.Send(cmd); err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = c.opts.requestTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case m, ok := <-sub.C():
		if !ok {
			return nil, fmt.Errorf("awaiting %s: %w", expect, c.Err())
		}
		return m, nil
	case <-timer.C:
		return nil, fmt.Errorf("awaiting %s after %v: %w", expect, timeout, ErrTimeout)
	case <-ctx.Done():
		return nil, fmt.Errorf("awaiting %s: %w", expect, ctx.Err())
	}
}

// Close shuts the connection down. The transport is closed, which unwinds
// the read loop and fails any remaining waiters with ErrClosed.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.fail(ErrClosed)
		err = c.transport.Close()
	})
	return err
}
