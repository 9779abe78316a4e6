package link

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/optomotion/aptlink/pkg/apt"
)

// Defaults for connection options.
const (
	// DefaultRequestTimeout bounds a Request when the caller passes no
	// explicit timeout. Matches the protocol's short-command response window.
	DefaultRequestTimeout = 500 * time.Millisecond

	// DefaultSubscriberBuffer is the per-subscriber channel capacity. When a
	// subscriber falls this many messages behind, its oldest undelivered
	// message is dropped.
	DefaultSubscriberBuffer = 16
)

type options struct {
	logger         zerolog.Logger
	requestTimeout time.Duration
	buffer         int
	onUnmatched    func(*apt.Message)
}

// Option configures a Conn.
type Option func(*options)

// WithLogger attaches a logger to the connection. The default discards all
// output.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithSubscriberBuffer overrides DefaultSubscriberBuffer.
func WithSubscriberBuffer(n int) Option {
	return func(o *options) { o.buffer = n }
}

// WithUnmatchedHook installs a hook observing messages that arrive with no
// subscriber. Unmatched messages are expected traffic (unsolicited status
// notifications); the hook exists for diagnosing responses nobody awaits.
// The hook runs on the decode loop and must not block.
func WithUnmatchedHook(hook func(*apt.Message)) Option {
	return func(o *options) { o.onUnmatched = hook }
}

func defaultOptions() options {
	return options{
		logger:         zerolog.Nop(),
		requestTimeout: DefaultRequestTimeout,
		buffer:         DefaultSubscriberBuffer,
	}
}
