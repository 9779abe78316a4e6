package link

import "errors"

var (
	// ErrTimeout indicates no matching response arrived within the deadline.
	// The device may still act on the command; retrying is the caller's call.
	ErrTimeout = errors.New("timed out awaiting response")

	// ErrClosed indicates the connection has been closed locally.
	ErrClosed = errors.New("connection closed")

	// ErrDisconnected indicates the transport ended the stream.
	ErrDisconnected = errors.New("transport disconnected")

	// ErrNoChannel indicates a subscription was requested for an identity the
	// protocol table assigns no response channel.
	ErrNoChannel = errors.New("identity has no response channel")
)
