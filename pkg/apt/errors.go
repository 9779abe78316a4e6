package apt

import (
	"errors"
	"fmt"
)

var (
	// ErrShortHeader indicates a header buffer smaller than HeaderSize.
	ErrShortHeader = errors.New("buffer too short for message header")

	// ErrTruncatedFrame indicates the stream ended partway through a message.
	// This is a transport-level disconnect, not a protocol violation.
	ErrTruncatedFrame = errors.New("stream ended mid-frame")
)

// UnknownIdentityError is returned when the decoder reads a header whose
// identity is absent from the protocol table. Framing cannot continue past an
// unknown identity because the message length is unknowable.
type UnknownIdentityError struct {
	ID Identity
}

func (e *UnknownIdentityError) Error() string {
	return fmt.Sprintf("unknown message identity %s", e.ID)
}
