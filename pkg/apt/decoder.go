package apt

import (
	"errors"
	"fmt"
	"io"
)

// Decoder frames an incoming byte stream into APT messages.
//
// Next blocks until a complete message has been read, so the decoder is
// agnostic to how the transport fragments the stream across reads. A decoder
// is not safe for concurrent use; drive it from a single read loop.
//
// After Next returns an error the decoder's framing position is invalid and
// it must not be reused. A fresh decoder can resume on the same transport only
// if the transport delivers message-aligned data, which USB bulk transfers do
// not guarantee; callers should instead tear down and reopen the connection.
type Decoder struct {
	r   io.Reader
	hdr [HeaderSize]byte
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Next reads and returns the next complete message from the stream.
//
// A clean end of stream on a message boundary returns io.EOF. A stream that
// ends partway through a message returns an error wrapping ErrTruncatedFrame.
// A header whose identity is not in the protocol table returns an
// *UnknownIdentityError.
func (d *Decoder) Next() (*Message, error) {
	if _, err := io.ReadFull(d.r, d.hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("reading header: %w", ErrTruncatedFrame)
		}
		return nil, err
	}

	var h Header
	if err := h.Decode(d.hdr[:]); err != nil {
		return nil, err
	}

	length, variable, ok := WireLength(h.ID)
	if !ok {
		return nil, &UnknownIdentityError{ID: h.ID}
	}

	var payload []byte
	switch {
	case variable:
		payload = make([]byte, h.DeclaredLength())
	case length > HeaderSize:
		payload = make([]byte, length-HeaderSize)
	}

	if len(payload) > 0 {
		if _, err := io.ReadFull(d.r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("reading %s payload: %w", h.ID, ErrTruncatedFrame)
			}
			return nil, fmt.Errorf("reading %s payload: %w", h.ID, err)
		}
	}

	return &Message{Header: h, Payload: payload}, nil
}
