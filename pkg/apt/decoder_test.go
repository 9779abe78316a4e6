package apt

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

// chunkReader returns at most n bytes per Read call, to exercise decoding
// across arbitrary transport fragmentation.
type chunkReader struct {
	data []byte
	n    int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	n := c.n
	if n > len(c.data) {
		n = len(c.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func TestDecoderRoundTrip(t *testing.T) {
	msgs := []*Message{
		Short(MsgMotMoveHome, 1, 0),
		Long(MsgMotMoveAbsolute, []byte{0x01, 0x00, 0x40, 0xE2, 0x01, 0x00}),
		Short(MsgMotMoveHomed, 1, 0),
		Short(MsgModIdentify, 0, 0),
	}

	var stream bytes.Buffer
	for _, m := range msgs {
		stream.Write(m.Encode())
	}

	// Every fragmentation of the same stream must decode to the same
	// message sequence.
	for _, chunk := range []int{1, 2, 3, 5, 7, 64, len(stream.Bytes())} {
		dec := NewDecoder(&chunkReader{data: stream.Bytes(), n: chunk})
		for i, want := range msgs {
			got, err := dec.Next()
			if err != nil {
				t.Fatalf("chunk %d: Next() #%d error = %v", chunk, i, err)
			}
			if got.Header != want.Header {
				t.Errorf("chunk %d: Next() #%d header = %+v, want %+v", chunk, i, got.Header, want.Header)
			}
			if !bytes.Equal(got.Payload, want.Payload) {
				t.Errorf("chunk %d: Next() #%d payload = % X, want % X", chunk, i, got.Payload, want.Payload)
			}
		}
		if _, err := dec.Next(); err != io.EOF {
			t.Errorf("chunk %d: Next() after stream end error = %v, want io.EOF", chunk, err)
		}
	}
}

func TestDecoderOneBytePerRead(t *testing.T) {
	want := Long(MsgMotMoveAbsolute, []byte{0x01, 0x00, 0x00, 0x00, 0x10, 0x00})
	dec := NewDecoder(iotest.OneByteReader(bytes.NewReader(want.Encode())))

	got, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !bytes.Equal(got.Encode(), want.Encode()) {
		t.Errorf("Next() = % X, want % X", got.Encode(), want.Encode())
	}
}

func TestDecoderVariableLengthExact(t *testing.T) {
	payload := make([]byte, 128)
	for i := range payload {
		payload[i] = byte(i)
	}
	m := Long(MsgMotMoveAbsolute, payload)

	// Exactly header + declared length bytes must be consumed; a trailing
	// message must still frame correctly.
	var stream bytes.Buffer
	stream.Write(m.Encode())
	stream.Write(Short(MsgMotMoveHomed, 1, 0).Encode())

	dec := NewDecoder(&stream)
	got, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(got.Payload) != len(payload) {
		t.Fatalf("payload length = %d, want %d", len(got.Payload), len(payload))
	}
	next, err := dec.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if next.ID() != MsgMotMoveHomed {
		t.Errorf("trailing message identity = %s, want %s", next.ID(), MsgMotMoveHomed)
	}
}

func TestDecoderTruncated(t *testing.T) {
	full := Long(MsgMotMoveAbsolute, []byte{0x01, 0x00, 0x40, 0xE2, 0x01, 0x00}).Encode()

	tests := []struct {
		name string
		data []byte
	}{
		{"mid header", full[:3]},
		{"one byte short of payload", full[:len(full)-1]},
		{"header only of long message", full[:HeaderSize]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(bytes.NewReader(tt.data))
			_, err := dec.Next()
			if !errors.Is(err, ErrTruncatedFrame) {
				t.Errorf("Next() error = %v, want ErrTruncatedFrame", err)
			}
		})
	}
}

func TestDecoderUnknownIdentity(t *testing.T) {
	stream := []byte{0xEE, 0xFF, 0x00, 0x00, 0x50, 0x01}

	dec := NewDecoder(bytes.NewReader(stream))
	_, err := dec.Next()

	var unknown *UnknownIdentityError
	if !errors.As(err, &unknown) {
		t.Fatalf("Next() error = %v, want *UnknownIdentityError", err)
	}
	if unknown.ID != 0xFFEE {
		t.Errorf("unknown identity = %s, want 0xFFEE", unknown.ID)
	}
}

func TestDecoderCleanEOF(t *testing.T) {
	dec := NewDecoder(bytes.NewReader(nil))
	if _, err := dec.Next(); err != io.EOF {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}
