// Package frame owns message framing on the editor byte stream.
//
// Every message is written as a 4-byte big-endian length prefix followed by
// the serialized payload. The peer stream carries whole messages only; the
// prefix is what keeps rapid or interleaved writes from corrupting message
// boundaries.
package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

const prefixLen = 4

var (
	ErrShortPrefix     = errors.New("frame: short length prefix")
	ErrEmptyPayload    = errors.New("frame: empty payload")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
)

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 4 * 1024 * 1024,
	}
}

// ReadFrame reads one length-prefixed payload from r.
func ReadFrame(r io.Reader, limits Limits) ([]byte, error) {
	var prefix [prefixLen]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortPrefix
		}
		return nil, err
	}

	payloadLen := binary.BigEndian.Uint32(prefix[:])
	if payloadLen == 0 {
		return nil, ErrEmptyPayload
	}
	if payloadLen > limits.MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes payload to w with its length prefix. The prefix and
// payload go out in a single Write so concurrent writers on the same stream
// never interleave partial frames.
func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if uint64(len(payload)) > uint64(limits.MaxPayloadBytes) {
		return ErrPayloadTooLarge
	}

	buf := make([]byte, prefixLen+len(payload))
	binary.BigEndian.PutUint32(buf[:prefixLen], uint32(len(payload)))
	copy(buf[prefixLen:], payload)
	_, err := w.Write(buf)
	return err
}
