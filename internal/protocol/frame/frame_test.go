package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	limits := DefaultLimits()
	payloads := [][]byte{
		[]byte(`{"id":"a","command":"ping"}`),
		[]byte(`{"type":"state_update","data":{}}`),
	}
	for _, p := range payloads {
		if err := WriteFrame(&buf, p, limits); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
	for _, want := range payloads {
		got, err := ReadFrame(&buf, limits)
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("payload mismatch: got=%q want=%q", got, want)
		}
	}
}

func TestReadFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, bytes.Repeat([]byte("x"), 64), DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if _, err := ReadFrame(&buf, Limits{MaxPayloadBytes: 16}); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, bytes.Repeat([]byte("x"), 64), Limits{MaxPayloadBytes: 16})
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("rejected frame must not write bytes")
	}
}

func TestReadFrameShortPrefix(t *testing.T) {
	if _, err := ReadFrame(bytes.NewReader([]byte{0, 0}), DefaultLimits()); !errors.Is(err, ErrShortPrefix) {
		t.Fatalf("expected ErrShortPrefix, got %v", err)
	}
}

func TestEmptyPayloadRejected(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, nil, DefaultLimits()); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}
