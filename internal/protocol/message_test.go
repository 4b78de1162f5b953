package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/editorctl/editorctl/internal/testutil/testlog"
)

func TestMessageKindClassification(t *testing.T) {
	testlog.Start(t)
	ok := true
	cases := []struct {
		name string
		msg  Message
		want Kind
	}{
		{"request", Message{ID: "r1", Command: CmdPing}, KindRequest},
		{"response", Message{ID: "r1", Success: &ok}, KindResponse},
		{"event", Message{Type: EventStateUpdate}, KindEvent},
		{"bare id", Message{ID: "r1"}, KindUnknown},
		{"empty", Message{}, KindUnknown},
		{"typed with id is not an event", Message{ID: "r1", Type: EventStateUpdate}, KindUnknown},
	}
	for _, tc := range cases {
		if got := tc.msg.Kind(); got != tc.want {
			t.Fatalf("%s: kind=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestRequestRoundTrip(t *testing.T) {
	testlog.Start(t)
	raw, err := EncodeMessage(NewRequest("req.1", CmdLoadScene, map[string]any{"scenePath": "Assets/Scenes/Main.unity"}))
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	got, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if got.Kind() != KindRequest || got.ID != "req.1" || got.Command != CmdLoadScene {
		t.Fatalf("unexpected message: %+v", got)
	}
	if got.Parameters["scenePath"] != "Assets/Scenes/Main.unity" {
		t.Fatalf("unexpected parameters: %+v", got.Parameters)
	}
	if got.Timestamp == "" {
		t.Fatalf("missing timestamp")
	}
}

func TestDecodeResponseSuccessFlag(t *testing.T) {
	testlog.Start(t)
	raw := []byte(`{"id":"req.2","success":false,"error":"scene not found","timestamp":"2026-01-01T00:00:00Z"}`)
	got, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Kind() != KindResponse {
		t.Fatalf("kind=%v", got.Kind())
	}
	if got.Succeeded() {
		t.Fatalf("expected failed response")
	}
	if got.Error != "scene not found" {
		t.Fatalf("unexpected error text: %q", got.Error)
	}
}

func TestDecodeEventCarriesRawData(t *testing.T) {
	testlog.Start(t)
	raw := []byte(`{"type":"state_update","data":{"isPlaying":true},"timestamp":"2026-01-01T00:00:00Z"}`)
	got, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if got.Kind() != KindEvent || got.Type != EventStateUpdate {
		t.Fatalf("unexpected message: %+v", got)
	}
	var facts map[string]any
	if err := json.Unmarshal(got.Data, &facts); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if facts["isPlaying"] != true {
		t.Fatalf("unexpected facts: %+v", facts)
	}
}

func TestDecodeRejectsUnroutable(t *testing.T) {
	testlog.Start(t)
	for _, raw := range []string{"", "   ", "{}", `{"timestamp":"x"}`, "not json"} {
		if _, err := DecodeMessage([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
	if _, err := DecodeMessage([]byte("{}")); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage")
	}
}
