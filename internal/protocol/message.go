package protocol

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind classifies a decoded wire message.
type Kind int

const (
	KindUnknown Kind = iota
	KindRequest
	KindResponse
	KindEvent
)

// Commands this side issues to the editor peer.
const (
	CmdPing          = "ping"
	CmdGetState      = "get_state"
	CmdEnterPlayMode = "enter_play_mode"
	CmdExitPlayMode  = "exit_play_mode"
	CmdLoadScene     = "load_scene"
	CmdRefreshAssets = "refresh_assets"
)

// Event types the editor peer emits.
const (
	EventStateUpdate      = "state_update"
	EventPlayModeChanged  = "play_mode_changed"
	EventSceneOpened      = "scene_opened"
	EventHierarchyChanged = "hierarchy_changed"
)

// Message is the JSON envelope exchanged with the editor peer.
//
// Requests carry {id, command, parameters, timestamp}; responses echo the id
// with {success, data|error, timestamp}; events carry {type, data, timestamp}
// and no id.
type Message struct {
	ID         string          `json:"id,omitempty"`
	Command    string          `json:"command,omitempty"`
	Type       string          `json:"type,omitempty"`
	Parameters map[string]any  `json:"parameters,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Success    *bool           `json:"success,omitempty"`
	Error      string          `json:"error,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`
}

// Kind reports how the message should be routed. A message with an id and a
// success flag is a response; an id with a command is a request; a bare type
// tag is an event.
func (m *Message) Kind() Kind {
	switch {
	case m.ID != "" && m.Success != nil:
		return KindResponse
	case m.ID != "" && m.Command != "":
		return KindRequest
	case m.ID == "" && m.Type != "":
		return KindEvent
	default:
		return KindUnknown
	}
}

// Succeeded reports whether a response message carries a true success flag.
func (m *Message) Succeeded() bool {
	return m.Success != nil && *m.Success
}

func NewRequest(id, command string, params map[string]any) *Message {
	return &Message{
		ID:         id,
		Command:    command,
		Parameters: params,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	}
}

func NewEvent(eventType string, data json.RawMessage) *Message {
	return &Message{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

func NewResponse(id string, success bool, data json.RawMessage, errText string) *Message {
	return &Message{
		ID:        id,
		Success:   &success,
		Data:      data,
		Error:     errText,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// EncodeMessage serializes msg for transmission.
func EncodeMessage(msg *Message) ([]byte, error) {
	if msg == nil {
		return nil, ErrInvalidMessage
	}
	if msg.Kind() == KindUnknown {
		return nil, ErrInvalidMessage
	}
	return json.Marshal(msg)
}

// DecodeMessage parses one serialized message. Messages that classify as
// KindUnknown are rejected so callers never route garbage.
func DecodeMessage(raw []byte) (*Message, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, ErrInvalidMessage
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	if msg.Kind() == KindUnknown {
		return nil, ErrInvalidMessage
	}
	return &msg, nil
}
