package registry

import "time"

// Status is a connection lifecycle state. Transitions:
// Disconnected -> Connecting -> {Connected | ProjectOnly | Error};
// Connected/ProjectOnly -> Disconnected on explicit disconnect, -> Error on a
// failed health check; Error re-enters Connecting on a subsequent connect.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusProjectOnly  Status = "project_only"
	StatusError        Status = "error"
)

// ConnectionStatus is a caller-facing copy of one entry. Never shares
// internal state by reference.
type ConnectionStatus struct {
	Target        string         `json:"target"`
	Status        Status         `json:"status"`
	LastHeartbeat time.Time      `json:"last_heartbeat"`
	PeerPID       int            `json:"peer_pid,omitempty"`
	PeerState     map[string]any `json:"peer_state,omitempty"`
}

// Snapshot is the immutable result of a status query. Derived flags are
// pulled from the active entry's peer-state cache.
type Snapshot struct {
	Active      string             `json:"active,omitempty"`
	Connections []ConnectionStatus `json:"connections"`
	PlayMode    bool               `json:"play_mode"`
	Compiling   bool               `json:"compiling"`
	ActiveScene string             `json:"active_scene,omitempty"`
}

// DiscoveredProject pairs a discovered project directory with the advisory
// peer finding for it.
type DiscoveredProject struct {
	Target      string `json:"target"`
	PeerRunning bool   `json:"peer_running"`
	PeerPID     int    `json:"peer_pid,omitempty"`
}
