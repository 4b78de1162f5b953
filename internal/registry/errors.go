package registry

import "errors"

var (
	// ErrInvalidTarget means the backing project directory is missing or
	// malformed. Fatal for the attempt, never retried.
	ErrInvalidTarget = errors.New("registry: invalid target project")

	// ErrNotConnected means the caller named a target the registry has no
	// usable entry for.
	ErrNotConnected = errors.New("registry: target not connected")

	// ErrNoActiveConnection means an operation defaulted to the active target
	// and none is set.
	ErrNoActiveConnection = errors.New("registry: no active connection")

	// ErrPeerRequired means the entry exists but no live editor is attached,
	// so a command requiring a peer fails fast instead of hanging.
	ErrPeerRequired = errors.New("registry: command requires a live editor peer")

	// ErrClosed means the registry has been shut down.
	ErrClosed = errors.New("registry: closed")
)
