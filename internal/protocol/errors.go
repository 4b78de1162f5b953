package protocol

import "errors"

var (
	ErrInvalidMessage = errors.New("protocol: invalid message")
)
