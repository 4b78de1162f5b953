//go:build windows

package transport

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

// DefaultDialer connects to the named pipe at endpointPath.
func DefaultDialer(ctx context.Context, endpointPath string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, endpointPath)
}
