//go:build !windows

package transport

import (
	"context"
	"net"
)

// DefaultDialer connects to the filesystem-domain socket at endpointPath.
func DefaultDialer(ctx context.Context, endpointPath string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", endpointPath)
}
