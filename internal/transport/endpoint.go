package transport

import (
	"fmt"
	"runtime"
)

// Hash32 is the 31-multiplier string hash both sides of the rendezvous
// compute over the target identifier. Overflow wraps on int32 so the value
// matches the peer's arithmetic.
func Hash32(s string) int32 {
	var h int32
	for _, b := range []byte(s) {
		h = 31*h + int32(b)
	}
	return h
}

// EndpointName derives the rendezvous name for a target. Two processes that
// agree on the prefix and the target identifier agree on the name without any
// out-of-band registry.
func EndpointName(prefix, target string) string {
	return fmt.Sprintf("%s-%d", prefix, absHash(Hash32(target)))
}

// absHash widens before negating: int32 cannot represent -MinInt32, so -h
// alone would leave that one hash value negative.
func absHash(h int32) uint32 {
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}

// EndpointPath maps a rendezvous name onto the platform primitive: a named
// pipe path on windows, a filesystem socket under /tmp elsewhere.
func EndpointPath(name string) string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\` + name
	}
	return "/tmp/" + name
}
