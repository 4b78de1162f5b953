package transport

import (
	"math"
	"runtime"
	"strings"
	"testing"

	"github.com/editorctl/editorctl/internal/testutil/testlog"
)

func TestEndpointNameDeterministic(t *testing.T) {
	testlog.Start(t)
	a := EndpointName("editorctl", "/proj/A")
	b := EndpointName("editorctl", "/proj/A")
	if a != b {
		t.Fatalf("derivation not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "editorctl-") {
		t.Fatalf("unexpected name: %q", a)
	}
}

func TestEndpointNameDistinctTargets(t *testing.T) {
	testlog.Start(t)
	a := EndpointName("editorctl", "/proj/A")
	b := EndpointName("editorctl", "/proj/B")
	if a == b {
		t.Fatalf("distinct targets collided: %q", a)
	}
}

func TestEndpointNameNeverNegative(t *testing.T) {
	testlog.Start(t)
	// A target whose 31-hash lands negative before the abs.
	for _, target := range []string{"/proj/A", "/some/long/project/path/that/wraps", "zzzzzzzzzzzzzzzz"} {
		name := EndpointName("p", target)
		if strings.Contains(name, "--") {
			t.Fatalf("negative hash leaked into name: %q", name)
		}
	}
}

func TestAbsHashCoversMinInt32(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		h    int32
		want uint32
	}{
		{0, 0},
		{42, 42},
		{-42, 42},
		{math.MaxInt32, math.MaxInt32},
		{math.MinInt32, 1 << 31},
	}
	for _, tc := range cases {
		if got := absHash(tc.h); got != tc.want {
			t.Fatalf("absHash(%d)=%d want=%d", tc.h, got, tc.want)
		}
	}
}

func TestEndpointPathShape(t *testing.T) {
	testlog.Start(t)
	path := EndpointPath("editorctl-12345")
	if runtime.GOOS == "windows" {
		if !strings.HasPrefix(path, `\\.\pipe\`) {
			t.Fatalf("unexpected pipe path: %q", path)
		}
		return
	}
	if path != "/tmp/editorctl-12345" {
		t.Fatalf("unexpected socket path: %q", path)
	}
}
