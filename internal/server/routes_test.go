package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/editorctl/editorctl/internal/locator"
	"github.com/editorctl/editorctl/internal/registry"
	"github.com/editorctl/editorctl/internal/testutil/testlog"
)

type stubLocator struct{}

func (stubLocator) Locate() ([]locator.PeerProcess, error) { return nil, nil }

func newTestServer(t *testing.T) (*Server, *registry.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := registry.NewWithDeps(registry.DefaultConfig(), stubLocator{}, func(ctx context.Context, endpoint string) (net.Conn, error) {
		return nil, context.DeadlineExceeded
	})
	t.Cleanup(func() { reg.Close() })
	return New("editorctl-test", ":0", nil, reg), reg
}

func makeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, marker := range []string{"Assets", "ProjectSettings"} {
		if err := os.Mkdir(filepath.Join(dir, marker), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", marker, err)
		}
	}
	return dir
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthAndReady(t *testing.T) {
	testlog.Start(t)
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("/health code=%d", w.Code)
	}
	var health map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["service"] != "editorctl-test" || health["status"] != "ok" {
		t.Fatalf("health payload: %v", health)
	}

	if w := doJSON(t, s, http.MethodGet, "/ready", ""); w.Code != http.StatusOK {
		t.Fatalf("/ready code=%d", w.Code)
	}
}

func TestConnectionsLifecycle(t *testing.T) {
	testlog.Start(t)
	s, _ := newTestServer(t)
	target := makeProject(t)

	w := doJSON(t, s, http.MethodGet, "/connections", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list code=%d", w.Code)
	}
	var snap registry.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Connections) != 0 {
		t.Fatalf("fresh registry lists connections: %+v", snap)
	}

	body, _ := json.Marshal(map[string]string{"target": target})
	w = doJSON(t, s, http.MethodPost, "/connections", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("connect code=%d body=%s", w.Code, w.Body.String())
	}
	var status registry.ConnectionStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Status != registry.StatusProjectOnly {
		t.Fatalf("status=%s want=%s", status.Status, registry.StatusProjectOnly)
	}

	w = doJSON(t, s, http.MethodGet, "/connections/active", "")
	if w.Code != http.StatusOK {
		t.Fatalf("active code=%d", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, "/connections?target="+target, "")
	if w.Code != http.StatusOK {
		t.Fatalf("disconnect code=%d body=%s", w.Code, w.Body.String())
	}

	if w := doJSON(t, s, http.MethodGet, "/connections/active", ""); w.Code != http.StatusNotFound {
		t.Fatalf("active after disconnect code=%d", w.Code)
	}
}

func TestConnectValidation(t *testing.T) {
	testlog.Start(t)
	s, _ := newTestServer(t)

	if w := doJSON(t, s, http.MethodPost, "/connections", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing target code=%d", w.Code)
	}
	body, _ := json.Marshal(map[string]string{"target": filepath.Join(t.TempDir(), "nope")})
	if w := doJSON(t, s, http.MethodPost, "/connections", string(body)); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid target code=%d", w.Code)
	}
}

func TestCommandErrorMapping(t *testing.T) {
	testlog.Start(t)
	s, _ := newTestServer(t)
	target := makeProject(t)

	// No connection yet.
	if w := doJSON(t, s, http.MethodPost, "/connections/command", `{"command":"ping"}`); w.Code != http.StatusNotFound {
		t.Fatalf("no active code=%d", w.Code)
	}
	if w := doJSON(t, s, http.MethodPost, "/connections/command", `{"target":"x"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing command code=%d", w.Code)
	}

	body, _ := json.Marshal(map[string]string{"target": target})
	if w := doJSON(t, s, http.MethodPost, "/connections", string(body)); w.Code != http.StatusOK {
		t.Fatalf("connect code=%d", w.Code)
	}
	// ProjectOnly entries cannot take commands.
	cmd, _ := json.Marshal(map[string]string{"target": target, "command": "ping"})
	if w := doJSON(t, s, http.MethodPost, "/connections/command", string(cmd)); w.Code != http.StatusConflict {
		t.Fatalf("degraded command code=%d body=%s", w.Code, w.Body.String())
	}
}

func TestSetActiveRejectsDegraded(t *testing.T) {
	testlog.Start(t)
	s, _ := newTestServer(t)
	target := makeProject(t)

	body, _ := json.Marshal(map[string]string{"target": target})
	if w := doJSON(t, s, http.MethodPost, "/connections", string(body)); w.Code != http.StatusOK {
		t.Fatalf("connect code=%d", w.Code)
	}
	if w := doJSON(t, s, http.MethodPut, "/connections/active", string(body)); w.Code != http.StatusNotFound {
		t.Fatalf("degraded set-active code=%d", w.Code)
	}
}

func TestDiscoverEndpoint(t *testing.T) {
	testlog.Start(t)
	s, _ := newTestServer(t)
	root := t.TempDir()
	proj := filepath.Join(root, "demo")
	for _, marker := range []string{"Assets", "ProjectSettings"} {
		if err := os.MkdirAll(filepath.Join(proj, marker), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	if w := doJSON(t, s, http.MethodGet, "/discover", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing root code=%d", w.Code)
	}

	w := doJSON(t, s, http.MethodGet, "/discover?root="+root, "")
	if w.Code != http.StatusOK {
		t.Fatalf("discover code=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Projects []registry.DiscoveredProject `json:"projects"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode discover: %v", err)
	}
	if len(resp.Projects) != 1 || resp.Projects[0].Target != proj {
		t.Fatalf("projects=%+v", resp.Projects)
	}
}

func TestMetricsExposed(t *testing.T) {
	testlog.Start(t)
	s, _ := newTestServer(t)

	// A request has to complete before its counter family shows up.
	if w := doJSON(t, s, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("/health code=%d", w.Code)
	}

	w := doJSON(t, s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("/metrics code=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "editorctl_http_requests_total") {
		t.Fatalf("metrics output missing registry families")
	}
}
