package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/editorctl/editorctl/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "editorctl.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadBridgeConfigDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadBridgeConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file must fall back to defaults: %v", err)
	}
	if cfg.Name != "editorctl" {
		t.Fatalf("name=%q", cfg.Name)
	}
	if cfg.Addr != ":7077" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
}

func TestLoadBridgeConfigFile(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
name = "bridge-1"
addr = ":9090"
cors_origins = ["http://localhost:5173"]
peer_exec = "Unity"
endpoint_prefix = "unity"
connect_timeout_ms = 3000
request_timeout_ms = 8000

[reconnect]
initial_delay_ms = 500
multiplier = 1.0
max_delay_ms = 500
jitter = false
`)
	cfg, err := LoadBridgeConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "bridge-1" || cfg.Addr != ":9090" {
		t.Fatalf("identity fields: %+v", cfg)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://localhost:5173" {
		t.Fatalf("cors_origins=%v", cfg.CorsOrigins)
	}

	rc := cfg.RegistryConfig()
	if rc.EndpointPrefix != "unity" || rc.PeerExec != "Unity" {
		t.Fatalf("registry conversion: %+v", rc)
	}
	if rc.RequestTimeout != 8*time.Second {
		t.Fatalf("request timeout=%v", rc.RequestTimeout)
	}
	if rc.Transport.ConnectTimeout != 3*time.Second {
		t.Fatalf("connect timeout=%v", rc.Transport.ConnectTimeout)
	}
	b := rc.Transport.Backoff
	if b.InitialDelay != 500*time.Millisecond || b.MaxDelay != 500*time.Millisecond {
		t.Fatalf("backoff delays: %+v", b)
	}
	if b.Multiplier != 1.0 || b.Jitter {
		t.Fatalf("fixed-interval reconnect not honored: %+v", b)
	}
}

func TestLoadBridgeConfigRejectsBadValues(t *testing.T) {
	testlog.Start(t)

	if _, err := LoadBridgeConfig(writeConfig(t, "connect_timeout_ms = -5\n")); err == nil {
		t.Fatalf("negative timeout accepted")
	}
	if _, err := LoadBridgeConfig(writeConfig(t, "[reconnect]\ninitial_delay_ms = 10\nmultiplier = 0.5\n")); err == nil {
		t.Fatalf("shrinking backoff accepted")
	}
	if _, err := LoadBridgeConfig(writeConfig(t, "addr = [1, 2]\n")); err == nil {
		t.Fatalf("malformed toml accepted")
	}
}

func TestRegistryConfigZeroValuesDeferToDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadBridgeConfig("")
	if err != nil {
		t.Fatalf("empty path: %v", err)
	}
	rc := cfg.RegistryConfig().WithDefaults()
	if rc.RequestTimeout <= 0 || rc.SweepInterval <= 0 {
		t.Fatalf("defaults not applied: %+v", rc)
	}
	if rc.EndpointPrefix == "" || rc.PeerExec == "" {
		t.Fatalf("defaults not applied: %+v", rc)
	}
}
