package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/editorctl/editorctl/internal/registry"
	"github.com/editorctl/editorctl/internal/transport"
)

// BridgeConfig is the daemon's TOML surface.
type BridgeConfig struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`

	PeerExec       string `toml:"peer_exec"`
	EndpointPrefix string `toml:"endpoint_prefix"`

	ConnectTimeoutMS int `toml:"connect_timeout_ms"`
	RequestTimeoutMS int `toml:"request_timeout_ms"`
	SweepIntervalMS  int `toml:"sweep_interval_ms"`

	Reconnect ReconnectConfig `toml:"reconnect"`
}

// ReconnectConfig tunes transport redial behavior. A fixed interval is
// multiplier 1.0 with jitter off.
type ReconnectConfig struct {
	InitialDelayMS int     `toml:"initial_delay_ms"`
	Multiplier     float64 `toml:"multiplier"`
	MaxDelayMS     int     `toml:"max_delay_ms"`
	Jitter         *bool   `toml:"jitter"`
}

// LoadBridgeConfig reads and validates path. A missing file is not an error;
// defaults apply.
func LoadBridgeConfig(path string) (BridgeConfig, error) {
	var cfg BridgeConfig
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return BridgeConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
			}
		} else if err := toml.Unmarshal(data, &cfg); err != nil {
			return BridgeConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}
	if cfg.Name == "" {
		cfg.Name = "editorctl"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":7077"
	}
	if err := ValidateBridgeConfig(cfg); err != nil {
		return BridgeConfig{}, err
	}
	return cfg, nil
}

func ValidateBridgeConfig(cfg BridgeConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("bridge config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("bridge config missing addr")
	}
	if cfg.ConnectTimeoutMS < 0 || cfg.RequestTimeoutMS < 0 || cfg.SweepIntervalMS < 0 {
		return fmt.Errorf("bridge config timeouts must be non-negative")
	}
	if cfg.Reconnect.Multiplier != 0 && cfg.Reconnect.Multiplier < 1.0 {
		return fmt.Errorf("bridge config reconnect multiplier must be >= 1.0")
	}
	return nil
}

// RegistryConfig converts the TOML surface into registry settings, leaving
// zero values to the registry's own defaults.
func (cfg BridgeConfig) RegistryConfig() registry.Config {
	out := registry.Config{
		PeerExec:       cfg.PeerExec,
		EndpointPrefix: cfg.EndpointPrefix,
		RequestTimeout: time.Duration(cfg.RequestTimeoutMS) * time.Millisecond,
		SweepInterval:  time.Duration(cfg.SweepIntervalMS) * time.Millisecond,
	}
	out.Transport.ConnectTimeout = time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond
	if cfg.Reconnect.InitialDelayMS > 0 {
		out.Transport.Backoff = transport.BackoffConfig{
			InitialDelay: time.Duration(cfg.Reconnect.InitialDelayMS) * time.Millisecond,
			Multiplier:   cfg.Reconnect.Multiplier,
			MaxDelay:     time.Duration(cfg.Reconnect.MaxDelayMS) * time.Millisecond,
			Jitter:       cfg.Reconnect.Jitter == nil || *cfg.Reconnect.Jitter,
		}
	}
	return out
}
