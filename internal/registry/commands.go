package registry

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/editorctl/editorctl/internal/observability"
	"github.com/editorctl/editorctl/internal/protocol"
)

// Command passes one editor command through to target's peer. An empty
// target means the active one. Entries without a live peer fail fast with
// ErrPeerRequired so callers can fall back to degraded functionality.
func (r *Registry) Command(ctx context.Context, target, command string, params map[string]any) (json.RawMessage, error) {
	r.mu.Lock()
	target = strings.TrimSpace(target)
	if target == "" {
		if r.active == "" {
			r.mu.Unlock()
			return nil, ErrNoActiveConnection
		}
		target = r.active
	}
	c, ok := r.conns[target]
	if !ok {
		r.mu.Unlock()
		return nil, ErrNotConnected
	}
	if c.status != StatusConnected || c.corr == nil {
		r.mu.Unlock()
		return nil, ErrPeerRequired
	}
	corr := c.corr
	r.mu.Unlock()

	start := time.Now()
	data, err := corr.Request(ctx, command, params)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	observability.RecordPeerRequest(command, outcome, time.Since(start))
	if err != nil {
		return nil, err
	}
	r.touch(target)
	return data, nil
}

// Ping issues one liveness round-trip.
func (r *Registry) Ping(ctx context.Context, target string) error {
	_, err := r.Command(ctx, target, protocol.CmdPing, nil)
	return err
}

// PeerState fetches the editor's current state report and folds it into the
// entry's cache.
func (r *Registry) PeerState(ctx context.Context, target string) (json.RawMessage, error) {
	data, err := r.Command(ctx, target, protocol.CmdGetState, nil)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	resolved := strings.TrimSpace(target)
	if resolved == "" {
		resolved = r.active
	}
	r.mu.Unlock()
	if resolved != "" {
		r.mergePeerState(resolved, data)
	}
	return data, nil
}

func (r *Registry) EnterPlayMode(ctx context.Context, target string) error {
	_, err := r.Command(ctx, target, protocol.CmdEnterPlayMode, nil)
	return err
}

func (r *Registry) ExitPlayMode(ctx context.Context, target string) error {
	_, err := r.Command(ctx, target, protocol.CmdExitPlayMode, nil)
	return err
}

func (r *Registry) LoadScene(ctx context.Context, target, scenePath string) error {
	if strings.TrimSpace(scenePath) == "" {
		return errors.New("registry: load_scene requires scenePath")
	}
	_, err := r.Command(ctx, target, protocol.CmdLoadScene, map[string]any{"scenePath": scenePath})
	return err
}

func (r *Registry) RefreshAssets(ctx context.Context, target string) error {
	_, err := r.Command(ctx, target, protocol.CmdRefreshAssets, nil)
	return err
}
