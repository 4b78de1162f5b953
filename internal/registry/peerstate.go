package registry

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/editorctl/editorctl/internal/correlator"
	"github.com/editorctl/editorctl/internal/protocol"
)

// subscribePeerEvents wires one connection's correlator into the peer-state
// cache and the registry broadcaster. The editor's payload shape is an
// external contract; facts are carried verbatim into an opaque key/value bag.
func (r *Registry) subscribePeerEvents(target string, corr *correlator.Correlator) []func() {
	return []func(){
		corr.Subscribe(protocol.EventStateUpdate, func(msg *protocol.Message) {
			r.mergePeerState(target, msg.Data)
			r.reemit(target, msg)
		}),
		corr.Subscribe(protocol.EventPlayModeChanged, func(msg *protocol.Message) {
			r.applyScalarFact(target, "isPlaying", msg.Data)
			r.reemit(target, msg)
		}),
		corr.Subscribe(protocol.EventSceneOpened, func(msg *protocol.Message) {
			r.applySceneOpened(target, msg.Data)
			r.reemit(target, msg)
		}),
		corr.Subscribe(protocol.EventHierarchyChanged, func(msg *protocol.Message) {
			r.touch(target)
			r.reemit(target, msg)
		}),
	}
}

func (r *Registry) reemit(target string, msg *protocol.Message) {
	var data any
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			data = string(msg.Data)
		}
	}
	r.events.publish(Event{Type: msg.Type, Target: target, Data: data})
}

// mergePeerState folds a state_update payload into the bag.
func (r *Registry) mergePeerState(target string, data json.RawMessage) {
	facts := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &facts); err != nil {
			log.Debug().Str("target", target).Err(err).Msg("unusable state_update payload")
			return
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[target]
	if !ok {
		return
	}
	for k, v := range facts {
		c.peerState[k] = v
	}
	c.lastHeartbeat = time.Now()
}

// applyScalarFact stores a single fact whose payload is either the bare
// scalar or an object carrying it under the fact's key.
func (r *Registry) applyScalarFact(target, key string, data json.RawMessage) {
	var value any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &value); err != nil {
			return
		}
	}
	if obj, ok := value.(map[string]any); ok {
		if v, ok := obj[key]; ok {
			value = v
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[target]
	if !ok {
		return
	}
	c.peerState[key] = value
	c.lastHeartbeat = time.Now()
}

func (r *Registry) applySceneOpened(target string, data json.RawMessage) {
	var payload struct {
		ScenePath string `json:"scenePath"`
		SceneName string `json:"sceneName"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			return
		}
	}
	scene := payload.ScenePath
	if scene == "" {
		scene = payload.SceneName
	}
	if scene == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[target]
	if !ok {
		return
	}
	c.peerState["activeScene"] = scene
	c.lastHeartbeat = time.Now()
}

func (r *Registry) touch(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[target]; ok {
		c.lastHeartbeat = time.Now()
	}
}

func boolFact(state map[string]any, key string) bool {
	v, ok := state[key].(bool)
	return ok && v
}

func stringFact(state map[string]any, key string) string {
	v, _ := state[key].(string)
	return v
}
