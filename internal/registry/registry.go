package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/editorctl/editorctl/internal/correlator"
	"github.com/editorctl/editorctl/internal/locator"
	"github.com/editorctl/editorctl/internal/observability"
	"github.com/editorctl/editorctl/internal/protocol"
	"github.com/editorctl/editorctl/internal/transport"
)

// Config defines registry behavior.
type Config struct {
	PeerExec       string
	EndpointPrefix string
	RequestTimeout time.Duration
	SweepInterval  time.Duration
	Transport      transport.Config
}

func DefaultConfig() Config {
	return Config{
		PeerExec:       locator.DefaultExecName,
		EndpointPrefix: "editorctl",
		RequestTimeout: correlator.DefaultRequestTimeout,
		SweepInterval:  30 * time.Second,
		Transport:      transport.DefaultConfig(),
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.PeerExec) == "" {
		c.PeerExec = def.PeerExec
	}
	if strings.TrimSpace(c.EndpointPrefix) == "" {
		c.EndpointPrefix = def.EndpointPrefix
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	c.Transport = c.Transport.WithDefaults()
	return c
}

// PeerLocator is the process-discovery boundary.
type PeerLocator interface {
	Locate() ([]locator.PeerProcess, error)
}

// connection is one registry entry. Owned exclusively by the registry; only
// copies leave.
type connection struct {
	target        string
	status        Status
	lastHeartbeat time.Time
	peerPID       int
	peerState     map[string]any

	tr     *transport.Transport
	corr   *correlator.Correlator
	unsubs []func()
}

// Registry keeps the directory of per-target connection state consistent
// under concurrent callers and failures.
type Registry struct {
	cfg    Config
	loc    PeerLocator
	dial   transport.Dialer
	events *Broadcaster

	mu     sync.Mutex
	conns  map[string]*connection
	active string
	closed bool

	sweepStop chan struct{}
	sweepWG   sync.WaitGroup
}

// New builds a registry with the platform locator and dialer.
func New(cfg Config) *Registry {
	return NewWithDeps(cfg, nil, nil)
}

// NewWithDeps builds a registry with injectable discovery and dialing,
// used by tests and embedders.
func NewWithDeps(cfg Config, loc PeerLocator, dial transport.Dialer) *Registry {
	cfg = cfg.WithDefaults()
	if loc == nil {
		loc = locator.New(cfg.PeerExec)
	}
	return &Registry{
		cfg:       cfg,
		loc:       loc,
		dial:      dial,
		events:    NewBroadcaster(),
		conns:     make(map[string]*connection),
		sweepStop: make(chan struct{}),
	}
}

// Events exposes the per-instance notification hub.
func (r *Registry) Events() *Broadcaster {
	return r.events
}

// Start launches the background health sweep.
func (r *Registry) Start(ctx context.Context) {
	r.sweepWG.Add(1)
	go func() {
		defer r.sweepWG.Done()
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.sweepStop:
				return
			case <-ticker.C:
				r.sweepOnce()
			}
		}
	}()
}

// Close stops the sweep and tears down every connection. Idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.sweepStop)
	drained := make([]*connection, 0, len(r.conns))
	for _, c := range r.conns {
		drained = append(drained, c)
	}
	r.conns = make(map[string]*connection)
	r.active = ""
	r.mu.Unlock()

	r.sweepWG.Wait()
	for _, c := range drained {
		teardown(c)
	}
	return nil
}

// Connect establishes (or returns) the entry for target and marks it active.
// Idempotent for already-connected targets. An entry is always recorded for a
// valid project, even when no live editor is reachable.
func (r *Registry) Connect(ctx context.Context, target string) (ConnectionStatus, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return ConnectionStatus{}, ErrNoActiveConnection
	}
	if err := ValidateProject(target); err != nil {
		return ConnectionStatus{}, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ConnectionStatus{}, ErrClosed
	}
	if c, ok := r.conns[target]; ok && (c.status == StatusConnected || c.status == StatusConnecting) {
		// Idempotent for Connected; an in-flight attempt is never raced.
		r.active = target
		snap := copyStatus(c)
		r.mu.Unlock()
		return snap, nil
	}
	if old, ok := r.conns[target]; ok {
		// ProjectOnly or Error entry re-enters Connecting.
		teardown(old)
	}
	c := &connection{
		target:    target,
		status:    StatusConnecting,
		peerState: map[string]any{},
	}
	r.conns[target] = c
	r.active = target
	r.mu.Unlock()

	pid := r.findPeerPID(target)
	status, tr, corr, unsubs := r.attemptPeer(ctx, target)

	r.mu.Lock()
	cur, ok := r.conns[target]
	if !ok || cur != c {
		// Disconnected (or replaced) while the attempt was in flight.
		r.mu.Unlock()
		if tr != nil {
			tr.Close()
		}
		for _, fn := range unsubs {
			fn()
		}
		return ConnectionStatus{}, ErrNotConnected
	}
	c.status = status
	c.peerPID = pid
	c.lastHeartbeat = time.Now()
	c.tr = tr
	c.corr = corr
	c.unsubs = unsubs
	snap := copyStatus(c)
	r.mu.Unlock()

	log.Info().Str("target", target).Str("status", string(status)).Int("pid", pid).
		Msg("target connected")
	return snap, nil
}

// attemptPeer tries to reach a live editor for target: transport connect,
// then one liveness probe. Failures fold into ProjectOnly.
func (r *Registry) attemptPeer(ctx context.Context, target string) (Status, *transport.Transport, *correlator.Correlator, []func()) {
	endpoint := transport.EndpointPath(transport.EndpointName(r.cfg.EndpointPrefix, target))
	tr := transport.New(endpoint, r.cfg.Transport, r.dial)
	corr := correlator.New(tr, r.cfg.RequestTimeout)
	tr.OnMessage(corr.HandleMessage)
	tr.OnDisconnect(func(cause error) {
		corr.FailAll(cause)
	})

	if err := tr.Connect(ctx); err != nil {
		log.Debug().Str("target", target).Err(err).Msg("no editor peer reachable")
		tr.Close()
		return StatusProjectOnly, nil, nil, nil
	}

	// Only an answered probe counts as Connected.
	if _, err := corr.Request(ctx, protocol.CmdPing, nil); err != nil {
		log.Warn().Str("target", target).Err(err).Msg("editor reachable but liveness probe failed")
		tr.Close()
		corr.FailAll(err)
		return StatusProjectOnly, nil, nil, nil
	}

	unsubs := r.subscribePeerEvents(target, corr)
	return StatusConnected, tr, corr, unsubs
}

func (r *Registry) findPeerPID(target string) int {
	peers, err := r.loc.Locate()
	if err != nil {
		// Advisory only; enumeration being unavailable means "no peers found".
		log.Warn().Err(err).Msg("process enumeration unavailable")
		return 0
	}
	for _, p := range peers {
		if p.Target == target {
			return p.PID
		}
	}
	return 0
}

// Disconnect tears down target's entry, defaulting to the active target.
func (r *Registry) Disconnect(target string) error {
	r.mu.Lock()
	target = strings.TrimSpace(target)
	if target == "" {
		if r.active == "" {
			r.mu.Unlock()
			return ErrNoActiveConnection
		}
		target = r.active
	}
	c, ok := r.conns[target]
	if !ok {
		r.mu.Unlock()
		return ErrNotConnected
	}
	delete(r.conns, target)
	if r.active == target {
		r.active = ""
	}
	r.mu.Unlock()

	teardown(c)
	log.Info().Str("target", target).Msg("target disconnected")
	return nil
}

// Status returns an immutable snapshot of every entry. Never blocks on I/O.
func (r *Registry) Status() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		Active:      r.active,
		Connections: make([]ConnectionStatus, 0, len(r.conns)),
	}
	for _, c := range r.conns {
		snap.Connections = append(snap.Connections, copyStatus(c))
	}
	if c, ok := r.conns[r.active]; ok {
		snap.PlayMode = boolFact(c.peerState, "isPlaying")
		snap.Compiling = boolFact(c.peerState, "isCompiling")
		snap.ActiveScene = stringFact(c.peerState, "activeScene")
	}
	return snap
}

// Active returns the active target, or empty when none is set.
func (r *Registry) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SetActive switches the active target. The target must be Connected.
func (r *Registry) SetActive(target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[strings.TrimSpace(target)]
	if !ok || c.status != StatusConnected {
		return ErrNotConnected
	}
	r.active = c.target
	return nil
}

// Discover walks searchRoot for project directories and cross-references
// live peers. Locate failures degrade to "no peer" rather than erroring.
func (r *Registry) Discover(searchRoot string) ([]DiscoveredProject, error) {
	targets, err := findProjects(searchRoot)
	if err != nil {
		return nil, err
	}
	byTarget := map[string]int{}
	if peers, err := r.loc.Locate(); err == nil {
		for _, p := range peers {
			byTarget[p.Target] = p.PID
		}
	} else {
		log.Warn().Err(err).Msg("process enumeration unavailable")
	}

	found := make([]DiscoveredProject, 0, len(targets))
	for _, t := range targets {
		pid, running := byTarget[t]
		found = append(found, DiscoveredProject{Target: t, PeerRunning: running, PeerPID: pid})
	}
	return found, nil
}

// sweepOnce re-validates every entry's backing project directory. A cheap
// existence check only; live peers are never probed here, so slow commands
// cannot fail a healthy entry.
func (r *Registry) sweepOnce() {
	r.mu.Lock()
	targets := make([]string, 0, len(r.conns))
	for t, c := range r.conns {
		if c.status == StatusConnecting {
			continue
		}
		targets = append(targets, t)
	}
	r.mu.Unlock()

	for _, target := range targets {
		r.sweepEntry(target)
	}
	r.updateConnectionMetrics()
}

// sweepEntry checks one target; a failure here must never crash the sweep or
// affect other entries.
func (r *Registry) sweepEntry(target string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("target", target).Any("panic", rec).Msg("health check panicked")
		}
	}()

	err := ValidateProject(target)

	r.mu.Lock()
	c, ok := r.conns[target]
	if !ok || c.status == StatusConnecting {
		r.mu.Unlock()
		return
	}
	if err == nil {
		c.lastHeartbeat = time.Now()
		r.mu.Unlock()
		return
	}
	c.status = StatusError
	tr, corr := c.tr, c.corr
	unsubs := c.unsubs
	c.tr, c.corr, c.unsubs = nil, nil, nil
	r.mu.Unlock()

	log.Warn().Str("target", target).Err(err).Msg("health check failed")
	if tr != nil {
		tr.Close()
	}
	if corr != nil {
		corr.FailAll(err)
	}
	for _, fn := range unsubs {
		fn()
	}
	r.events.publish(Event{Type: EventConnectionError, Target: target, Data: err.Error()})
}

func (r *Registry) updateConnectionMetrics() {
	counts := map[Status]int{
		StatusConnecting:  0,
		StatusConnected:   0,
		StatusProjectOnly: 0,
		StatusError:       0,
	}
	r.mu.Lock()
	for _, c := range r.conns {
		counts[c.status]++
	}
	r.mu.Unlock()
	for status, n := range counts {
		observability.SetConnectionCount(string(status), n)
	}
}

func copyStatus(c *connection) ConnectionStatus {
	return ConnectionStatus{
		Target:        c.target,
		Status:        c.status,
		LastHeartbeat: c.lastHeartbeat,
		PeerPID:       c.peerPID,
		PeerState:     cloneStateBag(c.peerState),
	}
}

// cloneStateBag deep-copies the peer-state bag. Payloads arrive as decoded
// JSON, so nested values are only maps, slices, and scalars; callers must
// never hold a reference into the cache.
func cloneStateBag(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = cloneStateValue(v)
	}
	return out
}

func cloneStateValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneStateBag(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneStateValue(item)
		}
		return out
	default:
		return val
	}
}

func teardown(c *connection) {
	for _, fn := range c.unsubs {
		fn()
	}
	if c.tr != nil {
		c.tr.Close()
	}
	if c.corr != nil {
		c.corr.FailAll(nil)
	}
	c.tr, c.corr, c.unsubs = nil, nil, nil
}
