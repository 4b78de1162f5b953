package transport

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/editorctl/editorctl/internal/observability"
	"github.com/editorctl/editorctl/internal/protocol/frame"
)

var (
	ErrClosed       = errors.New("transport: closed")
	ErrNotConnected = errors.New("transport: not connected")
)

// Dialer opens the platform connection to a rendezvous path.
type Dialer func(ctx context.Context, endpointPath string) (net.Conn, error)

// Transport owns one duplex framed byte channel to one editor peer.
//
// After a successful Connect, an unexpected stream close raises the
// disconnect handler exactly once and the transport keeps redialing on its
// own until Close is called.
type Transport struct {
	endpoint string
	cfg      Config
	dial     Dialer

	onMessage    func([]byte)
	onDisconnect func(error)

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    net.Conn
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New builds a transport for one rendezvous path. Handlers must be installed
// before Connect.
func New(endpoint string, cfg Config, dial Dialer) *Transport {
	if dial == nil {
		dial = DefaultDialer
	}
	return &Transport{
		endpoint: endpoint,
		cfg:      cfg.WithDefaults(),
		dial:     dial,
		done:     make(chan struct{}),
	}
}

func (t *Transport) Endpoint() string {
	return t.endpoint
}

// OnMessage installs the inbound payload handler. Payloads are whole frames.
func (t *Transport) OnMessage(fn func([]byte)) {
	t.onMessage = fn
}

// OnDisconnect installs the handler raised once per unexpected close.
func (t *Transport) OnDisconnect(fn func(error)) {
	t.onDisconnect = fn
}

// Connect dials the endpoint, racing the attempt against the configured
// timeout. A timed-out attempt is aborted, never left half-open.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	dialCtx, cancel := context.WithTimeout(ctx, t.cfg.ConnectTimeout)
	defer cancel()
	conn, err := t.dial(dialCtx, t.endpoint)
	if err != nil {
		return fmt.Errorf("transport: connect %s: %w", t.endpoint, err)
	}

	t.mu.Lock()
	if t.closed || t.conn != nil {
		t.mu.Unlock()
		conn.Close()
		if t.closed {
			return ErrClosed
		}
		return nil
	}
	t.conn = conn
	t.wg.Add(1)
	go t.readLoop(conn)
	t.mu.Unlock()
	return nil
}

// Send writes one payload as a single frame.
func (t *Transport) Send(payload []byte) error {
	t.mu.Lock()
	conn := t.conn
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return frame.WriteFrame(conn, payload, t.cfg.Limits)
}

// Connected reports whether a live stream is attached.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Close tears down the stream and cancels any pending reconnect. Idempotent.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.done)
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	t.wg.Wait()
	return nil
}

func (t *Transport) readLoop(conn net.Conn) {
	defer t.wg.Done()
	for {
		payload, err := frame.ReadFrame(conn, t.cfg.Limits)
		if err != nil {
			t.handleDrop(conn, err)
			return
		}
		if t.onMessage != nil {
			t.onMessage(payload)
		}
	}
}

// handleDrop transitions one dropped stream into the reconnect loop. Only the
// reader that still owns the registered conn notifies, so the disconnect
// handler fires once per drop.
func (t *Transport) handleDrop(conn net.Conn, cause error) {
	t.mu.Lock()
	if t.closed || t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	t.wg.Add(1)
	t.mu.Unlock()

	conn.Close()
	log.Warn().Str("endpoint", t.endpoint).Err(cause).Msg("transport disconnected")
	if t.onDisconnect != nil {
		t.onDisconnect(cause)
	}
	go t.reconnectLoop()
}

func (t *Transport) reconnectLoop() {
	defer t.wg.Done()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for attempt := 1; ; attempt++ {
		delay := t.cfg.Backoff.Delay(attempt, rng)
		select {
		case <-t.done:
			return
		case <-time.After(delay):
		}

		observability.RecordReconnectAttempt(t.endpoint)
		dialCtx, cancel := context.WithTimeout(context.Background(), t.cfg.ConnectTimeout)
		conn, err := t.dial(dialCtx, t.endpoint)
		cancel()
		if err != nil {
			log.Debug().Str("endpoint", t.endpoint).Int("attempt", attempt).Err(err).
				Msg("reconnect attempt failed")
			continue
		}

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			conn.Close()
			return
		}
		t.conn = conn
		t.wg.Add(1)
		go t.readLoop(conn)
		t.mu.Unlock()
		log.Info().Str("endpoint", t.endpoint).Int("attempt", attempt).Msg("transport reconnected")
		return
	}
}
