package correlator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/editorctl/editorctl/internal/protocol"
)

var (
	ErrTimeout          = errors.New("correlator: request timed out")
	ErrPeerDisconnected = errors.New("correlator: peer disconnected")
	ErrPeerRejected     = errors.New("correlator: peer rejected request")
)

// DefaultRequestTimeout bounds one round-trip to the editor peer.
const DefaultRequestTimeout = 10 * time.Second

// Sender is the transport surface the correlator writes through.
type Sender interface {
	Send(payload []byte) error
}

// EventHandler receives one peer event. Handlers run on the transport read
// path and must not block.
type EventHandler func(msg *protocol.Message)

type outcome struct {
	data json.RawMessage
	err  error
}

// pendingRequest reaches exactly one of the resolved or timed-out terminal
// states; whoever removes it from the table delivers the outcome.
type pendingRequest struct {
	id    string
	ch    chan outcome
	timer *time.Timer
}

// Correlator multiplexes request/response pairs and events over one
// transport. Concurrent requests interleave freely; responses are matched by
// identifier, not send order.
type Correlator struct {
	sender  Sender
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingRequest

	subsMu  sync.RWMutex
	subs    map[string]map[uint64]EventHandler
	nextSub uint64
}

func New(sender Sender, requestTimeout time.Duration) *Correlator {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}
	return &Correlator{
		sender:  sender,
		timeout: requestTimeout,
		pending: make(map[string]*pendingRequest),
		subs:    make(map[string]map[uint64]EventHandler),
	}
}

// Request sends one command and blocks until the matching response, the
// request timeout, a peer disconnect, or ctx cancellation.
func (c *Correlator) Request(ctx context.Context, command string, params map[string]any) (json.RawMessage, error) {
	id := uuid.NewString()
	payload, err := protocol.EncodeMessage(protocol.NewRequest(id, command, params))
	if err != nil {
		return nil, err
	}

	req := &pendingRequest{
		id: id,
		ch: make(chan outcome, 1),
	}
	c.mu.Lock()
	c.pending[id] = req
	req.timer = time.AfterFunc(c.timeout, func() {
		c.finish(id, outcome{err: ErrTimeout})
	})
	c.mu.Unlock()

	if err := c.sender.Send(payload); err != nil {
		c.finish(id, outcome{err: err})
		<-req.ch
		return nil, fmt.Errorf("correlator: send %s: %w", command, err)
	}

	select {
	case out := <-req.ch:
		return out.data, out.err
	case <-ctx.Done():
		c.finish(id, outcome{err: ctx.Err()})
		out := <-req.ch
		return out.data, out.err
	}
}

// Subscribe registers a handler for one event type and returns its cancel
// function. All subscribers of a type receive every event of that type.
func (c *Correlator) Subscribe(eventType string, fn EventHandler) func() {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	c.nextSub++
	id := c.nextSub
	if c.subs[eventType] == nil {
		c.subs[eventType] = make(map[uint64]EventHandler)
	}
	c.subs[eventType][id] = fn
	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs[eventType], id)
	}
}

// HandleMessage routes one inbound payload: responses resolve pending
// requests, events fan out to subscribers, anything else is logged and
// dropped.
func (c *Correlator) HandleMessage(raw []byte) {
	msg, err := protocol.DecodeMessage(raw)
	if err != nil {
		log.Warn().Err(err).Msg("unparsable peer message dropped")
		return
	}

	switch msg.Kind() {
	case protocol.KindResponse:
		out := outcome{data: msg.Data}
		if !msg.Succeeded() {
			out = outcome{err: fmt.Errorf("%w: %s", ErrPeerRejected, msg.Error)}
		}
		if !c.finish(msg.ID, out) {
			// Duplicate or late response; first match already won.
			log.Debug().Str("id", msg.ID).Msg("unmatched response ignored")
		}
	case protocol.KindEvent:
		c.dispatchEvent(msg)
	default:
		log.Debug().Str("command", msg.Command).Msg("unexpected peer request dropped")
	}
}

// FailAll rejects every outstanding request immediately, without waiting out
// their timers. Called when the transport closes underneath us.
func (c *Correlator) FailAll(cause error) {
	c.mu.Lock()
	drained := make([]*pendingRequest, 0, len(c.pending))
	for _, req := range c.pending {
		drained = append(drained, req)
	}
	c.pending = make(map[string]*pendingRequest)
	c.mu.Unlock()

	err := ErrPeerDisconnected
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrPeerDisconnected, cause)
	}
	for _, req := range drained {
		req.timer.Stop()
		req.ch <- outcome{err: err}
	}
}

// PendingCount reports outstanding requests.
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Correlator) finish(id string, out outcome) bool {
	c.mu.Lock()
	req, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	req.timer.Stop()
	req.ch <- out
	return true
}

func (c *Correlator) dispatchEvent(msg *protocol.Message) {
	c.subsMu.RLock()
	handlers := make([]EventHandler, 0, len(c.subs[msg.Type]))
	for _, fn := range c.subs[msg.Type] {
		handlers = append(handlers, fn)
	}
	c.subsMu.RUnlock()
	for _, fn := range handlers {
		fn(msg)
	}
}
