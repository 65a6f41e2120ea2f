package canvas

import (
	"context"
	"sort"
	"sync"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/pkg/logger"

	"github.com/google/uuid"
)

// State of one session's canvas pipeline.
type State string

const (
	StateIdle     State = "idle"
	StateDirty    State = "dirty"
	StateFlushing State = "flushing"
)

// Transport delivers one event to the session's workspace and confirms
// receipt. Delivery may happen more than once for the same seq; consumers
// dedupe on it.
type Transport interface {
	Deliver(ctx context.Context, sessionId uuid.UUID, event *entity.CanvasEvent) error
}

// Coordinator runs the per-session canvas state machine. Events are already
// persisted with their seq when they arrive here; the coordinator owns
// ordering of delivery and the acked cursor, never the events themselves.
type Coordinator struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*sessionState
	transport Transport
	logger    logger.ILogger
}

type sessionState struct {
	state   State
	pending []*entity.CanvasEvent // ascending seq
	acked   int64                 // highest seq the transport confirmed
}

func NewCoordinator(transport Transport, log logger.ILogger) *Coordinator {
	return &Coordinator{
		sessions:  make(map[uuid.UUID]*sessionState),
		transport: transport,
		logger:    log,
	}
}

func (c *Coordinator) session(sessionId uuid.UUID) *sessionState {
	s, ok := c.sessions[sessionId]
	if !ok {
		s = &sessionState{state: StateIdle}
		c.sessions[sessionId] = s
	}
	return s
}

// Enqueue registers a persisted event for delivery. Idle goes Dirty; a
// Flushing session keeps flushing and will pick the event up in the same
// drain.
func (c *Coordinator) Enqueue(sessionId uuid.UUID, event *entity.CanvasEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session(sessionId)
	s.pending = append(s.pending, event)
	sort.SliceStable(s.pending, func(i, j int) bool {
		return s.pending[i].Seq < s.pending[j].Seq
	})
	if s.state == StateIdle {
		s.state = StateDirty
	}
}

// Flush drains the pending queue in seq order. Each event is acked only
// after the transport confirms it; a failed delivery leaves the session
// Dirty with everything undelivered still queued.
func (c *Coordinator) Flush(ctx context.Context, sessionId uuid.UUID) error {
	c.mu.Lock()
	s := c.session(sessionId)
	if s.state == StateFlushing {
		c.mu.Unlock()
		return nil
	}
	if len(s.pending) == 0 {
		s.state = StateIdle
		c.mu.Unlock()
		return nil
	}
	s.state = StateFlushing
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if len(s.pending) == 0 {
			s.state = StateIdle
			c.mu.Unlock()
			return nil
		}
		next := s.pending[0]
		c.mu.Unlock()

		if err := c.transport.Deliver(ctx, sessionId, next); err != nil {
			c.mu.Lock()
			s.state = StateDirty
			c.mu.Unlock()
			c.logger.Warn("CANVAS", "Flush interrupted, session left dirty", map[string]interface{}{
				"session_id": sessionId.String(),
				"seq":        next.Seq,
				"error":      err.Error(),
			})
			return err
		}

		c.mu.Lock()
		if s.acked < next.Seq {
			s.acked = next.Seq
		}
		s.pending = s.pending[1:]
		c.mu.Unlock()
	}
}

// OnDisconnect marks a session with undelivered events Dirty so the next
// attach resumes the flush.
func (c *Coordinator) OnDisconnect(sessionId uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session(sessionId)
	if len(s.pending) > 0 {
		s.state = StateDirty
	} else {
		s.state = StateIdle
	}
}

// State reports the session's pipeline state.
func (c *Coordinator) State(sessionId uuid.UUID) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session(sessionId).state
}

// Acked returns the highest seq confirmed delivered for the session. A
// reconnecting client passes its own cursor; the lower of the two is where
// replay starts.
func (c *Coordinator) Acked(sessionId uuid.UUID) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session(sessionId).acked
}

// PendingCount is used by the status surface.
func (c *Coordinator) PendingCount(sessionId uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.session(sessionId).pending)
}
