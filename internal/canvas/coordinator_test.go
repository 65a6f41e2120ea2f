package canvas

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/u9401066/medvision-mcp/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// fakeTransport records deliveries and can be told to fail from a given seq.
type fakeTransport struct {
	mu        sync.Mutex
	delivered []int64
	failFrom  int64 // fail deliveries with Seq >= failFrom when > 0
}

func (f *fakeTransport) Deliver(ctx context.Context, sessionId uuid.UUID, event *entity.CanvasEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFrom > 0 && event.Seq >= f.failFrom {
		return errors.New("workspace gone")
	}
	f.delivered = append(f.delivered, event.Seq)
	return nil
}

func (f *fakeTransport) seqs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.delivered))
	copy(out, f.delivered)
	return out
}

func event(sessionId uuid.UUID, seq int64) *entity.CanvasEvent {
	return &entity.CanvasEvent{
		Id:        uuid.New(),
		SessionId: sessionId,
		Seq:       seq,
		Action:    entity.ActionAddLayer,
	}
}

func TestFlushDrainsInSeqOrder(t *testing.T) {
	transport := &fakeTransport{}
	coord := NewCoordinator(transport, nopLogger{})
	sessionId := uuid.New()

	// Enqueued out of order; delivery must still be ordered.
	coord.Enqueue(sessionId, event(sessionId, 2))
	coord.Enqueue(sessionId, event(sessionId, 1))
	coord.Enqueue(sessionId, event(sessionId, 3))
	assert.Equal(t, StateDirty, coord.State(sessionId))

	require.NoError(t, coord.Flush(context.Background(), sessionId))

	assert.Equal(t, []int64{1, 2, 3}, transport.seqs())
	assert.Equal(t, StateIdle, coord.State(sessionId))
	assert.Equal(t, int64(3), coord.Acked(sessionId))
}

func TestFlushFailureLeavesDirtyWithPendingRetained(t *testing.T) {
	transport := &fakeTransport{failFrom: 2}
	coord := NewCoordinator(transport, nopLogger{})
	sessionId := uuid.New()

	for seq := int64(1); seq <= 3; seq++ {
		coord.Enqueue(sessionId, event(sessionId, seq))
	}

	err := coord.Flush(context.Background(), sessionId)
	require.Error(t, err)

	assert.Equal(t, StateDirty, coord.State(sessionId))
	assert.Equal(t, int64(1), coord.Acked(sessionId), "only seq 1 was confirmed")
	assert.Equal(t, 2, coord.PendingCount(sessionId), "undelivered events stay queued")

	// Recovery: transport comes back, the next flush finishes the drain.
	transport.mu.Lock()
	transport.failFrom = 0
	transport.mu.Unlock()

	require.NoError(t, coord.Flush(context.Background(), sessionId))
	assert.Equal(t, []int64{1, 2, 3}, transport.seqs())
	assert.Equal(t, StateIdle, coord.State(sessionId))
	assert.Equal(t, int64(3), coord.Acked(sessionId))
}

func TestEnqueueDuringFlushIsPickedUp(t *testing.T) {
	transport := &fakeTransport{}
	coord := NewCoordinator(transport, nopLogger{})
	sessionId := uuid.New()

	coord.Enqueue(sessionId, event(sessionId, 1))
	require.NoError(t, coord.Flush(context.Background(), sessionId))

	coord.Enqueue(sessionId, event(sessionId, 2))
	require.NoError(t, coord.Flush(context.Background(), sessionId))

	assert.Equal(t, []int64{1, 2}, transport.seqs())
}

func TestDisconnectWithPendingIsDirty(t *testing.T) {
	transport := &fakeTransport{failFrom: 1}
	coord := NewCoordinator(transport, nopLogger{})
	sessionId := uuid.New()

	coord.Enqueue(sessionId, event(sessionId, 1))
	_ = coord.Flush(context.Background(), sessionId)

	coord.OnDisconnect(sessionId)
	assert.Equal(t, StateDirty, coord.State(sessionId))

	// Nothing pending after a clean drain: disconnect settles to Idle.
	other := uuid.New()
	coord.OnDisconnect(other)
	assert.Equal(t, StateIdle, coord.State(other))
}

func TestSessionsAreIndependent(t *testing.T) {
	transport := &fakeTransport{}
	coord := NewCoordinator(transport, nopLogger{})
	a, b := uuid.New(), uuid.New()

	coord.Enqueue(a, event(a, 1))
	assert.Equal(t, StateDirty, coord.State(a))
	assert.Equal(t, StateIdle, coord.State(b))

	require.NoError(t, coord.Flush(context.Background(), a))
	assert.Equal(t, int64(1), coord.Acked(a))
	assert.Equal(t, int64(0), coord.Acked(b))
}
