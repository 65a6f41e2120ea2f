package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type quietLogger struct{}

func (quietLogger) Debug(string, string, map[string]interface{}) {}
func (quietLogger) Info(string, string, map[string]interface{})  {}
func (quietLogger) Warn(string, string, map[string]interface{})  {}
func (quietLogger) Error(string, string, map[string]interface{}) {}
func (quietLogger) Sync() error                                  { return nil }

// Registering a workspace must fire the attach hook so the coordinator can
// drain events that queued up while nobody was connected.
func TestHubFiresAttachHookOnRegister(t *testing.T) {
	hub := NewHub(nil, quietLogger{})
	go hub.Run()

	sessionID := uuid.New()
	attached := make(chan uuid.UUID, 1)

	client := &Client{
		Hub:       hub,
		SessionID: sessionID,
		Send:      make(chan []byte, 1),
		OnAttach:  func(sid uuid.UUID) { attached <- sid },
	}
	hub.register <- client

	select {
	case sid := <-attached:
		assert.Equal(t, sessionID, sid)
	case <-time.After(time.Second):
		t.Fatal("attach hook never fired")
	}
	assert.True(t, hub.HasClients(sessionID))
}
