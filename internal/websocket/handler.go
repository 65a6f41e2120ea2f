package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a workspace connection to its session.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID uuid.UUID, onAttach, onDetach func(uuid.UUID)) {
	client := &Client{
		Hub:       hub,
		Conn:      c,
		SessionID: sessionID,
		Send:      make(chan []byte, 256),
		OnAttach:  onAttach,
		OnDetach:  onDetach,
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
