package entity

import (
	"time"

	"github.com/google/uuid"
)

// CanvasAction is the kind of state change pushed toward the workspace.
type CanvasAction string

const (
	ActionAddLayer    CanvasAction = "add_layer"
	ActionUpdateLayer CanvasAction = "update_layer"
	ActionRemoveLayer CanvasAction = "remove_layer"
	ActionHighlight   CanvasAction = "highlight"
)

// CanvasEvent is a strictly ordered record of a canvas state change.
// Seq is monotonically increasing per session with no gaps; the sync
// coordinator is the sole writer.
type CanvasEvent struct {
	Id        uuid.UUID
	SessionId uuid.UUID
	Seq       int64
	Action    CanvasAction
	Payload   map[string]interface{}
	CreatedAt time.Time
}
