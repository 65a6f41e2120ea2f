package dto

import (
	"github.com/google/uuid"
)

type PushToCanvasRequest struct {
	SessionId uuid.UUID              `json:"session_id" validate:"required"`
	Action    string                 `json:"action" validate:"required,oneof=add_layer update_layer remove_layer highlight"`
	Payload   map[string]interface{} `json:"payload"`
}

type PushToCanvasResponse struct {
	Seq   int64  `json:"seq"`
	State string `json:"state"`
}

// UserDrawing is client-side geometry reported back during sync. Each one
// becomes a user-sourced annotation.
type UserDrawing struct {
	Region RegionPayload `json:"region" validate:"required"`
	Label  string        `json:"label"`
	Note   string        `json:"note"`
}

type SyncCanvasStateRequest struct {
	SessionId uuid.UUID              `json:"session_id" validate:"required"`
	Cursor    int64                  `json:"cursor" validate:"gte=0"`
	Viewport  map[string]interface{} `json:"viewport"`
	Drawings  []UserDrawing          `json:"drawings" validate:"dive"`
}

type CanvasEventItem struct {
	Id      uuid.UUID              `json:"id"`
	Seq     int64                  `json:"seq"`
	Action  string                 `json:"action"`
	Payload map[string]interface{} `json:"payload"`
}

type SyncCanvasStateResponse struct {
	Events        []CanvasEventItem `json:"events"`
	Cursor        int64             `json:"cursor"`
	State         string            `json:"state"`
	AnnotationIds []uuid.UUID       `json:"annotation_ids,omitempty"`
}
