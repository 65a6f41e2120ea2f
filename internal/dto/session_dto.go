package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Name     string                 `json:"name" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type SessionStatusResponse struct {
	Id              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Closed          bool       `json:"closed"`
	CurrentImageId  *uuid.UUID `json:"current_image_id"`
	ImageCount      int64      `json:"image_count"`
	AnnotationCount int64      `json:"annotation_count"`
	CanvasState     string     `json:"canvas_state"`
	LastCanvasSeq   int64      `json:"last_canvas_seq"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`
}

type AddImageRequest struct {
	SessionId uuid.UUID
	Path      string `json:"path" validate:"required"`
	Type      string `json:"type"`
	Width     int    `json:"width" validate:"required,gt=0"`
	Height    int    `json:"height" validate:"required,gt=0"`
}

type AddImageResponse struct {
	Id   uuid.UUID `json:"id"`
	Type string    `json:"type"`
}
