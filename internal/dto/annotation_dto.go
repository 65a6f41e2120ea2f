package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateAnnotationRequest struct {
	SessionId  uuid.UUID     `json:"session_id" validate:"required"`
	ImageId    uuid.UUID     `json:"image_id" validate:"required"`
	Region     RegionPayload `json:"region" validate:"required"`
	Label      string        `json:"label" validate:"required"`
	Confidence *float64      `json:"confidence" validate:"omitempty,gte=0,lte=1"`
	Source     string        `json:"source" validate:"omitempty,oneof=ai user system"`
	Note       string        `json:"note"`
}

type CreateAnnotationResponse struct {
	Id  uuid.UUID `json:"id"`
	Seq int64     `json:"canvas_seq"`
}

// EditAnnotationRequest touches only mutable fields. Geometry and source are
// frozen at creation; a change of either is a new annotation.
type EditAnnotationRequest struct {
	Id      uuid.UUID
	Label   string `json:"label" validate:"required"`
	Note    string `json:"note"`
	Visible *bool  `json:"visible"`
}

type EditAnnotationResponse struct {
	Id         uuid.UUID `json:"id"`
	Supersedes uuid.UUID `json:"supersedes"`
}

type AnnotationItem struct {
	Id           uuid.UUID     `json:"id"`
	SessionId    uuid.UUID     `json:"session_id"`
	ImageId      uuid.UUID     `json:"image_id"`
	Region       RegionPayload `json:"region"`
	Label        string        `json:"label"`
	Confidence   *float64      `json:"confidence,omitempty"`
	Source       string        `json:"source"`
	Note         string        `json:"note,omitempty"`
	Visible      bool          `json:"visible"`
	Supersedes   *uuid.UUID    `json:"supersedes,omitempty"`
	SupersededBy *uuid.UUID    `json:"superseded_by,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

type ListAnnotationsResponse struct {
	Annotations []AnnotationItem `json:"annotations"`
}
