package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CanvasEvent struct {
	Id        uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_canvas_events_session_seq"`
	Seq       int64             `gorm:"not null;uniqueIndex:idx_canvas_events_session_seq"`
	Action    string            `gorm:"type:varchar(32);not null"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
}

func (CanvasEvent) TableName() string {
	return "canvas_events"
}
