package model

import (
	"time"

	"github.com/google/uuid"
)

type Image struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Path      string    `gorm:"type:text;not null"`
	Type      string    `gorm:"type:varchar(16);not null"`
	Width     int       `gorm:"not null"`
	Height    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Image) TableName() string {
	return "images"
}
