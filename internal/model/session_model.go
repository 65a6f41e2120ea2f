package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Session struct {
	Id             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string            `gorm:"type:varchar(255)"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	CurrentImageId *uuid.UUID        `gorm:"type:uuid"`
	Closed         bool              `gorm:"not null;default:false"`
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt    `gorm:"index"`
}

func (Session) TableName() string {
	return "sessions"
}
