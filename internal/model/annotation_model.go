package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Annotation struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	ImageId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Region       datatypes.JSON `gorm:"type:jsonb;not null"`
	Label        string         `gorm:"type:varchar(255);not null"`
	Confidence   *float64
	Source       string     `gorm:"type:varchar(16);not null"`
	Note         string     `gorm:"type:text"`
	Visible      bool       `gorm:"not null;default:true"`
	Supersedes   *uuid.UUID `gorm:"type:uuid"`
	SupersededBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
}

func (Annotation) TableName() string {
	return "annotations"
}
