package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ReferenceCase struct {
	Id           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CaseId       string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	Labels       datatypes.JSON  `gorm:"type:jsonb"`
	Report       string          `gorm:"type:text"`
	Thumbnail    string          `gorm:"type:text"`
	Embedding    pgvector.Vector `gorm:"type:vector(768)"` // RAD-DINO style encoders emit 768 dims
	InsertionSeq int64           `gorm:"not null;index"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
}

func (ReferenceCase) TableName() string {
	return "reference_cases"
}
