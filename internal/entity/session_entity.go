package entity

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	Id             uuid.UUID
	Name           string
	Metadata       map[string]interface{}
	CurrentImageId *uuid.UUID
	Closed         bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
