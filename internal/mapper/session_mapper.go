package mapper

import (
	"time"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/model"

	"gorm.io/datatypes"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Session{
		Id:             s.Id,
		Name:           s.Name,
		Metadata:       map[string]interface{}(s.Metadata),
		CurrentImageId: s.CurrentImageId,
		Closed:         s.Closed,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *SessionMapper) ToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Session{
		Id:             s.Id,
		Name:           s.Name,
		Metadata:       datatypes.JSONMap(s.Metadata),
		CurrentImageId: s.CurrentImageId,
		Closed:         s.Closed,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}
