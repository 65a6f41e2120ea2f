package mapper

import (
	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/model"

	"gorm.io/datatypes"
)

type CanvasEventMapper struct{}

func NewCanvasEventMapper() *CanvasEventMapper {
	return &CanvasEventMapper{}
}

func (m *CanvasEventMapper) ToEntity(e *model.CanvasEvent) *entity.CanvasEvent {
	if e == nil {
		return nil
	}
	return &entity.CanvasEvent{
		Id:        e.Id,
		SessionId: e.SessionId,
		Seq:       e.Seq,
		Action:    entity.CanvasAction(e.Action),
		Payload:   map[string]interface{}(e.Payload),
		CreatedAt: e.CreatedAt,
	}
}

func (m *CanvasEventMapper) ToModel(e *entity.CanvasEvent) *model.CanvasEvent {
	if e == nil {
		return nil
	}
	return &model.CanvasEvent{
		Id:        e.Id,
		SessionId: e.SessionId,
		Seq:       e.Seq,
		Action:    string(e.Action),
		Payload:   datatypes.JSONMap(e.Payload),
		CreatedAt: e.CreatedAt,
	}
}

func (m *CanvasEventMapper) ToEntities(events []*model.CanvasEvent) []*entity.CanvasEvent {
	entities := make([]*entity.CanvasEvent, len(events))
	for i, e := range events {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
