package mapper

import (
	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/model"
)

type ImageMapper struct{}

func NewImageMapper() *ImageMapper {
	return &ImageMapper{}
}

func (m *ImageMapper) ToEntity(i *model.Image) *entity.Image {
	if i == nil {
		return nil
	}
	return &entity.Image{
		Id:        i.Id,
		SessionId: i.SessionId,
		Path:      i.Path,
		Type:      entity.ImageType(i.Type),
		Width:     i.Width,
		Height:    i.Height,
		CreatedAt: i.CreatedAt,
	}
}

func (m *ImageMapper) ToModel(i *entity.Image) *model.Image {
	if i == nil {
		return nil
	}
	return &model.Image{
		Id:        i.Id,
		SessionId: i.SessionId,
		Path:      i.Path,
		Type:      string(i.Type),
		Width:     i.Width,
		Height:    i.Height,
		CreatedAt: i.CreatedAt,
	}
}

func (m *ImageMapper) ToEntities(images []*model.Image) []*entity.Image {
	entities := make([]*entity.Image, len(images))
	for i, img := range images {
		entities[i] = m.ToEntity(img)
	}
	return entities
}
