package mapper

import (
	"encoding/json"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/model"

	"gorm.io/datatypes"
)

type AnnotationMapper struct{}

func NewAnnotationMapper() *AnnotationMapper {
	return &AnnotationMapper{}
}

func (m *AnnotationMapper) ToEntity(a *model.Annotation) *entity.Annotation {
	if a == nil {
		return nil
	}

	var region entity.Region
	// Region was validated before storage; the stored JSON always round-trips.
	_ = json.Unmarshal(a.Region, &region)

	return &entity.Annotation{
		Id:           a.Id,
		SessionId:    a.SessionId,
		ImageId:      a.ImageId,
		Region:       region,
		Label:        a.Label,
		Confidence:   a.Confidence,
		Source:       entity.AnnotationSource(a.Source),
		Note:         a.Note,
		Visible:      a.Visible,
		Supersedes:   a.Supersedes,
		SupersededBy: a.SupersededBy,
		CreatedAt:    a.CreatedAt,
	}
}

func (m *AnnotationMapper) ToModel(a *entity.Annotation) *model.Annotation {
	if a == nil {
		return nil
	}

	regionJSON, _ := json.Marshal(a.Region)

	return &model.Annotation{
		Id:           a.Id,
		SessionId:    a.SessionId,
		ImageId:      a.ImageId,
		Region:       datatypes.JSON(regionJSON),
		Label:        a.Label,
		Confidence:   a.Confidence,
		Source:       string(a.Source),
		Note:         a.Note,
		Visible:      a.Visible,
		Supersedes:   a.Supersedes,
		SupersededBy: a.SupersededBy,
		CreatedAt:    a.CreatedAt,
	}
}

func (m *AnnotationMapper) ToEntities(annotations []*model.Annotation) []*entity.Annotation {
	entities := make([]*entity.Annotation, len(annotations))
	for i, a := range annotations {
		entities[i] = m.ToEntity(a)
	}
	return entities
}
