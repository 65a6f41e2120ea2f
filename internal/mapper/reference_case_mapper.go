package mapper

import (
	"encoding/json"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ReferenceCaseMapper struct{}

func NewReferenceCaseMapper() *ReferenceCaseMapper {
	return &ReferenceCaseMapper{}
}

func (m *ReferenceCaseMapper) ToEntity(c *model.ReferenceCase) *entity.ReferenceCase {
	if c == nil {
		return nil
	}

	var labels []string
	if len(c.Labels) > 0 {
		_ = json.Unmarshal(c.Labels, &labels)
	}

	return &entity.ReferenceCase{
		Id:           c.Id,
		CaseId:       c.CaseId,
		Labels:       labels,
		Report:       c.Report,
		Thumbnail:    c.Thumbnail,
		Embedding:    c.Embedding.Slice(),
		InsertionSeq: c.InsertionSeq,
		CreatedAt:    c.CreatedAt,
	}
}

func (m *ReferenceCaseMapper) ToModel(c *entity.ReferenceCase) *model.ReferenceCase {
	if c == nil {
		return nil
	}

	labelsJSON, _ := json.Marshal(c.Labels)

	return &model.ReferenceCase{
		Id:           c.Id,
		CaseId:       c.CaseId,
		Labels:       datatypes.JSON(labelsJSON),
		Report:       c.Report,
		Thumbnail:    c.Thumbnail,
		Embedding:    pgvector.NewVector(c.Embedding),
		InsertionSeq: c.InsertionSeq,
		CreatedAt:    c.CreatedAt,
	}
}

func (m *ReferenceCaseMapper) ToEntities(cases []*model.ReferenceCase) []*entity.ReferenceCase {
	entities := make([]*entity.ReferenceCase, len(cases))
	for i, c := range cases {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
