package implementation

import (
	"context"
	"errors"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/mapper"
	"github.com/u9401066/medvision-mcp/internal/model"
	"github.com/u9401066/medvision-mcp/internal/repository/contract"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"

	"gorm.io/gorm"
)

type AnnotationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AnnotationMapper
}

func NewAnnotationRepository(db *gorm.DB) contract.AnnotationRepository {
	return &AnnotationRepositoryImpl{
		db:     db,
		mapper: mapper.NewAnnotationMapper(),
	}
}

func (r *AnnotationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AnnotationRepositoryImpl) Create(ctx context.Context, annotation *entity.Annotation) error {
	m := r.mapper.ToModel(annotation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*annotation = *r.mapper.ToEntity(m)
	return nil
}

func (r *AnnotationRepositoryImpl) Update(ctx context.Context, annotation *entity.Annotation) error {
	// Column list keeps geometry and source immutable at the SQL level too.
	updates := map[string]interface{}{
		"label":         annotation.Label,
		"note":          annotation.Note,
		"visible":       annotation.Visible,
		"superseded_by": annotation.SupersededBy,
	}
	return r.db.WithContext(ctx).
		Model(&model.Annotation{}).
		Where("id = ?", annotation.Id).
		Updates(updates).Error
}

func (r *AnnotationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Annotation, error) {
	var m model.Annotation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AnnotationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Annotation, error) {
	var models []*model.Annotation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AnnotationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Annotation{}).Count(&count).Error
	return count, err
}
