package implementation

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/mapper"
	"github.com/u9401066/medvision-mcp/internal/model"
	"github.com/u9401066/medvision-mcp/internal/repository/contract"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CanvasEventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CanvasEventMapper
}

func NewCanvasEventRepository(db *gorm.DB) contract.CanvasEventRepository {
	return &CanvasEventRepositoryImpl{
		db:     db,
		mapper: mapper.NewCanvasEventMapper(),
	}
}

func (r *CanvasEventRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CanvasEventRepositoryImpl) Create(ctx context.Context, event *entity.CanvasEvent) error {
	m := r.mapper.ToModel(event)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*event = *r.mapper.ToEntity(m)
	return nil
}

func (r *CanvasEventRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CanvasEvent, error) {
	var models []*model.CanvasEvent
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *CanvasEventRepositoryImpl) FindAfter(ctx context.Context, sessionId uuid.UUID, afterSeq int64, limit int) ([]*entity.CanvasEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []*model.CanvasEvent
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Where("seq > ?", afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *CanvasEventRepositoryImpl) MaxSeq(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	var maxSeq *int64
	err := r.db.WithContext(ctx).
		Model(&model.CanvasEvent{}).
		Where("session_id = ?", sessionId).
		Select("MAX(seq)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	if maxSeq == nil {
		return 0, nil
	}
	return *maxSeq, nil
}

func (r *CanvasEventRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.CanvasEvent{}).Count(&count).Error
	return count, err
}
