package implementation

import (
	"context"
	"errors"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/mapper"
	"github.com/u9401066/medvision-mcp/internal/model"
	"github.com/u9401066/medvision-mcp/internal/repository/contract"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ReferenceCaseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ReferenceCaseMapper
}

func NewReferenceCaseRepository(db *gorm.DB) contract.ReferenceCaseRepository {
	return &ReferenceCaseRepositoryImpl{
		db:     db,
		mapper: mapper.NewReferenceCaseMapper(),
	}
}

func (r *ReferenceCaseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ReferenceCaseRepositoryImpl) Create(ctx context.Context, refCase *entity.ReferenceCase) error {
	m := r.mapper.ToModel(refCase)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*refCase = *r.mapper.ToEntity(m)
	return nil
}

func (r *ReferenceCaseRepositoryImpl) CreateBulk(ctx context.Context, refCases []*entity.ReferenceCase) error {
	models := make([]*model.ReferenceCase, len(refCases))
	for i, c := range refCases {
		models[i] = r.mapper.ToModel(c)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*refCases[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ReferenceCaseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ReferenceCase, error) {
	var m model.ReferenceCase
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ReferenceCaseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ReferenceCase, error) {
	var models []*model.ReferenceCase
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ReferenceCaseRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.ReferenceCase{}).Count(&count).Error
	return count, err
}

func (r *ReferenceCaseRepositoryImpl) MaxInsertionSeq(ctx context.Context) (int64, error) {
	var maxSeq *int64
	err := r.db.WithContext(ctx).
		Model(&model.ReferenceCase{}).
		Select("MAX(insertion_seq)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	if maxSeq == nil {
		return 0, nil
	}
	return *maxSeq, nil
}

// SearchNearest uses the pgvector L2 operator. Ordering by distance then
// insertion_seq keeps equal-distance results reproducible across index
// rebuilds with identical insertion order.
func (r *ReferenceCaseRepositoryImpl) SearchNearest(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredReferenceCase, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.ReferenceCase
		Distance float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("reference_cases").
		Select("reference_cases.*, embedding <-> ? as distance", queryVector).
		Order("distance ASC, insertion_seq ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredReferenceCase, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredReferenceCase{
			Case:     r.mapper.ToEntity(&res.ReferenceCase),
			Distance: res.Distance,
		}
	}
	return scored, nil
}
