package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/contract"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
)

type ReferenceCaseRepository struct {
	mu    sync.RWMutex
	cases []*entity.ReferenceCase
}

func NewReferenceCaseRepository() *ReferenceCaseRepository {
	return &ReferenceCaseRepository{}
}

func (r *ReferenceCaseRepository) Create(ctx context.Context, refCase *entity.ReferenceCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *refCase
	r.cases = append(r.cases, &cp)
	return nil
}

func (r *ReferenceCaseRepository) CreateBulk(ctx context.Context, refCases []*entity.ReferenceCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rc := range refCases {
		cp := *rc
		r.cases = append(r.cases, &cp)
	}
	return nil
}

func (r *ReferenceCaseRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ReferenceCase, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *ReferenceCaseRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ReferenceCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.ReferenceCase
	for _, rc := range r.cases {
		if matchReferenceCase(rc, specs) {
			cp := *rc
			out = append(out, &cp)
		}
	}
	return applyPagination(out, specs), nil
}

func (r *ReferenceCaseRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func (r *ReferenceCaseRepository) MaxInsertionSeq(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var max int64
	for _, rc := range r.cases {
		if rc.InsertionSeq > max {
			max = rc.InsertionSeq
		}
	}
	return max, nil
}

func (r *ReferenceCaseRepository) SearchNearest(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredReferenceCase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	scored := make([]*contract.ScoredReferenceCase, 0, len(r.cases))
	for _, rc := range r.cases {
		cp := *rc
		scored = append(scored, &contract.ScoredReferenceCase{
			Case:     &cp,
			Distance: l2Distance(embedding, rc.Embedding),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Distance != scored[j].Distance {
			return scored[i].Distance < scored[j].Distance
		}
		return scored[i].Case.InsertionSeq < scored[j].Case.InsertionSeq
	})
	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}
	return scored, nil
}

func l2Distance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func matchReferenceCase(rc *entity.ReferenceCase, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if rc.Id != sp.ID {
				return false
			}
		case specification.ByCaseID:
			if rc.CaseId != sp.CaseID {
				return false
			}
		}
	}
	return true
}

var _ contract.ReferenceCaseRepository = (*ReferenceCaseRepository)(nil)
