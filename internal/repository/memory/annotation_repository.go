package memory

import (
	"context"
	"sync"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/contract"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
)

type AnnotationRepository struct {
	mu          sync.RWMutex
	annotations []*entity.Annotation
}

func NewAnnotationRepository() *AnnotationRepository {
	return &AnnotationRepository{}
}

func (r *AnnotationRepository) Create(ctx context.Context, annotation *entity.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *annotation
	r.annotations = append(r.annotations, &cp)
	return nil
}

func (r *AnnotationRepository) Update(ctx context.Context, annotation *entity.Annotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.annotations {
		if a.Id == annotation.Id {
			// Same column set the gorm implementation updates.
			a.Label = annotation.Label
			a.Note = annotation.Note
			a.Visible = annotation.Visible
			a.SupersededBy = annotation.SupersededBy
			return nil
		}
	}
	return nil
}

func (r *AnnotationRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Annotation, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *AnnotationRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Annotation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Annotation
	for _, a := range r.annotations {
		if matchAnnotation(a, specs) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return applyPagination(out, specs), nil
}

func (r *AnnotationRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func matchAnnotation(a *entity.Annotation, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if a.Id != sp.ID {
				return false
			}
		case specification.BySessionID:
			if a.SessionId != sp.SessionID {
				return false
			}
		case specification.ByImageID:
			if a.ImageId != sp.ImageID {
				return false
			}
		case specification.FilterBy:
			switch sp.Field {
			case "source":
				if string(a.Source) != sp.Value.(string) {
					return false
				}
			case "visible":
				if a.Visible != sp.Value.(bool) {
					return false
				}
			case "label":
				if a.Label != sp.Value.(string) {
					return false
				}
			}
		}
	}
	return true
}

var _ contract.AnnotationRepository = (*AnnotationRepository)(nil)
