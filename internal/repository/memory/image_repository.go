package memory

import (
	"context"
	"sync"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/contract"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
)

type ImageRepository struct {
	mu     sync.RWMutex
	images []*entity.Image
}

func NewImageRepository() *ImageRepository {
	return &ImageRepository{}
}

func (r *ImageRepository) Create(ctx context.Context, image *entity.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *image
	r.images = append(r.images, &cp)
	return nil
}

func (r *ImageRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Image, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *ImageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.Image
	for _, img := range r.images {
		if matchImage(img, specs) {
			cp := *img
			out = append(out, &cp)
		}
	}
	return applyPagination(out, specs), nil
}

func (r *ImageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func matchImage(img *entity.Image, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if img.Id != sp.ID {
				return false
			}
		case specification.BySessionID:
			if img.SessionId != sp.SessionID {
				return false
			}
		case specification.FilterBy:
			switch sp.Field {
			case "type":
				if string(img.Type) != sp.Value.(string) {
					return false
				}
			case "path":
				if img.Path != sp.Value.(string) {
					return false
				}
			}
		}
	}
	return true
}

var _ contract.ImageRepository = (*ImageRepository)(nil)
