package contract

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
)

type ImageRepository interface {
	Create(ctx context.Context, image *entity.Image) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Image, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Image, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
