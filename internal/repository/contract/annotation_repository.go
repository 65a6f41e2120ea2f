package contract

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
)

type AnnotationRepository interface {
	Create(ctx context.Context, annotation *entity.Annotation) error
	// Update only touches the mutable fields (label, note, visible,
	// superseded_by); geometry and source stay as written.
	Update(ctx context.Context, annotation *entity.Annotation) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Annotation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Annotation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
