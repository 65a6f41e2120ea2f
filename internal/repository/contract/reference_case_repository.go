package contract

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
)

// ScoredReferenceCase wraps a ReferenceCase with its query distance.
type ScoredReferenceCase struct {
	Case     *entity.ReferenceCase
	Distance float64
}

type ReferenceCaseRepository interface {
	Create(ctx context.Context, refCase *entity.ReferenceCase) error
	CreateBulk(ctx context.Context, refCases []*entity.ReferenceCase) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ReferenceCase, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ReferenceCase, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// MaxInsertionSeq returns the highest insertion sequence, or 0 when the
	// table is empty. New cases are assigned the next value so rebuilds with
	// identical insertion order reproduce identical tie-breaks.
	MaxInsertionSeq(ctx context.Context) (int64, error)
	// SearchNearest returns the limit nearest cases by L2 distance, ascending,
	// ties broken by insertion sequence.
	SearchNearest(ctx context.Context, embedding []float32, limit int) ([]*ScoredReferenceCase, error)
}
