package unitofwork

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	ImageRepository() contract.ImageRepository
	AnnotationRepository() contract.AnnotationRepository
	CanvasEventRepository() contract.CanvasEventRepository
	ReferenceCaseRepository() contract.ReferenceCaseRepository
}
