package memory

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/repository/contract"
	"github.com/u9401066/medvision-mcp/internal/repository/unitofwork"
)

// UnitOfWork shares one set of in-memory repositories across Begin/Commit
// cycles. There is no transaction isolation; writes land immediately. The
// session writer lock above this layer is what keeps writes serialized, so
// tests observe the same ordering the gorm variant would.
type UnitOfWork struct {
	sessions       *SessionRepository
	images         *ImageRepository
	annotations    *AnnotationRepository
	canvasEvents   *CanvasEventRepository
	referenceCases *ReferenceCaseRepository
}

func (u *UnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *UnitOfWork) Commit() error                   { return nil }
func (u *UnitOfWork) Rollback() error                 { return nil }

func (u *UnitOfWork) SessionRepository() contract.SessionRepository {
	return u.sessions
}

func (u *UnitOfWork) ImageRepository() contract.ImageRepository {
	return u.images
}

func (u *UnitOfWork) AnnotationRepository() contract.AnnotationRepository {
	return u.annotations
}

func (u *UnitOfWork) CanvasEventRepository() contract.CanvasEventRepository {
	return u.canvasEvents
}

func (u *UnitOfWork) ReferenceCaseRepository() contract.ReferenceCaseRepository {
	return u.referenceCases
}

// RepositoryFactory hands out units of work over a single shared store.
type RepositoryFactory struct {
	uow *UnitOfWork
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{
		uow: &UnitOfWork{
			sessions:       NewSessionRepository(),
			images:         NewImageRepository(),
			annotations:    NewAnnotationRepository(),
			canvasEvents:   NewCanvasEventRepository(),
			referenceCases: NewReferenceCaseRepository(),
		},
	}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

var _ unitofwork.RepositoryFactory = (*RepositoryFactory)(nil)
