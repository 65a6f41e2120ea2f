package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/u9401066/medvision-mcp/internal/apperror"
	"github.com/u9401066/medvision-mcp/internal/canvas"
	"github.com/u9401066/medvision-mcp/internal/dto"
	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/pkg/keylock"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
	"github.com/u9401066/medvision-mcp/internal/repository/unitofwork"
	"github.com/u9401066/medvision-mcp/pkg/audit"

	"github.com/google/uuid"
)

type ISessionService interface {
	Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	Status(ctx context.Context, id uuid.UUID) (*dto.SessionStatusResponse, error)
	Close(ctx context.Context, id uuid.UUID) error
	AddImage(ctx context.Context, req *dto.AddImageRequest) (*dto.AddImageResponse, error)
}

// sessionService owns the session lifecycle. All writes to one session run
// under its writer lock, which is what makes them linearizable.
type sessionService struct {
	uowFactory       unitofwork.RepositoryFactory
	locks            *keylock.KeyLock
	coordinator      *canvas.Coordinator
	publisherService IPublisherService
	auditPublisher   audit.Publisher
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	locks *keylock.KeyLock,
	coordinator *canvas.Coordinator,
	publisherService IPublisherService,
	auditPublisher audit.Publisher,
) ISessionService {
	return &sessionService{
		uowFactory:       uowFactory,
		locks:            locks,
		coordinator:      coordinator,
		publisherService: publisherService,
		auditPublisher:   auditPublisher,
	}
}

func (s *sessionService) Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session := entity.Session{
		Id:        uuid.New(),
		Name:      req.Name,
		Metadata:  req.Metadata,
		CreatedAt: time.Now(),
	}

	if err := uow.SessionRepository().Create(ctx, &session); err != nil {
		return nil, err
	}

	s.auditPublisher.PublishSessionOpened(ctx, session.Id, session.Name)

	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (s *sessionService) Status(ctx context.Context, id uuid.UUID) (*dto.SessionStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session %s not found", id)
	}

	imageCount, err := uow.ImageRepository().Count(ctx, specification.BySessionID{SessionID: id})
	if err != nil {
		return nil, err
	}
	annotationCount, err := uow.AnnotationRepository().Count(ctx, specification.BySessionID{SessionID: id})
	if err != nil {
		return nil, err
	}
	lastSeq, err := uow.CanvasEventRepository().MaxSeq(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.SessionStatusResponse{
		Id:              session.Id,
		Name:            session.Name,
		Closed:          session.Closed,
		CurrentImageId:  session.CurrentImageId,
		ImageCount:      imageCount,
		AnnotationCount: annotationCount,
		CanvasState:     string(s.coordinator.State(id)),
		LastCanvasSeq:   lastSeq,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
	}, nil
}

func (s *sessionService) Close(ctx context.Context, id uuid.UUID) error {
	s.locks.Lock(id.String())
	defer s.locks.Unlock(id.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if session == nil {
		return apperror.NotFound("session %s not found", id)
	}
	if session.Closed {
		// Closing twice is harmless.
		return nil
	}

	now := time.Now()
	session.Closed = true
	session.UpdatedAt = &now
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		return err
	}

	s.auditPublisher.PublishSessionClosed(ctx, id)
	return nil
}

func (s *sessionService) AddImage(ctx context.Context, req *dto.AddImageRequest) (*dto.AddImageResponse, error) {
	s.locks.Lock(req.SessionId.String())
	defer s.locks.Unlock(req.SessionId.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: req.SessionId})
	if err != nil {
		return nil, err
	}
	// A closed session no longer accepts images; callers see it the same as
	// an unknown one.
	if session == nil || session.Closed {
		return nil, apperror.NotFound("session %s not found", req.SessionId)
	}

	imageType := entity.ImageType(req.Type)
	if req.Type == "" {
		imageType = entity.DetectImageType(req.Path)
	}

	img := entity.Image{
		Id:        uuid.New(),
		SessionId: req.SessionId,
		Path:      req.Path,
		Type:      imageType,
		Width:     req.Width,
		Height:    req.Height,
		CreatedAt: time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	if err := uow.ImageRepository().Create(ctx, &img); err != nil {
		uow.Rollback()
		return nil, err
	}

	now := time.Now()
	session.CurrentImageId = &img.Id
	session.UpdatedAt = &now
	if err := uow.SessionRepository().Update(ctx, session); err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Background embedding warm-up. Failure here never fails the attach.
	if s.publisherService != nil {
		msgJson, err := json.Marshal(dto.PublishEmbedImageMessage{ImageId: img.Id})
		if err == nil {
			_ = s.publisherService.Publish(ctx, msgJson)
		}
	}

	s.auditPublisher.PublishImageAttached(ctx, req.SessionId, img.Id, img.Path, string(img.Type))

	return &dto.AddImageResponse{Id: img.Id, Type: string(img.Type)}, nil
}
