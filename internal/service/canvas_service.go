package service

import (
	"context"
	"time"

	"github.com/u9401066/medvision-mcp/internal/apperror"
	"github.com/u9401066/medvision-mcp/internal/canvas"
	"github.com/u9401066/medvision-mcp/internal/dto"
	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/pkg/keylock"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
	"github.com/u9401066/medvision-mcp/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const syncBatchLimit = 500

type ICanvasService interface {
	Push(ctx context.Context, req *dto.PushToCanvasRequest) (*dto.PushToCanvasResponse, error)
	Sync(ctx context.Context, req *dto.SyncCanvasStateRequest) (*dto.SyncCanvasStateResponse, error)
}

type canvasService struct {
	uowFactory        unitofwork.RepositoryFactory
	locks             *keylock.KeyLock
	coordinator       *canvas.Coordinator
	annotationService IAnnotationService
}

func NewCanvasService(
	uowFactory unitofwork.RepositoryFactory,
	locks *keylock.KeyLock,
	coordinator *canvas.Coordinator,
	annotationService IAnnotationService,
) ICanvasService {
	return &canvasService{
		uowFactory:        uowFactory,
		locks:             locks,
		coordinator:       coordinator,
		annotationService: annotationService,
	}
}

// Push records an explicit canvas action with the next seq and schedules a
// flush toward the attached workspace.
func (s *canvasService) Push(ctx context.Context, req *dto.PushToCanvasRequest) (*dto.PushToCanvasResponse, error) {
	s.locks.Lock(req.SessionId.String())
	defer s.locks.Unlock(req.SessionId.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: req.SessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session %s not found", req.SessionId)
	}
	if session.Closed {
		return nil, apperror.Validation("session is closed")
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	maxSeq, err := uow.CanvasEventRepository().MaxSeq(ctx, req.SessionId)
	if err != nil {
		uow.Rollback()
		return nil, err
	}

	event := entity.CanvasEvent{
		Id:        uuid.New(),
		SessionId: req.SessionId,
		Seq:       maxSeq + 1,
		Action:    entity.CanvasAction(req.Action),
		Payload:   req.Payload,
		CreatedAt: time.Now(),
	}
	if err := uow.CanvasEventRepository().Create(ctx, &event); err != nil {
		uow.Rollback()
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.coordinator.Enqueue(req.SessionId, &event)
	go s.coordinator.Flush(context.Background(), req.SessionId)

	return &dto.PushToCanvasResponse{
		Seq:   event.Seq,
		State: string(s.coordinator.State(req.SessionId)),
	}, nil
}

// Sync is the pull side of the pipeline: the workspace reports its cursor
// (last seq it applied) and gets everything after it, in order. Dedupe falls
// out of the cursor, redelivered events are simply below it. User drawings
// reported alongside become user-sourced annotations.
func (s *canvasService) Sync(ctx context.Context, req *dto.SyncCanvasStateRequest) (*dto.SyncCanvasStateResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: req.SessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session %s not found", req.SessionId)
	}

	var annotationIds []uuid.UUID
	if session.CurrentImageId != nil {
		for _, drawing := range req.Drawings {
			label := drawing.Label
			if label == "" {
				label = "user drawing"
			}
			created, err := s.annotationService.Create(ctx, &dto.CreateAnnotationRequest{
				SessionId: req.SessionId,
				ImageId:   *session.CurrentImageId,
				Region:    drawing.Region,
				Label:     label,
				Source:    string(entity.SourceUser),
				Note:      drawing.Note,
			})
			if err != nil {
				return nil, err
			}
			annotationIds = append(annotationIds, created.Id)
		}
	} else if len(req.Drawings) > 0 {
		return nil, apperror.Validation("session has no current image for drawings")
	}

	events, err := uow.CanvasEventRepository().FindAfter(ctx, req.SessionId, req.Cursor, syncBatchLimit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.CanvasEventItem, 0, len(events))
	cursor := req.Cursor
	for _, ev := range events {
		items = append(items, dto.CanvasEventItem{
			Id:      ev.Id,
			Seq:     ev.Seq,
			Action:  string(ev.Action),
			Payload: ev.Payload,
		})
		if ev.Seq > cursor {
			cursor = ev.Seq
		}
	}

	return &dto.SyncCanvasStateResponse{
		Events:        items,
		Cursor:        cursor,
		State:         string(s.coordinator.State(req.SessionId)),
		AnnotationIds: annotationIds,
	}, nil
}
