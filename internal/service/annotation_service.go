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
	"github.com/u9401066/medvision-mcp/pkg/audit"

	"github.com/google/uuid"
)

type IAnnotationService interface {
	Create(ctx context.Context, req *dto.CreateAnnotationRequest) (*dto.CreateAnnotationResponse, error)
	Edit(ctx context.Context, req *dto.EditAnnotationRequest) (*dto.EditAnnotationResponse, error)
	List(ctx context.Context, sessionId uuid.UUID, imageId *uuid.UUID, includeSuperseded bool) (*dto.ListAnnotationsResponse, error)
}

// annotationService records annotations and their canvas events in one
// transaction under the session writer lock, so the annotation and its seq
// either both land or neither does.
type annotationService struct {
	uowFactory     unitofwork.RepositoryFactory
	locks          *keylock.KeyLock
	coordinator    *canvas.Coordinator
	auditPublisher audit.Publisher
}

func NewAnnotationService(
	uowFactory unitofwork.RepositoryFactory,
	locks *keylock.KeyLock,
	coordinator *canvas.Coordinator,
	auditPublisher audit.Publisher,
) IAnnotationService {
	return &annotationService{
		uowFactory:     uowFactory,
		locks:          locks,
		coordinator:    coordinator,
		auditPublisher: auditPublisher,
	}
}

func (s *annotationService) Create(ctx context.Context, req *dto.CreateAnnotationRequest) (*dto.CreateAnnotationResponse, error) {
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

	img, err := uow.ImageRepository().FindOne(ctx, specification.ByID{ID: req.ImageId})
	if err != nil {
		return nil, err
	}
	if img == nil || img.SessionId != req.SessionId {
		return nil, apperror.NotFound("image %s not found in session %s", req.ImageId, req.SessionId)
	}

	region := req.Region.ToEntity()
	if err := region.Validate(img.Width, img.Height); err != nil {
		return nil, apperror.InvalidRegion("%s", err.Error())
	}

	source := entity.AnnotationSource(req.Source)
	if req.Source == "" {
		source = entity.SourceUser
	}

	annotation := entity.Annotation{
		Id:         uuid.New(),
		SessionId:  req.SessionId,
		ImageId:    req.ImageId,
		Region:     region,
		Label:      req.Label,
		Confidence: req.Confidence,
		Source:     source,
		Note:       req.Note,
		Visible:    true,
		CreatedAt:  time.Now(),
	}

	event, err := s.writeWithCanvasEvent(ctx, uow, &annotation, entity.ActionAddLayer, nil)
	if err != nil {
		return nil, err
	}

	s.notify(req.SessionId, event)
	s.auditPublisher.PublishAnnotationRecorded(ctx, req.SessionId, annotation.Id, annotation.Label, string(annotation.Source))

	return &dto.CreateAnnotationResponse{Id: annotation.Id, Seq: event.Seq}, nil
}

func (s *annotationService) Edit(ctx context.Context, req *dto.EditAnnotationRequest) (*dto.EditAnnotationResponse, error) {
	// The annotation's session is not known until we load it, so the lock is
	// taken after a read. The superseded re-check inside the transaction
	// keeps two racing editors from both winning.
	uowRead := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uowRead.AnnotationRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperror.NotFound("annotation %s not found", req.Id)
	}

	s.locks.Lock(existing.SessionId.String())
	defer s.locks.Unlock(existing.SessionId.String())

	uow := s.uowFactory.NewUnitOfWork(ctx)

	current, err := uow.AnnotationRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperror.NotFound("annotation %s not found", req.Id)
	}
	if current.IsSuperseded() {
		return nil, apperror.ConcurrencyConflict("annotation %s has been superseded by %s", req.Id, *current.SupersededBy)
	}

	visible := current.Visible
	if req.Visible != nil {
		visible = *req.Visible
	}

	// Successor keeps the frozen fields; only label, note and visibility
	// follow the edit.
	successor := entity.Annotation{
		Id:         uuid.New(),
		SessionId:  current.SessionId,
		ImageId:    current.ImageId,
		Region:     current.Region,
		Label:      req.Label,
		Confidence: current.Confidence,
		Source:     current.Source,
		Note:       req.Note,
		Visible:    visible,
		Supersedes: &current.Id,
		CreatedAt:  time.Now(),
	}

	event, err := s.writeWithCanvasEvent(ctx, uow, &successor, entity.ActionUpdateLayer, current)
	if err != nil {
		return nil, err
	}

	s.notify(current.SessionId, event)
	s.auditPublisher.PublishAnnotationEdited(ctx, current.SessionId, current.Id, successor.Id)

	return &dto.EditAnnotationResponse{Id: successor.Id, Supersedes: current.Id}, nil
}

// writeWithCanvasEvent persists the annotation (and, for edits, the
// supersede back-pointer) together with its canvas event in one
// transaction. The event seq is MaxSeq+1 read inside the same lock, which
// keeps the per-session sequence gapless.
func (s *annotationService) writeWithCanvasEvent(ctx context.Context, uow unitofwork.UnitOfWork, annotation *entity.Annotation, action entity.CanvasAction, superseded *entity.Annotation) (*entity.CanvasEvent, error) {
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	if err := uow.AnnotationRepository().Create(ctx, annotation); err != nil {
		uow.Rollback()
		return nil, err
	}

	if superseded != nil {
		superseded.SupersededBy = &annotation.Id
		if err := uow.AnnotationRepository().Update(ctx, superseded); err != nil {
			uow.Rollback()
			return nil, err
		}
	}

	maxSeq, err := uow.CanvasEventRepository().MaxSeq(ctx, annotation.SessionId)
	if err != nil {
		uow.Rollback()
		return nil, err
	}

	event := entity.CanvasEvent{
		Id:        uuid.New(),
		SessionId: annotation.SessionId,
		Seq:       maxSeq + 1,
		Action:    action,
		Payload: map[string]interface{}{
			"annotation_id": annotation.Id.String(),
			"image_id":      annotation.ImageId.String(),
			"label":         annotation.Label,
			"region":        annotation.Region,
			"visible":       annotation.Visible,
		},
		CreatedAt: time.Now(),
	}
	if err := uow.CanvasEventRepository().Create(ctx, &event); err != nil {
		uow.Rollback()
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return &event, nil
}

// notify hands the committed event to the coordinator. Flushing happens off
// the request path; a failed flush leaves the session dirty, not the
// request failed.
func (s *annotationService) notify(sessionId uuid.UUID, event *entity.CanvasEvent) {
	s.coordinator.Enqueue(sessionId, event)
	go s.coordinator.Flush(context.Background(), sessionId)
}

func (s *annotationService) List(ctx context.Context, sessionId uuid.UUID, imageId *uuid.UUID, includeSuperseded bool) (*dto.ListAnnotationsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session %s not found", sessionId)
	}

	specs := []specification.Specification{specification.BySessionID{SessionID: sessionId}}
	if imageId != nil {
		specs = append(specs, specification.ByImageID{ImageID: *imageId})
	}
	// Insertion order. Writes serialize under the session lock, so created_at
	// is monotonic per session; id breaks same-instant ties deterministically.
	specs = append(specs,
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "id"},
	)

	annotations, err := uow.AnnotationRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	items := make([]dto.AnnotationItem, 0, len(annotations))
	for _, a := range annotations {
		if !includeSuperseded && a.IsSuperseded() {
			continue
		}
		items = append(items, dto.AnnotationItem{
			Id:        a.Id,
			SessionId: a.SessionId,
			ImageId:   a.ImageId,
			Region: dto.RegionPayload{
				Type:        string(a.Region.Type),
				Coordinates: a.Region.Coordinates,
				Frame:       string(a.Region.Frame),
				MaskRef:     a.Region.MaskRef,
			},
			Label:        a.Label,
			Confidence:   a.Confidence,
			Source:       string(a.Source),
			Note:         a.Note,
			Visible:      a.Visible,
			Supersedes:   a.Supersedes,
			SupersededBy: a.SupersededBy,
			CreatedAt:    a.CreatedAt,
		})
	}

	return &dto.ListAnnotationsResponse{Annotations: items}, nil
}
