package service

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/apperror"
	"github.com/u9401066/medvision-mcp/internal/dto"
	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
	"github.com/u9401066/medvision-mcp/internal/repository/unitofwork"
	"github.com/u9401066/medvision-mcp/pkg/visualrag"

	"github.com/google/uuid"
)

type IAnalysisService interface {
	AnalyzeRegion(ctx context.Context, req *dto.AnalyzeRegionRequest) (*dto.AnalysisResponse, error)
	AnalyzeImage(ctx context.Context, req *dto.AnalyzeImageRequest) (*dto.AnalysisResponse, error)
	EngineStatus(ctx context.Context) (*dto.EngineStatusResponse, error)
}

// analysisService resolves session and image ownership, then defers to the
// fusion engine. Reads only; analysis never mutates session state.
type analysisService struct {
	uowFactory unitofwork.RepositoryFactory
	engine     *visualrag.Engine
}

func NewAnalysisService(uowFactory unitofwork.RepositoryFactory, engine *visualrag.Engine) IAnalysisService {
	return &analysisService{
		uowFactory: uowFactory,
		engine:     engine,
	}
}

func (s *analysisService) resolveImage(ctx context.Context, sessionId uuid.UUID, imageId *uuid.UUID) (*entity.Image, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session %s not found", sessionId)
	}

	target := imageId
	if target == nil {
		if session.CurrentImageId == nil {
			return nil, apperror.NotFound("session %s has no image loaded", sessionId)
		}
		target = session.CurrentImageId
	}

	img, err := uow.ImageRepository().FindOne(ctx, specification.ByID{ID: *target})
	if err != nil {
		return nil, err
	}
	if img == nil || img.SessionId != sessionId {
		return nil, apperror.NotFound("image %s not found in session %s", *target, sessionId)
	}
	return img, nil
}

func (s *analysisService) AnalyzeRegion(ctx context.Context, req *dto.AnalyzeRegionRequest) (*dto.AnalysisResponse, error) {
	var imageId *uuid.UUID
	if req.ImageId != uuid.Nil {
		imageId = &req.ImageId
	}

	img, err := s.resolveImage(ctx, req.SessionId, imageId)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.AnalyzeRegion(ctx, img, req.Region.ToEntity(), visualrag.Options{
		TopK:               req.TopK,
		WithClassification: true,
	})
	if err != nil {
		return nil, err
	}

	return &dto.AnalysisResponse{ImageId: img.Id, Question: req.Question, Result: result}, nil
}

func (s *analysisService) AnalyzeImage(ctx context.Context, req *dto.AnalyzeImageRequest) (*dto.AnalysisResponse, error) {
	var imageId *uuid.UUID
	if req.ImageId != uuid.Nil {
		imageId = &req.ImageId
	}

	img, err := s.resolveImage(ctx, req.SessionId, imageId)
	if err != nil {
		return nil, err
	}

	mode := visualrag.AnalyzeMode(req.Mode)
	if req.Mode == "" {
		mode = visualrag.ModeFull
	}

	result, err := s.engine.AnalyzeImage(ctx, img, mode, req.TopK)
	if err != nil {
		return nil, err
	}

	return &dto.AnalysisResponse{ImageId: img.Id, Result: result}, nil
}

func (s *analysisService) EngineStatus(ctx context.Context) (*dto.EngineStatusResponse, error) {
	return &dto.EngineStatusResponse{Engine: s.engine.Status()}, nil
}
