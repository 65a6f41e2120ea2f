package service

import (
	"context"
	"testing"

	"github.com/u9401066/medvision-mcp/internal/apperror"
	"github.com/u9401066/medvision-mcp/internal/dto"
	"github.com/u9401066/medvision-mcp/pkg/vectorindex"
	"github.com/u9401066/medvision-mcp/pkg/vision"
	"github.com/u9401066/medvision-mcp/pkg/visualrag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalysisFixture(t *testing.T) (*fixture, IAnalysisService) {
	t.Helper()

	f := newFixture(t)

	index, err := vectorindex.NewMemoryIndex(768)
	require.NoError(t, err)
	require.NoError(t, index.Add(context.Background(), vectorindex.Entry{
		CaseId: "case-001",
		Labels: []string{"Pneumonia"},
		Vector: vision.DeterministicVector("case-001"),
	}))

	engine := visualrag.NewEngine(
		vision.NewMockEmbeddingProvider(),
		vision.NewMockClassifierProvider(),
		index,
		nopLogger{},
		visualrag.Config{},
	)

	return f, NewAnalysisService(f.factory, engine)
}

func TestAnalyzeRegionDefaultsToCurrentImage(t *testing.T) {
	f, analysis := newAnalysisFixture(t)
	ctx := context.Background()

	sessionId, imageId := f.openSessionWithImage(t)

	// No image_id in the request: the session's current image is the target,
	// and the question comes back untouched.
	res, err := analysis.AnalyzeRegion(ctx, &dto.AnalyzeRegionRequest{
		SessionId: sessionId,
		Region:    bboxPayload(100, 100, 300, 300),
		Question:  "is this consolidation?",
	})
	require.NoError(t, err)
	assert.Equal(t, imageId, res.ImageId)
	assert.Equal(t, "is this consolidation?", res.Question)
	require.NotNil(t, res.Result)
	assert.NotEmpty(t, res.Result.SimilarCases)
}

func TestAnalyzeRegionWithoutAnyImage(t *testing.T) {
	f, analysis := newAnalysisFixture(t)
	ctx := context.Background()

	created, err := f.sessions.Create(ctx, &dto.CreateSessionRequest{Name: "empty"})
	require.NoError(t, err)

	_, err = analysis.AnalyzeRegion(ctx, &dto.AnalyzeRegionRequest{
		SessionId: created.Id,
		Region:    bboxPayload(0, 0, 10, 10),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestAnalyzeRegionExplicitImageStillChecked(t *testing.T) {
	f, analysis := newAnalysisFixture(t)
	ctx := context.Background()

	sessionA, _ := f.openSessionWithImage(t)
	_, imageB := f.openSessionWithImage(t)

	_, err := analysis.AnalyzeRegion(ctx, &dto.AnalyzeRegionRequest{
		SessionId: sessionA,
		ImageId:   imageB,
		Region:    bboxPayload(0, 0, 10, 10),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeNotFound))
}

func TestAnalyzeImageQuickMode(t *testing.T) {
	f, analysis := newAnalysisFixture(t)
	ctx := context.Background()

	sessionId, imageId := f.openSessionWithImage(t)

	res, err := analysis.AnalyzeImage(ctx, &dto.AnalyzeImageRequest{
		SessionId: sessionId,
		Mode:      "quick",
	})
	require.NoError(t, err)
	assert.Equal(t, imageId, res.ImageId)
	require.NotNil(t, res.Result)
	assert.NotEmpty(t, res.Result.Classification)
	assert.Empty(t, res.Result.SimilarCases, "quick mode skips retrieval")

	status, err := analysis.EngineStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Engine.IndexSize)
}
