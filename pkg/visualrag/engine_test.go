package visualrag

import (
	"context"
	"testing"
	"time"

	"github.com/u9401066/medvision-mcp/internal/apperror"
	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/pkg/vectorindex"
	"github.com/u9401066/medvision-mcp/pkg/vision"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// slowIndex blocks until the context expires.
type slowIndex struct{}

func (slowIndex) Add(ctx context.Context, entries ...vectorindex.Entry) error { return nil }
func (slowIndex) Search(ctx context.Context, query []float32, k int) ([]vectorindex.Match, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (slowIndex) Size() int { return 0 }

func testImage() *entity.Image {
	return &entity.Image{
		Id:     uuid.New(),
		Path:   "/data/cxr_001.png",
		Type:   entity.ImageTypeCXR,
		Width:  512,
		Height: 512,
	}
}

func newTestEngine(t *testing.T, caseKeys map[string]string) (*Engine, *vision.MockEmbeddingProvider, *vision.MockClassifierProvider) {
	t.Helper()

	embedder := vision.NewMockEmbeddingProvider()
	classifier := vision.NewMockClassifierProvider()

	idx, err := vectorindex.NewMemoryIndex(embedder.Dimension())
	require.NoError(t, err)
	for caseId, key := range caseKeys {
		require.NoError(t, idx.Add(context.Background(), vectorindex.Entry{
			CaseId: caseId,
			Labels: []string{"Pneumonia"},
			Vector: vision.DeterministicVector(key),
		}))
	}

	return NewEngine(embedder, classifier, idx, nopLogger{}, Config{}), embedder, classifier
}

func TestAnalyzeRegionRejectsInvalidRegionBeforeModels(t *testing.T) {
	engine, embedder, classifier := newTestEngine(t, nil)

	img := testImage()
	badRegion := entity.Region{
		Type:        entity.RegionBBox,
		Coordinates: []float64{300, 300, 100, 100}, // inverted
		Frame:       entity.FramePixel,
	}

	_, err := engine.AnalyzeRegion(context.Background(), img, badRegion, Options{WithClassification: true})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidRegion))
	assert.Equal(t, int64(0), embedder.Calls.Load(), "embedder must not be called for an invalid region")
	assert.Equal(t, int64(0), classifier.Calls.Load(), "classifier must not be called for an invalid region")
}

func TestAnalyzeRegionTop3On512x512(t *testing.T) {
	img := testImage()
	region := entity.Region{
		Type:        entity.RegionBBox,
		Coordinates: []float64{100, 100, 300, 300},
		Frame:       entity.FramePixel,
	}

	// case-exact shares the crop's embedding, so it is the distance-0 hit.
	engine, _, _ := newTestEngine(t, map[string]string{
		"case-exact": "/data/cxr_001.png|100,100,300,300",
		"case-other": "/data/cxr_901.png",
		"case-third": "/data/cxr_902.png",
	})

	res, err := engine.AnalyzeRegion(context.Background(), img, region, Options{TopK: 3, WithClassification: true})
	require.NoError(t, err)
	require.Len(t, res.SimilarCases, 3)

	assert.Equal(t, "case-exact", res.SimilarCases[0].CaseId)
	assert.InDelta(t, 0.0, res.SimilarCases[0].Distance, 1e-5)
	for i := 1; i < len(res.SimilarCases); i++ {
		assert.GreaterOrEqual(t, res.SimilarCases[i].Distance, res.SimilarCases[i-1].Distance,
			"distances must ascend")
	}
	assert.Empty(t, res.Degraded)
	assert.NotEmpty(t, res.Classification)
	assert.NotEmpty(t, res.ConfidenceSummary)
	assert.NotEmpty(t, res.AggregatedLabels)
}

func TestAnalyzeRegionIsDeterministic(t *testing.T) {
	img := testImage()
	region := entity.Region{
		Type:        entity.RegionBBox,
		Coordinates: []float64{0.1, 0.1, 0.5, 0.5},
		Frame:       entity.FrameRelative,
	}

	engine, _, _ := newTestEngine(t, map[string]string{
		"case-a": "/data/cxr_901.png",
		"case-b": "/data/cxr_902.png",
		"case-c": "/data/cxr_903.png",
	})

	first, err := engine.AnalyzeRegion(context.Background(), img, region, Options{TopK: 3})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := engine.AnalyzeRegion(context.Background(), img, region, Options{TopK: 3})
		require.NoError(t, err)
		require.Len(t, again.SimilarCases, len(first.SimilarCases))
		for j := range first.SimilarCases {
			assert.Equal(t, first.SimilarCases[j].CaseId, again.SimilarCases[j].CaseId)
			assert.Equal(t, first.SimilarCases[j].Distance, again.SimilarCases[j].Distance)
		}
	}
}

func TestEmbeddingCacheHit(t *testing.T) {
	img := testImage()
	region := entity.Region{
		Type:        entity.RegionBBox,
		Coordinates: []float64{10, 10, 50, 50},
		Frame:       entity.FramePixel,
	}

	engine, embedder, _ := newTestEngine(t, map[string]string{"case-a": "/data/cxr_901.png"})

	_, err := engine.AnalyzeRegion(context.Background(), img, region, Options{})
	require.NoError(t, err)
	_, err = engine.AnalyzeRegion(context.Background(), img, region, Options{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), embedder.Calls.Load(), "second identical call must hit the cache")
}

func TestEvictImageDropsCache(t *testing.T) {
	img := testImage()
	region := entity.Region{
		Type:        entity.RegionBBox,
		Coordinates: []float64{10, 10, 50, 50},
		Frame:       entity.FramePixel,
	}

	engine, embedder, _ := newTestEngine(t, map[string]string{"case-a": "/data/cxr_901.png"})

	_, err := engine.AnalyzeRegion(context.Background(), img, region, Options{})
	require.NoError(t, err)

	engine.EvictImage(img.Id.String())

	_, err = engine.AnalyzeRegion(context.Background(), img, region, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), embedder.Calls.Load())
}

func TestEmbeddingFailureDegradesResult(t *testing.T) {
	img := testImage()
	region := entity.Region{
		Type:        entity.RegionBBox,
		Coordinates: []float64{10, 10, 50, 50},
		Frame:       entity.FramePixel,
	}

	engine, embedder, _ := newTestEngine(t, map[string]string{"case-a": "/data/cxr_901.png"})
	embedder.Down.Store(true)

	res, err := engine.AnalyzeRegion(context.Background(), img, region, Options{WithClassification: true})
	require.NoError(t, err)
	assert.Contains(t, res.Degraded, DegradedEmbedding)
	assert.Empty(t, res.SimilarCases)
	assert.NotEmpty(t, res.Classification, "classifier branch must still deliver")
}

func TestSingleFailureIsRetriedOnce(t *testing.T) {
	img := testImage()
	region := entity.Region{
		Type:        entity.RegionBBox,
		Coordinates: []float64{10, 10, 50, 50},
		Frame:       entity.FramePixel,
	}

	engine, embedder, _ := newTestEngine(t, map[string]string{"case-a": "/data/cxr_901.png"})
	embedder.FailNext.Store(1)

	res, err := engine.AnalyzeRegion(context.Background(), img, region, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Degraded, "one transient failure must be absorbed by the retry")
	assert.Equal(t, int64(2), embedder.Calls.Load())
}

func TestBothProvidersDownIsModelUnavailable(t *testing.T) {
	img := testImage()
	region := entity.Region{
		Type:        entity.RegionBBox,
		Coordinates: []float64{10, 10, 50, 50},
		Frame:       entity.FramePixel,
	}

	engine, embedder, classifier := newTestEngine(t, map[string]string{"case-a": "/data/cxr_901.png"})
	embedder.Down.Store(true)
	classifier.Down.Store(true)

	_, err := engine.AnalyzeRegion(context.Background(), img, region, Options{WithClassification: true})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeModelUnavailable))
}

func TestSlowIndexHitsTimeout(t *testing.T) {
	embedder := vision.NewMockEmbeddingProvider()
	classifier := vision.NewMockClassifierProvider()
	engine := NewEngine(embedder, classifier, slowIndex{}, nopLogger{}, Config{SearchTimeout: 50 * time.Millisecond})

	img := testImage()
	region := entity.Region{
		Type:        entity.RegionBBox,
		Coordinates: []float64{10, 10, 50, 50},
		Frame:       entity.FramePixel,
	}

	_, err := engine.AnalyzeRegion(context.Background(), img, region, Options{})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeIndexTimeout))
}

func TestAnalyzeImageModes(t *testing.T) {
	img := testImage()
	engine, _, _ := newTestEngine(t, map[string]string{
		"case-full": "/data/cxr_001.png",
		"case-b":    "/data/cxr_901.png",
	})

	quick, err := engine.AnalyzeImage(context.Background(), img, ModeQuick, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, quick.Classification)
	assert.Empty(t, quick.SimilarCases)

	ragOnly, err := engine.AnalyzeImage(context.Background(), img, ModeRagOnly, 2)
	require.NoError(t, err)
	assert.Empty(t, ragOnly.Classification)
	require.NotEmpty(t, ragOnly.SimilarCases)
	assert.Equal(t, "case-full", ragOnly.SimilarCases[0].CaseId)

	full, err := engine.AnalyzeImage(context.Background(), img, ModeFull, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, full.Classification)
	assert.NotEmpty(t, full.SimilarCases)

	_, err = engine.AnalyzeImage(context.Background(), img, AnalyzeMode("bogus"), 0)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRelativeAndPixelRegionsShareNoCacheEntry(t *testing.T) {
	img := testImage()
	engine, embedder, _ := newTestEngine(t, map[string]string{"case-a": "/data/cxr_901.png"})

	relative := entity.Region{
		Type:        entity.RegionBBox,
		Coordinates: []float64{0.2, 0.2, 0.6, 0.6},
		Frame:       entity.FrameRelative,
	}
	pixel := relative.ToPixels(img.Width, img.Height)

	_, err := engine.AnalyzeRegion(context.Background(), img, relative, Options{})
	require.NoError(t, err)
	_, err = engine.AnalyzeRegion(context.Background(), img, pixel, Options{})
	require.NoError(t, err)

	// Stored coordinates are never rescaled, so the two selections have
	// distinct canonical keys even though they cover the same pixels.
	assert.Equal(t, int64(2), embedder.Calls.Load())
}

func TestAggregateLabelsWeighting(t *testing.T) {
	matches := []vectorindex.Match{
		{Entry: vectorindex.Entry{CaseId: "a", Labels: []string{"Pneumonia", "Effusion"}}, Distance: 0.0},
		{Entry: vectorindex.Entry{CaseId: "b", Labels: []string{"Pneumonia"}}, Distance: 1.0},
	}

	labels := aggregateLabels(matches)
	require.Len(t, labels, 2)
	assert.Equal(t, "Pneumonia", labels[0].Label)
	assert.InDelta(t, (1.0+0.5)/2.0, labels[0].Score, 1e-9)
	assert.Equal(t, "Effusion", labels[1].Label)
	assert.InDelta(t, 1.0/2.0, labels[1].Score, 1e-9)
}
