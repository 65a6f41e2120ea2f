package visualrag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/u9401066/medvision-mcp/internal/apperror"
	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/pkg/logger"
	"github.com/u9401066/medvision-mcp/pkg/vectorindex"
	"github.com/u9401066/medvision-mcp/pkg/vision"

	"github.com/patrickmn/go-cache"
)

const (
	defaultTopK          = 5
	defaultSearchTimeout = 5 * time.Second
	pointCropRadius      = 32
)

var errSearchTimeout = errors.New("visualrag: index search timed out")

// Options tune a single analysis call.
type Options struct {
	TopK               int
	WithClassification bool
}

// Engine fuses vector retrieval with multi-label classification. The two
// branches run in parallel and fail independently; a partial result carries
// degraded markers instead of an error.
type Engine struct {
	embedder      vision.EmbeddingProvider
	classifier    vision.ClassifierProvider
	index         vectorindex.Index
	embedCache    *cache.Cache
	logger        logger.ILogger
	topK          int
	searchTimeout time.Duration
}

type Config struct {
	TopK          int
	SearchTimeout time.Duration
}

func NewEngine(embedder vision.EmbeddingProvider, classifier vision.ClassifierProvider, index vectorindex.Index, log logger.ILogger, cfg Config) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = defaultSearchTimeout
	}
	return &Engine{
		embedder:      embedder,
		classifier:    classifier,
		index:         index,
		embedCache:    cache.New(cache.NoExpiration, 0),
		logger:        log,
		topK:          cfg.TopK,
		searchTimeout: cfg.SearchTimeout,
	}
}

// AnalyzeRegion validates the region, embeds the selected crop (cached per
// image and canonical region), searches the index and classifies the crop in
// parallel, then fuses the outcomes.
func (e *Engine) AnalyzeRegion(ctx context.Context, img *entity.Image, region entity.Region, opts Options) (*Result, error) {
	if err := region.Validate(img.Width, img.Height); err != nil {
		return nil, apperror.InvalidRegion("%s", err.Error())
	}

	pixel := region.ToPixels(img.Width, img.Height)
	crop := cropFromRegion(pixel, img.Width, img.Height)
	cacheKey := img.Id.String() + "|" + region.CanonicalKey()

	return e.analyze(ctx, img, crop, cacheKey, opts)
}

// AnalyzeImage runs whole-image analysis in one of three modes.
func (e *Engine) AnalyzeImage(ctx context.Context, img *entity.Image, mode AnalyzeMode, topK int) (*Result, error) {
	opts := Options{TopK: topK}
	cacheKey := img.Id.String() + "|full"

	switch mode {
	case ModeQuick:
		preds, err := e.classifyWithRetry(ctx, img.Path, nil)
		if err != nil {
			return nil, apperror.ModelUnavailable("classifier unavailable", err)
		}
		return &Result{
			Classification:    preds,
			ConfidenceSummary: e.summarize(preds, nil),
		}, nil
	case ModeRagOnly:
		opts.WithClassification = false
	case ModeFull, "":
		opts.WithClassification = true
	default:
		return nil, apperror.Validation(fmt.Sprintf("unknown analysis mode %q", mode))
	}

	return e.analyze(ctx, img, nil, cacheKey, opts)
}

func (e *Engine) analyze(ctx context.Context, img *entity.Image, crop *vision.Crop, cacheKey string, opts Options) (*Result, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = e.topK
	}

	var (
		wg       sync.WaitGroup
		matches  []vectorindex.Match
		preds    []vision.Prediction
		embedErr error
		classErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		vec, err := e.embedCached(ctx, img.Path, cacheKey, crop)
		if err != nil {
			embedErr = err
			return
		}
		searchCtx, cancel := context.WithTimeout(ctx, e.searchTimeout)
		defer cancel()
		matches, embedErr = e.index.Search(searchCtx, vec, topK)
		if embedErr != nil && searchCtx.Err() != nil && ctx.Err() == nil {
			embedErr = errSearchTimeout
		}
	}()

	if opts.WithClassification {
		wg.Add(1)
		go func() {
			defer wg.Done()
			preds, classErr = e.classifyWithRetry(ctx, img.Path, crop)
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A retrieval deadline is a hard failure, not a degraded result. The
	// caller chose the ceiling.
	if errors.Is(embedErr, errSearchTimeout) {
		return nil, apperror.IndexTimeout("vector index search exceeded its deadline")
	}

	if embedErr != nil && (!opts.WithClassification || classErr != nil) {
		return nil, apperror.ModelUnavailable("no provider produced a result", embedErr)
	}

	result := &Result{}
	if embedErr != nil {
		e.logger.Warn("VISUALRAG", "Retrieval branch degraded", map[string]interface{}{"error": embedErr.Error()})
		result.Degraded = append(result.Degraded, DegradedEmbedding)
	} else {
		result.SimilarCases = toSimilarCases(matches)
		result.AggregatedLabels = aggregateLabels(matches)
	}
	if opts.WithClassification {
		if classErr != nil {
			e.logger.Warn("VISUALRAG", "Classifier branch degraded", map[string]interface{}{"error": classErr.Error()})
			result.Degraded = append(result.Degraded, DegradedClassifier)
		} else {
			result.Classification = preds
		}
	}
	result.ConfidenceSummary = e.summarize(result.Classification, result.SimilarCases)
	return result, nil
}

// embedCached returns the cached embedding for the key, calling the provider
// (with one bounded retry) on a miss. Entries never expire; they are dropped
// only when the image itself is evicted.
func (e *Engine) embedCached(ctx context.Context, imagePath, cacheKey string, crop *vision.Crop) ([]float32, error) {
	if cached, found := e.embedCache.Get(cacheKey); found {
		return cached.([]float32), nil
	}

	var vec []float32
	err := withOneRetry(func() error {
		var embedErr error
		vec, embedErr = e.embedder.Embed(ctx, vision.EmbedRequest{ImagePath: imagePath, Crop: crop})
		return embedErr
	})
	if err != nil {
		return nil, err
	}

	e.embedCache.Set(cacheKey, vec, cache.NoExpiration)
	return vec, nil
}

func (e *Engine) classifyWithRetry(ctx context.Context, imagePath string, crop *vision.Crop) ([]vision.Prediction, error) {
	var preds []vision.Prediction
	err := withOneRetry(func() error {
		var classErr error
		preds, classErr = e.classifier.Classify(ctx, vision.ClassifyRequest{ImagePath: imagePath, Crop: crop})
		return classErr
	})
	return preds, err
}

// WarmImage embeds the full image ahead of time so the first analysis call
// hits the cache. Used by the background warm-up consumer.
func (e *Engine) WarmImage(ctx context.Context, img *entity.Image) error {
	_, err := e.embedCached(ctx, img.Path, img.Id.String()+"|full", nil)
	return err
}

// EvictImage drops every cached embedding belonging to the image.
func (e *Engine) EvictImage(imageId string) {
	prefix := imageId + "|"
	for key := range e.embedCache.Items() {
		if strings.HasPrefix(key, prefix) {
			e.embedCache.Delete(key)
		}
	}
}

func (e *Engine) Status() Status {
	return Status{
		EmbeddingModel:   e.embedder.Name(),
		EmbeddingLoaded:  e.embedder.IsLoaded(),
		ClassifierModel:  e.classifier.Name(),
		ClassifierLoaded: e.classifier.IsLoaded(),
		IndexSize:        e.index.Size(),
		CachedEmbeddings: e.embedCache.ItemCount(),
	}
}

// LoadProviders brings both models up. Partial failure unloads nothing; the
// status endpoint shows which side is missing.
func (e *Engine) LoadProviders(ctx context.Context) error {
	if err := e.embedder.Load(ctx); err != nil {
		return err
	}
	return e.classifier.Load(ctx)
}

func (e *Engine) UnloadProviders(ctx context.Context) error {
	embedErr := e.embedder.Unload(ctx)
	classErr := e.classifier.Unload(ctx)
	if embedErr != nil {
		return embedErr
	}
	return classErr
}

// withOneRetry runs fn, retrying once on failure.
func withOneRetry(fn func() error) error {
	if err := fn(); err == nil {
		return nil
	}
	return fn()
}

func toSimilarCases(matches []vectorindex.Match) []entity.SimilarCase {
	out := make([]entity.SimilarCase, 0, len(matches))
	for _, m := range matches {
		out = append(out, entity.SimilarCase{
			CaseId:     m.Entry.CaseId,
			Distance:   m.Distance,
			Similarity: similarityFromDistance(m.Distance),
			Labels:     m.Entry.Labels,
			Report:     m.Entry.Report,
			Thumbnail:  m.Entry.Thumbnail,
		})
	}
	return out
}

// aggregateLabels votes labels across the retrieved cases: each case adds
// its similarity to every label it carries, and the sums are normalized by
// the case count.
func aggregateLabels(matches []vectorindex.Match) []AggregatedLabel {
	if len(matches) == 0 {
		return nil
	}
	scores := make(map[string]float64)
	for _, m := range matches {
		sim := similarityFromDistance(m.Distance)
		for _, label := range m.Entry.Labels {
			scores[label] += sim
		}
	}

	out := make([]AggregatedLabel, 0, len(scores))
	for label, score := range scores {
		out = append(out, AggregatedLabel{Label: label, Score: score / float64(len(matches))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func similarityFromDistance(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}

// summarize builds the one-line confidence string combining the strongest
// classifier finding with the nearest retrieved case.
func (e *Engine) summarize(preds []vision.Prediction, cases []entity.SimilarCase) string {
	var parts []string
	if len(preds) > 0 {
		top := preds[0]
		for _, p := range preds[1:] {
			if p.Probability > top.Probability {
				top = p
			}
		}
		parts = append(parts, fmt.Sprintf("DenseNet: %s (%.0f%%)", top.Label, top.Probability*100))
	}
	if len(cases) > 0 {
		parts = append(parts, fmt.Sprintf("RAG Top-1: %s (%.0f%%)", cases[0].CaseId, cases[0].Similarity*100))
	}
	return strings.Join(parts, " | ")
}

// cropFromRegion turns a pixel-frame region into the rectangle handed to the
// providers. Polygons use their bounding box; points a fixed window around
// the point, clamped to the image.
func cropFromRegion(pixel entity.Region, width, height int) *vision.Crop {
	var x1, y1, x2, y2 float64

	switch pixel.Type {
	case entity.RegionBBox, entity.RegionMask:
		x1, y1, x2, y2 = pixel.Coordinates[0], pixel.Coordinates[1], pixel.Coordinates[2], pixel.Coordinates[3]
	case entity.RegionPoint:
		x, y := pixel.Coordinates[0], pixel.Coordinates[1]
		x1, y1 = x-pointCropRadius, y-pointCropRadius
		x2, y2 = x+pointCropRadius, y+pointCropRadius
	case entity.RegionPolygon:
		x1, y1 = math.Inf(1), math.Inf(1)
		x2, y2 = math.Inf(-1), math.Inf(-1)
		for i := 0; i+1 < len(pixel.Coordinates); i += 2 {
			x1 = math.Min(x1, pixel.Coordinates[i])
			y1 = math.Min(y1, pixel.Coordinates[i+1])
			x2 = math.Max(x2, pixel.Coordinates[i])
			y2 = math.Max(y2, pixel.Coordinates[i+1])
		}
	default:
		return nil
	}

	return &vision.Crop{
		X1: int(math.Max(0, x1)),
		Y1: int(math.Max(0, y1)),
		X2: int(math.Min(float64(width), x2)),
		Y2: int(math.Min(float64(height), y2)),
	}
}
