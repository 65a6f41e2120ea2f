package vision

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync/atomic"
)

// ErrProviderDown is returned by mocks configured to fail.
var ErrProviderDown = errors.New("vision: provider unavailable")

// MockEmbeddingProvider derives a deterministic unit vector from the request
// so identical inputs always embed identically. FailNext can be set to make
// a bounded number of calls fail first.
type MockEmbeddingProvider struct {
	ModelName string
	FailNext  atomic.Int32
	Down      atomic.Bool
	Calls     atomic.Int64
	loaded    atomic.Bool
}

func NewMockEmbeddingProvider() *MockEmbeddingProvider {
	p := &MockEmbeddingProvider{ModelName: "mock-embed"}
	p.loaded.Store(true)
	return p
}

func (p *MockEmbeddingProvider) Name() string { return p.ModelName }

func (p *MockEmbeddingProvider) Load(ctx context.Context) error {
	p.loaded.Store(true)
	return nil
}

func (p *MockEmbeddingProvider) Unload(ctx context.Context) error {
	p.loaded.Store(false)
	return nil
}

func (p *MockEmbeddingProvider) IsLoaded() bool { return p.loaded.Load() }

func (p *MockEmbeddingProvider) Dimension() int { return embeddingDimension }

func (p *MockEmbeddingProvider) Embed(ctx context.Context, req EmbedRequest) ([]float32, error) {
	p.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Down.Load() {
		return nil, ErrProviderDown
	}
	if p.FailNext.Load() > 0 {
		p.FailNext.Add(-1)
		return nil, ErrProviderDown
	}
	return DeterministicVector(requestKey(req.ImagePath, req.Crop)), nil
}

// MockClassifierProvider returns a fixed-shape probability profile derived
// from the request.
type MockClassifierProvider struct {
	ModelName string
	FailNext  atomic.Int32
	Down      atomic.Bool
	Calls     atomic.Int64
	loaded    atomic.Bool
}

func NewMockClassifierProvider() *MockClassifierProvider {
	p := &MockClassifierProvider{ModelName: "mock-densenet"}
	p.loaded.Store(true)
	return p
}

func (p *MockClassifierProvider) Name() string { return p.ModelName }

func (p *MockClassifierProvider) Load(ctx context.Context) error {
	p.loaded.Store(true)
	return nil
}

func (p *MockClassifierProvider) Unload(ctx context.Context) error {
	p.loaded.Store(false)
	return nil
}

func (p *MockClassifierProvider) IsLoaded() bool { return p.loaded.Load() }

func (p *MockClassifierProvider) Labels() []string { return PathologyLabels }

func (p *MockClassifierProvider) Classify(ctx context.Context, req ClassifyRequest) ([]Prediction, error) {
	p.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Down.Load() {
		return nil, ErrProviderDown
	}
	if p.FailNext.Load() > 0 {
		p.FailNext.Add(-1)
		return nil, ErrProviderDown
	}

	seed := hashKey(requestKey(req.ImagePath, req.Crop))
	preds := make([]Prediction, len(PathologyLabels))
	for i, label := range PathologyLabels {
		// Stable pseudo-probability in (0, 1).
		v := float64((seed+uint64(i)*2654435761)%1000) / 1000.0
		preds[i] = Prediction{Label: label, Probability: v}
	}
	return preds, nil
}

func requestKey(imagePath string, crop *Crop) string {
	if crop == nil {
		return imagePath
	}
	return fmt.Sprintf("%s|%d,%d,%d,%d", imagePath, crop.X1, crop.Y1, crop.X2, crop.Y2)
}

func hashKey(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}

// DeterministicVector maps a key to a fixed unit vector. Exported so index
// tests can build corpora that line up with mock embeddings.
func DeterministicVector(key string) []float32 {
	seed := hashKey(key)
	vec := make([]float32, embeddingDimension)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(math.Sin(float64(seed % 100000)))
	}
	return NormalizeVector(vec)
}
