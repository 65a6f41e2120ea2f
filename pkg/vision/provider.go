package vision

import "context"

// Crop is a pixel-space rectangle cut out of the source image before the
// model sees it. Nil means the whole image.
type Crop struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// EmbedRequest asks for a feature vector of an image or a crop of it.
type EmbedRequest struct {
	ImagePath string
	Crop      *Crop
}

// ClassifyRequest asks for pathology probabilities.
type ClassifyRequest struct {
	ImagePath string
	Crop      *Crop
}

// Prediction is one label with its probability.
type Prediction struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Provider is the shared model lifecycle. Implementations hold the model on
// a remote server; Load/Unload manage its residency there.
type Provider interface {
	Name() string
	Load(ctx context.Context) error
	Unload(ctx context.Context) error
	IsLoaded() bool
}

// EmbeddingProvider produces fixed-dimension feature vectors.
type EmbeddingProvider interface {
	Provider
	// Embed returns a unit-normalized vector of Dimension() length.
	Embed(ctx context.Context, req EmbedRequest) ([]float32, error)
	Dimension() int
}

// ClassifierProvider produces multi-label pathology probabilities.
type ClassifierProvider interface {
	Provider
	Classify(ctx context.Context, req ClassifyRequest) ([]Prediction, error)
	Labels() []string
}
