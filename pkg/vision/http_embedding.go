package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync/atomic"
	"time"
)

const embeddingDimension = 768

// HTTPEmbeddingProvider talks to a model server that embeds images (or
// crops) into 768-dim vectors.
type HTTPEmbeddingProvider struct {
	BaseURL string
	Model   string
	client  *http.Client
	loaded  atomic.Bool
}

func NewHTTPEmbeddingProvider(baseURL, model string, timeout time.Duration) *HTTPEmbeddingProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "medclip-vit"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPEmbeddingProvider{
		BaseURL: baseURL,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPEmbeddingProvider) Name() string {
	return p.Model
}

func (p *HTTPEmbeddingProvider) Load(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"model": p.Model})
	if err != nil {
		return err
	}
	if err := p.post(ctx, "/api/models/load", body, nil); err != nil {
		return err
	}
	p.loaded.Store(true)
	return nil
}

func (p *HTTPEmbeddingProvider) Unload(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"model": p.Model})
	if err != nil {
		return err
	}
	if err := p.post(ctx, "/api/models/unload", body, nil); err != nil {
		return err
	}
	p.loaded.Store(false)
	return nil
}

func (p *HTTPEmbeddingProvider) IsLoaded() bool {
	return p.loaded.Load()
}

func (p *HTTPEmbeddingProvider) Dimension() int {
	return embeddingDimension
}

type embedHTTPRequest struct {
	Model     string `json:"model"`
	ImagePath string `json:"image_path"`
	Crop      *Crop  `json:"crop,omitempty"`
}

type embedHTTPResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (p *HTTPEmbeddingProvider) Embed(ctx context.Context, req EmbedRequest) ([]float32, error) {
	body, err := json.Marshal(embedHTTPRequest{
		Model:     p.Model,
		ImagePath: req.ImagePath,
		Crop:      req.Crop,
	})
	if err != nil {
		return nil, err
	}

	var embedResp embedHTTPResponse
	if err := p.post(ctx, "/api/embed", body, &embedResp); err != nil {
		return nil, err
	}

	if len(embedResp.Embedding) != embeddingDimension {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedResp.Embedding), embeddingDimension)
	}

	values := make([]float32, len(embedResp.Embedding))
	for i, v := range embedResp.Embedding {
		values[i] = float32(v)
	}

	// Normalized vectors keep L2 and cosine rankings consistent.
	return NormalizeVector(values), nil
}

func (p *HTTPEmbeddingProvider) post(ctx context.Context, path string, body []byte, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding server error: %s", string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(bodyBytes, out)
}

// NormalizeVector normalizes a vector to unit length (magnitude = 1).
func NormalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	// Avoid division by zero
	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
