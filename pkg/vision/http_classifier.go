package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// HTTPClassifierProvider talks to a model server hosting the multi-label
// pathology classifier.
type HTTPClassifierProvider struct {
	BaseURL string
	Model   string
	client  *http.Client
	loaded  atomic.Bool
}

func NewHTTPClassifierProvider(baseURL, model string, timeout time.Duration) *HTTPClassifierProvider {
	if baseURL == "" {
		baseURL = "http://localhost:8501"
	}
	if model == "" {
		model = "densenet121-chexnet"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClassifierProvider{
		BaseURL: baseURL,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPClassifierProvider) Name() string {
	return p.Model
}

func (p *HTTPClassifierProvider) Load(ctx context.Context) error {
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

func (p *HTTPClassifierProvider) Unload(ctx context.Context) error {
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

func (p *HTTPClassifierProvider) IsLoaded() bool {
	return p.loaded.Load()
}

func (p *HTTPClassifierProvider) Labels() []string {
	return PathologyLabels
}

type classifyHTTPRequest struct {
	Model     string `json:"model"`
	ImagePath string `json:"image_path"`
	Crop      *Crop  `json:"crop,omitempty"`
}

type classifyHTTPResponse struct {
	Predictions []Prediction `json:"predictions"`
}

func (p *HTTPClassifierProvider) Classify(ctx context.Context, req ClassifyRequest) ([]Prediction, error) {
	body, err := json.Marshal(classifyHTTPRequest{
		Model:     p.Model,
		ImagePath: req.ImagePath,
		Crop:      req.Crop,
	})
	if err != nil {
		return nil, err
	}

	var classifyResp classifyHTTPResponse
	if err := p.post(ctx, "/api/classify", body, &classifyResp); err != nil {
		return nil, err
	}

	return classifyResp.Predictions, nil
}

func (p *HTTPClassifierProvider) post(ctx context.Context, path string, body []byte, out interface{}) error {
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
		return fmt.Errorf("classifier server error: %s", string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(bodyBytes, out)
}
