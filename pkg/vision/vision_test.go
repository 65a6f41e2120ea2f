package vision

import (
	"context"
	"math"
	"testing"
)

func TestNormalizeVector(t *testing.T) {
	vec := []float32{3, 4}
	norm := NormalizeVector(vec)

	var mag float64
	for _, v := range norm {
		mag += float64(v) * float64(v)
	}
	if math.Abs(mag-1.0) > 1e-6 {
		t.Errorf("magnitude = %f, want 1.0", mag)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	vec := []float32{0, 0, 0}
	norm := NormalizeVector(vec)
	for i, v := range norm {
		if v != 0 {
			t.Errorf("norm[%d] = %f, want 0", i, v)
		}
	}
}

func TestMockEmbedDeterministic(t *testing.T) {
	p := NewMockEmbeddingProvider()
	req := EmbedRequest{ImagePath: "/data/cxr_001.png", Crop: &Crop{X1: 10, Y1: 10, X2: 100, Y2: 100}}

	a, err := p.Embed(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Embed(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != p.Dimension() {
		t.Fatalf("dimension = %d, want %d", len(a), p.Dimension())
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embeddings differ at %d", i)
		}
	}
}

func TestMockEmbedDistinguishesCrops(t *testing.T) {
	p := NewMockEmbeddingProvider()
	a, _ := p.Embed(context.Background(), EmbedRequest{ImagePath: "/data/cxr_001.png"})
	b, _ := p.Embed(context.Background(), EmbedRequest{ImagePath: "/data/cxr_001.png", Crop: &Crop{X2: 50, Y2: 50}})

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("full image and crop produced identical embeddings")
	}
}

func TestMockFailNext(t *testing.T) {
	p := NewMockEmbeddingProvider()
	p.FailNext.Store(1)

	if _, err := p.Embed(context.Background(), EmbedRequest{ImagePath: "x"}); err == nil {
		t.Fatal("expected first call to fail")
	}
	if _, err := p.Embed(context.Background(), EmbedRequest{ImagePath: "x"}); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
}

func TestMockClassifierProbabilityRange(t *testing.T) {
	p := NewMockClassifierProvider()
	preds, err := p.Classify(context.Background(), ClassifyRequest{ImagePath: "/data/cxr_001.png"})
	if err != nil {
		t.Fatal(err)
	}
	if len(preds) != len(PathologyLabels) {
		t.Fatalf("got %d predictions, want %d", len(preds), len(PathologyLabels))
	}
	for _, pr := range preds {
		if pr.Probability < 0 || pr.Probability >= 1 {
			t.Errorf("probability %f for %s out of range", pr.Probability, pr.Label)
		}
	}
}
