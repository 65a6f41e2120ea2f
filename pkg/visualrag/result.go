package visualrag

import (
	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/pkg/vision"
)

// AnalyzeMode selects how much of the pipeline runs for whole-image
// analysis.
type AnalyzeMode string

const (
	ModeQuick   AnalyzeMode = "quick"    // classifier only
	ModeFull    AnalyzeMode = "full"     // classifier + retrieval
	ModeRagOnly AnalyzeMode = "rag_only" // retrieval only
)

// Degraded markers attached to partial results.
const (
	DegradedEmbedding  = "embedding"
	DegradedClassifier = "classifier"
)

// AggregatedLabel is a label vote across the retrieved cases, weighted by
// similarity and normalized by case count. Explainability aid only; it is
// never merged with classifier scores.
type AggregatedLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Result carries the retrieval and classification outcomes side by side.
type Result struct {
	SimilarCases      []entity.SimilarCase `json:"similar_cases,omitempty"`
	Classification    []vision.Prediction  `json:"classification,omitempty"`
	AggregatedLabels  []AggregatedLabel    `json:"aggregated_labels,omitempty"`
	ConfidenceSummary string               `json:"confidence_summary,omitempty"`
	Degraded          []string             `json:"degraded,omitempty"`
}

// Status reports engine health for the status endpoint.
type Status struct {
	EmbeddingModel   string `json:"embedding_model"`
	EmbeddingLoaded  bool   `json:"embedding_loaded"`
	ClassifierModel  string `json:"classifier_model"`
	ClassifierLoaded bool   `json:"classifier_loaded"`
	IndexSize        int    `json:"index_size"`
	CachedEmbeddings int    `json:"cached_embeddings"`
}
