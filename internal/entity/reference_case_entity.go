package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReferenceCase is an indexed historical case the retrieval engine searches
// against. InsertionSeq is the deterministic tie-break key for equal
// distances: it reflects index build order, never identifier hashing.
type ReferenceCase struct {
	Id           uuid.UUID
	CaseId       string
	Labels       []string
	Report       string
	Thumbnail    string
	Embedding    []float32
	InsertionSeq int64
	CreatedAt    time.Time
}

// SimilarCase is a read-only retrieval result. It is a response artifact of
// the fusion engine, never persisted as session state.
type SimilarCase struct {
	CaseId     string   `json:"case_id"`
	Distance   float64  `json:"distance"`
	Similarity float64  `json:"similarity"`
	Labels     []string `json:"labels,omitempty"`
	Report     string   `json:"report,omitempty"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
}
