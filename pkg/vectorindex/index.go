package vectorindex

import "context"

// Entry is one reference case held by the index.
type Entry struct {
	CaseId       string    `json:"case_id"`
	Labels       []string  `json:"labels"`
	Report       string    `json:"report"`
	Thumbnail    string    `json:"thumbnail"`
	Vector       []float32 `json:"embedding"`
	InsertionSeq int64     `json:"insertion_seq"`
}

// Match is a search hit with its L2 distance to the query.
type Match struct {
	Entry    Entry
	Distance float64
}

// Index is the retrieval backend. Search returns matches ordered by
// ascending distance; equal distances keep insertion order so repeated
// queries over the same corpus rank identically.
type Index interface {
	Add(ctx context.Context, entries ...Entry) error
	Search(ctx context.Context, query []float32, k int) ([]Match, error)
	Size() int
}
