package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is a brute-force L2 index. Suitable for corpora that fit in
// memory; the pgvector backend takes over beyond that.
type MemoryIndex struct {
	dimensions int
	mu         sync.RWMutex
	entries    []Entry
	nextSeq    int64
}

func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		nextSeq:    1,
	}, nil
}

// Add appends entries. Entries without an InsertionSeq get the next one;
// the write lock makes the whole batch visible at once, so a concurrent
// Search never sees half a batch.
func (m *MemoryIndex) Add(ctx context.Context, entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if len(e.Vector) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(e.Vector), m.dimensions)
		}
	}
	for _, e := range entries {
		if e.InsertionSeq == 0 {
			e.InsertionSeq = m.nextSeq
		}
		if e.InsertionSeq >= m.nextSeq {
			m.nextSeq = e.InsertionSeq + 1
		}
		vec := make([]float32, m.dimensions)
		copy(vec, e.Vector)
		e.Vector = vec
		m.entries = append(m.entries, e)
	}
	return nil
}

// Search scans the whole corpus. The context deadline is honoured between
// distance computations so a capped search never runs unbounded.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.entries) == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(m.entries))
	for i, e := range m.entries {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		matches = append(matches, Match{Entry: e, Distance: l2(query, e.Vector)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Entry.InsertionSeq < matches[j].Entry.InsertionSeq
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func l2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
