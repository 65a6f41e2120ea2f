package vectorindex

import (
	"context"
	"testing"
	"time"
)

func vec(dims int, fill float32) []float32 {
	v := make([]float32, dims)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestSearchOrdersByDistance(t *testing.T) {
	idx, err := NewMemoryIndex(4)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	err = idx.Add(ctx,
		Entry{CaseId: "far", Vector: vec(4, 1.0)},
		Entry{CaseId: "near", Vector: vec(4, 0.1)},
		Entry{CaseId: "mid", Vector: vec(4, 0.5)},
	)
	if err != nil {
		t.Fatal(err)
	}

	matches, err := idx.Search(ctx, vec(4, 0.0), 3)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"near", "mid", "far"}
	for i, w := range want {
		if matches[i].Entry.CaseId != w {
			t.Errorf("matches[%d] = %s, want %s", i, matches[i].Entry.CaseId, w)
		}
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Distance < matches[i-1].Distance {
			t.Errorf("distances not ascending at %d", i)
		}
	}
}

func TestSearchTieBreaksByInsertionOrder(t *testing.T) {
	idx, err := NewMemoryIndex(4)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	// Identical vectors, identical distances. Order of insertion decides.
	for _, id := range []string{"zulu", "alpha", "mike"} {
		if err := idx.Add(ctx, Entry{CaseId: id, Vector: vec(4, 0.3)}); err != nil {
			t.Fatal(err)
		}
	}

	for run := 0; run < 5; run++ {
		matches, err := idx.Search(ctx, vec(4, 0.0), 3)
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"zulu", "alpha", "mike"}
		for i, w := range want {
			if matches[i].Entry.CaseId != w {
				t.Fatalf("run %d: matches[%d] = %s, want %s", run, i, matches[i].Entry.CaseId, w)
			}
		}
	}
}

func TestSearchHonoursDeadline(t *testing.T) {
	idx, err := NewMemoryIndex(8)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	entries := make([]Entry, 1024)
	for i := range entries {
		entries[i] = Entry{CaseId: "c", Vector: vec(8, float32(i))}
	}
	if err := idx.Add(ctx, entries...); err != nil {
		t.Fatal(err)
	}

	expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
	defer cancel()

	if _, err := idx.Search(expired, vec(8, 0), 5); err == nil {
		t.Fatal("expected deadline error")
	}
}

func TestAddRejectsWrongDimension(t *testing.T) {
	idx, err := NewMemoryIndex(4)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Add(context.Background(), Entry{CaseId: "bad", Vector: vec(3, 1)}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if idx.Size() != 0 {
		t.Errorf("size = %d after rejected add, want 0", idx.Size())
	}
}

func TestSearchLimitsToK(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		idx.Add(ctx, Entry{CaseId: "c", Vector: vec(2, float32(i))})
	}
	matches, err := idx.Search(ctx, vec(2, 0), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 3 {
		t.Errorf("got %d matches, want 3", len(matches))
	}
}
