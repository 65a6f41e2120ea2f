package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// caseFile is the on-disk metadata format, one JSON document per reference
// case. Embeddings are stored alongside the metadata so rebuilds do not need
// the embedding model.
type caseFile struct {
	CaseId    string    `json:"case_id"`
	Labels    []string  `json:"labels"`
	Report    string    `json:"report"`
	Thumbnail string    `json:"thumbnail"`
	Embedding []float32 `json:"embedding"`
}

// LoadDir reads every *.json under dir and adds the cases to the index.
// Files are processed in lexical filename order, which fixes the insertion
// sequence; rebuilding from the same directory reproduces identical
// tie-break ordering.
func LoadDir(ctx context.Context, idx Index, dir string) (int, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read metadata dir: %w", err)
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)

	var entries []Entry
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return 0, fmt.Errorf("read case file %s: %w", name, err)
		}
		var cf caseFile
		if err := json.Unmarshal(data, &cf); err != nil {
			return 0, fmt.Errorf("parse case file %s: %w", name, err)
		}
		if cf.CaseId == "" {
			return 0, fmt.Errorf("case file %s has no case_id", name)
		}
		entries = append(entries, Entry{
			CaseId:    cf.CaseId,
			Labels:    cf.Labels,
			Report:    cf.Report,
			Thumbnail: cf.Thumbnail,
			Vector:    cf.Embedding,
		})
	}

	if len(entries) == 0 {
		return 0, nil
	}
	if err := idx.Add(ctx, entries...); err != nil {
		return 0, err
	}
	return len(entries), nil
}
