package vectorindex

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/contract"
)

// PgvectorIndex delegates nearest-neighbour search to the reference_cases
// table. Ordering (distance then insertion sequence) is enforced in SQL by
// the repository.
type PgvectorIndex struct {
	repo contract.ReferenceCaseRepository
}

func NewPgvectorIndex(repo contract.ReferenceCaseRepository) *PgvectorIndex {
	return &PgvectorIndex{repo: repo}
}

func (p *PgvectorIndex) Add(ctx context.Context, entries ...Entry) error {
	maxSeq, err := p.repo.MaxInsertionSeq(ctx)
	if err != nil {
		return err
	}

	cases := make([]*entity.ReferenceCase, 0, len(entries))
	for _, e := range entries {
		seq := e.InsertionSeq
		if seq == 0 {
			maxSeq++
			seq = maxSeq
		}
		cases = append(cases, &entity.ReferenceCase{
			CaseId:       e.CaseId,
			Labels:       e.Labels,
			Report:       e.Report,
			Thumbnail:    e.Thumbnail,
			Embedding:    e.Vector,
			InsertionSeq: seq,
		})
	}
	return p.repo.CreateBulk(ctx, cases)
}

func (p *PgvectorIndex) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	scored, err := p.repo.SearchNearest(ctx, query, k)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(scored))
	for _, s := range scored {
		matches = append(matches, Match{
			Entry: Entry{
				CaseId:       s.Case.CaseId,
				Labels:       s.Case.Labels,
				Report:       s.Case.Report,
				Thumbnail:    s.Case.Thumbnail,
				Vector:       s.Case.Embedding,
				InsertionSeq: s.Case.InsertionSeq,
			},
			Distance: s.Distance,
		})
	}
	return matches, nil
}

func (p *PgvectorIndex) Size() int {
	count, err := p.repo.Count(context.Background())
	if err != nil {
		return 0
	}
	return int(count)
}
