package memory

import (
	"context"
	"sync"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/contract"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"

	"github.com/google/uuid"
)

type CanvasEventRepository struct {
	mu     sync.RWMutex
	events []*entity.CanvasEvent
}

func NewCanvasEventRepository() *CanvasEventRepository {
	return &CanvasEventRepository{}
}

func (r *CanvasEventRepository) Create(ctx context.Context, event *entity.CanvasEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *event
	r.events = append(r.events, &cp)
	return nil
}

func (r *CanvasEventRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CanvasEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.CanvasEvent
	for _, ev := range r.events {
		if matchCanvasEvent(ev, specs) {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return applyPagination(out, specs), nil
}

func (r *CanvasEventRepository) FindAfter(ctx context.Context, sessionId uuid.UUID, afterSeq int64, limit int) ([]*entity.CanvasEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.CanvasEvent
	for _, ev := range r.events {
		if ev.SessionId != sessionId || ev.Seq <= afterSeq {
			continue
		}
		cp := *ev
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *CanvasEventRepository) MaxSeq(ctx context.Context, sessionId uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var max int64
	for _, ev := range r.events {
		if ev.SessionId == sessionId && ev.Seq > max {
			max = ev.Seq
		}
	}
	return max, nil
}

func (r *CanvasEventRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func matchCanvasEvent(ev *entity.CanvasEvent, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if ev.Id != sp.ID {
				return false
			}
		case specification.BySessionID:
			if ev.SessionId != sp.SessionID {
				return false
			}
		case specification.FilterBy:
			if sp.Field == "action" {
				if string(ev.Action) != sp.Value.(string) {
					return false
				}
			}
		}
	}
	return true
}

var _ contract.CanvasEventRepository = (*CanvasEventRepository)(nil)
