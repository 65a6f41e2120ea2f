package memory

import (
	"context"
	"sort"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/contract"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"

	"github.com/patrickmn/go-cache"
)

// SessionRepository is the in-process variant backed by go-cache. It serves
// tests and DB-less deployments; entries never expire.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	c := cache.New(cache.NoExpiration, 0)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *entity.Session) error {
	cp := *session
	r.cache.Set(session.Id.String(), &cp, cache.NoExpiration)
	return nil
}

func (r *SessionRepository) Update(ctx context.Context, session *entity.Session) error {
	cp := *session
	r.cache.Set(session.Id.String(), &cp, cache.NoExpiration)
	return nil
}

func (r *SessionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *SessionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Session, error) {
	var sessions []*entity.Session
	for _, item := range r.cache.Items() {
		s := item.Object.(*entity.Session)
		if matchSession(s, specs) {
			cp := *s
			sessions = append(sessions, &cp)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return applyPagination(sessions, specs), nil
}

func (r *SessionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

func matchSession(s *entity.Session, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if s.Id != sp.ID {
				return false
			}
		case specification.FilterBy:
			switch sp.Field {
			case "closed":
				if s.Closed != sp.Value.(bool) {
					return false
				}
			case "name":
				if s.Name != sp.Value.(string) {
					return false
				}
			}
		}
	}
	return true
}

var _ contract.SessionRepository = (*SessionRepository)(nil)
