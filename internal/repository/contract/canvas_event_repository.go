package contract

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/entity"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"

	"github.com/google/uuid"
)

type CanvasEventRepository interface {
	Create(ctx context.Context, event *entity.CanvasEvent) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CanvasEvent, error)
	// FindAfter returns events for a session with Seq > afterSeq in ascending
	// sequence order. This is the restartable pull cursor read.
	FindAfter(ctx context.Context, sessionId uuid.UUID, afterSeq int64, limit int) ([]*entity.CanvasEvent, error)
	// MaxSeq returns the highest sequence number recorded for a session,
	// or 0 when none exist.
	MaxSeq(ctx context.Context, sessionId uuid.UUID) (int64, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
