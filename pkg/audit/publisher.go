package audit

import (
	"context"
	"time"

	"github.com/u9401066/medvision-mcp/internal/pkg/logger"
	pkgEvents "github.com/u9401066/medvision-mcp/pkg/events"
	pkgNats "github.com/u9401066/medvision-mcp/pkg/nats"

	"github.com/google/uuid"
)

// Publisher abstracts audit event publishing for the session workflow.
type Publisher interface {
	PublishSessionOpened(ctx context.Context, sessionId uuid.UUID, name string)
	PublishSessionClosed(ctx context.Context, sessionId uuid.UUID)
	PublishImageAttached(ctx context.Context, sessionId, imageId uuid.UUID, path, imageType string)
	PublishAnnotationRecorded(ctx context.Context, sessionId, annotationId uuid.UUID, label, source string)
	PublishAnnotationEdited(ctx context.Context, sessionId, oldId, newId uuid.UUID)
	PublishIndexBuilt(ctx context.Context, caseCount int, backend string)
}

// NatsPublisher implements Publisher on the AUDIT JetStream stream.
type NatsPublisher struct {
	publisher *pkgNats.Publisher
	logger    logger.ILogger
}

func NewNatsPublisher(publisher *pkgNats.Publisher, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *NatsPublisher) publish(ctx context.Context, evtType string, data map[string]interface{}) {
	if p.publisher == nil {
		return
	}

	evt := pkgEvents.BaseEvent{
		Type:       evtType,
		Data:       data,
		OccurredAt: time.Now(),
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("AUDIT", "Failed to publish "+evtType+" event", map[string]interface{}{"error": err.Error()})
	}
}

func (p *NatsPublisher) PublishSessionOpened(ctx context.Context, sessionId uuid.UUID, name string) {
	p.publish(ctx, pkgEvents.TypeSessionOpened, map[string]interface{}{
		"session_id": sessionId.String(),
		"name":       name,
	})
}

func (p *NatsPublisher) PublishSessionClosed(ctx context.Context, sessionId uuid.UUID) {
	p.publish(ctx, pkgEvents.TypeSessionClosed, map[string]interface{}{
		"session_id": sessionId.String(),
	})
}

func (p *NatsPublisher) PublishImageAttached(ctx context.Context, sessionId, imageId uuid.UUID, path, imageType string) {
	p.publish(ctx, pkgEvents.TypeImageAttached, map[string]interface{}{
		"session_id": sessionId.String(),
		"image_id":   imageId.String(),
		"path":       path,
		"image_type": imageType,
	})
}

func (p *NatsPublisher) PublishAnnotationRecorded(ctx context.Context, sessionId, annotationId uuid.UUID, label, source string) {
	p.publish(ctx, pkgEvents.TypeAnnotationRecorded, map[string]interface{}{
		"session_id":    sessionId.String(),
		"annotation_id": annotationId.String(),
		"label":         label,
		"source":        source,
	})
}

func (p *NatsPublisher) PublishAnnotationEdited(ctx context.Context, sessionId, oldId, newId uuid.UUID) {
	p.publish(ctx, pkgEvents.TypeAnnotationEdited, map[string]interface{}{
		"session_id":    sessionId.String(),
		"superseded_id": oldId.String(),
		"successor_id":  newId.String(),
	})
}

func (p *NatsPublisher) PublishIndexBuilt(ctx context.Context, caseCount int, backend string) {
	p.publish(ctx, pkgEvents.TypeIndexBuilt, map[string]interface{}{
		"case_count": caseCount,
		"backend":    backend,
	})
}

// NoopPublisher drops everything. Used when NATS is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSessionOpened(context.Context, uuid.UUID, string)                {}
func (NoopPublisher) PublishSessionClosed(context.Context, uuid.UUID)                        {}
func (NoopPublisher) PublishImageAttached(context.Context, uuid.UUID, uuid.UUID, string, string) {
}
func (NoopPublisher) PublishAnnotationRecorded(context.Context, uuid.UUID, uuid.UUID, string, string) {
}
func (NoopPublisher) PublishAnnotationEdited(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) {}
func (NoopPublisher) PublishIndexBuilt(context.Context, int, string)                           {}
