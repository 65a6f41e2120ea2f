package audit

import (
	"context"

	"github.com/u9401066/medvision-mcp/internal/pkg/logger"
	"github.com/u9401066/medvision-mcp/pkg/events"
	pkgNats "github.com/u9401066/medvision-mcp/pkg/nats"
)

// Trail consumes the audit stream and writes every event to the structured
// log. It is the durable read side of the publishers above: restarts pick up
// where the consumer left off, so the log stays a complete account of what
// happened to each session.
type Trail struct {
	subscriber *pkgNats.Subscriber
	logger     logger.ILogger
}

func NewTrail(subscriber *pkgNats.Subscriber, log logger.ILogger) *Trail {
	return &Trail{
		subscriber: subscriber,
		logger:     log,
	}
}

// Start registers the durable consumer over every audit subject.
func (t *Trail) Start() error {
	return t.subscriber.Subscribe("audit.>", "audit-trail", t.record)
}

func (t *Trail) record(ctx context.Context, event events.Event) error {
	t.logger.Info("AuditTrail", event.EventType(), event.Payload())
	return nil
}
