package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/u9401066/medvision-mcp/internal/dto"
	"github.com/u9401066/medvision-mcp/internal/repository/specification"
	"github.com/u9401066/medvision-mcp/internal/repository/unitofwork"
	"github.com/u9401066/medvision-mcp/pkg/visualrag"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService warms the embedding cache in the background so the first
// analysis call after add_image does not pay the model round trip.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	engine     *visualrag.Engine
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	engine *visualrag.Engine,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		engine:     engine,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedImageMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	img, err := uow.ImageRepository().FindOne(ctx, specification.ByID{ID: payload.ImageId})
	if err != nil {
		log.Printf("[ERROR] Failed to get image %s: %v", payload.ImageId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if img == nil {
		log.Printf("[ERROR] Image not found: %s", payload.ImageId)
		msg.Ack() // Image gone? Ack.
		return
	}

	if err := cs.engine.WarmImage(ctx, img); err != nil {
		// Warm-up is best effort; the first analysis call will retry.
		log.Printf("[WARN] Embedding warm-up failed for image %s: %v", payload.ImageId, err)
	}
	msg.Ack()
}
