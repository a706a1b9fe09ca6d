package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	"qbank-admin/internal/dto"
	"qbank-admin/internal/pkg/logger"
	"qbank-admin/pkg/imagestore"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService purges the staged images of sessions that have been
// committed.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	images     imagestore.Store
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	images imagestore.Store,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		images:     images,
		logger:     logger,
	}
}

// Consume subscribes and processes messages in the background until ctx is
// cancelled.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
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
	var payload dto.SessionConsumedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error(), "uuid": msg.UUID})
		msg.Ack() // malformed messages would never succeed
		return
	}

	purged, err := cs.images.Purge(ctx, payload.SessionId)
	if err != nil {
		cs.logger.Warn("CONSUMER", "Failed to purge staged images", map[string]interface{}{"session_id": payload.SessionId, "error": err.Error()})
		msg.Nack()
		return
	}

	cs.logger.Info("CONSUMER", "Staged images purged", map[string]interface{}{"session_id": payload.SessionId, "kind": payload.Kind, "count": purged})
	msg.Ack()
}
