package service

import (
	"context"
	"encoding/json"
	"time"

	"qbank-admin/internal/dto"
	"qbank-admin/internal/entity"
	"qbank-admin/internal/pkg/logger"
	"qbank-admin/pkg/events"
)

// announceConsumed tells the consumer that a session's staged images are no
// longer needed.
func announceConsumed(ctx context.Context, publisher IPublisherService, log logger.ILogger, session *entity.StagingSession) {
	if publisher == nil {
		return
	}
	payload, err := json.Marshal(dto.SessionConsumedMessage{SessionId: session.Id, Kind: string(session.Kind)})
	if err != nil {
		log.Error("STAGING", "Failed to marshal consumed message", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		return
	}
	if err := publisher.Publish(ctx, payload); err != nil {
		log.Warn("STAGING", "Failed to publish consumed message", map[string]interface{}{"session_id": session.Id, "error": err.Error()})
	}
}

func publishEvent(ctx context.Context, publisher events.Publisher, log logger.ILogger, eventType string, data map[string]interface{}) {
	if publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := publisher.Publish(ctx, evt); err != nil {
		log.Warn("EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}
