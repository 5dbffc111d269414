package events

import (
	"context"
	"time"

	"healthfirst/pkg/kafka"
	"healthfirst/pkg/logger"
	"healthfirst/pkg/model"
)

const (
	TypeCreated       = "availability.created"
	TypeUpdated       = "availability.updated"
	TypeDeleted       = "availability.deleted"
	TypeSeriesCreated = "availability.series_created"
	TypeSeriesDeleted = "availability.series_deleted"
	TypeSlotBooked    = "availability.slot_booked"
	TypeSlotReleased  = "availability.slot_released"

	schemaVersion = "1"
	sourceService = "availability-service"
)

// AvailabilityEvent is the payload published for every slot lifecycle
// transition. Consumers key on provider_id, so all events for one provider
// land on the same partition in order.
type AvailabilityEvent struct {
	EventType      string    `json:"event_type"`
	AvailabilityID string    `json:"availability_id,omitempty"`
	ProviderID     string    `json:"provider_id"`
	Date           string    `json:"date,omitempty"`
	StartTime      string    `json:"start_time,omitempty"`
	EndTime        string    `json:"end_time,omitempty"`
	Status         string    `json:"status,omitempty"`
	SlotsAffected  int       `json:"slots_affected,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher emits availability lifecycle events. Publish failures are the
// caller's to log; the write path never fails because of event delivery.
type Publisher interface {
	PublishSlotEvent(ctx context.Context, eventType string, slot *model.Availability) error
	PublishSeriesEvent(ctx context.Context, eventType string, anchor *model.Availability, slotsAffected int) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *kafkaPublisher) PublishSlotEvent(ctx context.Context, eventType string, slot *model.Availability) error {
	event := AvailabilityEvent{
		EventType:      eventType,
		AvailabilityID: slot.ID,
		ProviderID:     slot.ProviderID,
		Date:           slot.Date,
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		Status:         string(slot.Status),
		OccurredAt:     time.Now().UTC(),
	}
	return p.publish(ctx, eventType, slot.ProviderID, event)
}

func (p *kafkaPublisher) PublishSeriesEvent(ctx context.Context, eventType string, anchor *model.Availability, slotsAffected int) error {
	event := AvailabilityEvent{
		EventType:      eventType,
		AvailabilityID: anchor.ID,
		ProviderID:     anchor.ProviderID,
		Date:           anchor.Date,
		StartTime:      anchor.StartTime,
		EndTime:        anchor.EndTime,
		SlotsAffected:  slotsAffected,
		OccurredAt:     time.Now().UTC(),
	}
	return p.publish(ctx, eventType, anchor.ProviderID, event)
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType, providerID string, event AvailabilityEvent) error {
	msg := kafka.NewMessage().
		WithKey(providerID).
		WithValue(event).
		WithEventType(eventType).
		WithSchemaVersion(schemaVersion).
		WithSource(sourceService).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish availability event",
			"event_type", eventType,
			"provider_id", providerID,
			"error", err,
		)
		return err
	}

	p.log.Debug("Availability event published",
		"event_type", eventType,
		"provider_id", providerID,
		"event_id", msg.GetEventID(),
	)
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when events are disabled by configuration.
type NoopPublisher struct{}

func (NoopPublisher) PublishSlotEvent(ctx context.Context, eventType string, slot *model.Availability) error {
	return nil
}

func (NoopPublisher) PublishSeriesEvent(ctx context.Context, eventType string, anchor *model.Availability, slotsAffected int) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
