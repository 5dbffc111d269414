// Package booking consumes booking lifecycle events and applies them to
// availability slot capacity.
package booking

import (
	"context"
	"errors"

	"healthfirst/internal/availability/service"
	apperrors "healthfirst/pkg/errors"
	"healthfirst/pkg/kafka"
	"healthfirst/pkg/logger"
)

// Event types emitted by the booking service.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is the payload published by the booking service when a
// patient books or cancels an appointment.
type BookingEvent struct {
	BookingID      string `json:"booking_id"`
	AvailabilityID string `json:"availability_id"`
	ProviderID     string `json:"provider_id"`
	PatientID      string `json:"patient_id"`
	Status         string `json:"status"`
}

// NewEventHandler returns a kafka.MessageHandler that registers or releases
// an appointment on the referenced slot. Decode and business failures are
// classified permanent so they drain to the DLQ instead of blocking the
// partition.
func NewEventHandler(availability service.AvailabilityService, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		eventType := msg.GetEventType()

		var event BookingEvent
		if err := msg.DecodeValue(&event); err != nil {
			return kafka.NewPermanentError("invalid booking event payload", err).
				WithDetail("event_id", msg.GetEventID()).
				WithDetail("event_type", eventType)
		}

		if event.AvailabilityID == "" {
			return kafka.NewPermanentError("booking event missing availability_id", nil).
				WithDetail("event_id", msg.GetEventID()).
				WithDetail("booking_id", event.BookingID)
		}

		log.Info("Processing booking event",
			"event_type", eventType,
			"event_id", msg.GetEventID(),
			"booking_id", event.BookingID,
			"availability_id", event.AvailabilityID,
		)

		var err error
		switch eventType {
		case EventBookingConfirmed:
			err = availability.RegisterAppointment(ctx, event.AvailabilityID)
		case EventBookingCancelled:
			err = availability.ReleaseAppointment(ctx, event.AvailabilityID)
		default:
			return kafka.NewBusinessError("unknown booking event type: "+eventType, nil).
				WithDetail("event_id", msg.GetEventID())
		}

		if err != nil {
			return classifyServiceError(err, event)
		}

		return nil
	}
}

// classifyServiceError maps availability errors onto kafka error types so the
// consumer retry loop knows what to do. Capacity and state conflicts will
// never succeed on retry.
func classifyServiceError(err error, event BookingEvent) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.CodeCapacityExceeded, apperrors.CodeConflict:
			return kafka.NewBusinessError("booking rejected: "+appErr.Message, err).
				WithDetail("booking_id", event.BookingID).
				WithDetail("availability_id", event.AvailabilityID)
		case apperrors.CodeNotFound, apperrors.CodeInvalidInput, apperrors.CodeValidation:
			return kafka.NewPermanentError("booking event references bad slot: "+appErr.Message, err).
				WithDetail("booking_id", event.BookingID).
				WithDetail("availability_id", event.AvailabilityID)
		}
	}

	// Anything else is likely a database hiccup and worth retrying.
	return kafka.NewTransientError("failed to apply booking event", err).
		WithDetail("booking_id", event.BookingID).
		WithDetail("availability_id", event.AvailabilityID)
}
