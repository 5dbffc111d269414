package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "healthfirst"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultDefaultSlotDurationMin        = 30
	DefaultDefaultBreakDurationMin       = 0
	DefaultDefaultMaxAppointmentsPerSlot = 1
	DefaultDefaultTimezone               = "UTC"

	DefaultEventsEnabled              = false
	DefaultAvailabilityEventsTopic    = "availability-events"
	DefaultAvailabilityEventsDLQTopic = "dlq-availability-events"
	DefaultBookingEventsTopic         = "booking-events"
	DefaultBookingEventsDLQTopic      = "dlq-booking-events"
	DefaultBookingConsumerGroup       = "availability-service"

	DefaultPaginationLimit = 100
)

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
