package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultSlotDurationMin        = "DEFAULT_SLOT_DURATION_MIN"
	EnvDefaultBreakDurationMin       = "DEFAULT_BREAK_DURATION_MIN"
	EnvDefaultMaxAppointmentsPerSlot = "DEFAULT_MAX_APPOINTMENTS_PER_SLOT"
	EnvDefaultTimezone               = "DEFAULT_TIMEZONE"

	EnvEventsEnabled              = "EVENTS_ENABLED"
	EnvAvailabilityEventsTopic    = "AVAILABILITY_EVENTS_TOPIC"
	EnvAvailabilityEventsDLQTopic = "AVAILABILITY_EVENTS_DLQ_TOPIC"
	EnvBookingEventsTopic         = "BOOKING_EVENTS_TOPIC"
	EnvBookingEventsDLQTopic      = "BOOKING_EVENTS_DLQ_TOPIC"
	EnvBookingConsumerGroup       = "BOOKING_CONSUMER_GROUP"
)
