package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"healthfirst/pkg/client"
	"healthfirst/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultSlotDurationMin        int
	DefaultBreakDurationMin       int
	DefaultMaxAppointmentsPerSlot int
	DefaultTimezone               string

	EventsEnabled              bool
	AvailabilityEventsTopic    string
	AvailabilityEventsDLQTopic string
	BookingEventsTopic         string
	BookingEventsDLQTopic      string
	BookingConsumerGroup       string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultSlotDurationMin:        getEnvNum(EnvDefaultSlotDurationMin, DefaultDefaultSlotDurationMin),
		DefaultBreakDurationMin:       getEnvNum(EnvDefaultBreakDurationMin, DefaultDefaultBreakDurationMin),
		DefaultMaxAppointmentsPerSlot: getEnvNum(EnvDefaultMaxAppointmentsPerSlot, DefaultDefaultMaxAppointmentsPerSlot),
		DefaultTimezone:               getEnvStr(EnvDefaultTimezone, DefaultDefaultTimezone),

		EventsEnabled:              getEnvBool(EnvEventsEnabled, DefaultEventsEnabled),
		AvailabilityEventsTopic:    getEnvStr(EnvAvailabilityEventsTopic, DefaultAvailabilityEventsTopic),
		AvailabilityEventsDLQTopic: getEnvStr(EnvAvailabilityEventsDLQTopic, DefaultAvailabilityEventsDLQTopic),
		BookingEventsTopic:         getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		BookingEventsDLQTopic:      getEnvStr(EnvBookingEventsDLQTopic, DefaultBookingEventsDLQTopic),
		BookingConsumerGroup:       getEnvStr(EnvBookingConsumerGroup, DefaultBookingConsumerGroup),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.DefaultSlotDurationMin < 5 {
		errors = append(errors, fmt.Sprintf("DefaultSlotDurationMin must be at least 5 minutes, got: %d", cfg.DefaultSlotDurationMin))
	}
	if cfg.DefaultBreakDurationMin < 0 {
		errors = append(errors, fmt.Sprintf("DefaultBreakDurationMin cannot be negative, got: %d", cfg.DefaultBreakDurationMin))
	}
	if cfg.DefaultMaxAppointmentsPerSlot < 1 {
		errors = append(errors, fmt.Sprintf("DefaultMaxAppointmentsPerSlot must be at least 1, got: %d", cfg.DefaultMaxAppointmentsPerSlot))
	}
	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("DefaultTimezone must be a valid IANA zone name, got: %s", cfg.DefaultTimezone))
	}

	if cfg.EventsEnabled {
		if cfg.AvailabilityEventsTopic == "" {
			errors = append(errors, "AvailabilityEventsTopic cannot be empty when events are enabled")
		}
		if cfg.BookingEventsTopic == "" {
			errors = append(errors, "BookingEventsTopic cannot be empty when events are enabled")
		}
		if cfg.BookingConsumerGroup == "" {
			errors = append(errors, "BookingConsumerGroup cannot be empty when events are enabled")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_slot_duration_min", cfg.DefaultSlotDurationMin,
		"default_break_duration_min", cfg.DefaultBreakDurationMin,
		"default_max_appointments_per_slot", cfg.DefaultMaxAppointmentsPerSlot,
		"default_timezone", cfg.DefaultTimezone,
		"events_enabled", cfg.EventsEnabled,
		"availability_events_topic", cfg.AvailabilityEventsTopic,
		"booking_events_topic", cfg.BookingEventsTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}
