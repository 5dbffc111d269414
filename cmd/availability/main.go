package main

import (
	"healthfirst/internal/availability/events"
	"healthfirst/internal/availability/handler"
	availabilityrepo "healthfirst/internal/availability/repository"
	"healthfirst/internal/availability/service"
	"healthfirst/internal/availability/validator"
	"healthfirst/internal/booking"
	providerhandler "healthfirst/internal/providers/handler"
	providerrepo "healthfirst/internal/providers/repository"
	providersvc "healthfirst/internal/providers/service"
	"healthfirst/pkg/app"
	"healthfirst/pkg/config"
	"healthfirst/pkg/kafka"
	kafka_config "healthfirst/pkg/kafka/config"
)

const ServiceName = "availability"

// @title HealthFirst Availability API
// @version 1.0
// @description API documentation for the Availability microservice.
// @BasePath /
func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Availability service")

	serverApp := app.NewApplication(cfg)
	availabilityService, providers := initServices(cfg, serverApp)
	serverApp.SetApp(
		handler.NewAvailabilityHandler(availabilityService, cfg.Log),
		providerhandler.NewProviderHandler(providers, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, serverApp *app.Application) (service.AvailabilityService, providersvc.ProviderService) {
	availabilityValidator := validator.NewAvailabilityValidator(cfg.Log)
	repo := availabilityrepo.NewMongoAvailabilityRepository(cfg)
	providers := providersvc.NewProviderService(providerrepo.NewMongoProviderRepository(cfg), cfg)

	publisher := initPublisher(cfg, serverApp)
	availabilityService := service.NewAvailabilityService(
		repo,
		providers,
		availabilityValidator,
		publisher,
		cfg,
	)

	initBookingConsumer(cfg, serverApp, availabilityService)

	cfg.Log.Info("Availability service initialized", "database", cfg.MongoDatabaseName)
	return availabilityService, providers
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Events disabled, availability events will not be published")
		return events.NoopPublisher{}
	}

	producer, err := kafka.NewProducer(
		kafka_config.Load(),
		cfg.AvailabilityEventsTopic,
		cfg.AvailabilityEventsDLQTopic,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	publisher := events.NewKafkaPublisher(producer, cfg.Log)
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	return publisher
}

func initBookingConsumer(cfg *config.Config, serverApp *app.Application, availabilityService service.AvailabilityService) {
	if !cfg.EventsEnabled {
		return
	}

	consumer, err := kafka.NewConsumer(
		kafka_config.Load(),
		cfg.BookingEventsTopic,
		cfg.BookingConsumerGroup,
		cfg.BookingEventsDLQTopic,
		booking.NewEventHandler(availabilityService, cfg.Log),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking event consumer", "error", err)
	}

	serverApp.SetConsumer(consumer)
}
