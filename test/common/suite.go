package common

import (
	"os"
	"testing"
	"time"

	"healthfirst/pkg/client"
	"healthfirst/pkg/config"
)

// IntegrationSuite bundles the service clients the integration tests drive.
// Tests talk to a running server over HTTP and to MongoDB directly for
// seeding data the API does not create, such as providers.
type IntegrationSuite struct {
	Config       *config.Config
	HTTP         *client.HttpClient
	Availability *client.AvailabilityClient
	Providers    *client.ProviderClient
	Mongo        *MongoHelper
}

// ServerURL returns the target server, or an empty string when integration
// tests should be skipped.
func ServerURL() string {
	return os.Getenv("TEST_SERVER_URL")
}

func NewIntegrationSuite(t *testing.T, serviceName string) *IntegrationSuite {
	t.Helper()

	serverURL := ServerURL()
	if serverURL == "" {
		t.Skip("set TEST_SERVER_URL to run integration tests against a live server")
	}

	cfg := config.Load(serviceName)

	suite := &IntegrationSuite{
		Config:       cfg,
		HTTP:         client.NewHttpClient(serverURL),
		Availability: client.NewAvailabilityClient(serverURL),
		Providers:    client.NewProviderClient(serverURL),
		Mongo:        NewMongoHelper(t, cfg),
	}
	suite.waitForHealthy(t, 30*time.Second)
	return suite
}

func (s *IntegrationSuite) Teardown(t *testing.T) {
	t.Helper()
	if s.Mongo != nil {
		s.Mongo.Close(t)
	}
	s.Config.GracefulShutdown()
}

func (s *IntegrationSuite) waitForHealthy(t *testing.T, maxWait time.Duration) {
	t.Helper()

	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		resp, err := s.HTTP.GET("/health")
		if err == nil && resp.StatusCode == 200 {
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service did not become healthy within %v", maxWait)
}
