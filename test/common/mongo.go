package common

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"healthfirst/pkg/client"
	"healthfirst/pkg/config"
	"healthfirst/pkg/model"
)

const (
	ProvidersCollection      = "Providers"
	AvailabilitiesCollection = "Availabilities"
)

// MongoHelper gives tests direct database access for seeding and cleanup,
// reusing the production connection setup.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoHelper(t *testing.T, cfg *config.Config) *MongoHelper {
	t.Helper()

	prodClient := client.NewClient()
	prodClient.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)

	return &MongoHelper{
		Client:   prodClient.Mongo,
		Database: prodClient.Mongo.Database(cfg.MongoDatabaseName),
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// SeedProvider inserts a provider directly and returns its hex ID. Providers
// have no write API here, registration lives in the account service.
func (m *MongoHelper) SeedProvider(t *testing.T, p model.Provider) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	objectID := primitive.NewObjectID()
	doc := bson.M{
		"_id":            objectID,
		"user_id":        p.UserID,
		"first_name":     p.FirstName,
		"last_name":      p.LastName,
		"specialization": p.Specialization,
		"clinic_name":    p.ClinicName,
		"created_at":     time.Now(),
	}

	if _, err := m.Database.Collection(ProvidersCollection).InsertOne(ctx, doc); err != nil {
		t.Fatalf("failed to seed provider: %v", err)
	}
	return objectID.Hex()
}

func (m *MongoHelper) CleanCollection(t *testing.T, name string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := m.Database.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
		t.Fatalf("failed to clean collection %s: %v", name, err)
	}
}

func (m *MongoHelper) CountDocuments(t *testing.T, name string) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := m.Database.Collection(name).CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("failed to count documents in %s: %v", name, err)
	}
	return count
}
