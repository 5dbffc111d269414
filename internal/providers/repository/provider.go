package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	providererrors "healthfirst/internal/providers/errors"
	"healthfirst/pkg/config"
	"healthfirst/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Providers"

	maxProviderResults = 1000
)

type mongoProviderRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type ProviderRepository interface {
	FindByID(ctx context.Context, id string) (*model.Provider, error)
	FindByUserID(ctx context.Context, userID string) (*model.Provider, error)
	FindBySpecialization(ctx context.Context, specialization string) ([]*model.Provider, error)
}

func NewMongoProviderRepository(cfg *config.Config) ProviderRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProviderRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoProviderRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoProviderRepository) FindByID(ctx context.Context, id string) (*model.Provider, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", providererrors.ErrInvalidID, id)
	}

	var p model.Provider
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", providererrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find provider: %w", err)
	}

	return &p, nil
}

func (r *mongoProviderRepository) FindByUserID(ctx context.Context, userID string) (*model.Provider, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var p model.Provider
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: user %s", providererrors.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to find provider by user: %w", err)
	}

	return &p, nil
}

func (r *mongoProviderRepository) FindBySpecialization(ctx context.Context, specialization string) ([]*model.Provider, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"specialization": bson.M{
			"$regex":   fmt.Sprintf("^%s$", regexp.QuoteMeta(specialization)),
			"$options": "i",
		},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "last_name", Value: 1}}).
		SetLimit(maxProviderResults)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []*model.Provider
	if err = cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return providers, nil
}
