package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	availerrors "healthfirst/internal/availability/errors"
	"healthfirst/pkg/config"
	mongotx "healthfirst/pkg/db/mongo"
	"healthfirst/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Availabilities"

	// maxQueryResults bounds unfiltered reads; search filters in memory and
	// needs the candidate set capped.
	maxQueryResults = 5000
)

type mongoAvailabilityRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type AvailabilityRepository interface {
	Create(ctx context.Context, a *model.Availability) error
	CreateAll(ctx context.Context, slots []*model.Availability) error
	FindByID(ctx context.Context, id string) (*model.Availability, error)
	FindByProvider(ctx context.Context, providerID string) ([]*model.Availability, error)
	FindByProviderAndDateRange(ctx context.Context, providerID, startDate, endDate string) ([]*model.Availability, error)
	FindByProviderAndStatus(ctx context.Context, providerID string, status model.AvailabilityStatus) ([]*model.Availability, error)
	FindAvailableByType(ctx context.Context, appointmentType model.AppointmentType, startDate, endDate string) ([]*model.Availability, error)
	FindAll(ctx context.Context) ([]*model.Availability, error)
	Update(ctx context.Context, id string, a *model.Availability) error
	UpdateStatusAndCount(ctx context.Context, id string, status model.AvailabilityStatus, count int) error
	Delete(ctx context.Context, id string) error
	DeleteSeries(ctx context.Context, anchor *model.Availability) (int64, error)
	Count(ctx context.Context) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoAvailabilityRepository(cfg *config.Config) AvailabilityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAvailabilityRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics, so
// inside a transaction the original context is returned with a no-op cancel.
func (r *mongoAvailabilityRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining > timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoAvailabilityRepository) Create(ctx context.Context, a *model.Availability) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	a.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, a)
	if err != nil {
		return fmt.Errorf("failed to create availability: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAvailabilityRepository) CreateAll(ctx context.Context, slots []*model.Availability) error {
	if len(slots) == 0 {
		return nil
	}

	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]interface{}, 0, len(slots))
	for _, slot := range slots {
		slot.CreatedAt = now
		docs = append(docs, slot)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create availability slots: %w", err)
	}

	for i, insertedID := range result.InsertedIDs {
		if oid, ok := insertedID.(primitive.ObjectID); ok && i < len(slots) {
			slots[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoAvailabilityRepository) FindByID(ctx context.Context, id string) (*model.Availability, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
	}

	var a model.Availability
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", availerrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find availability: %w", err)
	}

	return &a, nil
}

func (r *mongoAvailabilityRepository) FindByProvider(ctx context.Context, providerID string) ([]*model.Availability, error) {
	return r.find(ctx, bson.M{"provider_id": providerID})
}

func (r *mongoAvailabilityRepository) FindByProviderAndDateRange(ctx context.Context, providerID, startDate, endDate string) ([]*model.Availability, error) {
	filter := bson.M{
		"provider_id": providerID,
		"date":        bson.M{"$gte": startDate, "$lte": endDate},
	}
	return r.find(ctx, filter)
}

func (r *mongoAvailabilityRepository) FindByProviderAndStatus(ctx context.Context, providerID string, status model.AvailabilityStatus) ([]*model.Availability, error) {
	return r.find(ctx, bson.M{"provider_id": providerID, "status": status})
}

func (r *mongoAvailabilityRepository) FindAvailableByType(ctx context.Context, appointmentType model.AppointmentType, startDate, endDate string) ([]*model.Availability, error) {
	filter := bson.M{
		"appointment_type": appointmentType,
		"status":           model.StatusAvailable,
	}
	if startDate != "" && endDate != "" {
		filter["date"] = bson.M{"$gte": startDate, "$lte": endDate}
	}
	return r.find(ctx, filter)
}

func (r *mongoAvailabilityRepository) FindAll(ctx context.Context) ([]*model.Availability, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoAvailabilityRepository) find(ctx context.Context, filter bson.M) ([]*model.Availability, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start_time", Value: 1}}).
		SetLimit(maxQueryResults)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []*model.Availability
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode availability: %w", err)
	}
	return slots, nil
}

func (r *mongoAvailabilityRepository) Update(ctx context.Context, id string, a *model.Availability) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"date":                      a.Date,
			"start_time":                a.StartTime,
			"end_time":                  a.EndTime,
			"timezone":                  a.Timezone,
			"is_recurring":              a.IsRecurring,
			"recurrence_pattern":        a.RecurrencePattern,
			"recurrence_end_date":       a.RecurrenceEndDate,
			"slot_duration":             a.SlotDuration,
			"break_duration":            a.BreakDuration,
			"max_appointments_per_slot": a.MaxAppointmentsPerSlot,
			"appointment_type":          a.AppointmentType,
			"location":                  a.Location,
			"pricing":                   a.Pricing,
			"notes":                     a.Notes,
			"special_requirements":      a.SpecialRequirements,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", availerrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoAvailabilityRepository) UpdateStatusAndCount(ctx context.Context, id string, status model.AvailabilityStatus, count int) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"status":               status,
			"current_appointments": count,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update availability status: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", availerrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoAvailabilityRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", availerrors.ErrNotFound, id)
	}
	return nil
}

// DeleteSeries removes the anchor slot and every later occurrence of its
// series. Series membership is the provider plus the recurrence pattern and
// the time window; earlier occurrences stay untouched.
func (r *mongoAvailabilityRepository) DeleteSeries(ctx context.Context, anchor *model.Availability) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"provider_id":        anchor.ProviderID,
		"recurrence_pattern": anchor.RecurrencePattern,
		"start_time":         anchor.StartTime,
		"end_time":           anchor.EndTime,
		"date":               bson.M{"$gte": anchor.Date},
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete availability series: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoAvailabilityRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count availability: %w", err)
	}
	return count, nil
}

func (r *mongoAvailabilityRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
