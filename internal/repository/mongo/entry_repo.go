package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fitcal/coach-planner/internal/domain"
	"fitcal/coach-planner/internal/repository"
)

const entryCollectionName = "plan_entries"

// mongoEntryRepository implements repository.PlanEntryRepository.
type mongoEntryRepository struct {
	collection *mongo.Collection
}

// NewMongoEntryRepository creates a plan entry repository backed by MongoDB.
func NewMongoEntryRepository(db *mongo.Database) repository.PlanEntryRepository {
	return &mongoEntryRepository{
		collection: db.Collection(entryCollectionName),
	}
}

// Create inserts a new plan entry and returns its generated ID.
func (r *mongoEntryRepository) Create(ctx context.Context, entry *domain.PlanEntry) (primitive.ObjectID, error) {
	if entry.OwnerID == primitive.NilObjectID || entry.TrainerID == primitive.NilObjectID ||
		entry.ScheduledDate == "" || entry.Name == "" {
		return primitive.NilObjectID, errors.New("entry requires ownerId, trainerId, scheduledDate, and name")
	}

	entry.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted entry ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single entry by its ID.
func (r *mongoEntryRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanEntry, error) {
	var entry domain.PlanEntry
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// GetByOwnerAndDate retrieves every entry on one calendar day of a client's
// plan, in creation order.
func (r *mongoEntryRepository) GetByOwnerAndDate(ctx context.Context, ownerID primitive.ObjectID, date string) ([]domain.PlanEntry, error) {
	filter := bson.M{"ownerId": ownerID, "scheduledDate": date}
	return r.find(ctx, filter)
}

// GetByOwnerAndRange retrieves entries scheduled between startDate and
// endDate inclusive. Canonical date strings sort chronologically, so the
// range filter compares strings directly.
func (r *mongoEntryRepository) GetByOwnerAndRange(ctx context.Context, ownerID primitive.ObjectID, startDate, endDate string) ([]domain.PlanEntry, error) {
	filter := bson.M{
		"ownerId":       ownerID,
		"scheduledDate": bson.M{"$gte": startDate, "$lte": endDate},
	}
	return r.find(ctx, filter)
}

func (r *mongoEntryRepository) find(ctx context.Context, filter bson.M) ([]domain.PlanEntry, error) {
	findOptions := options.Find().SetSort(bson.D{
		{Key: "scheduledDate", Value: 1},
		{Key: "createdAt", Value: 1},
	})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []domain.PlanEntry{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Update overwrites the mutable fields of an existing entry.
func (r *mongoEntryRepository) Update(ctx context.Context, entry *domain.PlanEntry) error {
	if entry.ID == primitive.NilObjectID {
		return errors.New("entry ID is required for update")
	}

	// Owner and trainer are fixed at creation; a duplicate-to-another-client
	// is a copy, never an update.
	update := bson.M{
		"$set": bson.M{
			"scheduledDate":  entry.ScheduledDate,
			"kind":           entry.Kind,
			"name":           entry.Name,
			"status":         entry.Status,
			"order":          entry.Order,
			"notes":          entry.Notes,
			"workout":        entry.Workout,
			"meal":           entry.Meal,
			"attachmentKey":  entry.AttachmentKey,
			"attachmentName": entry.AttachmentName,
			"completedAt":    entry.CompletedAt,
			"updatedAt":      time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": entry.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an entry permanently. There is no soft delete.
func (r *mongoEntryRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if id == primitive.NilObjectID {
		return errors.New("entry ID is required for deletion")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureEntryIndexes creates the plan entry indexes. Call during startup.
func EnsureEntryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// The month view query: one owner, a date-string range.
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}},
			Options: options.Index(),
		},
	}
	// Non-fatal: queries still work unindexed.
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logrus.WithError(err).Warnf("failed to create indexes for %s", collection.Name())
	}
}
