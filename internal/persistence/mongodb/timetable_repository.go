package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/timetable-share/internal/persistence"
)

type timetableDocument struct {
	UserID    string                   `bson:"userId"`
	Timetable persistence.GridDocument `bson:"timetable"`
	CreatedAt time.Time                `bson:"createdAt"`
	UpdatedAt time.Time                `bson:"timestamp"`
}

// TimetableRepository implements persistence.TimetableRepository. Each
// document is keyed by its owner's ID.
type TimetableRepository struct {
	users      *mongo.Collection
	timetables *mongo.Collection
}

// GetTimetable returns the stored grid for a user.
func (r *TimetableRepository) GetTimetable(ctx context.Context, userID string) (persistence.Timetable, error) {
	var doc timetableDocument
	if err := r.timetables.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc); err != nil {
		return persistence.Timetable{}, mapError(err)
	}
	grid, err := persistence.DecodeGridDocument(doc.Timetable)
	if err != nil {
		return persistence.Timetable{}, fmt.Errorf("decode grid for %s: %w", userID, err)
	}
	return persistence.Timetable{
		UserID:    userID,
		Grid:      grid,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}, nil
}

// SaveTimetable upserts the whole grid, keeping createdAt of an existing
// document. The owner must exist.
func (r *TimetableRepository) SaveTimetable(ctx context.Context, timetable persistence.Timetable) error {
	if timetable.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	count, err := r.users.CountDocuments(ctx, bson.M{"_id": timetable.UserID}, options.Count().SetLimit(1))
	if err != nil {
		return mapError(err)
	}
	if count == 0 {
		return fmt.Errorf("%w: no user %s", persistence.ErrForeignKeyViolation, timetable.UserID)
	}

	update := bson.M{
		"$set": bson.M{
			"userId":    timetable.UserID,
			"timetable": persistence.EncodeGridDocument(timetable.Grid),
			"timestamp": timetable.UpdatedAt.UTC(),
		},
		"$setOnInsert": bson.M{"createdAt": timetable.CreatedAt.UTC()},
	}
	_, err = r.timetables.UpdateOne(ctx, bson.M{"_id": timetable.UserID}, update, options.Update().SetUpsert(true))
	return mapError(err)
}

// DeleteTimetable removes the stored grid for a user.
func (r *TimetableRepository) DeleteTimetable(ctx context.Context, userID string) error {
	result, err := r.timetables.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return mapError(err)
	}
	if result.DeletedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
