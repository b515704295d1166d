package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/example/timetable-share/internal/persistence"
)

type friendDocument struct {
	UID   string `bson:"uid"`
	Email string `bson:"email"`
	Name  string `bson:"name"`
}

type userDocument struct {
	ID           string           `bson:"_id"`
	Email        string           `bson:"email"`
	Name         string           `bson:"name"`
	PasswordHash string           `bson:"passwordHash"`
	Friends      []friendDocument `bson:"friends"`
	CreatedAt    time.Time        `bson:"createdAt"`
	UpdatedAt    time.Time        `bson:"updatedAt"`
}

func (d userDocument) model() persistence.User {
	return persistence.User{
		ID:           d.ID,
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// UserRepository implements persistence.UserRepository on the users collection.
type UserRepository struct {
	users      *mongo.Collection
	timetables *mongo.Collection
	sessions   *mongo.Collection
}

// CreateUser inserts a new user with an empty friend list. Emails are stored
// lower-cased.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" || normalizeEmail(user.Email) == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.users.InsertOne(ctx, userDocument{
		ID:           user.ID,
		Email:        normalizeEmail(user.Email),
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		Friends:      []friendDocument{},
		CreatedAt:    user.CreatedAt.UTC(),
		UpdatedAt:    user.UpdatedAt.UTC(),
	})
	return mapError(err)
}

// UpdateUser updates an existing user. The friend list is left untouched.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	result, err := r.users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"email":        normalizeEmail(user.Email),
		"name":         user.Name,
		"passwordHash": user.PasswordHash,
		"updatedAt":    user.UpdatedAt.UTC(),
	}})
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by email address, ignoring case and
// surrounding whitespace.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"email": normalized})
}

// DeleteUser removes a user, then their timetable and sessions. Entries for
// the user in other friend lists are left alone.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	result, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err)
	}
	if result.DeletedCount == 0 {
		return persistence.ErrNotFound
	}
	if _, err := r.timetables.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return mapError(err)
	}
	if _, err := r.sessions.DeleteMany(ctx, bson.M{"userId": id}); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (persistence.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return persistence.User{}, mapError(err)
	}
	return doc.model(), nil
}
