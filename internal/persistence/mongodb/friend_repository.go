package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/timetable-share/internal/persistence"
)

// FriendRepository implements persistence.FriendRepository on the friends
// array embedded in each user document.
type FriendRepository struct {
	users *mongo.Collection
}

// ListFriends returns the user's friend list in insertion order.
func (r *FriendRepository) ListFriends(ctx context.Context, userID string) ([]persistence.FriendRef, error) {
	var doc struct {
		Friends []friendDocument `bson:"friends"`
	}
	opts := options.FindOne().SetProjection(bson.M{"friends": 1})
	if err := r.users.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc); err != nil {
		return nil, mapError(err)
	}

	friends := make([]persistence.FriendRef, 0, len(doc.Friends))
	for _, f := range doc.Friends {
		friends = append(friends, persistence.FriendRef{UID: f.UID, Email: f.Email, Name: f.Name})
	}
	return friends, nil
}

// AddFriend appends friend unless an entry with the same UID already exists.
// $addToSet would compare whole entries, so the UID guard lives in the filter.
func (r *FriendRepository) AddFriend(ctx context.Context, userID string, friend persistence.FriendRef) error {
	filter := bson.M{"_id": userID, "friends.uid": bson.M{"$ne": friend.UID}}
	update := bson.M{"$push": bson.M{"friends": friendDocument{UID: friend.UID, Email: friend.Email, Name: friend.Name}}}

	result, err := r.users.UpdateOne(ctx, filter, update)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount > 0 {
		return nil
	}
	return r.ensureUserExists(ctx, userID)
}

// RemoveFriend drops every entry for friendUID from the user's list.
func (r *FriendRepository) RemoveFriend(ctx context.Context, userID, friendUID string) error {
	result, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"friends": bson.M{"uid": friendUID}}},
	)
	if err != nil {
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// RemoveFriendEverywhere drops friendUID from every user's list.
func (r *FriendRepository) RemoveFriendEverywhere(ctx context.Context, friendUID string) error {
	_, err := r.users.UpdateMany(ctx,
		bson.M{"friends.uid": friendUID},
		bson.M{"$pull": bson.M{"friends": bson.M{"uid": friendUID}}},
	)
	return mapError(err)
}

func (r *FriendRepository) ensureUserExists(ctx context.Context, userID string) error {
	count, err := r.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return mapError(err)
	}
	if count == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
