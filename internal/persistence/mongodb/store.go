// Package mongodb implements the persistence repositories on MongoDB.
//
// Users live in one collection with their friend list embedded as an ordered
// array. Timetables are keyed by owner and stored as persistence.GridDocument
// under the "timetable" field. Sessions are kept in their own collection with
// a unique token index.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/timetable-share/internal/persistence"
)

const (
	collectionUsers      = "users"
	collectionTimetables = "timetables"
	collectionSessions   = "sessions"

	defaultConnectTimeout = 10 * time.Second
)

// Config describes how to reach the database.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Store bundles the MongoDB repositories over one client.
type Store struct {
	*UserRepository
	*FriendRepository
	*TimetableRepository
	*SessionRepository

	client *mongo.Client
	db     *mongo.Database
}

var _ persistence.Store = (*Store)(nil)

// Open connects, pings and ensures the indexes every repository relies on.
func Open(ctx context.Context, config Config) (*Store, error) {
	if strings.TrimSpace(config.URI) == "" || strings.TrimSpace(config.Database) == "" {
		return nil, errors.New("mongodb: uri and database are required")
	}
	timeout := config.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: ping: %w", err)
	}

	store := NewStore(client, config.Database)
	if err := store.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// NewStore wraps an already connected client.
func NewStore(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	users := db.Collection(collectionUsers)
	return &Store{
		UserRepository:      &UserRepository{users: users, timetables: db.Collection(collectionTimetables), sessions: db.Collection(collectionSessions)},
		FriendRepository:    &FriendRepository{users: users},
		TimetableRepository: &TimetableRepository{users: users, timetables: db.Collection(collectionTimetables)},
		SessionRepository:   &SessionRepository{sessions: db.Collection(collectionSessions)},
		client:              client,
		db:                  db,
	}
}

// EnsureIndexes creates the unique and lookup indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "friends.uid", Value: 1}}},
		},
		collectionSessions: {
			{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongodb: create %s indexes: %w", name, err)
		}
	}
	return nil
}

// Database exposes the underlying database handle.
func (s *Store) Database() *mongo.Database {
	return s.db
}

// Ping checks that the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return persistence.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	default:
		return fmt.Errorf("mongodb: %w", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
