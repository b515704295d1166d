package mongodb

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/example/timetable-share/internal/persistence"
)

type sessionDocument struct {
	ID          string     `bson:"_id"`
	UserID      string     `bson:"userId"`
	Token       string     `bson:"token"`
	Fingerprint string     `bson:"fingerprint"`
	ExpiresAt   time.Time  `bson:"expiresAt"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
	RevokedAt   *time.Time `bson:"revokedAt,omitempty"`
}

func (d sessionDocument) model() persistence.Session {
	session := persistence.Session{
		ID:          d.ID,
		UserID:      d.UserID,
		Token:       d.Token,
		Fingerprint: d.Fingerprint,
		ExpiresAt:   d.ExpiresAt.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.RevokedAt != nil {
		ts := d.RevokedAt.UTC()
		session.RevokedAt = &ts
	}
	return session
}

// SessionRepository implements persistence.SessionRepository on the sessions
// collection.
type SessionRepository struct {
	sessions *mongo.Collection
}

// CreateSession stores a new session token for a user.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.UserID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	doc := sessionDocument{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: strings.TrimSpace(session.Fingerprint),
		ExpiresAt:   session.ExpiresAt.UTC(),
		CreatedAt:   session.CreatedAt.UTC(),
		UpdatedAt:   session.UpdatedAt.UTC(),
		RevokedAt:   utcPointer(session.RevokedAt),
	}
	if _, err := r.sessions.InsertOne(ctx, doc); err != nil {
		return persistence.Session{}, mapError(err)
	}
	return doc.model(), nil
}

// GetSession retrieves a session by its token value.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	var doc sessionDocument
	if err := r.sessions.FindOne(ctx, bson.M{"token": normalized}).Decode(&doc); err != nil {
		return persistence.Session{}, mapError(err)
	}
	return doc.model(), nil
}

// UpdateSession updates the token, fingerprint, expiry and revocation of an
// existing session. ID, owner and creation time are immutable.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	set := bson.M{
		"token":       strings.TrimSpace(session.Token),
		"fingerprint": strings.TrimSpace(session.Fingerprint),
		"expiresAt":   session.ExpiresAt.UTC(),
		"updatedAt":   session.UpdatedAt.UTC(),
	}
	update := bson.M{"$set": set}
	if session.RevokedAt != nil {
		set["revokedAt"] = session.RevokedAt.UTC()
	} else {
		update["$unset"] = bson.M{"revokedAt": ""}
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": session.ID}, update)
}

// RevokeSession marks the session with token revoked.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	return r.findOneAndUpdate(ctx,
		bson.M{"token": strings.TrimSpace(token)},
		bson.M{"$set": bson.M{"revokedAt": revokedAt.UTC(), "updatedAt": revokedAt.UTC()}},
	)
}

// RevokeUserSessions marks every active session of a user revoked.
func (r *SessionRepository) RevokeUserSessions(ctx context.Context, userID string, revokedAt time.Time) error {
	_, err := r.sessions.UpdateMany(ctx,
		bson.M{"userId": userID, "revokedAt": nil},
		bson.M{"$set": bson.M{"revokedAt": revokedAt.UTC(), "updatedAt": revokedAt.UTC()}},
	)
	return mapError(err)
}

// DeleteExpiredSessions removes sessions that expired at or before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.sessions.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": reference.UTC()}})
	return mapError(err)
}

func (r *SessionRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (persistence.Session, error) {
	var doc sessionDocument
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.sessions.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return persistence.Session{}, mapError(err)
	}
	return doc.model(), nil
}

func utcPointer(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := t.UTC()
	return &ts
}
