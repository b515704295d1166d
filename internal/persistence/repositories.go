package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// FriendRepository stores each user's ordered friend list.
//
// AddFriend is a no-op when the list already holds an entry with the same UID,
// and RemoveFriend is a no-op when it holds none. Both return ErrNotFound when
// the owning user does not exist.
type FriendRepository interface {
	ListFriends(ctx context.Context, userID string) ([]FriendRef, error)
	AddFriend(ctx context.Context, userID string, friend FriendRef) error
	RemoveFriend(ctx context.Context, userID, friendUID string) error
	// RemoveFriendEverywhere drops friendUID from every user's list.
	RemoveFriendEverywhere(ctx context.Context, friendUID string) error
}

// TimetableRepository stores one occupancy grid per user. GetTimetable
// returns ErrNotFound for a user who never saved one.
type TimetableRepository interface {
	GetTimetable(ctx context.Context, userID string) (Timetable, error)
	SaveTimetable(ctx context.Context, timetable Timetable) error
	DeleteTimetable(ctx context.Context, userID string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	RevokeUserSessions(ctx context.Context, userID string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Store bundles every repository a backend provides.
type Store interface {
	UserRepository
	FriendRepository
	TimetableRepository
	SessionRepository
	Close() error
}
