// Package appstore adapts a persistence.Store to the repository interfaces the
// application services consume, translating models and storage errors.
package appstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/timetable-share/internal/application"
	"github.com/example/timetable-share/internal/persistence"
)

// Store satisfies every application-side repository interface on top of one backend.
type Store struct {
	repo persistence.Store
}

var (
	_ application.AccountStore      = (*Store)(nil)
	_ application.ProfileStore      = (*Store)(nil)
	_ application.UserDirectory     = (*Store)(nil)
	_ application.SessionRepository = (*Store)(nil)
	_ application.GridStore         = (*Store)(nil)
	_ application.FriendRepository  = (*Store)(nil)
	_ application.FriendRemover     = (*Store)(nil)
)

// New wraps repo.
func New(repo persistence.Store) *Store {
	return &Store{repo: repo}
}

// mapError translates storage sentinels into their application counterparts.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", application.ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", application.ErrAlreadyExists, err)
	default:
		return err
	}
}

func (s *Store) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, mapError(err)
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapError(err)
	}
	return toApplicationUser(stored), nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, mapError(err)
	}
	return toApplicationUser(stored), nil
}

func (s *Store) CreateAccount(ctx context.Context, credentials application.UserCredentials) (application.User, error) {
	if err := s.repo.CreateUser(ctx, toPersistenceUser(credentials.User, credentials.PasswordHash)); err != nil {
		return application.User{}, mapError(err)
	}
	return s.GetUser(ctx, credentials.User.ID)
}

func (s *Store) UpdateUserName(ctx context.Context, id, name string, updatedAt time.Time) (application.User, error) {
	stored, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapError(err)
	}
	stored.Name = name
	stored.UpdatedAt = updatedAt
	if err := s.repo.UpdateUser(ctx, stored); err != nil {
		return application.User{}, mapError(err)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return mapError(s.repo.DeleteUser(ctx, id))
}

func (s *Store) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := s.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapError(err)
	}
	return toApplicationSession(stored), nil
}

func (s *Store) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := s.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapError(err)
	}
	return toApplicationSession(stored), nil
}

func (s *Store) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := s.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapError(err)
	}
	return toApplicationSession(stored), nil
}

func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := s.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapError(err)
	}
	return toApplicationSession(stored), nil
}

func (s *Store) RevokeUserSessions(ctx context.Context, userID string, revokedAt time.Time) error {
	return mapError(s.repo.RevokeUserSessions(ctx, userID, revokedAt))
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapError(s.repo.DeleteExpiredSessions(ctx, reference))
}

func (s *Store) FetchGrid(ctx context.Context, userID string) (application.StoredGrid, error) {
	stored, err := s.repo.GetTimetable(ctx, userID)
	if err != nil {
		return application.StoredGrid{}, mapError(err)
	}
	return application.StoredGrid{Grid: stored.Grid, UpdatedAt: stored.UpdatedAt}, nil
}

func (s *Store) SaveGrid(ctx context.Context, userID string, grid application.StoredGrid) error {
	return mapError(s.repo.SaveTimetable(ctx, persistence.Timetable{
		UserID:    userID,
		Grid:      grid.Grid,
		CreatedAt: grid.UpdatedAt,
		UpdatedAt: grid.UpdatedAt,
	}))
}

func (s *Store) DeleteGrid(ctx context.Context, userID string) error {
	return mapError(s.repo.DeleteTimetable(ctx, userID))
}

func (s *Store) ListFriends(ctx context.Context, userID string) ([]application.FriendRef, error) {
	stored, err := s.repo.ListFriends(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	friends := make([]application.FriendRef, 0, len(stored))
	for _, ref := range stored {
		friends = append(friends, application.FriendRef{UID: ref.UID, Email: ref.Email, Name: ref.Name})
	}
	return friends, nil
}

func (s *Store) AddFriend(ctx context.Context, userID string, friend application.FriendRef) error {
	return mapError(s.repo.AddFriend(ctx, userID, persistence.FriendRef{
		UID:   friend.UID,
		Email: friend.Email,
		Name:  friend.Name,
	}))
}

func (s *Store) RemoveFriend(ctx context.Context, userID, friendUID string) error {
	return mapError(s.repo.RemoveFriend(ctx, userID, friendUID))
}

func (s *Store) RemoveFriendEverywhere(ctx context.Context, friendUID string) error {
	return mapError(s.repo.RemoveFriendEverywhere(ctx, friendUID))
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Email:     model.Email,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		PasswordHash: passwordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
