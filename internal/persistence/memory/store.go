// Package memory provides a process-local implementation of every
// persistence repository. State is lost on restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/example/timetable-share/internal/persistence"
)

// Store keeps users, friend lists, timetables and sessions in maps guarded by
// a single lock.
type Store struct {
	mu         sync.RWMutex
	users      map[string]persistence.User
	friends    map[string][]persistence.FriendRef
	timetables map[string]persistence.Timetable
	sessions   map[string]persistence.Session
}

var _ persistence.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:      make(map[string]persistence.User),
		friends:    make(map[string][]persistence.FriendRef),
		timetables: make(map[string]persistence.Timetable),
		sessions:   make(map[string]persistence.Session),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// --- UserRepository implementation ---

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || strings.TrimSpace(user.Email) == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("memory: user %s: %w", user.ID, persistence.ErrDuplicate)
	}
	if err := s.ensureUniqueEmailLocked(user.ID, user.Email); err != nil {
		return err
	}

	s.users[user.ID] = user
	s.friends[user.ID] = nil
	return nil
}

// UpdateUser updates an existing user.
func (s *Store) UpdateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	if err := s.ensureUniqueEmailLocked(user.ID, user.Email); err != nil {
		return err
	}

	s.users[user.ID] = user
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address, ignoring case and
// surrounding whitespace.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target := normalizeEmail(email)
	for _, user := range s.users {
		if normalizeEmail(user.Email) == target {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// DeleteUser removes a user along with their own friend list, timetable and
// sessions. Entries for the user in other lists are left alone; see
// RemoveFriendEverywhere.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)
	delete(s.friends, id)
	delete(s.timetables, id)
	for token, session := range s.sessions {
		if session.UserID == id {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *Store) ensureUniqueEmailLocked(id, email string) error {
	target := normalizeEmail(email)
	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if normalizeEmail(other.Email) == target {
			return fmt.Errorf("memory: email %s: %w", email, persistence.ErrDuplicate)
		}
	}
	return nil
}

// --- FriendRepository implementation ---

// ListFriends returns the user's friend list in insertion order.
func (s *Store) ListFriends(ctx context.Context, userID string) ([]persistence.FriendRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return nil, persistence.ErrNotFound
	}
	return slices.Clone(s.friends[userID]), nil
}

// AddFriend appends friend unless an entry with the same UID already exists.
func (s *Store) AddFriend(ctx context.Context, userID string, friend persistence.FriendRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return persistence.ErrNotFound
	}
	list := s.friends[userID]
	if slices.ContainsFunc(list, func(ref persistence.FriendRef) bool { return ref.UID == friend.UID }) {
		return nil
	}
	s.friends[userID] = append(list, friend)
	return nil
}

// RemoveFriend drops every entry for friendUID from the user's list.
func (s *Store) RemoveFriend(ctx context.Context, userID, friendUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return persistence.ErrNotFound
	}
	s.friends[userID] = removeFriend(s.friends[userID], friendUID)
	return nil
}

// RemoveFriendEverywhere drops friendUID from every user's list.
func (s *Store) RemoveFriendEverywhere(ctx context.Context, friendUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, list := range s.friends {
		s.friends[userID] = removeFriend(list, friendUID)
	}
	return nil
}

func removeFriend(list []persistence.FriendRef, uid string) []persistence.FriendRef {
	return slices.DeleteFunc(slices.Clone(list), func(ref persistence.FriendRef) bool {
		return ref.UID == uid
	})
}

// --- TimetableRepository implementation ---

// GetTimetable returns the stored grid for a user.
func (s *Store) GetTimetable(ctx context.Context, userID string) (persistence.Timetable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	timetable, ok := s.timetables[userID]
	if !ok {
		return persistence.Timetable{}, persistence.ErrNotFound
	}
	return timetable, nil
}

// SaveTimetable replaces the stored grid for a user, keeping the original
// creation time when one exists.
func (s *Store) SaveTimetable(ctx context.Context, timetable persistence.Timetable) error {
	if timetable.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[timetable.UserID]; !ok {
		return fmt.Errorf("memory: timetable owner %s: %w", timetable.UserID, persistence.ErrForeignKeyViolation)
	}
	if existing, ok := s.timetables[timetable.UserID]; ok && !existing.CreatedAt.IsZero() {
		timetable.CreatedAt = existing.CreatedAt
	}
	s.timetables[timetable.UserID] = timetable
	return nil
}

// DeleteTimetable removes the stored grid for a user.
func (s *Store) DeleteTimetable(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.timetables[userID]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.timetables, userID)
	return nil
}

// --- SessionRepository implementation ---

// CreateSession stores a new session keyed by its token.
func (s *Store) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || session.UserID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.Token]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	s.sessions[session.Token] = cloneSession(session)
	return cloneSession(session), nil
}

// GetSession retrieves a session by token.
func (s *Store) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[strings.TrimSpace(token)]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

// UpdateSession replaces the mutable fields of the session with the same ID,
// moving it under a new token when the token was rotated.
func (s *Store) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		existing persistence.Session
		oldToken string
	)
	for token, candidate := range s.sessions {
		if candidate.ID == session.ID {
			existing, oldToken = candidate, token
			break
		}
	}
	if oldToken == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.Token = strings.TrimSpace(session.Token)
	if other, taken := s.sessions[session.Token]; taken && other.ID != session.ID {
		return persistence.Session{}, persistence.ErrDuplicate
	}

	session.UserID = existing.UserID
	session.CreatedAt = existing.CreatedAt
	delete(s.sessions, oldToken)
	s.sessions[session.Token] = cloneSession(session)
	return cloneSession(session), nil
}

// RevokeSession marks a session revoked.
func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	ts := revokedAt
	session.RevokedAt = &ts
	session.UpdatedAt = revokedAt
	s.sessions[token] = session
	return cloneSession(session), nil
}

// RevokeUserSessions marks every active session of a user revoked.
func (s *Store) RevokeUserSessions(ctx context.Context, userID string, revokedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if session.UserID != userID || session.RevokedAt != nil {
			continue
		}
		ts := revokedAt
		session.RevokedAt = &ts
		session.UpdatedAt = revokedAt
		s.sessions[token] = session
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired at or before reference.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func cloneSession(session persistence.Session) persistence.Session {
	if session.RevokedAt != nil {
		ts := *session.RevokedAt
		session.RevokedAt = &ts
	}
	return session
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
