package application

import (
	"context"
	"slices"
	"sync"
	"time"
)

type testClock struct {
	mu      sync.Mutex
	current time.Time
}

func newTestClock(start time.Time) *testClock {
	return &testClock{current: start}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *testClock) NowFunc() func() time.Time { return c.Now }

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// accountStoreStub keeps accounts in memory keyed by ID.
type accountStoreStub struct {
	mu       sync.Mutex
	accounts map[string]UserCredentials
	err      error
	deleted  []string
}

func newAccountStoreStub(accounts ...UserCredentials) *accountStoreStub {
	stub := &accountStoreStub{accounts: make(map[string]UserCredentials)}
	for _, account := range accounts {
		stub.accounts[account.User.ID] = account
	}
	return stub
}

func (s *accountStoreStub) GetUserCredentialsByEmail(_ context.Context, email string) (UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return UserCredentials{}, s.err
	}
	for _, account := range s.accounts {
		if account.User.Email == email {
			return account, nil
		}
	}
	return UserCredentials{}, ErrNotFound
}

func (s *accountStoreStub) GetUser(_ context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return User{}, s.err
	}
	account, ok := s.accounts[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return account.User, nil
}

func (s *accountStoreStub) FindUserByEmail(ctx context.Context, email string) (User, error) {
	creds, err := s.GetUserCredentialsByEmail(ctx, email)
	return creds.User, err
}

func (s *accountStoreStub) CreateAccount(_ context.Context, credentials UserCredentials) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return User{}, s.err
	}
	for _, account := range s.accounts {
		if account.User.Email == credentials.User.Email {
			return User{}, ErrAlreadyExists
		}
	}
	s.accounts[credentials.User.ID] = credentials
	return credentials.User, nil
}

func (s *accountStoreStub) UpdateUserName(_ context.Context, id, name string, updatedAt time.Time) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return User{}, s.err
	}
	account, ok := s.accounts[id]
	if !ok {
		return User{}, ErrNotFound
	}
	account.User.Name = name
	account.User.UpdatedAt = updatedAt
	s.accounts[id] = account
	return account.User, nil
}

func (s *accountStoreStub) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, id)
	s.deleted = append(s.deleted, id)
	return nil
}

// sessionRepositoryStub provides an in-memory implementation of SessionRepository for tests.
type sessionRepositoryStub struct {
	sessionsByID map[string]Session
	tokenToID    map[string]string

	createErr error
	getErr    error
	updateErr error
	revokeErr error
	deleteErr error

	deleteCalls     []time.Time
	revokedForUsers []string
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{
		sessionsByID: make(map[string]Session),
		tokenToID:    make(map[string]string),
	}
}

func (s *sessionRepositoryStub) seed(session Session) {
	s.sessionsByID[session.ID] = cloneSession(session)
	s.tokenToID[session.Token] = session.ID
}

func (s *sessionRepositoryStub) CreateSession(_ context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.seed(session)
	return cloneSession(session), nil
}

func (s *sessionRepositoryStub) GetSession(_ context.Context, token string) (Session, error) {
	if s.getErr != nil {
		return Session{}, s.getErr
	}
	id, ok := s.tokenToID[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return cloneSession(s.sessionsByID[id]), nil
}

func (s *sessionRepositoryStub) UpdateSession(_ context.Context, session Session) (Session, error) {
	if s.updateErr != nil {
		return Session{}, s.updateErr
	}
	current, ok := s.sessionsByID[session.ID]
	if !ok {
		return Session{}, ErrNotFound
	}
	if current.Token != session.Token {
		delete(s.tokenToID, current.Token)
	}
	s.sessionsByID[session.ID] = cloneSession(session)
	s.tokenToID[session.Token] = session.ID
	return cloneSession(session), nil
}

func (s *sessionRepositoryStub) RevokeSession(_ context.Context, token string, revokedAt time.Time) (Session, error) {
	if s.revokeErr != nil {
		return Session{}, s.revokeErr
	}
	id, ok := s.tokenToID[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session := s.sessionsByID[id]
	revoked := revokedAt.UTC()
	session.RevokedAt = &revoked
	session.UpdatedAt = revoked
	s.sessionsByID[id] = session
	return cloneSession(session), nil
}

func (s *sessionRepositoryStub) RevokeUserSessions(_ context.Context, userID string, revokedAt time.Time) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revokedForUsers = append(s.revokedForUsers, userID)
	revoked := revokedAt.UTC()
	for id, session := range s.sessionsByID {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &revoked
			s.sessionsByID[id] = session
		}
	}
	return nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	cutoff := reference.UTC()
	s.deleteCalls = append(s.deleteCalls, cutoff)
	for id, session := range s.sessionsByID {
		if session.ExpiresAt.IsZero() {
			continue
		}
		if !session.ExpiresAt.After(cutoff) {
			delete(s.sessionsByID, id)
			delete(s.tokenToID, session.Token)
		}
	}
	return nil
}

func cloneSession(session Session) Session {
	clone := session
	if session.RevokedAt != nil {
		revoked := session.RevokedAt.UTC()
		clone.RevokedAt = &revoked
	}
	return clone
}

// gridStoreStub keeps grids in memory and can fail reads for chosen users.
type gridStoreStub struct {
	mu       sync.Mutex
	grids    map[string]StoredGrid
	failFor  map[string]error
	saveErr  error
	fetches  map[string]int
	deletion []string
}

func newGridStoreStub() *gridStoreStub {
	return &gridStoreStub{
		grids:   make(map[string]StoredGrid),
		failFor: make(map[string]error),
		fetches: make(map[string]int),
	}
}

func (s *gridStoreStub) FetchGrid(ctx context.Context, userID string) (StoredGrid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return StoredGrid{}, err
	}
	s.fetches[userID]++
	if err, ok := s.failFor[userID]; ok {
		return StoredGrid{}, err
	}
	grid, ok := s.grids[userID]
	if !ok {
		return StoredGrid{}, ErrNotFound
	}
	return grid, nil
}

func (s *gridStoreStub) SaveGrid(_ context.Context, userID string, grid StoredGrid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.grids[userID] = grid
	return nil
}

func (s *gridStoreStub) DeleteGrid(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletion = append(s.deletion, userID)
	if _, ok := s.grids[userID]; !ok {
		return ErrNotFound
	}
	delete(s.grids, userID)
	return nil
}

func (s *gridStoreStub) fetchCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[userID]
}

// friendRepositoryStub keeps ordered friend lists per owner.
type friendRepositoryStub struct {
	mu           sync.Mutex
	lists        map[string][]FriendRef
	listErr      error
	removedEvery []string
}

func newFriendRepositoryStub() *friendRepositoryStub {
	return &friendRepositoryStub{lists: make(map[string][]FriendRef)}
}

func (s *friendRepositoryStub) ListFriends(_ context.Context, userID string) ([]FriendRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return slices.Clone(s.lists[userID]), nil
}

func (s *friendRepositoryStub) AddFriend(_ context.Context, userID string, friend FriendRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.lists[userID] {
		if existing.UID == friend.UID {
			return nil
		}
	}
	s.lists[userID] = append(s.lists[userID], friend)
	return nil
}

func (s *friendRepositoryStub) RemoveFriend(_ context.Context, userID, friendUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[userID] = slices.DeleteFunc(s.lists[userID], func(f FriendRef) bool { return f.UID == friendUID })
	return nil
}

func (s *friendRepositoryStub) RemoveFriendEverywhere(_ context.Context, friendUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removedEvery = append(s.removedEvery, friendUID)
	for owner, list := range s.lists {
		s.lists[owner] = slices.DeleteFunc(list, func(f FriendRef) bool { return f.UID == friendUID })
	}
	return nil
}

// recordingCache wraps LocalGridCache and records invalidations.
type recordingCache struct {
	*LocalGridCache
	mu          sync.Mutex
	invalidated []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{LocalGridCache: NewLocalGridCache(time.Minute, 64, nil)}
}

func (c *recordingCache) Invalidate(ctx context.Context, userID string) {
	c.mu.Lock()
	c.invalidated = append(c.invalidated, userID)
	c.mu.Unlock()
	c.LocalGridCache.Invalidate(ctx, userID)
}
