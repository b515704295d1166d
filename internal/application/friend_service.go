package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/example/timetable-share/internal/availability"
)

// FriendRepository stores each user's ordered friend list.
// AddFriend is a no-op when the friend is already listed.
type FriendRepository interface {
	ListFriends(ctx context.Context, userID string) ([]FriendRef, error)
	AddFriend(ctx context.Context, userID string, friend FriendRef) error
	RemoveFriend(ctx context.Context, userID, friendUID string) error
}

// UserDirectory resolves accounts by their sign-in email.
type UserDirectory interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
}

const defaultRosterConcurrency = 8

// FriendService manages friend lists and classifies friends as free or busy.
type FriendService struct {
	friends     FriendRepository
	directory   UserDirectory
	grids       GridStore
	cache       GridCache
	schedule    ScheduleContext
	concurrency int
	logger      *slog.Logger
}

// NewFriendService constructs a FriendService. concurrency bounds parallel grid reads while
// building a roster; non-positive values use a default of 8.
func NewFriendService(friends FriendRepository, directory UserDirectory, grids GridStore, cache GridCache, schedule ScheduleContext, concurrency int) *FriendService {
	return NewFriendServiceWithLogger(friends, directory, grids, cache, schedule, concurrency, nil)
}

// NewFriendServiceWithLogger constructs a FriendService with a specified logger.
func NewFriendServiceWithLogger(friends FriendRepository, directory UserDirectory, grids GridStore, cache GridCache, schedule ScheduleContext, concurrency int, logger *slog.Logger) *FriendService {
	if cache == nil {
		cache = NoopGridCache{}
	}
	if concurrency <= 0 {
		concurrency = defaultRosterConcurrency
	}
	return &FriendService{
		friends:     friends,
		directory:   directory,
		grids:       grids,
		cache:       cache,
		schedule:    schedule.withDefaults(),
		concurrency: concurrency,
		logger:      defaultLogger(logger),
	}
}

func (s *FriendService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FriendService", operation, attrs...)
}

func (s *FriendService) ready() error {
	if s == nil {
		return fmt.Errorf("FriendService is nil")
	}
	if s.friends == nil {
		return fmt.Errorf("friend repository not configured")
	}
	return nil
}

// ListFriends returns the caller's friends in insertion order.
func (s *FriendService) ListFriends(ctx context.Context, principal Principal) (friends []FriendRef, err error) {
	if err = s.ready(); err != nil {
		return
	}
	userID := strings.TrimSpace(principal.UserID)
	logger := s.loggerWith(ctx, "ListFriends", "principal_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "friend listing failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if userID == "" {
		err = ErrUnauthenticated
		return
	}
	friends, err = s.friends.ListFriends(ctx, userID)
	return
}

// AddFriend looks up an account by email and appends it to the caller's list.
// Adding an already listed friend succeeds without creating a duplicate.
func (s *FriendService) AddFriend(ctx context.Context, params AddFriendParams) (friend FriendRef, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if s.directory == nil {
		err = fmt.Errorf("user directory not configured")
		return
	}

	userID := strings.TrimSpace(params.Principal.UserID)
	params.Email = normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "AddFriend", "principal_id", userID, "email", params.Email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "add friend failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("friend_uid", friend.UID).InfoContext(ctx, "friend added")
	}()

	if userID == "" {
		err = ErrUnauthenticated
		return
	}
	if err = validateStruct(params).errOrNil(); err != nil {
		return
	}

	var user User
	user, err = s.directory.FindUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUserNotFound
		}
		return
	}
	if user.ID == userID {
		vErr := &ValidationError{}
		vErr.add("email", "cannot add yourself")
		err = vErr
		return
	}

	friend = FriendRef{UID: user.ID, Email: user.Email, Name: user.Name}
	err = s.friends.AddFriend(ctx, userID, friend)
	return
}

// RemoveFriend drops friendUID from the caller's list. The friend's own list is untouched.
func (s *FriendService) RemoveFriend(ctx context.Context, principal Principal, friendUID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	userID := strings.TrimSpace(principal.UserID)
	friendUID = strings.TrimSpace(friendUID)
	logger := s.loggerWith(ctx, "RemoveFriend", "principal_id", userID, "friend_uid", friendUID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "remove friend failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "friend removed")
	}()

	if userID == "" {
		return ErrUnauthenticated
	}
	if friendUID == "" {
		vErr := &ValidationError{}
		vErr.add("uid", "uid is required")
		return vErr
	}
	return s.friends.RemoveFriend(ctx, userID, friendUID)
}

// Roster classifies every friend against the current slot. A friend whose grid cannot be read is
// reported as free and marked degraded; one failure never fails the roster.
func (s *FriendService) Roster(ctx context.Context, principal Principal) (roster Roster, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if s.grids == nil {
		err = fmt.Errorf("grid store not configured")
		return
	}

	userID := strings.TrimSpace(principal.UserID)
	logger := s.loggerWith(ctx, "Roster", "principal_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "roster failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("free", len(roster.Free), "busy", len(roster.Busy)).DebugContext(ctx, "roster built")
	}()

	if userID == "" {
		err = ErrUnauthenticated
		return
	}

	var friends []FriendRef
	friends, err = s.friends.ListFriends(ctx, userID)
	if err != nil {
		return
	}

	instant := s.schedule.instant()
	statuses := make([]FriendStatus, len(friends))

	var group errgroup.Group
	group.SetLimit(s.concurrency)
	for i, friend := range friends {
		group.Go(func() error {
			stored, _, loadErr := s.loadGrid(ctx, friend.UID)
			status := FriendStatus{Friend: friend}
			if loadErr != nil {
				logger.WarnContext(ctx, "friend grid unavailable, treating as free",
					"friend_uid", friend.UID,
					"error", loadErr,
				)
				stored = StoredGrid{}
				status.Degraded = true
			}
			status.Availability = availability.Status(stored.Grid, instant, s.schedule.Schedule)
			statuses[i] = status
			return nil
		})
	}
	_ = group.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
		return
	}

	roster = Roster{EvaluatedAt: instant}
	if cell, ok := availability.CurrentCell(instant, s.schedule.Schedule); ok {
		roster.CurrentCell = &cell
	}
	for _, status := range statuses {
		if status.Availability == availability.Busy {
			roster.Busy = append(roster.Busy, status)
			continue
		}
		roster.Free = append(roster.Free, status)
	}
	return
}

// FriendTimetable returns a friend's grid. The target must be in the caller's friend list.
func (s *FriendService) FriendTimetable(ctx context.Context, principal Principal, friendUID string) (view TimetableView, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if s.grids == nil {
		err = fmt.Errorf("grid store not configured")
		return
	}

	userID := strings.TrimSpace(principal.UserID)
	friendUID = strings.TrimSpace(friendUID)
	logger := s.loggerWith(ctx, "FriendTimetable", "principal_id", userID, "friend_uid", friendUID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "friend timetable failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if userID == "" {
		err = ErrUnauthenticated
		return
	}

	var friends []FriendRef
	friends, err = s.friends.ListFriends(ctx, userID)
	if err != nil {
		return
	}
	listed := false
	for _, f := range friends {
		if f.UID == friendUID {
			listed = true
			break
		}
	}
	if !listed {
		err = ErrUnauthorized
		return
	}

	stored, saved, err := s.loadGrid(ctx, friendUID)
	if err != nil {
		return
	}
	view = s.schedule.view(friendUID, stored, saved, s.schedule.instant())
	return
}

// loadGrid reads through the cache. A missing grid is reported as unsaved, not as an error.
// A fetch that races a save can land after the save's Invalidate, so a reader
// may see the previous grid for up to one cache TTL.
func (s *FriendService) loadGrid(ctx context.Context, userID string) (StoredGrid, bool, error) {
	if cached, ok := s.cache.Get(ctx, userID); ok {
		return cached, true, nil
	}
	stored, err := s.grids.FetchGrid(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StoredGrid{}, false, nil
		}
		return StoredGrid{}, false, err
	}
	s.cache.Store(ctx, userID, stored)
	return stored, true, nil
}
