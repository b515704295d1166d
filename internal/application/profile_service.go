package application

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ProfileStore captures the persistence operations needed by the profile service.
type ProfileStore interface {
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUserName(ctx context.Context, id, name string, updatedAt time.Time) (User, error)
}

// ProfileService exposes the caller's own account details.
type ProfileService struct {
	users ProfileStore
	now   func() time.Time
}

// NewProfileService wires dependencies for the profile service.
func NewProfileService(users ProfileStore, now func() time.Time) *ProfileService {
	if now == nil {
		now = time.Now
	}
	return &ProfileService{users: users, now: now}
}

// GetProfile returns the caller's account.
func (s *ProfileService) GetProfile(ctx context.Context, principal Principal) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("ProfileService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("profile store not configured")
	}
	userID := strings.TrimSpace(principal.UserID)
	if userID == "" {
		return User{}, ErrUnauthenticated
	}
	return s.users.GetUser(ctx, userID)
}

// UpdateName changes the caller's display name. Copies already stored in other users' friend lists keep the old name.
func (s *ProfileService) UpdateName(ctx context.Context, params UpdateNameParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("ProfileService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("profile store not configured")
	}
	userID := strings.TrimSpace(params.Principal.UserID)
	if userID == "" {
		return User{}, ErrUnauthenticated
	}

	params.Name = strings.TrimSpace(params.Name)
	if vErr := validateStruct(params); vErr.HasErrors() {
		return User{}, vErr
	}

	return s.users.UpdateUserName(ctx, userID, params.Name, s.now())
}
