package application

import (
	"time"

	"github.com/example/timetable-share/internal/availability"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
}

// User is the public profile of an account.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserCredentials pairs a user with the stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// FriendRef is the denormalized copy of a friend stored in the owner's list.
type FriendRef struct {
	UID   string
	Email string
	Name  string
}

// Session describes an issued session token.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// StoredGrid is a persisted weekly grid along with its last write time.
type StoredGrid struct {
	Grid      availability.Grid
	UpdatedAt time.Time
}

// SignUpParams carries the fields required to register an account.
type SignUpParams struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=6,max=128"`
	Name        string `json:"name" validate:"required,max=64"`
	Fingerprint string `json:"-"`
}

// AuthenticateParams carries the credentials presented at login.
type AuthenticateParams struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	Fingerprint string `json:"-"`
}

// AuthenticateResult contains the user and session issued for a successful login or sign-up.
type AuthenticateResult struct {
	User    User
	Session Session
}

// UpdateNameParams carries a display name change.
type UpdateNameParams struct {
	Principal Principal `json:"-"`
	Name      string    `json:"name" validate:"required,max=64"`
}

// SaveTimetableParams replaces the caller's whole grid.
type SaveTimetableParams struct {
	Principal Principal
	Grid      availability.Grid
}

// ToggleCellParams flips one cell of the caller's grid.
type ToggleCellParams struct {
	Principal Principal
	Cell      availability.Cell
}

// AddFriendParams identifies the account to add by email.
type AddFriendParams struct {
	Principal Principal `json:"-"`
	Email     string    `json:"email" validate:"required,email"`
}

// TimetableView is a grid annotated with the caller's current position in the week.
type TimetableView struct {
	UserID       string
	Grid         availability.Grid
	Saved        bool
	UpdatedAt    time.Time
	EvaluatedAt  time.Time
	CurrentCell  *availability.Cell
	Availability availability.Availability
}

// FriendStatus is one friend's classification at the evaluation instant.
type FriendStatus struct {
	Friend       FriendRef
	Availability availability.Availability
	// Degraded is set when the friend's grid could not be loaded and the friend was treated as free.
	Degraded bool
}

// Roster partitions a friend list into free and busy friends, preserving list order.
type Roster struct {
	EvaluatedAt time.Time
	CurrentCell *availability.Cell
	Free        []FriendStatus
	Busy        []FriendStatus
}

// RefreshSessionParams identifies the session to rotate.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult carries the rotated session.
type RefreshSessionResult struct {
	Session Session
}
