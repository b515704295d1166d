package persistence

import "time"

const (
	// GridRows is the number of class periods stored per timetable.
	GridRows = 10
	// GridColumns is the number of weekdays stored per timetable.
	GridColumns = 5
)

// User represents a registered account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FriendRef is a snapshot of another user's identity held in a friend list.
// It is copied when the friend is added and is not refreshed afterwards.
type FriendRef struct {
	UID   string
	Email string
	Name  string
}

// Timetable is the persisted occupancy grid for one user. Rows are class
// periods, columns are Monday through Friday.
type Timetable struct {
	UserID    string
	Grid      [GridRows][GridColumns]bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session represents an authentication session persisted for a user.
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
