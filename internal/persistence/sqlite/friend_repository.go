package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/timetable-share/internal/persistence"
)

// FriendRepository implements persistence.FriendRepository using SQLite.
// List order is kept in the position column.
type FriendRepository struct {
	pool *ConnectionPool
}

// NewFriendRepository creates a new SQLite friend repository
func NewFriendRepository(pool *ConnectionPool) *FriendRepository {
	return &FriendRepository{pool: pool}
}

// ListFriends returns the user's friend list in insertion order.
func (r *FriendRepository) ListFriends(ctx context.Context, userID string) ([]persistence.FriendRef, error) {
	var friends []persistence.FriendRef
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := ensureUserExists(ctx, tx, userID); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT friend_uid, email, name
			FROM friends
			WHERE user_id = ?
			ORDER BY position ASC`, userID)
		if err != nil {
			return mapError(err)
		}
		defer rows.Close()

		for rows.Next() {
			var ref persistence.FriendRef
			if err := rows.Scan(&ref.UID, &ref.Email, &ref.Name); err != nil {
				return mapError(err)
			}
			friends = append(friends, ref)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return friends, nil
}

// AddFriend appends friend unless the list already holds its UID.
func (r *FriendRepository) AddFriend(ctx context.Context, userID string, friend persistence.FriendRef) error {
	if friend.UID == "" {
		return persistence.ErrConstraintViolation
	}
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := ensureUserExists(ctx, tx, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO friends (user_id, friend_uid, email, name, position)
			SELECT ?, ?, ?, ?, COALESCE(MAX(position), -1) + 1 FROM friends WHERE user_id = ?
			ON CONFLICT (user_id, friend_uid) DO NOTHING`,
			userID, friend.UID, friend.Email, friend.Name, userID,
		)
		return mapError(err)
	})
}

// RemoveFriend drops friendUID from the user's list.
func (r *FriendRepository) RemoveFriend(ctx context.Context, userID, friendUID string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := ensureUserExists(ctx, tx, userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM friends WHERE user_id = ? AND friend_uid = ?`, userID, friendUID)
		return mapError(err)
	})
}

// RemoveFriendEverywhere drops friendUID from every user's list.
func (r *FriendRepository) RemoveFriendEverywhere(ctx context.Context, friendUID string) error {
	_, err := r.pool.db.ExecContext(ctx, `DELETE FROM friends WHERE friend_uid = ?`, friendUID)
	return mapError(err)
}

func ensureUserExists(ctx context.Context, tx *sql.Tx, userID string) error {
	var exists int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}
	return mapError(err)
}
