package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/example/timetable-share/internal/persistence"
)

// TimetableRepository implements persistence.TimetableRepository using SQLite.
// Grids are stored as the JSON form of persistence.GridDocument.
type TimetableRepository struct {
	pool  *ConnectionPool
	retry *RetryHelper
}

// NewTimetableRepository creates a new SQLite timetable repository
func NewTimetableRepository(pool *ConnectionPool) *TimetableRepository {
	return &TimetableRepository{
		pool:  pool,
		retry: NewRetryHelper(DefaultRetryConfig()),
	}
}

// GetTimetable returns the stored grid for a user.
func (r *TimetableRepository) GetTimetable(ctx context.Context, userID string) (persistence.Timetable, error) {
	var (
		timetable          persistence.Timetable
		raw                string
		createdAt, updated string
	)
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT user_id, grid, created_at, updated_at
		FROM timetables WHERE user_id = ?`, userID,
	).Scan(&timetable.UserID, &raw, &createdAt, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Timetable{}, persistence.ErrNotFound
		}
		return persistence.Timetable{}, mapError(err)
	}

	var doc persistence.GridDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return persistence.Timetable{}, fmt.Errorf("decode grid for %s: %w", userID, err)
	}
	if timetable.Grid, err = persistence.DecodeGridDocument(doc); err != nil {
		return persistence.Timetable{}, err
	}
	if timetable.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Timetable{}, err
	}
	if timetable.UpdatedAt, err = parseTime("updated_at", updated); err != nil {
		return persistence.Timetable{}, err
	}
	return timetable, nil
}

// SaveTimetable writes the whole grid, keeping created_at of an existing row.
func (r *TimetableRepository) SaveTimetable(ctx context.Context, timetable persistence.Timetable) error {
	if timetable.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	raw, err := json.Marshal(persistence.EncodeGridDocument(timetable.Grid))
	if err != nil {
		return fmt.Errorf("encode grid for %s: %w", timetable.UserID, err)
	}

	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.db.ExecContext(ctx, `
			INSERT INTO timetables (user_id, grid, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET grid = excluded.grid, updated_at = excluded.updated_at`,
			timetable.UserID,
			string(raw),
			formatTime(timetable.CreatedAt),
			formatTime(timetable.UpdatedAt),
		)
		return mapError(err)
	})
}

// DeleteTimetable removes the stored grid for a user.
func (r *TimetableRepository) DeleteTimetable(ctx context.Context, userID string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM timetables WHERE user_id = ?`, userID)
	if err != nil {
		return mapError(err)
	}
	return requireRowsAffected(result)
}
