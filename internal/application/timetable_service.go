package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/timetable-share/internal/availability"
)

// GridStore persists one weekly grid per user. FetchGrid returns ErrNotFound when nothing was saved.
type GridStore interface {
	FetchGrid(ctx context.Context, userID string) (StoredGrid, error)
	SaveGrid(ctx context.Context, userID string, grid StoredGrid) error
	DeleteGrid(ctx context.Context, userID string) error
}

// ScheduleContext fixes the bell schedule, campus time zone and clock used to classify grids.
type ScheduleContext struct {
	Schedule availability.WeeklySchedule
	Location *time.Location
	Now      func() time.Time
}

func (c ScheduleContext) withDefaults() ScheduleContext {
	if c.Schedule == (availability.WeeklySchedule{}) {
		c.Schedule = availability.DefaultSchedule()
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

func (c ScheduleContext) instant() time.Time {
	return c.Now().In(c.Location)
}

func (c ScheduleContext) view(userID string, stored StoredGrid, saved bool, instant time.Time) TimetableView {
	view := TimetableView{
		UserID:       userID,
		Grid:         stored.Grid,
		Saved:        saved,
		UpdatedAt:    stored.UpdatedAt,
		EvaluatedAt:  instant,
		Availability: availability.Status(stored.Grid, instant, c.Schedule),
	}
	if cell, ok := availability.CurrentCell(instant, c.Schedule); ok {
		view.CurrentCell = &cell
	}
	return view
}

// TimetableService manages the caller's own weekly grid.
type TimetableService struct {
	grids    GridStore
	cache    GridCache
	schedule ScheduleContext
	logger   *slog.Logger
}

// NewTimetableService constructs a TimetableService. A nil cache disables caching.
func NewTimetableService(grids GridStore, cache GridCache, schedule ScheduleContext) *TimetableService {
	return NewTimetableServiceWithLogger(grids, cache, schedule, nil)
}

// NewTimetableServiceWithLogger constructs a TimetableService with a specified logger.
func NewTimetableServiceWithLogger(grids GridStore, cache GridCache, schedule ScheduleContext, logger *slog.Logger) *TimetableService {
	if cache == nil {
		cache = NoopGridCache{}
	}
	return &TimetableService{
		grids:    grids,
		cache:    cache,
		schedule: schedule.withDefaults(),
		logger:   defaultLogger(logger),
	}
}

func (s *TimetableService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TimetableService", operation, attrs...)
}

func (s *TimetableService) ready() error {
	if s == nil {
		return fmt.Errorf("TimetableService is nil")
	}
	if s.grids == nil {
		return fmt.Errorf("grid store not configured")
	}
	return nil
}

// Schedule returns the bell schedule grids are interpreted against.
func (s *TimetableService) Schedule() availability.WeeklySchedule {
	if s == nil {
		return availability.DefaultSchedule()
	}
	return s.schedule.Schedule
}

// Location returns the time zone the current slot is resolved in.
func (s *TimetableService) Location() *time.Location {
	if s == nil {
		return time.Local
	}
	return s.schedule.Location
}

// GetTimetable loads the caller's grid. A user who never saved one gets an all-free, unsaved view.
func (s *TimetableService) GetTimetable(ctx context.Context, principal Principal) (view TimetableView, err error) {
	if err = s.ready(); err != nil {
		return
	}
	userID := strings.TrimSpace(principal.UserID)
	logger := s.loggerWith(ctx, "GetTimetable", "principal_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "timetable load failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if userID == "" {
		err = ErrUnauthenticated
		return
	}

	stored, saved, err := s.fetch(ctx, userID)
	if err != nil {
		return
	}
	view = s.schedule.view(userID, stored, saved, s.schedule.instant())
	return
}

// SaveTimetable overwrites the caller's grid.
func (s *TimetableService) SaveTimetable(ctx context.Context, params SaveTimetableParams) (view TimetableView, err error) {
	if err = s.ready(); err != nil {
		return
	}
	userID := strings.TrimSpace(params.Principal.UserID)
	logger := s.loggerWith(ctx, "SaveTimetable", "principal_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "timetable save failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("busy_cells", view.Grid.BusyCount()).InfoContext(ctx, "timetable saved")
	}()

	if userID == "" {
		err = ErrUnauthenticated
		return
	}

	view, err = s.store(ctx, userID, params.Grid)
	return
}

// ToggleCell flips a single cell of the caller's grid and persists the result.
// The read and the write are separate store calls, so two concurrent toggles by
// the same user can lose one of the flips.
func (s *TimetableService) ToggleCell(ctx context.Context, params ToggleCellParams) (view TimetableView, err error) {
	if err = s.ready(); err != nil {
		return
	}
	userID := strings.TrimSpace(params.Principal.UserID)
	logger := s.loggerWith(ctx, "ToggleCell",
		"principal_id", userID,
		"slot", params.Cell.Slot,
		"day", params.Cell.Day,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "cell toggle failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("busy", view.Grid.At(params.Cell)).InfoContext(ctx, "cell toggled")
	}()

	if userID == "" {
		err = ErrUnauthenticated
		return
	}
	if !params.Cell.Valid() {
		vErr := &ValidationError{}
		vErr.add("cell", "cell is out of range")
		err = vErr
		return
	}

	stored, _, err := s.fetch(ctx, userID)
	if err != nil {
		return
	}
	grid := stored.Grid
	grid.Toggle(params.Cell)

	view, err = s.store(ctx, userID, grid)
	return
}

// ClearTimetable deletes the caller's grid so later reads fall back to all-free.
func (s *TimetableService) ClearTimetable(ctx context.Context, principal Principal) (view TimetableView, err error) {
	if err = s.ready(); err != nil {
		return
	}
	userID := strings.TrimSpace(principal.UserID)
	logger := s.loggerWith(ctx, "ClearTimetable", "principal_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "timetable clear failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "timetable cleared")
	}()

	if userID == "" {
		err = ErrUnauthenticated
		return
	}

	if err = s.grids.DeleteGrid(ctx, userID); err != nil && !errors.Is(err, ErrNotFound) {
		return
	}
	err = nil
	s.cache.Invalidate(ctx, userID)

	view = s.schedule.view(userID, StoredGrid{}, false, s.schedule.instant())
	return
}

// WeekOccurrences expands the caller's busy cells into concrete intervals for the week containing
// reference. A zero reference means the current week.
func (s *TimetableService) WeekOccurrences(ctx context.Context, principal Principal, reference time.Time) (occurrences []availability.Occurrence, err error) {
	if err = s.ready(); err != nil {
		return
	}
	userID := strings.TrimSpace(principal.UserID)
	logger := s.loggerWith(ctx, "WeekOccurrences", "principal_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "week expansion failed", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if userID == "" {
		err = ErrUnauthenticated
		return
	}

	stored, _, err := s.fetch(ctx, userID)
	if err != nil {
		return
	}

	if reference.IsZero() {
		reference = s.schedule.instant()
	}
	occurrences = availability.ExpandWeek(stored.Grid, s.schedule.Schedule, reference.In(s.schedule.Location))
	return
}

func (s *TimetableService) fetch(ctx context.Context, userID string) (StoredGrid, bool, error) {
	stored, err := s.grids.FetchGrid(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return StoredGrid{}, false, nil
		}
		return StoredGrid{}, false, err
	}
	return stored, true, nil
}

func (s *TimetableService) store(ctx context.Context, userID string, grid availability.Grid) (TimetableView, error) {
	instant := s.schedule.instant()
	stored := StoredGrid{Grid: grid, UpdatedAt: s.schedule.Now()}
	if err := s.grids.SaveGrid(ctx, userID, stored); err != nil {
		return TimetableView{}, err
	}
	s.cache.Invalidate(ctx, userID)
	return s.schedule.view(userID, stored, true, instant), nil
}
