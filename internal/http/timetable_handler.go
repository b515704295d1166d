package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/timetable-share/internal/application"
	"github.com/example/timetable-share/internal/availability"
)

type timetableService interface {
	GetTimetable(ctx context.Context, principal application.Principal) (application.TimetableView, error)
	SaveTimetable(ctx context.Context, params application.SaveTimetableParams) (application.TimetableView, error)
	ToggleCell(ctx context.Context, params application.ToggleCellParams) (application.TimetableView, error)
	ClearTimetable(ctx context.Context, principal application.Principal) (application.TimetableView, error)
	WeekOccurrences(ctx context.Context, principal application.Principal, reference time.Time) ([]availability.Occurrence, error)
	Schedule() availability.WeeklySchedule
	Location() *time.Location
}

type TimetableHandler struct {
	service   timetableService
	responder responder
	logger    *slog.Logger
}

func NewTimetableHandler(service timetableService, logger *slog.Logger) *TimetableHandler {
	base := defaultLogger(logger)
	return &TimetableHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TimetableHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TimetableHandler", operation, attrs...)
}

func (h *TimetableHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	view, err := h.service.GetTimetable(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Get", "principal_id", principal.UserID).ErrorContext(r.Context(), "failed to load timetable", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimetableResponse(view))
}

func (h *TimetableHandler) Save(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Save", "principal_id", principal.UserID)

	var req saveTimetableRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.ErrorContext(r.Context(), "failed to decode timetable request", "error", err, "error_kind", "bad_request")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	grid, ok := availability.GridFromRows(req.Grid)
	if !ok {
		err := &application.ValidationError{FieldErrors: map[string]string{"grid": "grid must be 10 rows of 5 days"}}
		logger.ErrorContext(r.Context(), "timetable has wrong shape", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	view, err := h.service.SaveTimetable(r.Context(), application.SaveTimetableParams{Principal: principal, Grid: grid})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to save timetable", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "timetable saved", "busy_cells", view.Grid.BusyCount())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimetableResponse(view))
}

func (h *TimetableHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req cellDTO
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Toggle", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode toggle request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Toggle", "principal_id", principal.UserID, "slot", req.Slot, "day", req.Day)

	view, err := h.service.ToggleCell(r.Context(), application.ToggleCellParams{
		Principal: principal,
		Cell:      availability.Cell{Slot: req.Slot, Day: req.Day},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to toggle cell", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimetableResponse(view))
}

func (h *TimetableHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Clear", "principal_id", principal.UserID)

	view, err := h.service.ClearTimetable(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to clear timetable", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "timetable cleared")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimetableResponse(view))
}

func (h *TimetableHandler) Week(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Week", "principal_id", principal.UserID)

	var reference time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, raw, h.service.Location())
		if err != nil {
			logger.ErrorContext(r.Context(), "invalid week reference", "error", err, "error_kind", "bad_request")
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		reference = parsed
	}

	occurrences, err := h.service.WeekOccurrences(r.Context(), principal, reference)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to expand week", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := weekResponse{Occurrences: make([]occurrenceDTO, 0, len(occurrences))}
	for _, occ := range occurrences {
		resp.Occurrences = append(resp.Occurrences, occurrenceDTO{
			Slot:  occ.Slot,
			Day:   occ.Day,
			Start: occ.Start.Format(time.RFC3339),
			End:   occ.End.Format(time.RFC3339),
		})
	}
	if len(occurrences) > 0 {
		resp.WeekStart = availability.WeekStart(occurrences[0].Start).Format(time.DateOnly)
	} else if !reference.IsZero() {
		resp.WeekStart = availability.WeekStart(reference).Format(time.DateOnly)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

// Schedule renders the class period table. It needs no session.
func (h *TimetableHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	schedule := h.service.Schedule()
	resp := scheduleResponse{
		Timezone: h.service.Location().String(),
		Slots:    make([]slotDTO, 0, len(schedule.Slots)),
	}
	for i, slot := range schedule.Slots {
		resp.Slots = append(resp.Slots, slotDTO{Index: i, Start: slot.Start.String(), End: slot.End.String()})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

type saveTimetableRequest struct {
	Grid [][]bool `json:"grid"`
}

type cellDTO struct {
	Slot int `json:"slot"`
	Day  int `json:"day"`
}

type timetableResponse struct {
	UserID       string   `json:"user_id"`
	Grid         [][]bool `json:"grid"`
	Saved        bool     `json:"saved"`
	UpdatedAt    string   `json:"updated_at,omitempty"`
	EvaluatedAt  string   `json:"evaluated_at"`
	CurrentCell  *cellDTO `json:"current_cell,omitempty"`
	Availability string   `json:"availability"`
}

type occurrenceDTO struct {
	Slot  int    `json:"slot"`
	Day   int    `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type weekResponse struct {
	WeekStart   string          `json:"week_start,omitempty"`
	Occurrences []occurrenceDTO `json:"occurrences"`
}

type slotDTO struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type scheduleResponse struct {
	Timezone string    `json:"timezone"`
	Slots    []slotDTO `json:"slots"`
}

func toCellDTO(cell *availability.Cell) *cellDTO {
	if cell == nil {
		return nil
	}
	return &cellDTO{Slot: cell.Slot, Day: cell.Day}
}

func toTimetableResponse(view application.TimetableView) timetableResponse {
	return timetableResponse{
		UserID:       view.UserID,
		Grid:         view.Grid.Rows(),
		Saved:        view.Saved,
		UpdatedAt:    formatTimestamp(view.UpdatedAt),
		EvaluatedAt:  formatTimestamp(view.EvaluatedAt),
		CurrentCell:  toCellDTO(view.CurrentCell),
		Availability: string(view.Availability),
	}
}
