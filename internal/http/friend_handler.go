package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/timetable-share/internal/application"
)

type friendService interface {
	ListFriends(ctx context.Context, principal application.Principal) ([]application.FriendRef, error)
	AddFriend(ctx context.Context, params application.AddFriendParams) (application.FriendRef, error)
	RemoveFriend(ctx context.Context, principal application.Principal, friendUID string) error
	Roster(ctx context.Context, principal application.Principal) (application.Roster, error)
	FriendTimetable(ctx context.Context, principal application.Principal, friendUID string) (application.TimetableView, error)
}

type FriendHandler struct {
	service   friendService
	responder responder
	logger    *slog.Logger
}

func NewFriendHandler(service friendService, logger *slog.Logger) *FriendHandler {
	base := defaultLogger(logger)
	return &FriendHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *FriendHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "FriendHandler", operation, attrs...)
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	friends, err := h.service.ListFriends(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.UserID).ErrorContext(r.Context(), "failed to list friends", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := make([]friendDTO, 0, len(friends))
	for _, f := range friends {
		resp = append(resp, toFriendDTO(f))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *FriendHandler) Add(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req addFriendRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Add", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode friend request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Add", "principal_id", principal.UserID)

	friend, err := h.service.AddFriend(r.Context(), application.AddFriendParams{Principal: principal, Email: req.Email})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to add friend", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("friend_id", friend.UID).InfoContext(r.Context(), "friend added")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toFriendDTO(friend))
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	friendUID := strings.TrimSpace(chi.URLParam(r, "uid"))
	logger := h.log(r.Context(), "Remove", "principal_id", principal.UserID, "friend_id", friendUID)

	if err := h.service.RemoveFriend(r.Context(), principal, friendUID); err != nil {
		logger.ErrorContext(r.Context(), "failed to remove friend", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "friend removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *FriendHandler) Roster(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roster, err := h.service.Roster(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Roster", "principal_id", principal.UserID).ErrorContext(r.Context(), "failed to build roster", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, rosterResponse{
		EvaluatedAt: formatTimestamp(roster.EvaluatedAt),
		CurrentCell: toCellDTO(roster.CurrentCell),
		Free:        toFriendStatusDTOs(roster.Free),
		Busy:        toFriendStatusDTOs(roster.Busy),
	})
}

func (h *FriendHandler) Timetable(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	friendUID := strings.TrimSpace(chi.URLParam(r, "uid"))

	view, err := h.service.FriendTimetable(r.Context(), principal, friendUID)
	if err != nil {
		h.log(r.Context(), "Timetable", "principal_id", principal.UserID, "friend_id", friendUID).ErrorContext(r.Context(), "failed to load friend timetable", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toTimetableResponse(view))
}

type addFriendRequest struct {
	Email string `json:"email"`
}

type friendDTO struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type friendStatusDTO struct {
	friendDTO
	Availability string `json:"availability"`
	Degraded     bool   `json:"degraded,omitempty"`
}

type rosterResponse struct {
	EvaluatedAt string            `json:"evaluated_at"`
	CurrentCell *cellDTO          `json:"current_cell,omitempty"`
	Free        []friendStatusDTO `json:"free"`
	Busy        []friendStatusDTO `json:"busy"`
}

func toFriendDTO(f application.FriendRef) friendDTO {
	return friendDTO{UID: f.UID, Email: f.Email, Name: f.Name}
}

func toFriendStatusDTOs(statuses []application.FriendStatus) []friendStatusDTO {
	out := make([]friendStatusDTO, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, friendStatusDTO{
			friendDTO:    toFriendDTO(s.Friend),
			Availability: string(s.Availability),
			Degraded:     s.Degraded,
		})
	}
	return out
}
