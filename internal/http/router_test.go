package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/timetable-share/internal/application"
)

func TestRouter(t *testing.T) {
	t.Parallel()

	newRouter := func(health HealthCheck) http.Handler {
		return NewRouter(RouterConfig{
			Auth:      NewAuthHandler(&authServiceStub{}, discardLogger()),
			Profile:   NewProfileHandler(&profileServiceStub{user: application.User{ID: "u1"}}, discardLogger()),
			Timetable: NewTimetableHandler(&timetableServiceStub{}, discardLogger()),
			Friends:   NewFriendHandler(&friendServiceStub{}, discardLogger()),
			Session:   RequireSession(fakeSessionValidator{err: application.ErrUnauthenticated}, discardLogger()),
			Health:    health,
			Logger:    discardLogger(),
		})
	}

	t.Run("public routes need no session", func(t *testing.T) {
		t.Parallel()

		router := newRouter(nil)
		for _, path := range []string{"/healthz", "/schedule"} {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
			if recorder.Code != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d", path, recorder.Code)
			}
		}
	})

	t.Run("protected routes require a session", func(t *testing.T) {
		t.Parallel()

		router := newRouter(nil)
		routes := []struct{ method, path string }{
			{http.MethodGet, "/profile"},
			{http.MethodGet, "/timetable"},
			{http.MethodPut, "/timetable"},
			{http.MethodGet, "/timetable/week"},
			{http.MethodGet, "/friends"},
			{http.MethodGet, "/friends/roster"},
			{http.MethodDelete, "/friends/abc"},
			{http.MethodDelete, "/account"},
		}
		for _, route := range routes {
			recorder := httptest.NewRecorder()
			req := httptest.NewRequest(route.method, route.path, nil)
			req.Header.Set("Authorization", "Bearer stale")
			router.ServeHTTP(recorder, req)
			if recorder.Code != http.StatusUnauthorized {
				t.Fatalf("%s %s: expected 401, got %d", route.method, route.path, recorder.Code)
			}
		}
	})

	t.Run("health check failure is 503", func(t *testing.T) {
		t.Parallel()

		router := newRouter(func(context.Context) error { return errors.New("store down") })
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if recorder.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", recorder.Code)
		}
	})

	t.Run("unsupported method is 405", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()
		newRouter(nil).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/login", nil))
		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", recorder.Code)
		}
	})
}

func TestHandleServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
	}{
		{application.ErrUnauthenticated, http.StatusUnauthorized},
		{application.ErrSessionExpired, http.StatusUnauthorized},
		{application.ErrInvalidCredentials, http.StatusUnauthorized},
		{application.ErrUnauthorized, http.StatusForbidden},
		{application.ErrUserNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", application.ErrNotFound), http.StatusNotFound},
		{application.ErrAlreadyExists, http.StatusConflict},
		{&application.ValidationError{FieldErrors: map[string]string{"name": "name is required"}}, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	r := newResponder(discardLogger())
	for _, tc := range tests {
		recorder := httptest.NewRecorder()
		r.handleServiceError(context.Background(), recorder, tc.err)
		if recorder.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, recorder.Code)
		}
	}
}

func TestTranslateValidationMessage(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		field, message, want string
	}{
		"required":    {"name", "name is required", "請輸入名稱。"},
		"invalid":     {"email", "email is invalid", "電子郵件格式不正確。"},
		"min":         {"password", "password must be at least 6 characters", "密碼至少需要 6 個字元。"},
		"max":         {"name", "name must be at most 64 characters", "名稱不可超過 64 個字元。"},
		"self friend": {"email", "cannot add yourself", "不能將自己加為好友。"},
		"passthrough": {"other", "something odd", "something odd"},
	}
	for name, tc := range tests {
		if got := translateValidationMessage(tc.field, tc.message); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", name, tc.want, got)
		}
	}
}
