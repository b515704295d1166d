package testfixtures

import (
	"context"
	"testing"

	"github.com/example/timetable-share/internal/application"
	"github.com/example/timetable-share/internal/availability"
)

func TestServiceFactoryNewMemoryServices(t *testing.T) {
	factory := NewServiceFactory()
	services := factory.NewMemoryServices(nil)
	ctx := context.Background()

	result, err := services.Auth.SignUp(ctx, application.SignUpParams{Email: "amy@example.com", Password: "secret", Name: "Amy"})
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	// The session ID draws token-user-1, so the bearer token is the second one.
	if result.User.ID != "user-1" || result.Session.Token != "token-user-2" {
		t.Fatalf("expected generated IDs, got user %q token %q", result.User.ID, result.Session.Token)
	}
	if !result.User.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), result.User.CreatedAt)
	}

	principal := application.Principal{UserID: result.User.ID}
	current := availability.Cell{Slot: 1, Day: 0}
	view, err := services.Timetable.ToggleCell(ctx, application.ToggleCellParams{Principal: principal, Cell: current})
	if err != nil {
		t.Fatalf("ToggleCell returned error: %v", err)
	}
	if view.Availability != availability.Busy {
		t.Fatalf("expected reference time to fall in the toggled cell, got %s", view.Availability)
	}
}

func TestPlainPasswordRoundTrip(t *testing.T) {
	hash, _ := PlainPasswordHasher("secret")
	if err := PlainPasswordVerifier(hash, "secret"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := PlainPasswordVerifier(hash, "other"); err == nil {
		t.Fatalf("expected mismatch")
	}
}
