package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestProfileService(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	t.Run("returns caller profile", func(t *testing.T) {
		t.Parallel()

		svc := NewProfileService(newAccountStoreStub(seededAccount("amy", "amy@example.com")), nil)
		user, err := svc.GetProfile(context.Background(), Principal{UserID: "amy"})
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if user.Email != "amy@example.com" {
			t.Fatalf("unexpected user %#v", user)
		}
	})

	t.Run("renames with trimmed value", func(t *testing.T) {
		t.Parallel()

		store := newAccountStoreStub(seededAccount("amy", "amy@example.com"))
		svc := NewProfileService(store, func() time.Time { return now })

		user, err := svc.UpdateName(context.Background(), UpdateNameParams{Principal: Principal{UserID: "amy"}, Name: "  Amy Lin "})
		if err != nil {
			t.Fatalf("UpdateName failed: %v", err)
		}
		if user.Name != "Amy Lin" || !user.UpdatedAt.Equal(now) {
			t.Fatalf("unexpected user %#v", user)
		}
	})

	t.Run("rejects blank names", func(t *testing.T) {
		t.Parallel()

		svc := NewProfileService(newAccountStoreStub(seededAccount("amy", "amy@example.com")), nil)
		_, err := svc.UpdateName(context.Background(), UpdateNameParams{Principal: Principal{UserID: "amy"}, Name: "   "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["name"] != "name is required" {
			t.Fatalf("expected name validation error, got %v", err)
		}
	})

	t.Run("requires principal", func(t *testing.T) {
		t.Parallel()

		svc := NewProfileService(newAccountStoreStub(), nil)
		if _, err := svc.GetProfile(context.Background(), Principal{}); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}
