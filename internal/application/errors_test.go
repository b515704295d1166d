package application

import (
	"errors"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"name": "invalid", "email": "invalid"}}
	if got := withFields.Error(); got != "validation failed: email, name" {
		t.Fatalf("expected sorted field list, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	base.add("first", "ignored")
	if got := base.FieldErrors["first"]; got != "value" {
		t.Fatalf("expected first message to win, got %q", got)
	}

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	if got := base.FieldErrors["second"]; got != "another" {
		t.Fatalf("expected merge to copy field, got %q", got)
	}

	base.merge(nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestValidationError_ErrOrNil(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).errOrNil(); err != nil {
		t.Fatalf("expected nil interface for empty validation error, got %v", err)
	}

	vErr := &ValidationError{FieldErrors: map[string]string{"email": "email is required"}}
	var target *ValidationError
	if err := vErr.errOrNil(); !errors.As(err, &target) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestErrUserNotFoundWrapsNotFound(t *testing.T) {
	t.Parallel()

	if !errors.Is(ErrUserNotFound, ErrNotFound) {
		t.Fatalf("expected ErrUserNotFound to satisfy ErrNotFound")
	}
}
