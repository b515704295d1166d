package application

import "testing"

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  any
		fields map[string]string
	}{
		{
			name:  "valid sign up",
			input: SignUpParams{Email: "amy@example.com", Password: "secret1", Name: "Amy"},
		},
		{
			name:  "missing fields",
			input: SignUpParams{},
			fields: map[string]string{
				"email":    "email is required",
				"password": "password is required",
				"name":     "name is required",
			},
		},
		{
			name:   "malformed email",
			input:  AddFriendParams{Email: "not-an-email"},
			fields: map[string]string{"email": "email is invalid"},
		},
		{
			name:   "short password",
			input:  SignUpParams{Email: "amy@example.com", Password: "abc", Name: "Amy"},
			fields: map[string]string{"password": "password must be at least 6 characters"},
		},
		{
			name:   "long name",
			input:  UpdateNameParams{Name: string(make([]byte, 65))},
			fields: map[string]string{"name": "name must be at most 64 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			vErr := validateStruct(tt.input)
			if len(tt.fields) == 0 {
				if vErr.HasErrors() {
					t.Fatalf("expected no validation errors, got %v", vErr.FieldErrors)
				}
				return
			}
			if len(vErr.FieldErrors) != len(tt.fields) {
				t.Fatalf("expected %d field errors, got %v", len(tt.fields), vErr.FieldErrors)
			}
			for field, want := range tt.fields {
				if got := vErr.FieldErrors[field]; got != want {
					t.Fatalf("field %q: expected %q, got %q", field, want, got)
				}
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	if got := normalizeEmail("  Amy@Example.COM "); got != "amy@example.com" {
		t.Fatalf("unexpected normalized email %q", got)
	}
}
