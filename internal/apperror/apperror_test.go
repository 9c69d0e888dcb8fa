package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("ingredient", "7"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("name", "name is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("member", "u1"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("recipe", "1"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "login failure is an authentication error",
			err:       ErrLoginFailed,
			target:    ErrAuthentication,
			wantMatch: true,
		},
		{
			name:      "duplicate member is a conflict",
			err:       ErrDuplicateMember,
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "empty recipe is a validation error",
			err:       ErrRecipeIngredientIsEmpty,
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "wrapped singleton still matches by identity",
			err:       fmt.Errorf("posting recipe: %w", ErrRecipeNotFound),
			target:    ErrRecipeNotFound,
			wantMatch: true,
		},
		{
			name:      "distinct singletons of the same kind do not match",
			err:       ErrIngredientNotFound,
			target:    ErrRecipeNotFound,
			wantMatch: false,
		},
		{
			name:      "session required is unauthorized",
			err:       ErrSessionRequired,
			target:    ErrUnauthorized,
			wantMatch: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("withdrawing: %w", ErrWithdrawFailed)

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As() should find the *AppError")
	}
	if appErr.Code != "member.withdraw.fail" {
		t.Errorf("Code = %q, want %q", appErr.Code, "member.withdraw.fail")
	}
	if appErr != ErrWithdrawFailed {
		t.Error("errors.As() should yield the shared singleton")
	}
}

func TestInvalid(t *testing.T) {
	err := Invalid([]FieldViolation{
		{Field: "password", Code: "Size", Message: "비밀번호는 5자 이상, 20자 미만이여야 합니다."},
		{Field: "nickname", Code: "NotBlank", Message: "공백은 허용되지 않습니다."},
	})

	if !errors.Is(err, ErrValidation) {
		t.Error("Invalid() should wrap ErrValidation")
	}
	if err.Field != "password" {
		t.Errorf("Field = %q, want first violation field", err.Field)
	}
	if err.Message != "비밀번호는 5자 이상, 20자 미만이여야 합니다." {
		t.Errorf("Message = %q, want first violation message", err.Message)
	}
	if len(err.Violations) != 2 {
		t.Errorf("len(Violations) = %d, want 2", len(err.Violations))
	}
}

func TestInvalid_Empty(t *testing.T) {
	err := Invalid(nil)
	if err.Message != "" || err.Field != "" {
		t.Errorf("Invalid(nil) = %+v, want empty message and field", err)
	}
}
