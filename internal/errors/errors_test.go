package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "donation not found",
			},
			want: "donation not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeUpstream,
				Message: "failed to load donations",
				Cause:   errors.New("connection refused"),
			},
			want: "failed to load donations: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Upstream("wrapped error", cause)

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(Upstream(...), cause) = false, want true")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{name: "not found", err: NotFound("x"), check: IsNotFound},
		{name: "conflict", err: Conflict("x"), check: IsConflict},
		{name: "validation", err: ValidationField("title", "required"), check: IsValidation},
		{name: "upstream", err: Upstream("x", nil), check: IsUpstream},
		{name: "unavailable", err: Unavailable("x"), check: IsUnavailable},
		{name: "wrapped twice", err: fmt.Errorf("outer: %w", NotFound("x")), check: IsNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("predicate returned false for %v", tt.err)
			}
		})
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "msg"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
	if err := Wrapf(nil, ErrCodeInternal, "msg %d", 1); err != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", err)
	}
}

func TestGetCodeAndField(t *testing.T) {
	err := fmt.Errorf("create: %w", ValidationField("message", "is required"))
	if got := GetCode(err); got != ErrCodeValidation {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeValidation)
	}
	if got := GetField(err); got != "message" {
		t.Errorf("GetField() = %q, want %q", got, "message")
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(Upstream("Data tidak ditemukan", nil), "fallback"); got != "Data tidak ditemukan" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(errors.New("boom"), "fallback"); got != "fallback" {
		t.Errorf("UserMessage(plain) = %q, want fallback", got)
	}
}
