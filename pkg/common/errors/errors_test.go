package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrCompleted", ErrCompleted, "pool already completed"},
		{"ErrAlreadyPaused", ErrAlreadyPaused, "pool already paused"},
		{"ErrNotPaused", ErrNotPaused, "pool not paused"},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrFeederStopped", ErrFeederStopped, "feeder is stopped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatal("error should not be nil")
			}
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsDiagnostic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"completed", ErrCompleted, true},
		{"already paused", ErrAlreadyPaused, true},
		{"not paused", ErrNotPaused, true},
		{"wrapped diagnostic", errors.Join(errors.New("ctx"), ErrNotPaused), true},
		{"invalid configuration", ErrInvalidConfiguration, false},
		{"nil", nil, false},
		{"unrelated", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDiagnostic(tt.err); got != tt.want {
				t.Errorf("IsDiagnostic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err: &ValidationError{
				Module: "pool",
				Field:  "concurrency",
				Value:  -1,
				Reason: "must be positive",
			},
			want: "pool: invalid concurrency=-1 (must be positive)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "pool",
				Field:  "retries",
				Value:  -2,
				Reason: "must be non-negative or Unlimited",
				Hint:   "use pool.Unlimited for an unbounded retry budget",
			},
			want: "pool: invalid retries=-2 (must be non-negative or Unlimited) - use pool.Unlimited for an unbounded retry budget",
		},
		{
			name: "string value",
			err: &ValidationError{
				Module: "feed",
				Field:  "key",
				Value:  "",
				Reason: "cannot be empty",
			},
			want: "feed: invalid key= (cannot be empty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("pool", "concurrency", 0, "must be positive").
		WithHint("concurrency bounds the number of in-flight tasks")

	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Error("validation errors should match ErrInvalidConfiguration")
	}
	if !strings.Contains(err.Error(), "concurrency bounds") {
		t.Errorf("hint missing from message: %q", err.Error())
	}
}
