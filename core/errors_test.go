package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrorChecks(t *testing.T) {
	cause := errors.New("matrix not positive definite")

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", NotFoundError(ModuleEngine, "book", "b1"), IsNotFound, true},
		{"wrapped not found", fmt.Errorf("query: %w", NotFoundError(ModuleEngine, "user", "u1")), IsNotFound, true},
		{"untrained", ErrUntrained, IsUntrained, true},
		{"untrained is not not-found", ErrUntrained, IsNotFound, false},
		{"invalid input", InvalidInputError(ModuleSource, "row %d: empty id", 3), IsInvalidInput, true},
		{"training failure", WrapDomainError(ModuleEngine, ErrorCodeTrainingFailure, cause, "engine: training failed"), IsTrainingFailure, true},
		{"invariant", NewDomainError(ModuleEngine, ErrorCodeInvariantViolation, "x"), IsInvariantViolation, true},
		{"invariant is not not-found", NewDomainError(ModuleEngine, ErrorCodeInvariantViolation, "x"), IsNotFound, false},
		{"plain error", errors.New("boom"), IsNotFound, false},
		{"nil", nil, IsNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("check(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("singular")
	err := WrapDomainError(ModuleEngine, ErrorCodeTrainingFailure, cause, "engine: fit %s", "als")

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is should reach the cause")
	}
	if got, want := err.Error(), "engine: fit als: singular"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
