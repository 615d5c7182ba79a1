package app

import (
	"errors"
	"fmt"
	"testing"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{"nil error", nil, ""},
		{"op only", &OperationError{Op: "selftest"}, "selftest"},
		{"op and target", &OperationError{Op: "run", Target: "draw.lua"}, "run draw.lua"},
		{
			"op, target, and context",
			&OperationError{Op: "play", Target: "book.yaml", Context: "step 3"},
			"play book.yaml (step 3)",
		},
		{
			"full error chain",
			&OperationError{Op: "run", Target: "draw.lua", Context: "watch", Err: errors.New("timed out")},
			"run draw.lua (watch): timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestOperationError_WithContext(t *testing.T) {
	err := NewOperationError("run", "a.lua", nil).WithContext("retry")
	if err.Context != "retry" {
		t.Errorf("Context = %q", err.Context)
	}

	var nilErr *OperationError
	if nilErr.WithContext("x") != nil {
		t.Error("WithContext on nil should return nil")
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := NewOperationError("play", "b.yaml", fmt.Errorf("step 1: %w", inner))

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find wrapped error")
	}

	var opErr *OperationError
	if !errors.As(fmt.Errorf("outer: %w", err), &opErr) || opErr.Op != "play" {
		t.Error("errors.As should find OperationError")
	}

	var nilErr *OperationError
	if nilErr.Unwrap() != nil {
		t.Error("Unwrap on nil should return nil")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"expectation", NewOperationError("play", "b.yaml", fmt.Errorf("%w: 1 of 3 checks", ErrExpectationFailed)), 1},
		{"selftest", fmt.Errorf("%w: undo 5", ErrSelfTestFailed), 1},
		{"other", errors.New("boom"), 2},
	}

	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.expected {
			t.Errorf("%s: ExitCode = %d, expected %d", tt.name, got, tt.expected)
		}
	}
}
