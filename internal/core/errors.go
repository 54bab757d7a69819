package core

import (
	"errors"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

// ValidationError lists every problem found; the action it guards did not run.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(problems ...string) error {
	return &ValidationError{Problems: problems}
}
