package model

import (
	"errors"
	"fmt"
)

// TaskError represents a domain error for tasks and categories.
type TaskError struct {
	Message string
}

func (e TaskError) Error() string {
	return e.Message
}

var (
	ErrTaskNotFound     = TaskError{Message: "task not found"}
	ErrCategoryNotFound = TaskError{Message: "category not found"}
	ErrTitleRequired    = TaskError{Message: "title is required"}
	ErrNameRequired     = TaskError{Message: "category name is required"}
	ErrInvalidPriority  = TaskError{Message: "invalid priority"}
	ErrInvalidView      = TaskError{Message: "invalid view"}
	ErrInvalidTheme     = TaskError{Message: "invalid theme"}
	ErrInvalidRetention = TaskError{Message: "auto-delete days must not be negative"}
	ErrDuplicateID      = TaskError{Message: "duplicate task id in sequence"}
	ErrFallbackCategory = TaskError{Message: "fallback category cannot be deleted"}
	ErrNothingToUndo    = TaskError{Message: "nothing to undo"}
)

// IsNotFound reports whether err refers to an unknown task or category.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrCategoryNotFound)
}

// PersistenceError wraps a failed save or load of the collection.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
