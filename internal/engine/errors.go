package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrDependencyNotFound indicates a requirement has no package in the cache.
	ErrDependencyNotFound = errors.New("dependency not found")

	// ErrVersionConflict indicates two versions of one package in a dependency graph.
	ErrVersionConflict = errors.New("version conflict")
)

// Error wraps a failure with the lifecycle step and package it happened in.
type Error struct {
	Op  string // Lifecycle step that failed
	Ref string // Package reference
	Err error  // Underlying error
}

func (e *Error) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Ref, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
