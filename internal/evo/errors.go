package evo

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks an invalid run configuration. It is always returned
	// before any generation runs.
	ErrConfig = errors.New("invalid configuration")
	// ErrExtinct is returned when non-viable filtering leaves nobody alive.
	ErrExtinct = errors.New("population is extinct")
)

// GenerationError reports a fatal failure while building a generation.
type GenerationError struct {
	Generation int
	Op         string
	Err        error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("building generation #%d: %s: %v", e.Generation, e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
