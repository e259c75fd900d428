package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotMapping is returned when a document's top level is not a mapping.
	ErrNotMapping = errors.New("top-level document must be a mapping")
	// ErrDuplicateKey is returned when two keys of one mapping normalize to
	// the same string.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ParseError reports a constants file that could not be rendered or parsed.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse constants file %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
