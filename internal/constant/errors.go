package constant

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKey is returned when a key is absent from a node.
	ErrUnknownKey = errors.New("unknown key")
	// ErrNotScalar is returned by attribute access on a key holding a nested node.
	ErrNotScalar = errors.New("key holds a nested node, use Get or Node")
	// ErrTypeMismatch is returned by typed accessors when the scalar has another type.
	ErrTypeMismatch = errors.New("scalar has a different type")
	// ErrDuplicateKey is returned when two keys of one mapping have the same
	// string form, such as 1 and "1".
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrReservedKey is matched by ReservedKeyError.
	ErrReservedKey = errors.New("key collides with a reserved name")
	// ErrUnsupportedValue is returned for values YAML cannot produce, such as
	// pointers, channels or functions.
	ErrUnsupportedValue = errors.New("unsupported value")
)

// ReservedKeyError reports a data key equal to one of the reserved names.
type ReservedKeyError struct {
	Path string
	Key  string
}

func (e *ReservedKeyError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("key %q collides with a reserved name", e.Key)
	}
	return fmt.Sprintf("key %q at %s collides with a reserved name", e.Key, e.Path)
}

func (e *ReservedKeyError) Is(target error) bool {
	return target == ErrReservedKey
}
