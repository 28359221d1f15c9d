package hyperparams

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by every failed lookup.
	ErrNotFound = errors.New("not found")
	// ErrMalformedDefinition means the table definition cannot be built.
	ErrMalformedDefinition = errors.New("malformed definition")
)

// #region lookup-error
// LookupError describes a group, parameter or label that does not exist.
type LookupError struct {
	Kind  string // "group" | "parameter" | "label"
	Group Group  // empty for labels
	Name  string
}

func (e *LookupError) Error() string {
	switch e.Kind {
	case "parameter":
		return fmt.Sprintf("parameter %s.%s: %v", e.Group, e.Name, ErrNotFound)
	default:
		return fmt.Sprintf("%s %q: %v", e.Kind, e.Name, ErrNotFound)
	}
}

func (e *LookupError) Unwrap() error { return ErrNotFound }

// #endregion lookup-error

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedDefinition, fmt.Sprintf(format, args...))
}
