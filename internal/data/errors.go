package data

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrInvalidArgument is returned when a Store operation receives an empty
	// id or a nil record.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists is returned by Create when the id is already taken.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrStorage wraps anything unexpected that goes wrong inside the Store.
	ErrStorage = errors.New("storage failure")
)

// ValidationError reports the fields of a record that broke a validation
// rule. Errors maps the JSON field name to a human-readable message.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, field := range slices.Sorted(maps.Keys(e.Errors)) {
		parts = append(parts, field+": "+e.Errors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
