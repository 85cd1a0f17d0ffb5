package dic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPOS is returned when a part of speech does not have exactly six levels
	ErrInvalidPOS = errors.New("invalid part of speech")

	// ErrDuplicatePOS is returned when a grammar lists the same part of speech twice
	ErrDuplicatePOS = errors.New("duplicate part of speech")

	// ErrUnknownCategory is returned when a character definition names an unknown category
	ErrUnknownCategory = errors.New("unknown character category")

	// ErrInvalidCharDef is returned for malformed character definition lines
	ErrInvalidCharDef = errors.New("invalid character definition")
)

// IsUnknownCategoryError checks if the error is or wraps ErrUnknownCategory
func IsUnknownCategoryError(err error) bool {
	return errors.Is(err, ErrUnknownCategory)
}

// NewUnknownCategoryError creates an unknown category error with context
func NewUnknownCategoryError(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownCategory, name)
}

func newCharDefError(line int, format string, args ...interface{}) error {
	return fmt.Errorf("%w at line %d: %s", ErrInvalidCharDef, line, fmt.Sprintf(format, args...))
}
