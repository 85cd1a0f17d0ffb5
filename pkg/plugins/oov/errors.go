package oov

import (
	"errors"
	"fmt"
)

var (
	// ErrOffsetOutOfRange is returned when a generation offset is outside the text
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrNotCharBoundary is returned when a generation offset splits a character
	ErrNotCharBoundary = errors.New("offset is not a character boundary")

	// ErrWordTooLong is returned when a candidate does not fit a head word length
	ErrWordTooLong = errors.New("word too long")

	// ErrInvalidSettings is returned by setup for missing or malformed settings
	ErrInvalidSettings = errors.New("invalid plugin settings")

	// ErrUnknownPOS is returned by setup when a part of speech is not in the grammar
	ErrUnknownPOS = errors.New("unknown part of speech")

	// ErrInvalidDefinition is returned for malformed char.def or unk.def lines
	ErrInvalidDefinition = errors.New("invalid definition")
)

func newSettingsError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...))
}

func newDefinitionError(file string, line int, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s line %d: %s", ErrInvalidDefinition, file, line, fmt.Sprintf(format, args...))
}
