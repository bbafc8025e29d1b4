package dictionary

import (
	"errors"
	"fmt"
)

var (
	// ErrSmallGroup is returned for a synonym group with fewer than two distinct terms.
	ErrSmallGroup = errors.New("synonym group needs at least two terms")
	// ErrNoTerms is returned when a term source yields nothing.
	ErrNoTerms = errors.New("no terms")
	// ErrMissingColumn is returned when a CSV source lacks a required column.
	ErrMissingColumn = errors.New("missing column")
)

// ConfigError reports a dictionary source that is missing or malformed.
// It is fatal at startup and never produced per record.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("dictionary source %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
