package config

import "errors"

var (
	// ErrInvalidConfig is returned when a configuration file fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidDuration is returned when a duration value cannot be parsed.
	ErrInvalidDuration = errors.New("invalid duration")
)
