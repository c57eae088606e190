package config

import "errors"

// Errors reported by Load. Callers match them with errors.Is.
var (
	// ErrInvalidConfig flags a value that fails validation after layering.
	ErrInvalidConfig = errors.New("configuration is invalid")
	// ErrLoadConfig flags a failure reading or decoding a configuration source.
	ErrLoadConfig = errors.New("configuration could not be loaded")
)
