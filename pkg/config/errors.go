package config

import "errors"

var (
	// ErrParsingConfig wraps env tag parsing failures, including missing
	// required variables.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrLoadingEnvFiles wraps failures reading explicitly named .env files.
	ErrLoadingEnvFiles = errors.New("failed to load env files")

	// ErrConfigNotLoaded signals a cache miss after a parse round, which
	// only happens when a concurrent load of the same type failed.
	ErrConfigNotLoaded = errors.New("configuration has not been loaded")

	// ErrNilPointer is returned when Load is given a nil destination.
	ErrNilPointer = errors.New("nil pointer provided to config loader")
)
