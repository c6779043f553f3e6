package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from the provided .env files. When no
// paths are given it falls back to the default .env in the working
// directory, ignoring a missing file. Explicit paths must exist.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFiles, err)
	}
	return nil
}

// MustLoadEnv works like LoadEnv but panics on failure. Useful during
// startup when the env files are required.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// ResetCache clears all cached configuration values. Intended for tests that
// mutate the process environment between loads.
func ResetCache() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	globalCache.values = make(map[string]any)
	globalCache.onces = make(map[string]*sync.Once)
}

// ForceReloadConfig re-parses the environment into v, replacing any cached
// value for its type.
func ForceReloadConfig[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	key := typeKey[T]()

	globalCache.mu.Lock()
	delete(globalCache.values, key)
	delete(globalCache.onces, key)
	globalCache.mu.Unlock()

	return Load(v)
}
