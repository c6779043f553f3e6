package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// typeCache stores one parsed value per configuration type. The sync.Once
// per key guarantees the environment is parsed at most once per type even
// under concurrent first loads.
type typeCache struct {
	mu     sync.RWMutex
	values map[string]any
	onces  map[string]*sync.Once
}

var (
	globalCache = &typeCache{
		values: make(map[string]any),
		onces:  make(map[string]*sync.Once),
	}

	defaultEnvLoaded sync.Once
)

// Load parses environment variables into v based on its `env` field tags.
// The first call for a given type does the parsing; later calls for the same
// type return the cached copy. A default .env file, when present, is read
// before the first parse of the process.
//
// Example:
//
//	type DeliveryConfig struct {
//		BaseRetryDelay time.Duration `env:"DELIVERY_BASE_RETRY_DELAY" envDefault:"60s"`
//		BatchSize      int           `env:"DELIVERY_BATCH_SIZE" envDefault:"100"`
//		Workers        int           `env:"DELIVERY_WORKERS" envDefault:"10"`
//	}
//
//	var cfg DeliveryConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		// A missing default .env is not an error.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	key := typeKey[T]()

	globalCache.mu.RLock()
	if cached, ok := globalCache.values[key]; ok {
		*v = cached.(T)
		globalCache.mu.RUnlock()
		return nil
	}
	globalCache.mu.RUnlock()

	globalCache.mu.Lock()
	once, exists := globalCache.onces[key]
	if !exists {
		once = new(sync.Once)
		globalCache.onces[key] = once
	}
	globalCache.mu.Unlock()

	var err error
	once.Do(func() {
		if parseErr := env.Parse(v); parseErr != nil {
			err = errors.Join(ErrParsingConfig, parseErr)
			return
		}

		// A copy goes into the cache so callers cannot mutate it.
		globalCache.mu.Lock()
		globalCache.values[key] = *v
		globalCache.mu.Unlock()
	})
	if err != nil {
		return err
	}

	// Losers of the once race read the winner's value here.
	globalCache.mu.RLock()
	if cached, ok := globalCache.values[key]; ok {
		*v = cached.(T)
		globalCache.mu.RUnlock()
		return nil
	}
	globalCache.mu.RUnlock()

	return ErrConfigNotLoaded
}

// MustLoad works like Load but panics on failure. Intended for configuration
// the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// typeKey returns the cache key for the generic type T.
func typeKey[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// Interface types have no concrete reflect.Type for a zero value.
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
