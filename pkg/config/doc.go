// Package config provides a type-safe, generic and cached way to load
// application configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11` to
// deliver a convenient API that:
//
//   - Loads values from one or multiple `.env` files (fallback to the default
//     `.env` in the current working directory).
//   - Parses the environment into any Go struct using field tags.
//   - Caches each successfully loaded configuration type so it is only parsed
//     once for the lifetime of the process.
//   - Exposes helpers that panic on failure (`MustLoadEnv`, `MustLoad`) for
//     scenarios where configuration is critical.
//   - Allows explicit cache reset or force reload which is handy in tests.
//
// # Architecture
//
// Internally the package keeps a singleton `typeCache` that stores parsed
// struct copies keyed by their fully-qualified type name. Each key also holds
// a `sync.Once` instance guaranteeing the expensive parsing work is executed
// at most once per configuration type even when accessed from multiple
// goroutines concurrently.
//
// # Usage
//
// Create a struct describing your configuration and annotate its fields with
// `env` tags:
//
//	type RedisConfig struct {
//	    Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
//	    Password string `env:"REDIS_PASSWORD"`
//	    DB       int    `env:"REDIS_DB" envDefault:"0"`
//	}
//
// Load the default `.env` file (optional) then populate the struct:
//
//	import "github.com/dmitrymomot/notifykit/pkg/config"
//
//	func main() {
//	    if err := config.LoadEnv("./config/.env"); err != nil {
//	        log.Fatalf("loading env: %v", err)
//	    }
//
//	    var redis RedisConfig
//	    if err := config.Load(&redis); err != nil {
//	        log.Fatalf("parsing env: %v", err)
//	    }
//	}
//
// Subsequent calls to `config.Load(&redis)` are served from the in-memory
// cache without re-parsing.
//
// # Error Handling
//
// The package defines sentinel errors that can be compared with `errors.Is`:
//
//   - `ErrParsingConfig` – failed to parse env vars into a struct.
//   - `ErrLoadingEnvFiles` – an explicitly named `.env` file could not be read.
//   - `ErrConfigNotLoaded` – requested config type has not been loaded yet.
//   - `ErrNilPointer` – nil pointer passed to `Load`/`MustLoad`.
//
// # Testing Helpers
//
// Use `ResetCache()` to clear the global cache between tests or
// `ForceReloadConfig(&cfg)` to reload a particular struct after the process
// environment changes.
package config
