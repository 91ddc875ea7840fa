package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var loadDotenv sync.Once

// Load populates a configuration struct from environment variables using the
// struct's `env` tags. A .env file in the working directory is loaded once
// per process before the first parse; a missing file is not an error.
//
// Example:
//
//	type TokenConfig struct {
//		SigningKey string        `env:"AUTH_JWT_SIGNING_KEY,required"`
//		AccessTTL  time.Duration `env:"AUTH_ACCESS_TTL" envDefault:"15m"`
//	}
//
//	var cfg TokenConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	loadDotenv.Do(func() {
		// The .env file is a development convenience; absence is fine.
		_ = godotenv.Load()
	})

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Use for configuration the
// application cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load required configuration: %v", err))
	}
}
