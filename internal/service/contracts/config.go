package contracts

import (
	"errors"
	"time"

	"github.com/Admin-EWorld/contracts/internal/platform/env"
)

type Config struct {
	// Retention is how long stored documents are kept. Zero keeps them forever.
	Retention time.Duration
	// CacheTTL bounds how long rendered bytes stay in memory after generation
	// or download. Zero disables the cache.
	CacheTTL time.Duration
}

func ConfigFromEnv() (Config, error) {
	retention, err := env.Duration("CONTRACTS_RETENTION", 0)
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := env.Duration("CONTRACTS_DOCUMENT_CACHE_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{Retention: retention, CacheTTL: cacheTTL}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Retention < 0 {
		return errors.New("CONTRACTS_RETENTION must be >= 0")
	}
	if c.CacheTTL < 0 {
		return errors.New("CONTRACTS_DOCUMENT_CACHE_TTL must be >= 0")
	}
	return nil
}
