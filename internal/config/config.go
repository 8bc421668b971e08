// Package config holds the tunable knobs of a collection run. Every knob
// ships with a sensible default and can be overridden through an optional
// TOML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config bounds the collector's HTTP behavior and collection limits.
type Config struct {
	// SearchPerPage is the page size for user search requests (1..100).
	SearchPerPage int
	// RepoPerPage is the page size for repository listing requests (1..100).
	RepoPerPage int
	// RepositoryCap is the maximum number of repositories collected per
	// user. Zero collects none.
	RepositoryCap int
	// MaxAttempts is the number of tries per HTTP request, including the
	// first one.
	MaxAttempts int
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration
	// AttemptTimeout is the time budget for a single attempt.
	AttemptTimeout time.Duration
}

// Default returns the configuration the collector ships with.
func Default() Config {
	return Config{
		SearchPerPage:  100,
		RepoPerPage:    100,
		RepositoryCap:  500,
		MaxAttempts:    3,
		RetryDelay:     2 * time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

// Validate reports the first nonsensical value it finds.
func (c Config) Validate() error {
	if c.SearchPerPage < 1 || c.SearchPerPage > 100 {
		return fmt.Errorf("search_per_page must be between 1 and 100, got %d", c.SearchPerPage)
	}
	if c.RepoPerPage < 1 || c.RepoPerPage > 100 {
		return fmt.Errorf("repo_per_page must be between 1 and 100, got %d", c.RepoPerPage)
	}
	if c.RepositoryCap < 0 {
		return fmt.Errorf("repository_cap must not be negative, got %d", c.RepositoryCap)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %s", c.RetryDelay)
	}
	if c.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt_timeout must be positive, got %s", c.AttemptTimeout)
	}
	return nil
}

// fileConfig mirrors Config with TOML-friendly types. Pointer fields tell
// absent keys apart from explicit zero values, and durations are spelled
// like "2s".
type fileConfig struct {
	SearchPerPage  *int      `toml:"search_per_page"`
	RepoPerPage    *int      `toml:"repo_per_page"`
	RepositoryCap  *int      `toml:"repository_cap"`
	MaxAttempts    *int      `toml:"max_attempts"`
	RetryDelay     *duration `toml:"retry_delay"`
	AttemptTimeout *duration `toml:"attempt_timeout"`
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Load reads a TOML file and overlays its keys on the defaults. Keys absent
// from the file keep their default value. The merged configuration is
// validated before it is returned.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := Default()
	if f.SearchPerPage != nil {
		cfg.SearchPerPage = *f.SearchPerPage
	}
	if f.RepoPerPage != nil {
		cfg.RepoPerPage = *f.RepoPerPage
	}
	if f.RepositoryCap != nil {
		cfg.RepositoryCap = *f.RepositoryCap
	}
	if f.MaxAttempts != nil {
		cfg.MaxAttempts = *f.MaxAttempts
	}
	if f.RetryDelay != nil {
		cfg.RetryDelay = f.RetryDelay.Duration
	}
	if f.AttemptTimeout != nil {
		cfg.AttemptTimeout = f.AttemptTimeout.Duration
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file: %w", err)
	}
	return cfg, nil
}
