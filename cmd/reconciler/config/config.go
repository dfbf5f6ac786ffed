// Package config builds the runtime wiring for the reconciler CLI:
// which store backend to open and which matching parameters to run.
package config

import (
	"fmt"
	"strings"

	"statement-reconciliation-service/internal/matcher"
	"statement-reconciliation-service/internal/store"
)

// StoreConfig selects and parameterizes the persistence backend.
// A non-empty DatabaseURL picks Postgres; otherwise the embedded
// SQLite database at SQLitePath is used.
type StoreConfig struct {
	SQLitePath  string
	DatabaseURL string
}

// DefaultStoreConfig returns the local-first defaults: an embedded
// SQLite file in the working directory.
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{
		SQLitePath: "reconciler.db",
	}
}

// Validate checks the backend selection.
func (c *StoreConfig) Validate() error {
	if c.DatabaseURL != "" {
		if !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") && !strings.Contains(c.DatabaseURL, "host=") {
			return fmt.Errorf("database URL does not look like a Postgres DSN: %s", c.DatabaseURL)
		}
		return nil
	}
	if c.SQLitePath == "" {
		return fmt.Errorf("either a database URL or a SQLite path is required")
	}
	return nil
}

// Backend names the selected backend for logs and error messages.
func (c *StoreConfig) Backend() string {
	if c.DatabaseURL != "" {
		return "postgres"
	}
	return "sqlite"
}

// OpenStore opens the configured backend. The returned closer must be
// called when the command finishes.
func (c *StoreConfig) OpenStore() (store.Store, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	if c.DatabaseURL != "" {
		st, err := store.NewPostgresStore(c.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	}

	st, err := store.NewSQLiteStore(c.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	return st, st.Close, nil
}

// CreateMatcherConfig builds the matching configuration from CLI
// overrides on top of the named preset.
func CreateMatcherConfig(preset string, dateTolerance int, matchedThreshold, reviewThreshold float64) (*matcher.Config, error) {
	var cfg *matcher.Config
	switch preset {
	case "", "default":
		cfg = matcher.DefaultConfig()
	case "strict":
		cfg = matcher.StrictConfig()
	case "relaxed":
		cfg = matcher.RelaxedConfig()
	default:
		return nil, fmt.Errorf("unknown matching preset %q (use default, strict or relaxed)", preset)
	}

	if dateTolerance >= 0 {
		cfg.DateToleranceDays = dateTolerance
	}
	if matchedThreshold > 0 {
		cfg.MatchedThreshold = matchedThreshold
	}
	if reviewThreshold > 0 {
		cfg.ReviewThreshold = reviewThreshold
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
