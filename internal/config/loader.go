package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if MATRANK_CONFIG is set
//  3. env (prefix MATRANK_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("MATRANK_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MATRANK_DB_PATH, MATRANK_MIN_WINS, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("MATRANK_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "matrank_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if cfg.SeasonsPath == "" {
		return nil, fmt.Errorf("%w: seasons_path must not be empty", ErrInvalidConfig)
	}
	if cfg.MinWins < 0 {
		return nil, fmt.Errorf("%w: min_wins must not be negative", ErrInvalidConfig)
	}
	if cfg.Tau < 0 {
		return nil, fmt.Errorf("%w: tau must not be negative", ErrInvalidConfig)
	}
	for _, tau := range cfg.TauCandidates {
		if tau <= 0 {
			return nil, fmt.Errorf("%w: tau_candidates must be positive, got %g", ErrInvalidConfig, tau)
		}
	}
	return &cfg, nil
}
