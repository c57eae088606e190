// Package config defines run configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, optional YAML file and environment.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DBPath locates the sqlite database of events/teams/wrestlers/matches.
	DBPath string `koanf:"db_path"`

	// SeasonsPath locates the JSON file of season boundary metadata.
	SeasonsPath string `koanf:"seasons_path"`

	// OverridesPath optionally locates per-athlete manual overrides.
	OverridesPath string `koanf:"overrides_path"`

	// Seasons filters which season names produce rating periods; empty
	// admits all.
	Seasons []string `koanf:"seasons"`

	// StartDate and EndDate optionally clip the rated date range
	// (YYYY-MM-DD; EndDate is inclusive).
	StartDate string `koanf:"start_date"`
	EndDate   string `koanf:"end_date"`

	// WeightClasses selects leaderboard classes; empty or ["all"] uses the
	// default scholastic classes without restricting the match feed.
	WeightClasses []string `koanf:"weight_classes"`

	// Limit caps athletes shown per weight class; 0 shows all.
	Limit int `koanf:"limit"`

	// MinWins is the minimum win count for roster inclusion.
	MinWins int `koanf:"min_wins"`

	// GradYear narrows the leaderboard to one graduation year; 0 disables.
	GradYear int `koanf:"grad_year"`

	// Tau fixes the volatility-change constant; 0 back-tests TauCandidates.
	Tau float64 `koanf:"tau"`

	// TauCandidates are back-tested when Tau is unset.
	TauCandidates []float64 `koanf:"tau_candidates"`

	// JSONOut optionally writes the leaderboard payload to this path instead
	// of rendering to the console.
	JSONOut string `koanf:"json_out"`

	// MetricsAddr optionally exposes Prometheus metrics over HTTP, e.g.
	// ":9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		DBPath:        "data.db",
		SeasonsPath:   "seasons.json",
		MinWins:       1,
		TauCandidates: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.7},
	}
}
