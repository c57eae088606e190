// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// dateLayouts are the source date string formats, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate parses a source date string (RFC 3339 or bare date) into UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Season describes one competitive season as loaded from season metadata.
// Regular-season start and postseason end bound the rating window.
type Season struct {
	Name         string    // season label, e.g. "2022-2023"
	RegularStart time.Time // first day of the regular season
	PostEnd      time.Time // last day of the postseason (inclusive)
	HasDates     bool      // false when either boundary was missing in the source
}

// RatingPeriod is a half-open [Start, End) window over which all results are
// applied as one simultaneous Glicko-2 batch update.
type RatingPeriod struct {
	Start  time.Time
	End    time.Time
	Season string // season label the period belongs to
}

// MatchResult is a single bout between two athletes. Immutable once built.
// WinnerID, WinType and WeightClass may be empty when the source record
// lacked them; a winner that matches neither participant makes the match a
// rating no-op.
type MatchResult struct {
	ID          string
	Date        time.Time
	TopID       string
	BottomID    string
	WinnerID    string
	WinType     string // F, TF, MD, DEC or other verbal codes
	WeightClass string
}

// State is one athlete's Glicko-2 rating state.
type State struct {
	Rating float64 // mean skill estimate
	RD     float64 // rating deviation (uncertainty)
	Sigma  float64 // volatility
}

// Prediction pairs a pre-update win probability for the top athlete with the
// observed outcome (1 if the top athlete won, 0 otherwise).
type Prediction struct {
	Prob   float64
	Actual float64
}

// Matchup keys a head-to-head tally: cumulative wins by Winner over Loser.
type Matchup struct {
	Winner string
	Loser  string
}

// RunResult bundles the output of one full simulation run.
type RunResult struct {
	Ratings      map[string]State
	HeadToHead   map[Matchup]int
	WeightCounts map[string]map[string]int // athlete id -> recent weight class counts
	Predictions  []Prediction              // in period, then match-encounter order
}

// AthleteInfo carries display metadata for one athlete, sourced from the
// store with overrides applied upstream.
type AthleteInfo struct {
	Name     string
	TeamID   string
	TeamName string
	Section  string
	Division string
	GradYear int // 0 when unknown
}

// TeamMeta carries display metadata for one team.
type TeamMeta struct {
	Name     string
	Section  string
	Division string
}
