// Package repository provides the relational store of events, teams,
// wrestlers and matches that feeds the rating engine.
package repository

import (
	"context"
	"time"

	"github.com/matrank/matrank/internal/domain/model"
)

// Store provides read access to the match history and roster metadata.
type Store interface {
	// MatchesBetween returns matches with an effective date in [start, end),
	// restricted to matches touching the roster and, when non-nil, to the
	// given weight classes. Results are sorted ascending by effective date
	// (event date fills in when the match itself has none).
	MatchesBetween(ctx context.Context, start, end time.Time, roster map[string]struct{}, weightClasses map[string]struct{}) ([]model.MatchResult, error)

	// ActiveWrestlers returns ids of wrestlers with at least minWins recorded
	// wins.
	ActiveWrestlers(ctx context.Context, minWins int) ([]string, error)

	// WrestlerInfo returns display metadata for the given wrestler ids,
	// including the graduation year derived from the recorded grade.
	WrestlerInfo(ctx context.Context, ids []string) (map[string]model.AthleteInfo, error)

	// TeamMetadata returns display metadata for the given team ids.
	TeamMetadata(ctx context.Context, ids []string) (map[string]model.TeamMeta, error)

	// Close releases the underlying database handle.
	Close() error
}
