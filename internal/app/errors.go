package app

import "errors"

var (
	// ErrNoSeasons indicates the seasons file held no usable entries.
	ErrNoSeasons = errors.New("no season data found")

	// ErrNoPeriods indicates the filters left no rating periods to process.
	ErrNoPeriods = errors.New("no rating periods to process with the provided filters")

	// ErrNoActiveWrestlers indicates the minimum-win filter matched nobody.
	ErrNoActiveWrestlers = errors.New("no active wrestlers found")

	// ErrNoMatches indicates no matches fell inside the selected range.
	ErrNoMatches = errors.New("no matches found for the selected filters")

	// ErrAllFiltered indicates graduation-year filtering emptied the board.
	ErrAllFiltered = errors.New("all wrestlers filtered out by graduation year")
)
