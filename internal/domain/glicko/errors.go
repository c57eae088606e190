package glicko

import "errors"

// Sentinel kinds for rating engine errors.
var (
	// ErrNoConvergence means the volatility solver could not bracket or reach
	// its tolerance. It indicates bad parameters, not bad data, and aborts
	// the run.
	ErrNoConvergence = errors.New("volatility solver did not converge")
)
