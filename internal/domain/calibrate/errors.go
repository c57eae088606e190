package calibrate

import "errors"

// Sentinel kinds for calibration errors.
var (
	ErrNoCandidates = errors.New("no tau candidates to search")
)
