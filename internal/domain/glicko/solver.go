package glicko

import "math"

// Solver bounds. The bracket tolerance matches the reference Glicko-2
// procedure; the step/iteration caps turn a non-terminating search into a
// hard error instead of a hang.
const (
	convergenceTol  = 1e-6
	maxBracketSteps = 100
	maxIterations   = 100
)

// SolveSigma computes the new volatility for one athlete's period update via
// false-position root finding with the Illinois modification. delta is the
// estimated rating improvement, phiStar the pre-period deviation, v the
// estimated variance, sigma the prior volatility and tau the system constant
// bounding volatility change.
//
// It is a pure function so the numerics can be exercised in isolation.
func SolveSigma(delta, phiStar, v, sigma, tau float64) (float64, error) {
	a := math.Log(sigma * sigma)

	f := func(x float64) float64 {
		expX := math.Exp(x)
		num := expX * (delta*delta - phiStar*phiStar - v - expX)
		denom := 2 * (phiStar*phiStar + v + expX) * (phiStar*phiStar + v + expX)
		return num/denom - (x-a)/(tau*tau)
	}

	// Lower bound is ln(sigma²). The upper bound either falls out directly
	// when delta² exceeds the explained variance, or is found by stepping
	// down in units of tau until f changes sign.
	lower := a
	var upper float64
	if delta*delta > phiStar*phiStar+v {
		upper = math.Log(delta*delta - phiStar*phiStar - v)
	} else {
		k := 1
		for f(a-float64(k)*tau) < 0 {
			k++
			if k > maxBracketSteps {
				return 0, ErrNoConvergence
			}
		}
		upper = a - float64(k)*tau
	}

	fLower := f(lower)
	fUpper := f(upper)

	for i := 0; math.Abs(upper-lower) > convergenceTol; i++ {
		if i >= maxIterations {
			return 0, ErrNoConvergence
		}
		mid := lower + (lower-upper)*fLower/(fUpper-fLower)
		fMid := f(mid)
		if fMid*fUpper < 0 {
			lower = upper
			fLower = fUpper
		} else {
			// Illinois step: halve the retained endpoint's value so the
			// bracket keeps shrinking when the same side wins repeatedly.
			fLower /= 2
		}
		upper = mid
		fUpper = fMid
	}

	return math.Exp(lower / 2), nil
}
