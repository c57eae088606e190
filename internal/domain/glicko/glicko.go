// Package glicko implements a time-sliced Glicko-2 rating engine with
// win-type weighting, inactivity inflation and season RD resets.
//
// An Engine owns all mutable rating state for one simulation run. Concurrent
// runs must each construct their own Engine; nothing in this package is
// shared between instances.
package glicko

import (
	"math"
	"strings"

	"github.com/matrank/matrank/internal/domain/model"
)

// Rating scale and default parameter constants.
const (
	// Scale converts between the display scale (1500-centered) and the
	// internal Glicko-2 scale.
	Scale = 173.7178

	DefaultRating = 1500.0
	DefaultRD     = 350.0
	DefaultSigma  = 0.06

	DefaultMinRD         = 30.0
	DefaultMaxRD         = 350.0
	DefaultSeasonRDFloor = 150.0

	// DefaultWeightHistoryLimit bounds the trailing window used to infer an
	// athlete's primary weight class.
	DefaultWeightHistoryLimit = 5

	// DefaultOtherWeight applies to win types missing from the weight table.
	DefaultOtherWeight = 0.65
)

// DefaultWinTypeWeights returns the per-result weight table keyed by win-type
// code: fall, technical fall, major decision, decision.
func DefaultWinTypeWeights() map[string]float64 {
	return map[string]float64{
		"F":   1.0,
		"TF":  0.9,
		"MD":  0.8,
		"DEC": 0.7,
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWinTypeWeights replaces the win-type weight table. Non-positive weights
// are dropped.
func WithWinTypeWeights(weights map[string]float64, defaultWeight float64) Option {
	return func(e *Engine) {
		e.winTypeWeights = make(map[string]float64, len(weights))
		for winType, weight := range weights {
			if weight > 0 {
				e.winTypeWeights[strings.ToUpper(winType)] = weight
			}
		}
		if defaultWeight > 0 {
			e.otherWeight = defaultWeight
		}
	}
}

// WithRDBounds sets the clamp range for rating deviation.
func WithRDBounds(minRD, maxRD float64) Option {
	return func(e *Engine) {
		if minRD > 0 && maxRD > minRD {
			e.minRD = minRD
			e.maxRD = maxRD
		}
	}
}

// WithSeasonRDFloor sets the deviation floor applied at season boundaries.
func WithSeasonRDFloor(floor float64) Option {
	return func(e *Engine) {
		if floor > 0 {
			e.seasonRDFloor = floor
		}
	}
}

// WithWeightHistoryLimit sets the trailing weight-class window size.
func WithWeightHistoryLimit(limit int) Option {
	return func(e *Engine) {
		if limit >= 1 {
			e.weightHistoryLimit = limit
		}
	}
}

// result is one period game from a single athlete's perspective.
type result struct {
	opponent model.State
	score    float64
	weight   float64
}

// Engine holds per-athlete rating state for one simulation run.
type Engine struct {
	tau            float64
	winTypeWeights map[string]float64
	otherWeight    float64
	minRD          float64
	maxRD          float64
	seasonRDFloor  float64

	weightHistoryLimit int

	states        map[string]model.State
	weightHistory map[string][]string
}

// New constructs an Engine with the given tau and default parameters.
func New(tau float64, opts ...Option) *Engine {
	e := &Engine{
		tau:                tau,
		winTypeWeights:     DefaultWinTypeWeights(),
		otherWeight:        DefaultOtherWeight,
		minRD:              DefaultMinRD,
		maxRD:              DefaultMaxRD,
		seasonRDFloor:      DefaultSeasonRDFloor,
		weightHistoryLimit: DefaultWeightHistoryLimit,
		states:             make(map[string]model.State),
		weightHistory:      make(map[string][]string),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EnsurePlayer idempotently creates default state for an unseen athlete.
func (e *Engine) EnsurePlayer(id string) {
	if _, ok := e.states[id]; !ok {
		e.states[id] = model.State{Rating: DefaultRating, RD: DefaultRD, Sigma: DefaultSigma}
	}
}

// State returns the tracked state for an athlete, if any.
func (e *Engine) State(id string) (model.State, bool) {
	state, ok := e.states[id]
	return state, ok
}

// States returns a copy of all tracked rating states.
func (e *Engine) States() map[string]model.State {
	out := make(map[string]model.State, len(e.states))
	for id, state := range e.states {
		out[id] = state
	}
	return out
}

// TrackedCount reports how many athletes the engine currently tracks.
func (e *Engine) TrackedCount() int {
	return len(e.states)
}

func g(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

func expected(mu, muJ, phiJ float64) float64 {
	return 1 / (1 + math.Exp(-g(phiJ)*(mu-muJ)))
}

// WinProbability returns the expected-win probability for player against
// opponent under the current states. Pure; no state is touched.
func (e *Engine) WinProbability(player, opponent model.State) float64 {
	mu := (player.Rating - DefaultRating) / Scale
	muJ := (opponent.Rating - DefaultRating) / Scale
	phiJ := opponent.RD / Scale
	return expected(mu, muJ, phiJ)
}

// winWeight maps a win-type code onto its rating weight.
func (e *Engine) winWeight(winType string) float64 {
	if weight, ok := e.winTypeWeights[strings.ToUpper(winType)]; ok {
		return weight
	}
	return e.otherWeight
}

func (e *Engine) clampRD(rd float64) float64 {
	return math.Min(e.maxRD, math.Max(e.minRD, rd))
}

// InflateForGap grows every tracked athlete's deviation for a gap of the
// given length in months, modeling volatility-driven uncertainty growth
// during inactivity. Non-positive gaps are a no-op.
func (e *Engine) InflateForGap(months float64) {
	if months <= 0 {
		return
	}
	for id, state := range e.states {
		phi := state.RD / Scale
		phi = math.Sqrt(phi*phi + months*state.Sigma*state.Sigma)
		state.RD = e.clampRD(phi * Scale)
		e.states[id] = state
	}
}

// ResetRDForSeason raises each athlete's RD to at least the season floor,
// never lowering it, modeling renewed uncertainty at a new season's start.
func (e *Engine) ResetRDForSeason() {
	floor := math.Max(e.minRD, math.Min(e.maxRD, e.seasonRDFloor))
	for id, state := range e.states {
		state.RD = math.Min(e.maxRD, math.Max(state.RD, floor))
		e.states[id] = state
	}
}

// recordWeightClass appends one appearance to the athlete's trailing window
// and keeps the shared usage counts in sync as old appearances fall out.
func (e *Engine) recordWeightClass(id, weightClass string, usage map[string]map[string]int) {
	if weightClass == "" {
		return
	}
	counts, ok := usage[id]
	if !ok {
		counts = make(map[string]int)
		usage[id] = counts
	}
	history := append(e.weightHistory[id], weightClass)
	counts[weightClass]++
	if len(history) > e.weightHistoryLimit {
		removed := history[0]
		history = history[1:]
		counts[removed]--
		if counts[removed] <= 0 {
			delete(counts, removed)
		}
	}
	e.weightHistory[id] = history
}

// updatePlayer applies the classic Glicko-2 per-player update for one period.
func (e *Engine) updatePlayer(player model.State, results []result) (model.State, error) {
	mu := (player.Rating - DefaultRating) / Scale
	phi := player.RD / Scale
	phiStar := math.Sqrt(phi*phi + player.Sigma*player.Sigma)

	if len(results) == 0 {
		// Sat out the period: only the pre-period widening applies.
		return model.State{
			Rating: player.Rating,
			RD:     e.clampRD(phiStar * Scale),
			Sigma:  player.Sigma,
		}, nil
	}

	var vInv, deltaSum float64
	for _, res := range results {
		muJ := (res.opponent.Rating - DefaultRating) / Scale
		phiJ := res.opponent.RD / Scale
		gPhi := g(phiJ)
		eScore := expected(mu, muJ, phiJ)
		vInv += res.weight * gPhi * gPhi * eScore * (1 - eScore)
		deltaSum += res.weight * gPhi * (res.score - eScore)
	}

	if vInv == 0 {
		// All weights were zero; there is no effective update.
		return model.State{
			Rating: player.Rating,
			RD:     e.clampRD(phiStar * Scale),
			Sigma:  player.Sigma,
		}, nil
	}

	v := 1 / vInv
	delta := v * deltaSum

	sigmaPrime, err := SolveSigma(delta, phiStar, v, player.Sigma, e.tau)
	if err != nil {
		return model.State{}, err
	}

	phiPrime := 1 / math.Sqrt(1/(phiStar*phiStar+sigmaPrime*sigmaPrime)+1/v)
	muPrime := mu + phiPrime*phiPrime*deltaSum

	return model.State{
		Rating: DefaultRating + muPrime*Scale,
		RD:     e.clampRD(phiPrime * Scale),
		Sigma:  sigmaPrime,
	}, nil
}

// ProcessPeriod applies one rating period's matches as a simultaneous batch
// update. It records weight-class usage and head-to-head wins into the
// caller's accumulators and returns the pre-update (probability, outcome)
// pairs in match-encounter order. Matches whose winner is neither participant
// are skipped without rating effect.
func (e *Engine) ProcessPeriod(
	matches []model.MatchResult,
	headToHead map[model.Matchup]int,
	usage map[string]map[string]int,
) ([]model.Prediction, error) {
	resultsByPlayer := make(map[string][]result)
	var predictions []model.Prediction

	for _, match := range matches {
		if match.WinnerID == "" || (match.WinnerID != match.TopID && match.WinnerID != match.BottomID) {
			continue
		}

		e.EnsurePlayer(match.TopID)
		e.EnsurePlayer(match.BottomID)

		e.recordWeightClass(match.TopID, match.WeightClass, usage)
		e.recordWeightClass(match.BottomID, match.WeightClass, usage)

		topState := e.states[match.TopID]
		bottomState := e.states[match.BottomID]
		probTop := e.WinProbability(topState, bottomState)
		actualTop := 0.0
		if match.WinnerID == match.TopID {
			actualTop = 1.0
		}
		predictions = append(predictions, model.Prediction{Prob: probTop, Actual: actualTop})

		weight := e.winWeight(match.WinType)
		resultsByPlayer[match.TopID] = append(resultsByPlayer[match.TopID], result{
			opponent: bottomState,
			score:    actualTop,
			weight:   weight,
		})
		resultsByPlayer[match.BottomID] = append(resultsByPlayer[match.BottomID], result{
			opponent: topState,
			score:    1 - actualTop,
			weight:   weight,
		})

		loser := match.BottomID
		if match.WinnerID == match.BottomID {
			loser = match.TopID
		}
		headToHead[model.Matchup{Winner: match.WinnerID, Loser: loser}]++
	}

	// All opponent states were read above from the pre-period snapshot; now
	// commit every athlete's new state in one pass.
	newStates := make(map[string]model.State, len(e.states))
	for id, state := range e.states {
		updated, err := e.updatePlayer(state, resultsByPlayer[id])
		if err != nil {
			return nil, err
		}
		newStates[id] = updated
	}
	e.states = newStates

	return predictions, nil
}
