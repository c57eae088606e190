// Package calibrate runs full rating simulations and tunes the Glicko-2 tau
// parameter by back-testing prediction accuracy.
package calibrate

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matrank/matrank/internal/domain/glicko"
	"github.com/matrank/matrank/internal/domain/model"
	"github.com/matrank/matrank/internal/domain/schedule"
)

// DefaultTauCandidates is the back-tested candidate list used when the caller
// supplies none.
func DefaultTauCandidates() []float64 {
	return []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.7}
}

// Metrics scores one simulation run's predictions.
type Metrics struct {
	Brier    float64 // mean squared error between probability and outcome
	Accuracy float64 // fraction where probability and outcome agree on a side of 0.5
}

// Result is the outcome of a tau search.
type Result struct {
	Tau     float64
	Metrics Metrics
}

// Run executes one full simulation across the period sequence with a fresh
// engine. Periods must be in chronological order: inactivity inflation and
// season resets depend on the previous period's end date and season label.
func Run(
	periods []model.RatingPeriod,
	buckets [][]model.MatchResult,
	roster []string,
	tau float64,
	opts ...glicko.Option,
) (model.RunResult, error) {
	engine := glicko.New(tau, opts...)
	for _, id := range roster {
		engine.EnsurePlayer(id)
	}

	headToHead := make(map[model.Matchup]int)
	usage := make(map[string]map[string]int)
	var predictions []model.Prediction

	var prevEnd time.Time
	prevSeason := ""
	for i, period := range periods {
		if i > 0 {
			engine.InflateForGap(schedule.MonthsBetween(prevEnd, period.Start))
		}
		if period.Season != prevSeason {
			engine.ResetRDForSeason()
			prevSeason = period.Season
		}
		var bucket []model.MatchResult
		if i < len(buckets) {
			bucket = buckets[i]
		}
		preds, err := engine.ProcessPeriod(bucket, headToHead, usage)
		if err != nil {
			return model.RunResult{}, err
		}
		predictions = append(predictions, preds...)
		prevEnd = period.End
	}

	return model.RunResult{
		Ratings:      engine.States(),
		HeadToHead:   headToHead,
		WeightCounts: usage,
		Predictions:  predictions,
	}, nil
}

// Evaluate scores a prediction list. An empty list scores (0, 0).
func Evaluate(predictions []model.Prediction) Metrics {
	if len(predictions) == 0 {
		return Metrics{}
	}
	var brierSum float64
	correct := 0
	for _, p := range predictions {
		diff := p.Prob - p.Actual
		brierSum += diff * diff
		if (p.Prob >= 0.5 && p.Actual == 1.0) || (p.Prob < 0.5 && p.Actual == 0.0) {
			correct++
		}
	}
	n := float64(len(predictions))
	return Metrics{Brier: brierSum / n, Accuracy: float64(correct) / n}
}

// Search back-tests every candidate tau with an independent simulation and
// picks the one with the lowest Brier score, candidate order breaking ties.
// Runs share no state, so they execute concurrently on a bounded pool; the
// selection still walks candidates in their given order.
func Search(
	ctx context.Context,
	periods []model.RatingPeriod,
	buckets [][]model.MatchResult,
	roster []string,
	candidates []float64,
	opts ...glicko.Option,
) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}

	runs := make([]Metrics, len(candidates))
	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.NumCPU())
	for i, tau := range candidates {
		grp.Go(func() error {
			res, err := Run(periods, buckets, roster, tau, opts...)
			if err != nil {
				return err
			}
			runs[i] = Evaluate(res.Predictions)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return Result{}, err
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if runs[i].Brier < runs[best].Brier {
			best = i
		}
	}
	return Result{Tau: candidates[best], Metrics: runs[best]}, nil
}
