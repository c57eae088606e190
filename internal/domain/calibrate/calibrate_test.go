package calibrate_test

import (
	"context"
	"testing"
	"time"

	calibrate "github.com/matrank/matrank/internal/domain/calibrate"
	"github.com/matrank/matrank/internal/domain/glicko"
	"github.com/matrank/matrank/internal/domain/model"
	"github.com/matrank/matrank/internal/domain/schedule"
	"github.com/matrank/matrank/internal/fixtures"
	. "github.com/smartystreets/goconvey/convey"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func monthlyPeriods(season string, starts ...time.Time) []model.RatingPeriod {
	periods := make([]model.RatingPeriod, len(starts))
	for i, start := range starts {
		periods[i] = model.RatingPeriod{Start: start, End: start.AddDate(0, 1, 0), Season: season}
	}
	return periods
}

func bout(top, bottom, winner string, date time.Time) model.MatchResult {
	return model.MatchResult{
		ID:          top + bottom + date.Format("0102"),
		Date:        date,
		TopID:       top,
		BottomID:    bottom,
		WinnerID:    winner,
		WinType:     "DEC",
		WeightClass: "126",
	}
}

func TestRun(t *testing.T) {
	Convey("Given two periods where A beats B every time", t, func() {
		periods := monthlyPeriods("2022-2023",
			day(2022, time.December, 1), day(2023, time.January, 1))
		buckets := [][]model.MatchResult{
			{bout("a", "b", "a", day(2022, time.December, 10))},
			{bout("b", "a", "a", day(2023, time.January, 10))},
		}

		Convey("When running a full simulation", func() {
			res, err := calibrate.Run(periods, buckets, []string{"a", "b"}, 0.3)
			So(err, ShouldBeNil)

			Convey("Then A should outrate B", func() {
				So(res.Ratings["a"].Rating, ShouldBeGreaterThan, res.Ratings["b"].Rating)
			})

			Convey("And one prediction per match should be produced in order", func() {
				So(res.Predictions, ShouldHaveLength, 2)
				So(res.Predictions[0].Prob, ShouldAlmostEqual, 0.5, 1e-12)
				So(res.Predictions[0].Actual, ShouldEqual, 1.0)

				Convey("And the second prediction should already favor A", func() {
					// Second period's match has B on top, so the top-side
					// probability is below one half.
					So(res.Predictions[1].Prob, ShouldBeLessThan, 0.5)
					So(res.Predictions[1].Actual, ShouldEqual, 0.0)
				})
			})

			Convey("And the accumulators should be filled", func() {
				So(res.HeadToHead[model.Matchup{Winner: "a", Loser: "b"}], ShouldEqual, 2)
				So(res.WeightCounts["a"]["126"], ShouldEqual, 2)
			})

			Convey("And rerunning should give identical output", func() {
				again, err := calibrate.Run(periods, buckets, []string{"a", "b"}, 0.3)
				So(err, ShouldBeNil)
				So(again.Ratings, ShouldResemble, res.Ratings)
				So(again.Predictions, ShouldResemble, res.Predictions)
			})
		})
	})

	Convey("Given a long gap between periods", t, func() {
		adjacent := monthlyPeriods("s",
			day(2022, time.December, 1), day(2023, time.January, 1))
		gapped := monthlyPeriods("s",
			day(2022, time.December, 1), day(2023, time.June, 1))
		firstBout := bout("a", "b", "a", day(2022, time.December, 10))

		Convey("When B sits out the second period in both timelines", func() {
			resAdjacent, err := calibrate.Run(adjacent, [][]model.MatchResult{{firstBout}, {}}, []string{"a", "b"}, 0.3)
			So(err, ShouldBeNil)
			resGapped, err := calibrate.Run(gapped, [][]model.MatchResult{{firstBout}, {}}, []string{"a", "b"}, 0.3)
			So(err, ShouldBeNil)

			Convey("Then the longer inactivity should leave more uncertainty", func() {
				So(resGapped.Ratings["b"].RD, ShouldBeGreaterThan, resAdjacent.Ratings["b"].RD)
			})
		})
	})

	Convey("Given fewer buckets than periods", t, func() {
		periods := monthlyPeriods("s",
			day(2022, time.December, 1), day(2023, time.January, 1))
		buckets := [][]model.MatchResult{
			{bout("a", "b", "a", day(2022, time.December, 10))},
		}

		Convey("When running", func() {
			res, err := calibrate.Run(periods, buckets, nil, 0.3)

			Convey("Then missing buckets should count as empty periods", func() {
				So(err, ShouldBeNil)
				So(res.Predictions, ShouldHaveLength, 1)
			})
		})
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given no predictions", t, func() {
		Convey("Then the score should be zero", func() {
			So(calibrate.Evaluate(nil), ShouldResemble, calibrate.Metrics{})
		})
	})

	Convey("Given a mix of confident and wrong predictions", t, func() {
		predictions := []model.Prediction{
			{Prob: 0.9, Actual: 1.0}, // confident and right
			{Prob: 0.4, Actual: 1.0}, // leaned wrong
			{Prob: 0.2, Actual: 0.0}, // confident and right
			{Prob: 0.5, Actual: 0.0}, // coin flip counted as the top side
		}

		Convey("When evaluating", func() {
			m := calibrate.Evaluate(predictions)

			Convey("Then the Brier score should be the mean squared error", func() {
				expected := (0.01 + 0.36 + 0.04 + 0.25) / 4
				So(m.Brier, ShouldAlmostEqual, expected, 1e-12)
			})

			Convey("And accuracy should count sides of the half line", func() {
				So(m.Accuracy, ShouldAlmostEqual, 0.5, 1e-12)
			})
		})
	})
}

func TestSearch(t *testing.T) {
	periods := monthlyPeriods("2022-2023",
		day(2022, time.December, 1), day(2023, time.January, 1), day(2023, time.February, 1))
	buckets := [][]model.MatchResult{
		{
			bout("a", "b", "a", day(2022, time.December, 5)),
			bout("c", "d", "c", day(2022, time.December, 6)),
		},
		{
			bout("a", "c", "a", day(2023, time.January, 5)),
			bout("b", "d", "b", day(2023, time.January, 6)),
		},
		{
			bout("a", "d", "a", day(2023, time.February, 5)),
			bout("b", "c", "b", day(2023, time.February, 6)),
		},
	}
	roster := []string{"a", "b", "c", "d"}

	Convey("Given a candidate list", t, func() {
		candidates := calibrate.DefaultTauCandidates()

		Convey("When searching", func() {
			result, err := calibrate.Search(context.Background(), periods, buckets, roster, candidates)
			So(err, ShouldBeNil)

			Convey("Then the chosen tau should be one of the candidates", func() {
				So(candidates, ShouldContain, result.Tau)
			})

			Convey("And the search should be deterministic across calls", func() {
				again, err := calibrate.Search(context.Background(), periods, buckets, roster, candidates)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, result)
			})

			Convey("And the winner should match a sequential scan", func() {
				best := calibrate.Result{Tau: candidates[0]}
				bestSet := false
				for _, tau := range candidates {
					run, err := calibrate.Run(periods, buckets, roster, tau)
					So(err, ShouldBeNil)
					m := calibrate.Evaluate(run.Predictions)
					if !bestSet || m.Brier < best.Metrics.Brier {
						best = calibrate.Result{Tau: tau, Metrics: m}
						bestSet = true
					}
				}
				So(result, ShouldResemble, best)
			})
		})
	})

	Convey("Given a single candidate", t, func() {
		Convey("When searching", func() {
			result, err := calibrate.Search(context.Background(), periods, buckets, roster, []float64{0.4})

			Convey("Then it should be chosen outright", func() {
				So(err, ShouldBeNil)
				So(result.Tau, ShouldEqual, 0.4)
			})
		})
	})

	Convey("Given no candidates", t, func() {
		Convey("When searching", func() {
			_, err := calibrate.Search(context.Background(), periods, buckets, roster, nil)

			Convey("Then it should fail with the sentinel error", func() {
				So(err, ShouldEqual, calibrate.ErrNoCandidates)
			})
		})
	})
}

func TestRunOnGeneratedSeason(t *testing.T) {
	Convey("Given a generated season of matches", t, func() {
		ds := fixtures.Generate(fixtures.NewConfig())
		matches := make([]model.MatchResult, 0, len(ds.Matches))
		for _, record := range ds.Matches {
			matches = append(matches, record.Match)
		}

		periods := monthlyPeriods("2023-2024",
			day(2023, time.December, 1), day(2024, time.January, 1), day(2024, time.February, 1))
		buckets := schedule.BucketMatches(periods, matches)

		Convey("When simulating the whole season", func() {
			res, err := calibrate.Run(periods, buckets, nil, 0.3)
			So(err, ShouldBeNil)

			Convey("Then every bucketed match should yield a prediction", func() {
				total := 0
				for _, bucket := range buckets {
					total += len(bucket)
				}
				So(total, ShouldBeGreaterThan, 0)
				So(res.Predictions, ShouldHaveLength, total)
			})

			Convey("And every participant should end up tracked within RD bounds", func() {
				So(len(res.Ratings), ShouldBeGreaterThan, 0)
				for _, state := range res.Ratings {
					So(state.RD, ShouldBeGreaterThanOrEqualTo, glicko.DefaultMinRD)
					So(state.RD, ShouldBeLessThanOrEqualTo, glicko.DefaultMaxRD)
					So(state.Sigma, ShouldBeGreaterThan, 0)
				}
			})
		})
	})
}

func TestRunWithEngineOptions(t *testing.T) {
	Convey("Given engine options passed through a run", t, func() {
		periods := monthlyPeriods("s", day(2022, time.December, 1))
		buckets := [][]model.MatchResult{
			{bout("a", "b", "a", day(2022, time.December, 10))},
		}

		Convey("When the win-type table treats a decision like a fall", func() {
			plain, err := calibrate.Run(periods, buckets, nil, 0.3)
			So(err, ShouldBeNil)
			boosted, err := calibrate.Run(periods, buckets, nil, 0.3,
				glicko.WithWinTypeWeights(map[string]float64{"DEC": 1.0}, glicko.DefaultOtherWeight))
			So(err, ShouldBeNil)

			Convey("Then the boosted run should move ratings further", func() {
				So(boosted.Ratings["a"].Rating, ShouldBeGreaterThan, plain.Ratings["a"].Rating)
			})
		})
	})
}
