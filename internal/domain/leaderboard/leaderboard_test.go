package leaderboard_test

import (
	"testing"
	"time"

	leaderboard "github.com/matrank/matrank/internal/domain/leaderboard"
	"github.com/matrank/matrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func allowed(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestPrimaryWeightClass(t *testing.T) {
	Convey("Given recent weight-class usage for an athlete", t, func() {
		usage := map[string]map[string]int{
			"a": {"126": 3, "132": 2},
			"b": {"132": 2, "126": 2},
		}

		Convey("Then the most frequent class should win", func() {
			So(leaderboard.PrimaryWeightClass(usage, "a", nil), ShouldEqual, "126")
		})

		Convey("Then a count tie should break toward the smaller label", func() {
			So(leaderboard.PrimaryWeightClass(usage, "b", nil), ShouldEqual, "126")
		})

		Convey("Then a manual override should win over usage", func() {
			overrides := map[string]string{"a": "138"}
			So(leaderboard.PrimaryWeightClass(usage, "a", overrides), ShouldEqual, "138")
		})

		Convey("Then an unknown athlete should have no class", func() {
			So(leaderboard.PrimaryWeightClass(usage, "nobody", nil), ShouldEqual, "")
		})
	})
}

func TestTallyRecords(t *testing.T) {
	Convey("Given a match list with one degenerate entry", t, func() {
		date := time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)
		matches := []model.MatchResult{
			{ID: "1", Date: date, TopID: "a", BottomID: "b", WinnerID: "a"},
			{ID: "2", Date: date, TopID: "a", BottomID: "c", WinnerID: "c"},
			{ID: "3", Date: date, TopID: "a", BottomID: "b", WinnerID: "ghost"},
		}

		Convey("When tallying", func() {
			wins, losses := leaderboard.TallyRecords(matches)

			Convey("Then valid matches should count and the rest be skipped", func() {
				So(wins["a"], ShouldEqual, 1)
				So(losses["a"], ShouldEqual, 1)
				So(wins["c"], ShouldEqual, 1)
				So(losses["b"], ShouldEqual, 1)
				So(wins["ghost"], ShouldEqual, 0)
			})
		})
	})
}

func TestBuild(t *testing.T) {
	run := model.RunResult{
		Ratings: map[string]model.State{
			"alpha": {Rating: 1650.456, RD: 120.5, Sigma: 0.0601},
			"beta":  {Rating: 1500, RD: 150, Sigma: 0.06},
			"gamma": {Rating: 1500, RD: 160, Sigma: 0.06},
			"delta": {Rating: 1400, RD: 200, Sigma: 0.06},
		},
		HeadToHead: map[model.Matchup]int{
			{Winner: "gamma", Loser: "beta"}: 2,
			{Winner: "beta", Loser: "gamma"}: 1,
		},
		WeightCounts: map[string]map[string]int{
			"alpha": {"126": 4},
			"beta":  {"126": 3},
			"gamma": {"126": 5},
			"delta": {"132": 2},
		},
	}

	info := map[string]model.AthleteInfo{
		"alpha": {Name: "Alice", TeamID: "t1", GradYear: 2026},
		"beta":  {Name: "Bob", TeamID: "t2"},
		"gamma": {Name: "Gail", TeamID: "t1"},
		"delta": {Name: "Dan", TeamID: "t2"},
	}

	params := leaderboard.Params{
		WeightClasses: []string{"126", "132"},
		Allowed:       allowed("alpha", "beta", "gamma", "delta"),
		Info:          info,
		Wins:          map[string]int{"alpha": 6, "gamma": 2, "beta": 1},
		Losses:        map[string]int{"beta": 2, "delta": 3},
		TeamMeta: map[string]model.TeamMeta{
			"t1": {Name: "Central", Section: "North", Division: "1"},
			"t2": {Name: "Academy", Section: "South", Division: "2"},
		},
	}

	Convey("Given a finished run with a head-to-head tie at 1500", t, func() {
		Convey("When building the board", func() {
			board := leaderboard.Build(run, params)

			Convey("Then each class should rank by rating with head-to-head breaking ties", func() {
				So(board.Rankings["126"], ShouldResemble, []string{"alpha", "gamma", "beta"})
				So(board.Rankings["132"], ShouldResemble, []string{"delta"})
			})

			Convey("And the registry should round display fields and carry records", func() {
				alpha := board.Athletes["alpha"]
				So(alpha.Name, ShouldEqual, "Alice")
				So(alpha.Rating, ShouldEqual, 1650.46)
				So(alpha.RD, ShouldEqual, 120.5)
				So(alpha.Sigma, ShouldEqual, 0.0601)
				So(alpha.Wins, ShouldEqual, 6)
				So(alpha.GradYear, ShouldEqual, 2026)
			})

			Convey("And team rosters should group ranked ids per class, ordered by name", func() {
				So(board.Teams, ShouldHaveLength, 2)
				So(board.Teams[0].Name, ShouldEqual, "Academy")
				So(board.Teams[0].Weights["126"], ShouldResemble, []string{"beta"})
				So(board.Teams[0].Weights["132"], ShouldResemble, []string{"delta"})
				So(board.Teams[1].Name, ShouldEqual, "Central")
				So(board.Teams[1].Weights["126"], ShouldResemble, []string{"alpha", "gamma"})
			})
		})

		Convey("When a limit is applied", func() {
			limited := params
			limited.Limit = 2
			board := leaderboard.Build(run, limited)

			Convey("Then only the top entries should remain", func() {
				So(board.Rankings["126"], ShouldResemble, []string{"alpha", "gamma"})
				So(board.Athletes, ShouldNotContainKey, "beta")
			})
		})

		Convey("When an athlete is not in the allowed set", func() {
			restricted := params
			restricted.Allowed = allowed("beta", "gamma", "delta")
			board := leaderboard.Build(run, restricted)

			Convey("Then they should be left off every ranking", func() {
				So(board.Rankings["126"], ShouldResemble, []string{"gamma", "beta"})
			})
		})

		Convey("When a weight override moves an athlete", func() {
			moved := params
			moved.WeightOverrides = map[string]string{"alpha": "132"}
			board := leaderboard.Build(run, moved)

			Convey("Then they should rank in the overridden class", func() {
				So(board.Rankings["126"], ShouldResemble, []string{"gamma", "beta"})
				So(board.Rankings["132"], ShouldResemble, []string{"alpha", "delta"})
			})
		})

		Convey("When an athlete has no store record", func() {
			anonymous := model.RunResult{
				Ratings:      map[string]model.State{"mystery": {Rating: 1520, RD: 100, Sigma: 0.06}},
				WeightCounts: map[string]map[string]int{"mystery": {"126": 1}},
			}
			board := leaderboard.Build(anonymous, leaderboard.Params{
				WeightClasses: []string{"126"},
				Allowed:       allowed("mystery"),
			})

			Convey("Then the id should stand in for the name", func() {
				So(board.Athletes["mystery"].Name, ShouldEqual, "mystery")
			})
		})
	})

	Convey("Given athletes tied on rating with no head-to-head history", t, func() {
		tied := model.RunResult{
			Ratings: map[string]model.State{
				"zed": {Rating: 1500, RD: 150, Sigma: 0.06},
				"amy": {Rating: 1500, RD: 150, Sigma: 0.06},
			},
			WeightCounts: map[string]map[string]int{
				"zed": {"126": 1},
				"amy": {"126": 1},
			},
		}

		Convey("When building the board twice", func() {
			p := leaderboard.Params{WeightClasses: []string{"126"}, Allowed: allowed("zed", "amy")}
			first := leaderboard.Build(tied, p)
			second := leaderboard.Build(tied, p)

			Convey("Then the order should be reproducible, falling back to id order", func() {
				So(first.Rankings["126"], ShouldResemble, []string{"amy", "zed"})
				So(second.Rankings["126"], ShouldResemble, first.Rankings["126"])
			})
		})
	})
}
