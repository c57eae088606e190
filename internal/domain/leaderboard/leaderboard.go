// Package leaderboard ranks rated athletes within weight classes and
// assembles team rosters from the individual rankings.
package leaderboard

import (
	"math"
	"sort"
	"strings"

	"github.com/matrank/matrank/internal/domain/model"
)

// ratingTieEpsilon is the rating difference below which two athletes are
// considered tied and head-to-head decides.
const ratingTieEpsilon = 1e-6

// DefaultWeightClasses lists the scholastic weight classes in order.
func DefaultWeightClasses() []string {
	return []string{
		"106", "113", "120", "126", "132", "138", "144",
		"150", "157", "165", "175", "190", "215", "285",
	}
}

// Athlete is one registry entry with display-rounded rating fields.
type Athlete struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	TeamID   string  `json:"teamId,omitempty"`
	GradYear int     `json:"gradYear,omitempty"`
	Rating   float64 `json:"rating"`
	RD       float64 `json:"rd"`
	Sigma    float64 `json:"sigma"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
}

// TeamRoster groups ranked athletes under their team per weight class.
type TeamRoster struct {
	ID       string              `json:"id"`
	Name     string              `json:"name,omitempty"`
	Division string              `json:"division,omitempty"`
	Section  string              `json:"section,omitempty"`
	Weights  map[string][]string `json:"weights"`
}

// Params configures one leaderboard build.
type Params struct {
	WeightClasses   []string
	Limit           int // athletes per class; 0 means unlimited
	Allowed         map[string]struct{}
	Info            map[string]model.AthleteInfo
	WeightOverrides map[string]string
	Wins            map[string]int
	Losses          map[string]int
	TeamMeta        map[string]model.TeamMeta
}

// Board is the assembled leaderboard output.
type Board struct {
	Rankings map[string][]string // weight class -> ranked athlete ids
	Athletes map[string]Athlete  // flat registry, first-encounter order agnostic
	Teams    []TeamRoster
}

// PrimaryWeightClass infers the class an athlete should be ranked in: a
// manual override when present, otherwise the most frequent class in the
// recent-usage window. Count ties break toward the smaller class label so the
// inference is reproducible. Returns "" when nothing is known.
func PrimaryWeightClass(usage map[string]map[string]int, id string, overrides map[string]string) string {
	if wc, ok := overrides[id]; ok {
		return wc
	}
	counts := usage[id]
	if len(counts) == 0 {
		return ""
	}
	best := ""
	bestCount := 0
	for class, count := range counts {
		if count > bestCount || (count == bestCount && (best == "" || class < best)) {
			best = class
			bestCount = count
		}
	}
	return best
}

// TallyRecords counts wins and losses per athlete across valid matches.
func TallyRecords(matches []model.MatchResult) (wins, losses map[string]int) {
	wins = make(map[string]int)
	losses = make(map[string]int)
	for _, match := range matches {
		if match.WinnerID == "" || (match.WinnerID != match.TopID && match.WinnerID != match.BottomID) {
			continue
		}
		loser := match.BottomID
		if match.WinnerID == match.BottomID {
			loser = match.TopID
		}
		if loser == "" {
			continue
		}
		wins[match.WinnerID]++
		losses[loser]++
	}
	return wins, losses
}

// Build ranks the allowed athletes per weight class by rating, breaking exact
// ties with net head-to-head, and assembles the registry and team rosters.
func Build(run model.RunResult, p Params) Board {
	rankings := make(map[string][]string, len(p.WeightClasses))
	athletes := make(map[string]Athlete)

	for _, class := range p.WeightClasses {
		var candidates []string
		for id := range run.Ratings {
			if _, ok := p.Allowed[id]; !ok {
				continue
			}
			if PrimaryWeightClass(run.WeightCounts, id, p.WeightOverrides) == class {
				candidates = append(candidates, id)
			}
		}
		// Fixed base order so the stable sort leaves true ties reproducible.
		sort.Strings(candidates)
		sort.SliceStable(candidates, func(i, j int) bool {
			return rankedBefore(run, candidates[i], candidates[j])
		})

		if p.Limit > 0 && len(candidates) > p.Limit {
			candidates = candidates[:p.Limit]
		}

		ranking := make([]string, 0, len(candidates))
		for _, id := range candidates {
			if _, ok := athletes[id]; !ok {
				athletes[id] = newAthlete(id, run.Ratings[id], p)
			}
			ranking = append(ranking, id)
		}
		rankings[class] = ranking
	}

	return Board{
		Rankings: rankings,
		Athletes: athletes,
		Teams:    buildTeamRosters(rankings, p.WeightClasses, athletes, p.TeamMeta),
	}
}

// rankedBefore reports whether a outranks b: higher rating first, exact-tie
// broken by net head-to-head, otherwise order is left to the stable sort.
func rankedBefore(run model.RunResult, a, b string) bool {
	ra := run.Ratings[a].Rating
	rb := run.Ratings[b].Rating
	if math.Abs(ra-rb) > ratingTieEpsilon {
		return ra > rb
	}
	h2h := run.HeadToHead[model.Matchup{Winner: a, Loser: b}] - run.HeadToHead[model.Matchup{Winner: b, Loser: a}]
	return h2h > 0
}

func newAthlete(id string, state model.State, p Params) Athlete {
	info := p.Info[id]
	name := info.Name
	if name == "" {
		name = id
	}
	return Athlete{
		ID:       id,
		Name:     name,
		TeamID:   info.TeamID,
		GradYear: info.GradYear,
		Rating:   round(state.Rating, 2),
		RD:       round(state.RD, 2),
		Sigma:    round(state.Sigma, 4),
		Wins:     p.Wins[id],
		Losses:   p.Losses[id],
	}
}

func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}

// buildTeamRosters groups ranked athletes under their teams, preserving
// per-class ranking order and filling team display fields from the first
// available metadata source.
func buildTeamRosters(
	rankings map[string][]string,
	weightClasses []string,
	athletes map[string]Athlete,
	teamMeta map[string]model.TeamMeta,
) []TeamRoster {
	rosters := make(map[string]*TeamRoster)
	for _, class := range weightClasses {
		for _, id := range rankings[class] {
			athlete, ok := athletes[id]
			if !ok || athlete.TeamID == "" {
				continue
			}
			roster, ok := rosters[athlete.TeamID]
			if !ok {
				meta := teamMeta[athlete.TeamID]
				roster = &TeamRoster{
					ID:       athlete.TeamID,
					Name:     meta.Name,
					Division: meta.Division,
					Section:  meta.Section,
					Weights:  make(map[string][]string),
				}
				rosters[athlete.TeamID] = roster
			}
			meta := teamMeta[athlete.TeamID]
			if roster.Name == "" && meta.Name != "" {
				roster.Name = meta.Name
			}
			if roster.Division == "" && meta.Division != "" {
				roster.Division = meta.Division
			}
			if roster.Section == "" && meta.Section != "" {
				roster.Section = meta.Section
			}
			roster.Weights[class] = append(roster.Weights[class], id)
		}
	}

	ordered := make([]TeamRoster, 0, len(rosters))
	for _, roster := range rosters {
		ordered = append(ordered, *roster)
	}
	sort.Slice(ordered, func(i, j int) bool {
		ni := strings.ToLower(ordered[i].Name)
		nj := strings.ToLower(ordered[j].Name)
		if ni != nj {
			return ni < nj
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}
