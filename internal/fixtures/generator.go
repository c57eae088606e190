// Package fixtures generates synthetic teams, wrestlers, events, and matches
// for demos and local development against an empty database.
package fixtures

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/matrank/matrank/internal/adapters/repository"
	"github.com/matrank/matrank/internal/domain/leaderboard"
	"github.com/matrank/matrank/internal/domain/model"
)

// Generation shape constants.
const (
	defaultTeams            = 12
	defaultWrestlersPerTeam = 14
	defaultEvents           = 20
	defaultMatchesPerEvent  = 40

	minGrade = 9
	maxGrade = 12

	// classDriftChance is the chance a match is wrestled one class up.
	classDriftChance = 0.15
)

// winTypes and their rough real-world frequency.
var winTypes = []struct {
	name   string
	weight float64
}{
	{"DEC", 0.45},
	{"F", 0.25},
	{"MD", 0.12},
	{"TF", 0.10},
	{"SV-1", 0.05},
	{"INJ", 0.03},
}

// Config controls how much data to generate.
type Config struct {
	Teams            int
	WrestlersPerTeam int
	Events           int
	MatchesPerEvent  int
	SeasonStart      time.Time
	SeasonEnd        time.Time
	Seed             int64
}

// NewConfig returns a Config sized for a small demo season.
func NewConfig() Config {
	return Config{
		Teams:            defaultTeams,
		WrestlersPerTeam: defaultWrestlersPerTeam,
		Events:           defaultEvents,
		MatchesPerEvent:  defaultMatchesPerEvent,
		SeasonStart:      time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC),
		SeasonEnd:        time.Date(2024, time.February, 25, 0, 0, 0, 0, time.UTC),
		Seed:             1,
	}
}

// Wrestler is one generated athlete with a latent skill used to bias results.
type Wrestler struct {
	ID        string
	Name      string
	Grade     int
	GradeDate time.Time
	TeamID    string

	class string
	skill float64
}

// Event is one generated competition date.
type Event struct {
	ID   string
	Name string
	Date time.Time
}

// MatchRecord pairs a match with the event it belongs to.
type MatchRecord struct {
	Match   model.MatchResult
	EventID string
}

// Dataset is one generated corpus ready for seeding.
type Dataset struct {
	Teams     map[string]model.TeamMeta
	Wrestlers []Wrestler
	Events    []Event
	Matches   []MatchRecord
}

// Generate builds a deterministic dataset from cfg. The same seed always
// produces the same ids, pairings, and outcomes.
func Generate(cfg Config) Dataset {
	rng := rand.New(rand.NewSource(cfg.Seed))
	classes := leaderboard.DefaultWeightClasses()

	teams := make(map[string]model.TeamMeta, cfg.Teams)
	teamIDs := make([]string, 0, cfg.Teams)
	for i := 0; i < cfg.Teams; i++ {
		id := newID(rng)
		teams[id] = model.TeamMeta{
			Name:     fmt.Sprintf("Team %02d", i+1),
			Section:  fmt.Sprintf("Section %d", i%4+1),
			Division: fmt.Sprintf("%d", i%2+1),
		}
		teamIDs = append(teamIDs, id)
	}

	var wrestlers []Wrestler
	byClass := make(map[string][]int)
	for _, teamID := range teamIDs {
		for i := 0; i < cfg.WrestlersPerTeam; i++ {
			class := classes[i%len(classes)]
			w := Wrestler{
				ID:        newID(rng),
				Name:      fmt.Sprintf("Wrestler %04d", len(wrestlers)+1),
				Grade:     minGrade + rng.Intn(maxGrade-minGrade+1),
				GradeDate: cfg.SeasonStart,
				TeamID:    teamID,
				class:     class,
				skill:     rng.NormFloat64(),
			}
			byClass[class] = append(byClass[class], len(wrestlers))
			wrestlers = append(wrestlers, w)
		}
	}

	span := cfg.SeasonEnd.Sub(cfg.SeasonStart)
	events := make([]Event, 0, cfg.Events)
	for i := 0; i < cfg.Events; i++ {
		offset := time.Duration(int64(span) * int64(i) / int64(cfg.Events))
		events = append(events, Event{
			ID:   newID(rng),
			Name: fmt.Sprintf("Invitational %02d", i+1),
			Date: cfg.SeasonStart.Add(offset).Truncate(24 * time.Hour),
		})
	}

	var matches []MatchRecord
	for _, event := range events {
		for i := 0; i < cfg.MatchesPerEvent; i++ {
			class := classes[rng.Intn(len(classes))]
			pool := byClass[class]
			if len(pool) < 2 {
				continue
			}
			a := wrestlers[pool[rng.Intn(len(pool))]]
			b := wrestlers[pool[rng.Intn(len(pool))]]
			if a.ID == b.ID {
				continue
			}
			winner := a
			if rng.Float64() >= winProbability(a.skill, b.skill) {
				winner = b
			}
			matchClass := class
			if rng.Float64() < classDriftChance {
				matchClass = classAbove(classes, class)
			}
			matches = append(matches, MatchRecord{
				EventID: event.ID,
				Match: model.MatchResult{
					ID:          newID(rng),
					Date:        event.Date,
					TopID:       a.ID,
					BottomID:    b.ID,
					WinnerID:    winner.ID,
					WinType:     pickWinType(rng),
					WeightClass: matchClass,
				},
			})
		}
	}

	return Dataset{Teams: teams, Wrestlers: wrestlers, Events: events, Matches: matches}
}

// Seed inserts the dataset into the store. Idempotent: rows upsert by id.
func Seed(ctx context.Context, store *repository.SQLiteStore, ds Dataset) error {
	for id, meta := range ds.Teams {
		if err := store.InsertTeam(ctx, id, meta); err != nil {
			return err
		}
	}
	for _, w := range ds.Wrestlers {
		if err := store.InsertWrestler(ctx, w.ID, w.Name, w.Grade, w.GradeDate, w.TeamID); err != nil {
			return err
		}
	}
	for _, event := range ds.Events {
		if err := store.InsertEvent(ctx, event.ID, event.Name, event.Date); err != nil {
			return err
		}
	}
	for _, record := range ds.Matches {
		if err := store.InsertMatch(ctx, record.Match, record.EventID); err != nil {
			return err
		}
	}
	return nil
}

func newID(rng *rand.Rand) string {
	var b [16]byte
	rng.Read(b[:])
	id, err := uuid.FromBytes(b[:])
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// winProbability is a logistic curve over the latent skill difference.
func winProbability(a, b float64) float64 {
	return 1.0 / (1.0 + math.Exp(b-a))
}

func classAbove(classes []string, class string) string {
	for i, c := range classes {
		if c == class && i+1 < len(classes) {
			return classes[i+1]
		}
	}
	return class
}

func pickWinType(rng *rand.Rand) string {
	r := rng.Float64()
	acc := 0.0
	for _, wt := range winTypes {
		acc += wt.weight
		if r < acc {
			return wt.name
		}
	}
	return winTypes[0].name
}
