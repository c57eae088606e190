// Package report renders leaderboard results to the console or to a JSON
// payload consumed by the site frontend.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matrank/matrank/internal/domain/leaderboard"
	"github.com/matrank/matrank/internal/domain/model"
	"github.com/matrank/matrank/internal/domain/overrides"
)

// Overrides echoes the manual adjustments that shaped the run.
type Overrides struct {
	Weights   map[string]string `json:"weights,omitempty"`
	Exclude   []string          `json:"exclude,omitempty"`
	GradYears map[string]int    `json:"gradYears,omitempty"`
	Teams     map[string]string `json:"teams,omitempty"`
}

// SectionDivision lists the distinct sections and divisions seen in the run.
type SectionDivision struct {
	Sections  []string `json:"sections"`
	Divisions []string `json:"divisions"`
}

// Payload is the JSON document written by --json-out style runs.
type Payload struct {
	Tau             float64                  `json:"tau"`
	Matches         int                      `json:"matches"`
	Periods         int                      `json:"periods"`
	GradYear        int                      `json:"gradYear,omitempty"`
	Overrides       Overrides                `json:"overrides"`
	SectionDivision SectionDivision          `json:"sectionDivisionData"`
	Teams           []leaderboard.TeamRoster `json:"teams"`
	Weights         map[string][]string      `json:"weights"`
	Wrestlers       []leaderboard.Athlete    `json:"wrestlers"`
}

// Params carries everything needed to assemble a Payload.
type Params struct {
	Tau           float64
	MatchCount    int
	PeriodCount   int
	GradYear      int
	Overrides     overrides.Set
	Info          map[string]model.AthleteInfo
	WeightClasses []string
	Board         leaderboard.Board
}

// NewPayload assembles the output document from a finished run.
func NewPayload(p Params) Payload {
	excluded := make([]string, 0, len(p.Overrides.Exclude))
	for id := range p.Overrides.Exclude {
		excluded = append(excluded, id)
	}
	sort.Strings(excluded)

	return Payload{
		Tau:         p.Tau,
		Matches:     p.MatchCount,
		Periods:     p.PeriodCount,
		GradYear:    p.GradYear,
		Overrides: Overrides{
			Weights:   p.Overrides.Weights,
			Exclude:   excluded,
			GradYears: p.Overrides.GradYears,
			Teams:     p.Overrides.Teams,
		},
		SectionDivision: sectionDivision(p.Info),
		Teams:           p.Board.Teams,
		Weights:         p.Board.Rankings,
		Wrestlers:       sortedAthletes(p.Board.Athletes),
	}
}

// Write marshals the payload with indentation and writes it to path, creating
// parent directories as needed.
func Write(path string, payload Payload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// Render prints the per-class rankings to w in a terminal-friendly form.
func Render(w io.Writer, p Params) {
	fmt.Fprintf(w, "Processed %d matches across %d monthly periods.\n", p.MatchCount, p.PeriodCount)
	for _, class := range p.WeightClasses {
		ranking := p.Board.Rankings[class]
		if len(ranking) == 0 {
			continue
		}
		fmt.Fprintf(w, "\nWeight %s\n", class)
		for idx, id := range ranking {
			entry, ok := p.Board.Athletes[id]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%2d. %s (%s) — R: %g RD: %g σ: %g\n",
				idx+1, entry.Name, entry.ID, entry.Rating, entry.RD, entry.Sigma)
		}
	}
}

// sortedAthletes orders the registry by descending rating, then name, then id.
func sortedAthletes(registry map[string]leaderboard.Athlete) []leaderboard.Athlete {
	out := make([]leaderboard.Athlete, 0, len(registry))
	for _, athlete := range registry {
		out = append(out, athlete)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		ni := strings.ToLower(out[i].Name)
		nj := strings.ToLower(out[j].Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// sectionDivision collects the distinct non-empty sections and divisions.
func sectionDivision(info map[string]model.AthleteInfo) SectionDivision {
	sectionSet := make(map[string]struct{})
	divisionSet := make(map[string]struct{})
	for _, meta := range info {
		if meta.Section != "" {
			sectionSet[meta.Section] = struct{}{}
		}
		if meta.Division != "" {
			divisionSet[meta.Division] = struct{}{}
		}
	}
	sections := make([]string, 0, len(sectionSet))
	for s := range sectionSet {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	divisions := make([]string, 0, len(divisionSet))
	for d := range divisionSet {
		divisions = append(divisions, d)
	}
	sort.Strings(divisions)
	return SectionDivision{Sections: sections, Divisions: divisions}
}
