// Package overrides parses per-athlete manual override files into a typed
// set: forced weight class, exclusion, graduation year and team assignment.
package overrides

import (
	"encoding/json"
	"fmt"
	"os"
)

// entry is the object form of one override. A bare JSON string is shorthand
// for {"weight": ...}.
type entry struct {
	Weight   *string `json:"weight"`
	Exclude  bool    `json:"exclude"`
	GradYear *int    `json:"gradYear"`
	TeamID   *string `json:"teamId"`
}

// Set holds validated overrides keyed by athlete id.
type Set struct {
	Weights   map[string]string
	Exclude   map[string]struct{}
	GradYears map[string]int
	Teams     map[string]string
}

// NewSet returns an empty, usable Set.
func NewSet() Set {
	return Set{
		Weights:   make(map[string]string),
		Exclude:   make(map[string]struct{}),
		GradYears: make(map[string]int),
		Teams:     make(map[string]string),
	}
}

// IDs returns every athlete id carrying a non-exclusion override. These ids
// join the active roster even when the minimum-win filter missed them.
func (s Set) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Weights)+len(s.GradYears)+len(s.Teams))
	for id := range s.Weights {
		ids[id] = struct{}{}
	}
	for id := range s.GradYears {
		ids[id] = struct{}{}
	}
	for id := range s.Teams {
		ids[id] = struct{}{}
	}
	return ids
}

// Parse decodes an overrides JSON object keyed by athlete id. Malformed
// entries are skipped and reported back so the caller can log them; only a
// document that is not a JSON object at all is an error.
func Parse(data []byte) (Set, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Set{}, nil, fmt.Errorf("overrides must be a JSON object keyed by athlete id: %w", err)
	}

	set := NewSet()
	var skipped []string

	for id, value := range raw {
		var weight string
		if err := json.Unmarshal(value, &weight); err == nil {
			set.Weights[id] = weight
			continue
		}

		var e entry
		if err := json.Unmarshal(value, &e); err != nil {
			skipped = append(skipped, id)
			continue
		}
		if e.Weight != nil {
			set.Weights[id] = *e.Weight
		}
		if e.Exclude {
			set.Exclude[id] = struct{}{}
		}
		if e.GradYear != nil {
			set.GradYears[id] = *e.GradYear
		}
		if e.TeamID != nil {
			set.Teams[id] = *e.TeamID
		}
	}

	return set, skipped, nil
}

// Load reads and parses an overrides file. A missing path yields an empty set
// so runs without manual corrections need no file at all.
func Load(path string) (Set, []string, error) {
	if path == "" {
		return NewSet(), nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSet(), nil, nil
		}
		return Set{}, nil, fmt.Errorf("read overrides: %w", err)
	}
	return Parse(data)
}
