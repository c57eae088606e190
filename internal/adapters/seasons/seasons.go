// Package seasons loads season boundary metadata from a JSON file.
package seasons

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matrank/matrank/internal/domain/model"
)

// record mirrors one entry of the seasons file.
type record struct {
	Name    string `json:"name"`
	Regular struct {
		StartDate string `json:"start_date"`
	} `json:"regular"`
	Post struct {
		EndDate string `json:"end_date"`
	} `json:"post"`
}

// Load reads a seasons file and returns the records in file order. Records
// with missing or unparseable boundary dates are kept but flagged so the
// partitioner can skip them; only an unreadable file is an error.
func Load(path string) ([]model.Season, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seasons file: %w", err)
	}
	return Parse(data)
}

// Parse decodes seasons JSON.
func Parse(data []byte) ([]model.Season, error) {
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("seasons must be a JSON array: %w", err)
	}

	out := make([]model.Season, 0, len(records))
	for _, rec := range records {
		season := model.Season{Name: rec.Name}
		if season.Name == "" {
			season.Name = "unknown"
		}
		if rec.Regular.StartDate != "" && rec.Post.EndDate != "" {
			start, startErr := model.ParseDate(rec.Regular.StartDate)
			end, endErr := model.ParseDate(rec.Post.EndDate)
			if startErr == nil && endErr == nil {
				season.RegularStart = start
				season.PostEnd = end
				season.HasDates = true
			}
		}
		out = append(out, season)
	}
	return out, nil
}
