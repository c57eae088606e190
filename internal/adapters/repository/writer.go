package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/matrank/matrank/internal/domain/model"
)

// Write helpers used by the scraper import path and the fixture seeder. The
// Store interface stays read-only; callers that ingest data work with the
// concrete SQLiteStore.

// InsertTeam upserts one team row.
func (s *SQLiteStore) InsertTeam(ctx context.Context, id string, meta model.TeamMeta) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, name, section, division) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name,
			section = excluded.section, division = excluded.division`,
		id, meta.Name, meta.Section, meta.Division)
	if err != nil {
		return fmt.Errorf("insert team %s: %w", id, err)
	}
	return nil
}

// InsertWrestler upserts one wrestler row.
func (s *SQLiteStore) InsertWrestler(ctx context.Context, id, name string, grade int, gradeDate time.Time, teamID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wrestlers (id, name, grade, gradeDate, teamId) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, grade = excluded.grade,
			gradeDate = excluded.gradeDate, teamId = excluded.teamId`,
		id, name, grade, gradeDate.UTC().Format(time.RFC3339), teamID)
	if err != nil {
		return fmt.Errorf("insert wrestler %s: %w", id, err)
	}
	return nil
}

// InsertEvent upserts one event row.
func (s *SQLiteStore) InsertEvent(ctx context.Context, id, name string, date time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, name, date) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, date = excluded.date`,
		id, name, date.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert event %s: %w", id, err)
	}
	return nil
}

// InsertMatch inserts one match row, ignoring duplicates by id.
func (s *SQLiteStore) InsertMatch(ctx context.Context, match model.MatchResult, eventID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (id, date, topId, bottomId, winnerId, winType, eventId, weightClass)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		match.ID, match.Date.UTC().Format(time.RFC3339), match.TopID, match.BottomID,
		match.WinnerID, match.WinType, eventID, match.WeightClass)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", match.ID, err)
	}
	return nil
}
