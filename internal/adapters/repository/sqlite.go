package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/pressly/goose/v3"

	"github.com/matrank/matrank/internal/domain/model"
	"github.com/matrank/matrank/internal/domain/schedule"
	"github.com/matrank/matrank/pkg/logger"
	"github.com/matrank/matrank/pkg/metrics"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Connection pool and query sizing constants.
const (
	maxOpenConns = 4
	maxIdleConns = 2
	connLifetime = time.Hour

	// idChunkSize keeps IN(...) parameter lists under sqlite's variable cap.
	idChunkSize = 500

	seniorGrade = 12
)

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets a custom logger for the store.
func WithLogger(log logger.Logger) Option {
	return func(s *SQLiteStore) {
		if log != nil {
			s.logger = log
		}
	}
}

// SQLiteStore implements Store on a local sqlite database holding the
// scraped events, teams, wrestlers and matches tables.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

// Open connects to the sqlite database at path, tunes it and applies the
// embedded schema migrations.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connLifetime)

	s := &SQLiteStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("repository")
	}

	if err := s.tune(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Debug(context.Background(), "database ready", logger.String("path", path))
	return s, nil
}

func (s *SQLiteStore) tune() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("set %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *SQLiteStore) migrate() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MatchesBetween implements Store. Roster and weight-class restrictions are
// applied in Go after the date-range scan; malformed rows are skipped, not
// fatal.
func (s *SQLiteStore) MatchesBetween(
	ctx context.Context,
	start, end time.Time,
	roster map[string]struct{},
	weightClasses map[string]struct{},
) ([]model.MatchResult, error) {
	defer metrics.ObserveStoreQuery("matches_between", time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, COALESCE(m.date, e.date), m.topId, m.bottomId,
		       m.winnerId, m.winType, m.weightClass
		FROM matches m
		LEFT JOIN events e ON e.id = m.eventId`)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var matches []model.MatchResult
	skipped := 0
	for rows.Next() {
		var id string
		var date, topID, bottomID, winnerID, winType, weightClass sql.NullString
		if err := rows.Scan(&id, &date, &topID, &bottomID, &winnerID, &winType, &weightClass); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if !date.Valid || !topID.Valid || !bottomID.Valid {
			skipped++
			continue
		}
		when, err := model.ParseDate(date.String)
		if err != nil {
			skipped++
			continue
		}
		if when.Before(start) || !when.Before(end) {
			continue
		}
		if roster != nil {
			_, topIn := roster[topID.String]
			_, bottomIn := roster[bottomID.String]
			if !topIn && !bottomIn {
				continue
			}
		}
		if weightClasses != nil {
			if _, ok := weightClasses[weightClass.String]; !ok {
				continue
			}
		}
		matches = append(matches, model.MatchResult{
			ID:          id,
			Date:        when,
			TopID:       topID.String,
			BottomID:    bottomID.String,
			WinnerID:    winnerID.String,
			WinType:     winType.String,
			WeightClass: weightClass.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	if skipped > 0 {
		s.logger.Warn(ctx, "skipped malformed match rows", logger.Int("count", skipped))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Date.Before(matches[j].Date)
	})
	return matches, nil
}

// ActiveWrestlers implements Store.
func (s *SQLiteStore) ActiveWrestlers(ctx context.Context, minWins int) ([]string, error) {
	defer metrics.ObserveStoreQuery("active_wrestlers", time.Now())

	rows, err := s.db.QueryContext(ctx, `
		SELECT winnerId FROM matches
		WHERE winnerId IS NOT NULL AND winnerId != ''
		GROUP BY winnerId
		HAVING COUNT(*) >= ?
		ORDER BY winnerId`, minWins)
	if err != nil {
		return nil, fmt.Errorf("query active wrestlers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan wrestler id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active wrestlers: %w", err)
	}
	return ids, nil
}

// WrestlerInfo implements Store. The graduation year is derived from the
// recorded grade and the school year the grade was recorded in.
func (s *SQLiteStore) WrestlerInfo(ctx context.Context, ids []string) (map[string]model.AthleteInfo, error) {
	defer metrics.ObserveStoreQuery("wrestler_info", time.Now())

	info := make(map[string]model.AthleteInfo, len(ids))
	for _, chunk := range chunkIDs(ids) {
		query := `
			SELECT w.id, w.name, w.grade, w.gradeDate, w.teamId,
			       t.name, t.section, t.division
			FROM wrestlers w
			LEFT JOIN teams t ON t.id = w.teamId
			WHERE w.id IN (` + placeholders(len(chunk)) + `)`
		rows, err := s.db.QueryContext(ctx, query, chunk...)
		if err != nil {
			return nil, fmt.Errorf("query wrestler info: %w", err)
		}
		for rows.Next() {
			var id string
			var name, gradeDate, teamID, teamName, section, division sql.NullString
			var grade sql.NullInt64
			if err := rows.Scan(&id, &name, &grade, &gradeDate, &teamID, &teamName, &section, &division); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan wrestler info: %w", err)
			}
			info[id] = model.AthleteInfo{
				Name:     name.String,
				TeamID:   teamID.String,
				TeamName: teamName.String,
				Section:  section.String,
				Division: division.String,
				GradYear: gradYear(grade, gradeDate),
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate wrestler info: %w", err)
		}
		rows.Close()
	}
	return info, nil
}

// TeamMetadata implements Store.
func (s *SQLiteStore) TeamMetadata(ctx context.Context, ids []string) (map[string]model.TeamMeta, error) {
	defer metrics.ObserveStoreQuery("team_metadata", time.Now())

	meta := make(map[string]model.TeamMeta, len(ids))
	for _, chunk := range chunkIDs(ids) {
		query := `
			SELECT id, name, section, division FROM teams
			WHERE id IN (` + placeholders(len(chunk)) + `)`
		rows, err := s.db.QueryContext(ctx, query, chunk...)
		if err != nil {
			return nil, fmt.Errorf("query team metadata: %w", err)
		}
		for rows.Next() {
			var id string
			var name, section, division sql.NullString
			if err := rows.Scan(&id, &name, &section, &division); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan team metadata: %w", err)
			}
			meta[id] = model.TeamMeta{
				Name:     name.String,
				Section:  section.String,
				Division: division.String,
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate team metadata: %w", err)
		}
		rows.Close()
	}
	return meta, nil
}

// gradYear converts a recorded grade into the spring graduation year: a
// wrestler in grade g during school year y graduates in y + (13 - g).
func gradYear(grade sql.NullInt64, gradeDate sql.NullString) int {
	if !grade.Valid || !gradeDate.Valid {
		return 0
	}
	recorded, err := model.ParseDate(gradeDate.String)
	if err != nil {
		return 0
	}
	return schedule.SchoolYear(recorded) + (seniorGrade + 1 - int(grade.Int64))
}

func chunkIDs(ids []string) [][]any {
	var chunks [][]any
	for i := 0; i < len(ids); i += idChunkSize {
		end := i + idChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := make([]any, 0, end-i)
		for _, id := range ids[i:end] {
			chunk = append(chunk, id)
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func placeholders(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}
