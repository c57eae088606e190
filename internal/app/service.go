// Package app orchestrates the full rating pipeline: season partitioning,
// match bucketing, tau calibration, the final simulation, and leaderboard
// assembly.
package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matrank/matrank/internal/adapters/repository"
	"github.com/matrank/matrank/internal/adapters/seasons"
	"github.com/matrank/matrank/internal/config"
	"github.com/matrank/matrank/internal/domain/calibrate"
	"github.com/matrank/matrank/internal/domain/leaderboard"
	"github.com/matrank/matrank/internal/domain/model"
	"github.com/matrank/matrank/internal/domain/overrides"
	"github.com/matrank/matrank/internal/domain/schedule"
	"github.com/matrank/matrank/pkg/logger"
	"github.com/matrank/matrank/pkg/metrics"
)

// Service runs the rating pipeline against a match store.
type Service struct {
	store repository.Store
	cfg   *config.Config

	logger logger.Logger
	now    func() time.Time
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithClock overrides the time source. Useful in tests and for reproducing
// historical runs where "now" clips the period sequence.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service over the given store and configuration.
func New(store repository.Store, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}
	return s
}

// Output is everything a renderer needs from one finished run.
type Output struct {
	Tau           float64
	Tuned         bool
	Metrics       calibrate.Metrics
	MatchCount    int
	PeriodCount   int
	WeightClasses []string
	GradYear      int
	Overrides     overrides.Set
	Info          map[string]model.AthleteInfo
	Board         leaderboard.Board
}

// Run executes the pipeline end to end. Empty intermediate stages surface as
// the sentinel errors in this package so callers can report them as outcomes
// rather than failures.
func (s *Service) Run(ctx context.Context) (*Output, error) {
	now := s.now().UTC()

	seasonList, err := seasons.Load(s.cfg.SeasonsPath)
	if err != nil {
		return nil, err
	}
	if len(seasonList) == 0 {
		return nil, ErrNoSeasons
	}

	filter, err := s.periodFilter()
	if err != nil {
		return nil, err
	}
	periods := schedule.BuildPeriods(seasonList, filter, now)
	if len(periods) == 0 {
		return nil, ErrNoPeriods
	}
	metrics.RecordPeriodsProcessed(len(periods))

	ovr, skipped, err := overrides.Load(s.cfg.OverridesPath)
	if err != nil {
		return nil, err
	}
	for _, id := range skipped {
		s.logger.Warn(ctx, "skipping malformed override entry", logger.String("id", id))
	}

	active, err := s.store.ActiveWrestlers(ctx, s.cfg.MinWins)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNoActiveWrestlers
	}

	roster := make(map[string]struct{}, len(active))
	for _, id := range active {
		roster[id] = struct{}{}
	}
	for id := range ovr.IDs() {
		if _, excluded := ovr.Exclude[id]; excluded {
			continue
		}
		roster[id] = struct{}{}
	}

	classes, weightFilter := s.weightClasses()

	matches, err := s.store.MatchesBetween(ctx, periods[0].Start, periods[len(periods)-1].End, roster, weightFilter)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrNoMatches
	}

	wins, losses := leaderboard.TallyRecords(matches)
	buckets := schedule.BucketMatches(periods, matches)

	rosterIDs := make([]string, 0, len(roster))
	for id := range roster {
		rosterIDs = append(rosterIDs, id)
	}
	sort.Strings(rosterIDs)

	tau := s.cfg.Tau
	tuned := false
	var tauMetrics calibrate.Metrics
	if tau == 0 {
		candidates := s.cfg.TauCandidates
		if len(candidates) == 0 {
			candidates = calibrate.DefaultTauCandidates()
		}
		result, err := calibrate.Search(ctx, periods, buckets, rosterIDs, candidates)
		if err != nil {
			return nil, err
		}
		metrics.RecordCalibrationRuns(len(candidates))
		tau = result.Tau
		tauMetrics = result.Metrics
		tuned = true
		s.logger.Info(ctx, "tuned tau",
			logger.Float64("tau", tau),
			logger.Float64("brier", tauMetrics.Brier),
			logger.Float64("accuracy", tauMetrics.Accuracy),
		)
	} else {
		s.logger.Info(ctx, "using provided tau", logger.Float64("tau", tau))
	}

	simStart := time.Now()
	res, err := calibrate.Run(periods, buckets, rosterIDs, tau)
	if err != nil {
		return nil, err
	}
	metrics.ObserveSimulationDuration(simStart)
	metrics.RecordMatchesRated(len(res.Predictions))
	metrics.RecordMatchesSkipped(len(matches) - len(res.Predictions))
	metrics.UpdateTrackedAthletes(len(res.Ratings))

	ratedIDs := make([]string, 0, len(res.Ratings))
	for id := range res.Ratings {
		ratedIDs = append(ratedIDs, id)
	}
	sort.Strings(ratedIDs)

	info, err := s.store.WrestlerInfo(ctx, ratedIDs)
	if err != nil {
		return nil, err
	}

	allowed := s.allowedIDs(res, info, ovr, now)
	if len(allowed) == 0 {
		return nil, ErrAllFiltered
	}

	teamMeta, err := s.applyTeamOverrides(ctx, info, ovr, allowed)
	if err != nil {
		return nil, err
	}

	board := leaderboard.Build(res, leaderboard.Params{
		WeightClasses:   classes,
		Limit:           s.cfg.Limit,
		Allowed:         allowed,
		Info:            info,
		WeightOverrides: ovr.Weights,
		Wins:            wins,
		Losses:          losses,
		TeamMeta:        teamMeta,
	})
	metrics.RecordLeaderboardBuild()

	return &Output{
		Tau:           tau,
		Tuned:         tuned,
		Metrics:       tauMetrics,
		MatchCount:    len(matches),
		PeriodCount:   len(periods),
		WeightClasses: classes,
		GradYear:      s.cfg.GradYear,
		Overrides:     ovr,
		Info:          info,
		Board:         board,
	}, nil
}

// periodFilter translates configured season names and date overrides into a
// schedule filter. The configured end date is inclusive; periods are half-open.
func (s *Service) periodFilter() (schedule.Filter, error) {
	filter := schedule.Filter{}
	if len(s.cfg.Seasons) > 0 {
		filter.Seasons = make(map[string]struct{}, len(s.cfg.Seasons))
		for _, name := range s.cfg.Seasons {
			filter.Seasons[name] = struct{}{}
		}
	}
	if s.cfg.StartDate != "" {
		start, err := model.ParseDate(s.cfg.StartDate)
		if err != nil {
			return schedule.Filter{}, fmt.Errorf("parse start_date: %w", err)
		}
		filter.Start = start
	}
	if s.cfg.EndDate != "" {
		end, err := model.ParseDate(s.cfg.EndDate)
		if err != nil {
			return schedule.Filter{}, fmt.Errorf("parse end_date: %w", err)
		}
		filter.End = end.Add(24 * time.Hour)
	}
	return filter, nil
}

// weightClasses resolves the configured class selection into the ranking
// classes and the optional match-feed filter. Empty or "all" ranks the default
// classes without restricting the feed.
func (s *Service) weightClasses() ([]string, map[string]struct{}) {
	if len(s.cfg.WeightClasses) == 0 {
		return leaderboard.DefaultWeightClasses(), nil
	}
	if len(s.cfg.WeightClasses) == 1 && strings.EqualFold(s.cfg.WeightClasses[0], "all") {
		return leaderboard.DefaultWeightClasses(), nil
	}
	filter := make(map[string]struct{}, len(s.cfg.WeightClasses))
	for _, class := range s.cfg.WeightClasses {
		filter[class] = struct{}{}
	}
	return s.cfg.WeightClasses, filter
}

// allowedIDs applies exclusions and graduation-year filtering to the rated
// pool. Athletes with no known graduation year stay eligible unless a target
// year is requested; graduated athletes are dropped either way.
func (s *Service) allowedIDs(
	res model.RunResult,
	info map[string]model.AthleteInfo,
	ovr overrides.Set,
	now time.Time,
) map[string]struct{} {
	gradYears := make(map[string]int, len(info))
	for id, meta := range info {
		gradYears[id] = meta.GradYear
	}
	for id, year := range ovr.GradYears {
		gradYears[id] = year
	}
	currentSchoolYear := schedule.SchoolYear(now)

	allowed := make(map[string]struct{})
	for id := range info {
		if _, excluded := ovr.Exclude[id]; excluded {
			continue
		}
		year := gradYears[id]
		if s.cfg.GradYear != 0 {
			if year != 0 && year == s.cfg.GradYear && year > currentSchoolYear {
				allowed[id] = struct{}{}
			}
			continue
		}
		if year == 0 || year > currentSchoolYear {
			allowed[id] = struct{}{}
		}
	}

	// Rated athletes the store knows nothing about stay visible unless an
	// override marks them graduated; a target year has no way to match them.
	if s.cfg.GradYear == 0 {
		for id := range res.Ratings {
			if _, known := info[id]; known {
				continue
			}
			if _, excluded := ovr.Exclude[id]; excluded {
				continue
			}
			if year, ok := ovr.GradYears[id]; ok && year <= currentSchoolYear {
				continue
			}
			allowed[id] = struct{}{}
		}
	}
	return allowed
}

// applyTeamOverrides rewrites athlete team assignments from the overrides and
// assembles the team metadata map for roster display, filling gaps from the
// athletes' own records.
func (s *Service) applyTeamOverrides(
	ctx context.Context,
	info map[string]model.AthleteInfo,
	ovr overrides.Set,
	allowed map[string]struct{},
) (map[string]model.TeamMeta, error) {
	overrideTeams := make([]string, 0, len(ovr.Teams))
	seen := make(map[string]struct{}, len(ovr.Teams))
	for _, teamID := range ovr.Teams {
		if _, ok := seen[teamID]; ok {
			continue
		}
		seen[teamID] = struct{}{}
		overrideTeams = append(overrideTeams, teamID)
	}
	sort.Strings(overrideTeams)

	teamMeta := make(map[string]model.TeamMeta)
	if len(overrideTeams) > 0 {
		fetched, err := s.store.TeamMetadata(ctx, overrideTeams)
		if err != nil {
			return nil, err
		}
		for id, meta := range fetched {
			teamMeta[id] = meta
		}
	}

	for id, teamID := range ovr.Teams {
		entry := info[id]
		entry.TeamID = teamID
		if meta, ok := teamMeta[teamID]; ok {
			entry.TeamName = meta.Name
			entry.Section = meta.Section
			entry.Division = meta.Division
		}
		info[id] = entry
	}

	for id := range allowed {
		meta, ok := info[id]
		if !ok || meta.TeamID == "" {
			continue
		}
		team := teamMeta[meta.TeamID]
		if team.Name == "" && meta.TeamName != "" {
			team.Name = meta.TeamName
		}
		if team.Section == "" && meta.Section != "" {
			team.Section = meta.Section
		}
		if team.Division == "" && meta.Division != "" {
			team.Division = meta.Division
		}
		teamMeta[meta.TeamID] = team
	}
	return teamMeta, nil
}
