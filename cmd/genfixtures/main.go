// Command genfixtures seeds a database with synthetic teams, wrestlers,
// events, and matches for local development and demos.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matrank/matrank/internal/adapters/repository"
	"github.com/matrank/matrank/internal/fixtures"
	"github.com/matrank/matrank/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	dbPath := flag.String("db", "data.db", "path to the sqlite database to seed")
	teams := flag.Int("teams", 0, "number of teams to generate (0 uses the default)")
	wrestlers := flag.Int("wrestlers", 0, "wrestlers per team (0 uses the default)")
	events := flag.Int("events", 0, "number of events to generate (0 uses the default)")
	matches := flag.Int("matches", 0, "matches per event (0 uses the default)")
	seed := flag.Int64("seed", 1, "random seed; the same seed reproduces the same dataset")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	log := logger.Get().Named("genfixtures")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := fixtures.NewConfig()
	cfg.Seed = *seed
	if *teams > 0 {
		cfg.Teams = *teams
	}
	if *wrestlers > 0 {
		cfg.WrestlersPerTeam = *wrestlers
	}
	if *events > 0 {
		cfg.Events = *events
	}
	if *matches > 0 {
		cfg.MatchesPerEvent = *matches
	}

	store, err := repository.Open(*dbPath)
	if err != nil {
		log.Error(ctx, "failed to open database", logger.String("path", *dbPath), logger.Error(err))
		return 1
	}
	defer func() { _ = store.Close() }()

	start := time.Now()
	dataset := fixtures.Generate(cfg)
	if err := fixtures.Seed(ctx, store, dataset); err != nil {
		log.Error(ctx, "failed to seed database", logger.Error(err))
		return 1
	}

	log.Info(ctx, "seeded database",
		logger.String("path", *dbPath),
		logger.Int("teams", len(dataset.Teams)),
		logger.Int("wrestlers", len(dataset.Wrestlers)),
		logger.Int("events", len(dataset.Events)),
		logger.Int("matches", len(dataset.Matches)),
		logger.Duration("took", time.Since(start)),
	)
	return 0
}
