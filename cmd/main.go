// Command ladder drives the periodic skill-rating engine: recompute one
// month, replay the full history, or read the leaderboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ladderhq/ladder/internal/adapters/contests"
	"github.com/ladderhq/ladder/internal/adapters/repository"
	"github.com/ladderhq/ladder/internal/app"
	"github.com/ladderhq/ladder/internal/config"
	"github.com/ladderhq/ladder/internal/domain/model"
	"github.com/ladderhq/ladder/pkg/logger"
	"github.com/ladderhq/ladder/pkg/metrics"
)

const usage = `usage: ladder <command> [flags]

commands:
  recompute    recompute one rating period (default: previous month)
  backfill     clear ratings and replay all history month by month
  leaderboard  print the current standings
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ladder:", err)
		os.Exit(1)
	}
}

func run() error {
	// Local runs keep their DSN and friends in a .env file.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return err
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.Error(err))
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	switch os.Args[1] {
	case "recompute":
		fs := flag.NewFlagSet("recompute", flag.ExitOnError)
		periodStr := fs.String("period", "", `target month as "YYYY-MM" (default: previous month)`)
		if err := fs.Parse(os.Args[2:]); err != nil {
			return err
		}
		svc, err := newService(ctx, cfg, store)
		if err != nil {
			return err
		}
		return svc.RecomputePeriod(ctx, *periodStr)

	case "backfill":
		svc, err := newService(ctx, cfg, store)
		if err != nil {
			return err
		}
		return svc.BackfillAllHistory(ctx)

	case "leaderboard":
		fs := flag.NewFlagSet("leaderboard", flag.ExitOnError)
		gameID := fs.String("game", "", "game scope (default: global)")
		minGames := fs.Int("min-games", cfg.MinGames, "minimum games played")
		limit := fs.Int("limit", 25, "maximum rows")
		if err := fs.Parse(os.Args[2:]); err != nil {
			return err
		}
		scope := model.GlobalScope()
		if *gameID != "" {
			scope = model.GameScope(*gameID)
		}
		rows, err := store.Leaderboard(ctx, scope, *minGames, *limit)
		if err != nil {
			return err
		}
		printLeaderboard(rows)
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

func newService(_ context.Context, cfg *config.Config, store repository.Store) (*app.Service, error) {
	if cfg.ContestsFile == "" {
		return nil, fmt.Errorf("contests_file is required to recompute ratings")
	}
	source, err := contests.OpenJSONL(cfg.ContestsFile)
	if err != nil {
		return nil, fmt.Errorf("open contests file: %w", err)
	}
	return app.New(source, store,
		app.WithTau(cfg.Tau),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
	), nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pg, err := repository.OpenPG(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return pg, pg.Close, nil
	default:
		return repository.NewMemStore(), func() {}, nil
	}
}

func serveMetrics(ctx context.Context, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Get().Error(ctx, "metrics listener failed", logger.Error(err))
	}
}

func printLeaderboard(rows []model.PlayerPeriodRecord) {
	fmt.Printf("%-4s %-24s %8s %7s %6s\n", "#", "player", "rating", "rd", "games")
	for i, rec := range rows {
		fmt.Printf("%-4d %-24s %8.1f %7.1f %6d\n",
			i+1, rec.PlayerID, rec.State.Rating, rec.State.RD, rec.GamesPlayed)
	}
}
