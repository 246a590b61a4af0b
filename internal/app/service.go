// Package app drives the periodic rating recompute: it loads contest data,
// builds samples, updates or inflates every candidate player, and persists
// the period's results.
package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ladderhq/ladder/internal/adapters/contests"
	"github.com/ladderhq/ladder/internal/adapters/repository"
	"github.com/ladderhq/ladder/internal/domain/model"
	"github.com/ladderhq/ladder/internal/domain/period"
	"github.com/ladderhq/ladder/internal/domain/samples"
	"github.com/ladderhq/ladder/pkg/logger"
	"github.com/ladderhq/ladder/pkg/metrics"
)

const defaultMaxLeaderboardLimit = 100

// Service is the batch orchestrator and the query surface over the rating
// store. Periods form a strict sequential dependency chain, so all period
// processing is serialized behind one mutex; within a period, per-player
// computation fans out over a worker pool.
type Service struct {
	source contests.Source
	store  repository.Store

	params   model.Params
	workers  int
	maxLimit int
	now      func() time.Time

	log logger.Logger

	// Guards all period processing. Backfill takes it non-blocking so a
	// second concurrent run fails fast instead of interleaving months.
	mu sync.Mutex
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithParams sets the Glicko-2 parameters.
func WithParams(p model.Params) Option {
	return func(s *Service) { s.params = p }
}

// WithTau overrides only the volatility change constraint.
func WithTau(tau float64) Option {
	return func(s *Service) {
		if tau > 0 {
			s.params.Tau = tau
		}
	}
}

// WithWorkerCount sets the number of parallel per-player computations.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxLeaderboardLimit caps leaderboard query sizes.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock sets the time source, used by tests for stable timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs the orchestrator over a contest source and a rating store.
func New(source contests.Source, store repository.Store, opts ...Option) *Service {
	s := &Service{
		source:   source,
		store:    store,
		params:   model.DefaultParams(),
		workers:  4,
		maxLimit: defaultMaxLeaderboardLimit,
		now:      time.Now,
		log:      logger.Get().Named("orchestrator"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecomputePeriod recomputes one calendar month for every scope. An empty
// periodStr means the previous calendar month. A malformed period string
// fails immediately with period.ErrBadPeriod and no partial work.
func (s *Service) RecomputePeriod(ctx context.Context, periodStr string) error {
	var p period.Period
	if periodStr == "" {
		p = period.Previous(s.now())
	} else {
		var err error
		if p, err = period.Parse(periodStr); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recomputePeriod(ctx, p)
}

// BackfillAllHistory clears all stored ratings and history, then replays
// every calendar month from the earliest contest through the current month
// in strict chronological order. Each month's output is the next month's
// input; months are never processed concurrently.
func (s *Service) BackfillAllHistory(ctx context.Context) error {
	if !s.mu.TryLock() {
		return ErrBackfillInProgress
	}
	defer s.mu.Unlock()

	start := time.Now()
	runID := uuid.NewString()

	earliest, err := s.source.EarliestContestDate(ctx)
	if err != nil {
		return fmt.Errorf("resolve earliest contest: %w", err)
	}

	scopes, err := s.store.Scopes(ctx)
	if err != nil {
		return fmt.Errorf("list scopes: %w", err)
	}
	scopes = append(scopes, model.GlobalScope())
	for _, scope := range scopes {
		if err := s.store.ResetScope(ctx, scope); err != nil {
			return fmt.Errorf("reset scope %s: %w", scope, err)
		}
	}

	first := period.Of(earliest)
	last := period.Of(s.now())
	s.log.Info(ctx, "starting full backfill",
		logger.String("run", runID),
		logger.String("from", first.String()),
		logger.String("to", last.String()),
	)

	months := 0
	for p := first; !last.Before(p); p = p.Add(1) {
		if err := s.recomputePeriod(ctx, p); err != nil {
			return fmt.Errorf("backfill month %s: %w", p, err)
		}
		months++
	}

	metrics.RecordBackfillRun(time.Since(start).Seconds())
	s.log.Info(ctx, "backfill complete",
		logger.String("run", runID),
		logger.Int("months", months),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// loadedContest is a contest with its fetched placements.
type loadedContest struct {
	contest    contests.Contest
	placements []contests.Placement
}

// recomputePeriod runs one month for the global scope and every game scope
// discoverable from the period's contests or the store. Caller holds s.mu.
func (s *Service) recomputePeriod(ctx context.Context, p period.Period) error {
	runID := uuid.NewString()
	start, end := p.Start(), p.End()

	list, err := s.source.ContestsInPeriod(ctx, start, end)
	if err != nil {
		return fmt.Errorf("load contests for %s: %w", p, err)
	}

	// Best-effort per contest: a contest whose results cannot be read is
	// skipped, the rest of the period still contributes samples.
	loaded := make([]loadedContest, 0, len(list))
	for _, c := range list {
		placements, err := s.source.ContestResults(ctx, c.ID)
		if err != nil {
			metrics.RecordContestSkipped()
			s.log.Warn(ctx, "skipping unreadable contest",
				logger.String("run", runID),
				logger.String("contest", c.ID),
				logger.Error(err),
			)
			continue
		}
		loaded = append(loaded, loadedContest{contest: c, placements: placements})
	}

	scopes, err := s.periodScopes(ctx, loaded)
	if err != nil {
		return err
	}
	for _, scope := range scopes {
		scoped := loaded
		if scope.Type == model.ScopeGame {
			scoped = nil
			for _, lc := range loaded {
				if lc.contest.GameID == scope.GameID {
					scoped = append(scoped, lc)
				}
			}
		}
		if err := s.recomputeScope(ctx, runID, scope, scoped, end); err != nil {
			return fmt.Errorf("scope %s: %w", scope, err)
		}
	}
	return nil
}

// periodScopes returns the global scope plus every game scope present in
// this period's contests or already present in the store, in a
// deterministic order. A scope listing failure fails the period: dropping
// stored scopes here would silently skip their inflation and history.
func (s *Service) periodScopes(ctx context.Context, loaded []loadedContest) ([]model.Scope, error) {
	games := make(map[string]struct{})
	for _, lc := range loaded {
		if lc.contest.GameID != "" {
			games[lc.contest.GameID] = struct{}{}
		}
	}
	stored, err := s.store.Scopes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scopes: %w", err)
	}
	for _, scope := range stored {
		if scope.Type == model.ScopeGame {
			games[scope.GameID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(games))
	for id := range games {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	scopes := make([]model.Scope, 0, len(ids)+1)
	scopes = append(scopes, model.GlobalScope())
	for _, id := range ids {
		scopes = append(scopes, model.GameScope(id))
	}
	return scopes, nil
}

// recomputeScope closes one period for one scope: snapshot, compute every
// candidate, then commit all results. No new state is written until every
// candidate's computation has finished, and every sample references the
// pre-period snapshot.
func (s *Service) recomputeScope(ctx context.Context, runID string, scope model.Scope, loaded []loadedContest, periodEnd time.Time) error {
	begin := time.Now()

	snapshot, err := s.store.LatestSnapshot(ctx, scope)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	prior := func(playerID string) model.RatingState {
		if rec, ok := snapshot[playerID]; ok {
			return rec.State
		}
		return s.params.DefaultState()
	}

	results := make([]samples.ContestResult, 0, len(loaded))
	for _, lc := range loaded {
		results = append(results, samples.ContestResult{
			ContestID:  lc.contest.ID,
			Placements: lc.placements,
		})
	}
	built := samples.Build(results, prior)

	sampleCount := 0
	for _, smp := range built.Samples {
		sampleCount += len(smp)
	}
	metrics.AddSamplesBuilt(sampleCount)

	// Candidates: everyone who appeared this period plus everyone the
	// store already knows, so absence still inflates deviations.
	candidates := make(map[string]struct{}, len(snapshot))
	for id := range snapshot {
		candidates[id] = struct{}{}
	}
	for _, lc := range loaded {
		for _, pl := range lc.placements {
			candidates[pl.PlayerID] = struct{}{}
		}
	}

	jobs := make([]computeJob, 0, len(candidates))
	updated, inflated := 0, 0
	for id := range candidates {
		job := computeJob{playerID: id, prior: prior(id)}
		if smp, ok := built.Samples[id]; ok && len(smp) > 0 {
			job.outcome = model.Updated(smp)
			updated++
		} else {
			elapsed := 1
			if rec, ok := snapshot[id]; ok && !rec.LastPeriodEnd.IsZero() {
				if n := period.MonthsBetween(rec.LastPeriodEnd, periodEnd); n > elapsed {
					elapsed = n
				}
			}
			job.outcome = model.Inactive(elapsed)
			inflated++
		}
		jobs = append(jobs, job)
	}

	states, err := s.computeAll(ctx, jobs)
	if err != nil {
		return fmt.Errorf("compute period states: %w", err)
	}

	// Commit all: a persistence failure aborts the period rather than
	// leaving a cross-player inconsistent store.
	now := s.now()
	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		tally := built.Tallies[id]
		games := tally.Games
		if rec, ok := snapshot[id]; ok {
			games += rec.GamesPlayed
		}
		rec := model.PlayerPeriodRecord{
			PlayerID:      id,
			Scope:         scope,
			State:         states[id],
			GamesPlayed:   games,
			LastPeriodEnd: periodEnd,
			UpdatedAt:     now,
		}
		if err := s.store.UpsertLatest(ctx, rec); err != nil {
			return fmt.Errorf("persist latest for player %s: %w", id, err)
		}
		point := model.RatingHistoryPoint{
			PlayerID:    id,
			Scope:       scope,
			PeriodEnd:   periodEnd,
			State:       states[id],
			PeriodGames: tally.Games,
			Wins:        tally.Wins,
			Losses:      tally.Losses,
		}
		if err := s.store.AppendHistory(ctx, point); err != nil {
			return fmt.Errorf("persist history for player %s: %w", id, err)
		}
	}

	metrics.AddPlayersUpdated(updated)
	metrics.AddPlayersInflated(inflated)
	metrics.RecordPeriodProcessed(string(scope.Type), time.Since(begin).Seconds())

	s.log.Info(ctx, "period closed",
		logger.String("run", runID),
		logger.String("scope", scope.String()),
		logger.Time("periodEnd", periodEnd),
		logger.Int("contests", len(loaded)),
		logger.Int("updated", updated),
		logger.Int("inflated", inflated),
		logger.Int("samples", sampleCount),
		logger.Duration("took", time.Since(begin)),
	)
	return nil
}

// Leaderboard returns the scope's standings filtered by minimum games.
func (s *Service) Leaderboard(ctx context.Context, scope model.Scope, minGames, limit int) ([]model.PlayerPeriodRecord, error) {
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return s.store.Leaderboard(ctx, scope, minGames, limit)
}

// PlayerRatings returns a player's latest records across all scopes.
func (s *Service) PlayerRatings(ctx context.Context, playerID string) ([]model.PlayerPeriodRecord, error) {
	return s.store.PlayerRatings(ctx, playerID)
}

// PlayerRatingHistory returns a player's per-period history in one scope.
func (s *Service) PlayerRatingHistory(ctx context.Context, playerID string, scope model.Scope, maxPoints int) ([]model.RatingHistoryPoint, error) {
	return s.store.PlayerRatingHistory(ctx, playerID, scope, maxPoints)
}
