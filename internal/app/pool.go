package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ladderhq/ladder/internal/domain/glicko"
	"github.com/ladderhq/ladder/internal/domain/model"
)

// computeJob is one candidate player's work for the period: their pre-period
// state plus either the period's samples or an inactivity span.
type computeJob struct {
	playerID string
	prior    model.RatingState
	outcome  model.PeriodOutcome
}

type computeResult struct {
	playerID string
	state    model.RatingState
	err      error
}

// computeAll fans the period's jobs out over the worker pool and collects
// every new state before anything is written. Each job is a pure function of
// its inputs, so workers share nothing; a computation defect on any player
// fails the whole period.
func (s *Service) computeAll(ctx context.Context, jobs []computeJob) (map[string]model.RatingState, error) {
	out := make(map[string]model.RatingState, len(jobs))
	if len(jobs) == 0 {
		return out, nil
	}

	workers := s.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	jobCh := make(chan computeJob)
	resCh := make(chan computeResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				state, err := s.computeOne(job)
				resCh <- computeResult{playerID: job.playerID, state: state, err: err}
			}
		}()
	}

feed:
	for _, job := range jobs {
		select {
		case jobCh <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobCh)
	wg.Wait()
	close(resCh)

	if err := ctx.Err(); err != nil {
		// Nothing was committed; the period simply did not happen.
		return nil, err
	}

	var firstErr error
	for res := range resCh {
		if res.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("player %s: %w", res.playerID, res.err)
			}
			continue
		}
		out[res.playerID] = res.state
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (s *Service) computeOne(job computeJob) (model.RatingState, error) {
	if smp, ok := job.outcome.Samples(); ok {
		return glicko.Update(job.prior, smp, s.params)
	}
	return glicko.Inflate(job.prior, job.outcome.Elapsed(), s.params), nil
}
