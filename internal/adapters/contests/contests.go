// Package contests defines the read-only contract to the external contest
// repository. Contest, player, and venue management live in another system;
// the rating engine only consumes placement results through this interface.
package contests

import (
	"context"
	"errors"
	"time"
)

// ErrNoContests reports a dataset with no contests at all, so a historical
// backfill has no starting month.
var ErrNoContests = errors.New("no contests in dataset")

// Contest is the minimal contest record the engine needs: identity, the game
// it was played in, and when it started.
type Contest struct {
	ID        string
	GameID    string
	StartTime time.Time
}

// Placement is one participant's result in a contest. Place is nil for a
// participant who registered but was never placed.
type Placement struct {
	PlayerID string
	Place    *int
}

// Placed reports whether the participant finished with a recorded place.
func (p Placement) Placed() bool { return p.Place != nil }

// Source supplies contest data for rating computation.
type Source interface {
	// ContestsInPeriod returns contests whose start time falls in
	// [start, end).
	ContestsInPeriod(ctx context.Context, start, end time.Time) ([]Contest, error)

	// ContestResults returns every participant's placement for a contest.
	ContestResults(ctx context.Context, contestID string) ([]Placement, error)

	// EarliestContestDate returns the start time of the oldest contest,
	// or ErrNoContests when the dataset is empty.
	EarliestContestDate(ctx context.Context) (time.Time, error)
}
