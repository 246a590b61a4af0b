// Package samples turns raw contest placements into pairwise opponent
// comparisons for one rating period.
package samples

import (
	"github.com/ladderhq/ladder/internal/adapters/contests"
	"github.com/ladderhq/ladder/internal/domain/model"
)

// ContestResult couples a contest with its placements.
type ContestResult struct {
	ContestID  string
	Placements []contests.Placement
}

// Tally is one player's per-period record aggregation: contests appeared in,
// first places, and everything else.
type Tally struct {
	Games  int
	Wins   int
	Losses int
}

// Built is the sample builder output for one period.
type Built struct {
	Samples map[string][]model.OpponentSample
	Tallies map[string]Tally
}

// Snapshot resolves a player's pre-period rating state. Every opponent value
// in a period's samples comes through here, so all samples reference the
// same baseline no matter the processing order.
type Snapshot func(playerID string) model.RatingState

// Build emits one OpponentSample per ordered pair of distinct placed
// participants in each contest. Contests with fewer than two placed
// participants contribute nothing. Score is 1 for a better (lower) place,
// 0 for a worse one, and 0.5 for a tie; all weights are 1.
func Build(results []ContestResult, snapshot Snapshot) Built {
	out := Built{
		Samples: make(map[string][]model.OpponentSample),
		Tallies: make(map[string]Tally),
	}

	for _, contest := range results {
		placed := make([]contests.Placement, 0, len(contest.Placements))
		for _, p := range contest.Placements {
			if p.Placed() {
				placed = append(placed, p)
			}
		}
		if len(placed) < 2 {
			continue
		}

		for _, p := range placed {
			for _, opp := range placed {
				if p.PlayerID == opp.PlayerID {
					continue
				}
				oppState := snapshot(opp.PlayerID)
				out.Samples[p.PlayerID] = append(out.Samples[p.PlayerID], model.OpponentSample{
					OppRating: oppState.Rating,
					OppRD:     oppState.RD,
					Score:     score(*p.Place, *opp.Place),
					Weight:    1.0,
				})
			}

			t := out.Tallies[p.PlayerID]
			t.Games++
			if *p.Place == 1 {
				t.Wins++
			} else {
				t.Losses++
			}
			out.Tallies[p.PlayerID] = t
		}
	}

	return out
}

func score(place, oppPlace int) float64 {
	switch {
	case place < oppPlace:
		return 1.0
	case place > oppPlace:
		return 0.0
	default:
		return 0.5
	}
}
