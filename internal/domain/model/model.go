// Package model contains the rating domain types passed between layers.
package model

import (
	"fmt"
	"time"
)

// Glicko-2 defaults for an unrated player.
const (
	DefaultRating     = 1500.0
	DefaultRD         = 350.0
	DefaultVolatility = 0.06
	DefaultTau        = 0.5
)

// RatingState is a player's skill estimate: rating centered near 1500,
// rating deviation in (0, 350], and volatility > 0.
type RatingState struct {
	Rating     float64
	RD         float64
	Volatility float64
}

// Params holds the process-wide Glicko-2 constants. Tau constrains how much
// volatility can change per period; typical values are 0.3 to 1.2.
type Params struct {
	DefaultRating     float64
	DefaultRD         float64
	DefaultVolatility float64
	Tau               float64
}

// DefaultParams returns the standard Glicko-2 parameters.
func DefaultParams() Params {
	return Params{
		DefaultRating:     DefaultRating,
		DefaultRD:         DefaultRD,
		DefaultVolatility: DefaultVolatility,
		Tau:               DefaultTau,
	}
}

// DefaultState returns the starting state for a player with no history.
func (p Params) DefaultState() RatingState {
	return RatingState{
		Rating:     p.DefaultRating,
		RD:         p.DefaultRD,
		Volatility: p.DefaultVolatility,
	}
}

// ScopeType distinguishes the contexts a rating is computed within.
type ScopeType string

const (
	ScopeGlobal ScopeType = "global"
	ScopeGame   ScopeType = "game"
)

// Scope identifies one rating context. Ratings are computed and stored
// independently per scope. GameID is empty for the global scope.
type Scope struct {
	Type   ScopeType
	GameID string
}

// GlobalScope returns the scope covering all contests.
func GlobalScope() Scope { return Scope{Type: ScopeGlobal} }

// GameScope returns the scope covering contests of one game.
func GameScope(gameID string) Scope {
	return Scope{Type: ScopeGame, GameID: gameID}
}

func (s Scope) String() string {
	if s.Type == ScopeGame {
		return fmt.Sprintf("game:%s", s.GameID)
	}
	return string(ScopeGlobal)
}

// OpponentSample is one pairwise comparison against one opponent within one
// period. Opponent values are the pre-period snapshot so every sample in a
// period references the same baseline.
type OpponentSample struct {
	OppRating float64
	OppRD     float64
	// 1 win, 0.5 draw, 0 loss.
	Score  float64
	Weight float64
}

// PlayerPeriodRecord is the latest snapshot for (player, scope). It is
// overwritten on every period close, never versioned.
type PlayerPeriodRecord struct {
	PlayerID      string
	Scope         Scope
	State         RatingState
	GamesPlayed   int
	LastPeriodEnd time.Time
	UpdatedAt     time.Time
}

// RatingHistoryPoint is the state of (player, scope) at one period's close,
// with the period's tallies. Append-only, one point per period end.
type RatingHistoryPoint struct {
	PlayerID    string
	Scope       Scope
	PeriodEnd   time.Time
	State       RatingState
	PeriodGames int
	Wins        int
	Losses      int
	Draws       int
}

// PeriodOutcome is the tagged result of a player's period: either evidence
// was collected (samples) or the player was inactive for a number of whole
// calendar months.
type PeriodOutcome struct {
	samples []OpponentSample
	elapsed int
}

// Updated marks a player as having evidence this period.
func Updated(samples []OpponentSample) PeriodOutcome {
	return PeriodOutcome{samples: samples}
}

// Inactive marks a player as having no evidence this period.
func Inactive(elapsedPeriods int) PeriodOutcome {
	return PeriodOutcome{elapsed: elapsedPeriods}
}

// Samples returns the period's samples and whether the player was active.
func (o PeriodOutcome) Samples() ([]OpponentSample, bool) {
	return o.samples, len(o.samples) > 0
}

// Elapsed returns the number of whole periods the player has been inactive.
func (o PeriodOutcome) Elapsed() int { return o.elapsed }
