// Package repository defines the rating store interface and its
// implementations.
package repository

import (
	"context"

	"github.com/ladderhq/ladder/internal/domain/model"
)

// Store provides access to the two logical rating stores: the latest
// snapshot per (player, scope) and the append-only per-period history.
//
// The batch orchestrator exclusively owns the write path while a period is
// processed; the query methods only read.
type Store interface {
	// UpsertLatest replaces the latest record for (player, scope).
	UpsertLatest(ctx context.Context, rec model.PlayerPeriodRecord) error

	// AppendHistory writes one history point. The orchestrator calls it
	// at most once per (player, scope, period end) within a run;
	// re-running the same period replaces that period's point so reruns
	// stay idempotent.
	AppendHistory(ctx context.Context, pt model.RatingHistoryPoint) error

	// LatestSnapshot returns every latest record in a scope, keyed by
	// player id. This is the pre-period baseline for a recompute.
	LatestSnapshot(ctx context.Context, scope model.Scope) (map[string]model.PlayerPeriodRecord, error)

	// Scopes lists every scope with at least one latest record.
	Scopes(ctx context.Context) ([]model.Scope, error)

	// Leaderboard returns players with at least minGames games, ordered
	// by rating descending then games played descending, capped at limit.
	Leaderboard(ctx context.Context, scope model.Scope, minGames, limit int) ([]model.PlayerPeriodRecord, error)

	// PlayerRatings returns a player's latest records across all scopes.
	PlayerRatings(ctx context.Context, playerID string) ([]model.PlayerPeriodRecord, error)

	// PlayerRatingHistory returns a player's history in a scope, ordered
	// by period end ascending. A positive maxPoints caps the result to
	// the most recent points; order stays ascending.
	PlayerRatingHistory(ctx context.Context, playerID string, scope model.Scope, maxPoints int) ([]model.RatingHistoryPoint, error)

	// ResetScope removes every latest record and history point in a
	// scope. Only a full historical backfill calls this.
	ResetScope(ctx context.Context, scope model.Scope) error
}
