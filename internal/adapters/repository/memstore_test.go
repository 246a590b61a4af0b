package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ladderhq/ladder/internal/domain/model"
)

func record(playerID string, scope model.Scope, rating float64, games int, periodEnd time.Time) model.PlayerPeriodRecord {
	return model.PlayerPeriodRecord{
		PlayerID:      playerID,
		Scope:         scope,
		State:         model.RatingState{Rating: rating, RD: 120, Volatility: 0.06},
		GamesPlayed:   games,
		LastPeriodEnd: periodEnd,
		UpdatedAt:     periodEnd,
	}
}

func monthEnd(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

func TestMemStoreUpsertLatest(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	scope := model.GlobalScope()
	end := monthEnd(2024, time.January)

	if err := store.UpsertLatest(ctx, record("alice", scope, 1550, 3, end)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.UpsertLatest(ctx, record("alice", scope, 1610, 5, monthEnd(2024, time.February))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := store.LatestSnapshot(ctx, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap) != 1 {
		t.Fatalf("snapshot size = %d, want 1 (overwrite, not version)", len(snap))
	}
	if got := snap["alice"]; got.State.Rating != 1610 || got.GamesPlayed != 5 {
		t.Errorf("latest = %+v, want the second write", got)
	}
}

func TestMemStoreLeaderboard(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	scope := model.GlobalScope()
	end := monthEnd(2024, time.March)

	seed := []model.PlayerPeriodRecord{
		record("alice", scope, 1710, 12, end),
		record("bob", scope, 1710, 20, end),
		record("carol", scope, 1820, 6, end),
		record("dave", scope, 1555, 2, end), // below min games
	}
	for _, rec := range seed {
		if err := store.UpsertLatest(ctx, rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	rows, err := store.Leaderboard(ctx, scope, 5, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"carol", "bob", "alice"}
	if len(rows) != len(want) {
		t.Fatalf("rows = %d, want %d", len(rows), len(want))
	}
	for i, id := range want {
		if rows[i].PlayerID != id {
			t.Errorf("rank %d = %s, want %s", i+1, rows[i].PlayerID, id)
		}
	}

	// Equal ratings break ties by games played descending.
	if rows[1].GamesPlayed < rows[2].GamesPlayed {
		t.Errorf("tie not broken by games played: %+v before %+v", rows[1], rows[2])
	}

	// Limit truncates.
	rows, err = store.Leaderboard(ctx, scope, 0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("limited rows = %d, want 2", len(rows))
	}

	if _, err := store.Leaderboard(ctx, scope, 0, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("err = %v, want ErrInvalidLimit", err)
	}
}

func TestMemStorePlayerRatingsAcrossScopes(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	end := monthEnd(2024, time.March)

	scopes := []model.Scope{model.GlobalScope(), model.GameScope("darts"), model.GameScope("pool")}
	for _, scope := range scopes {
		if err := store.UpsertLatest(ctx, record("alice", scope, 1600, 4, end)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	recs, err := store.PlayerRatings(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("records = %d, want one per scope", len(recs))
	}

	if _, err := store.PlayerRatings(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	got, err := store.Scopes(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("scopes = %v, want 3", got)
	}
}

func TestMemStoreHistory(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	scope := model.GlobalScope()

	// Insert out of order; reads must come back ascending.
	months := []time.Month{time.March, time.January, time.February}
	for _, m := range months {
		pt := model.RatingHistoryPoint{
			PlayerID:  "alice",
			Scope:     scope,
			PeriodEnd: monthEnd(2024, m),
			State:     model.RatingState{Rating: 1500 + float64(m), RD: 200, Volatility: 0.06},
		}
		if err := store.AppendHistory(ctx, pt); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	points, err := store.PlayerRatingHistory(ctx, "alice", scope, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("points = %d, want 3", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].PeriodEnd.Before(points[i].PeriodEnd) {
			t.Errorf("history not ascending at %d: %v then %v",
				i, points[i-1].PeriodEnd, points[i].PeriodEnd)
		}
	}

	// A rerun of the same period replaces that period's point.
	rerun := model.RatingHistoryPoint{
		PlayerID:  "alice",
		Scope:     scope,
		PeriodEnd: monthEnd(2024, time.February),
		State:     model.RatingState{Rating: 1999, RD: 100, Volatility: 0.06},
	}
	if err := store.AppendHistory(ctx, rerun); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	points, err = store.PlayerRatingHistory(ctx, "alice", scope, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Errorf("points after rerun = %d, want still 3", len(points))
	}
	if points[1].State.Rating != 1999 {
		t.Errorf("rerun point rating = %f, want 1999", points[1].State.Rating)
	}

	// maxPoints keeps the most recent points, still ascending.
	points, err = store.PlayerRatingHistory(ctx, "alice", scope, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("capped points = %d, want 2", len(points))
	}
	if !points[0].PeriodEnd.Equal(monthEnd(2024, time.February)) ||
		!points[1].PeriodEnd.Equal(monthEnd(2024, time.March)) {
		t.Errorf("capped series = %v then %v, want February and March",
			points[0].PeriodEnd, points[1].PeriodEnd)
	}
}

func TestMemStoreResetScope(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	global := model.GlobalScope()
	darts := model.GameScope("darts")
	end := monthEnd(2024, time.April)

	for _, scope := range []model.Scope{global, darts} {
		if err := store.UpsertLatest(ctx, record("alice", scope, 1600, 4, end)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := store.AppendHistory(ctx, model.RatingHistoryPoint{
			PlayerID: "alice", Scope: scope, PeriodEnd: end,
			State: model.RatingState{Rating: 1600, RD: 120, Volatility: 0.06},
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if err := store.ResetScope(ctx, darts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap, err := store.LatestSnapshot(ctx, darts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("darts snapshot = %v, want empty after reset", snap)
	}
	points, err := store.PlayerRatingHistory(ctx, "alice", darts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("darts history = %v, want empty after reset", points)
	}

	// Other scopes are untouched.
	snap, err = store.LatestSnapshot(ctx, global)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap) != 1 {
		t.Errorf("global snapshot = %v, want intact", snap)
	}
}
