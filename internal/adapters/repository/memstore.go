package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ladderhq/ladder/internal/domain/model"
	"github.com/ladderhq/ladder/pkg/metrics"
)

// In-memory Store implementation. The default backend for tests and local
// runs; the Postgres store carries the same semantics.

type scopeKey struct {
	scopeType model.ScopeType
	gameID    string
}

func keyOf(s model.Scope) scopeKey {
	return scopeKey{scopeType: s.Type, gameID: s.GameID}
}

func (k scopeKey) scope() model.Scope {
	return model.Scope{Type: k.scopeType, GameID: k.gameID}
}

// MemStore keeps the latest and history stores in maps guarded by one
// RWMutex. Writes happen only between periods, so contention is not a
// concern; reads take the shared lock.
type MemStore struct {
	mu      sync.RWMutex
	latest  map[scopeKey]map[string]model.PlayerPeriodRecord
	history map[scopeKey]map[string][]model.RatingHistoryPoint
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		latest:  make(map[scopeKey]map[string]model.PlayerPeriodRecord),
		history: make(map[scopeKey]map[string][]model.RatingHistoryPoint),
	}
}

func (m *MemStore) UpsertLatest(_ context.Context, rec model.PlayerPeriodRecord) error {
	defer observe("upsert_latest", time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(rec.Scope)
	if m.latest[k] == nil {
		m.latest[k] = make(map[string]model.PlayerPeriodRecord)
	}
	m.latest[k][rec.PlayerID] = rec
	return nil
}

func (m *MemStore) AppendHistory(_ context.Context, pt model.RatingHistoryPoint) error {
	defer observe("append_history", time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(pt.Scope)
	if m.history[k] == nil {
		m.history[k] = make(map[string][]model.RatingHistoryPoint)
	}
	points := m.history[k][pt.PlayerID]

	// A rerun of the same period replaces that period's point.
	for i := range points {
		if points[i].PeriodEnd.Equal(pt.PeriodEnd) {
			points[i] = pt
			return nil
		}
	}
	points = append(points, pt)
	sort.Slice(points, func(i, j int) bool {
		return points[i].PeriodEnd.Before(points[j].PeriodEnd)
	})
	m.history[k][pt.PlayerID] = points
	return nil
}

func (m *MemStore) LatestSnapshot(_ context.Context, scope model.Scope) (map[string]model.PlayerPeriodRecord, error) {
	defer observe("latest_snapshot", time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]model.PlayerPeriodRecord, len(m.latest[keyOf(scope)]))
	for id, rec := range m.latest[keyOf(scope)] {
		out[id] = rec
	}
	return out, nil
}

func (m *MemStore) Scopes(_ context.Context) ([]model.Scope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Scope, 0, len(m.latest))
	for k, players := range m.latest {
		if len(players) > 0 {
			out = append(out, k.scope())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (m *MemStore) Leaderboard(_ context.Context, scope model.Scope, minGames, limit int) ([]model.PlayerPeriodRecord, error) {
	defer observe("leaderboard", time.Now())

	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.PlayerPeriodRecord
	for _, rec := range m.latest[keyOf(scope)] {
		if rec.GamesPlayed >= minGames {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].State.Rating != out[j].State.Rating {
			return out[i].State.Rating > out[j].State.Rating
		}
		if out[i].GamesPlayed != out[j].GamesPlayed {
			return out[i].GamesPlayed > out[j].GamesPlayed
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) PlayerRatings(_ context.Context, playerID string) ([]model.PlayerPeriodRecord, error) {
	defer observe("player_ratings", time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.PlayerPeriodRecord
	for _, players := range m.latest {
		if rec, ok := players[playerID]; ok {
			out = append(out, rec)
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scope.String() < out[j].Scope.String() })
	return out, nil
}

func (m *MemStore) PlayerRatingHistory(_ context.Context, playerID string, scope model.Scope, maxPoints int) ([]model.RatingHistoryPoint, error) {
	defer observe("player_history", time.Now())

	m.mu.RLock()
	defer m.mu.RUnlock()

	points := m.history[keyOf(scope)][playerID]
	out := make([]model.RatingHistoryPoint, len(points))
	copy(out, points)
	// The cap keeps the tail: the most recent points, still ascending.
	if maxPoints > 0 && len(out) > maxPoints {
		out = out[len(out)-maxPoints:]
	}
	return out, nil
}

func (m *MemStore) ResetScope(_ context.Context, scope model.Scope) error {
	defer observe("reset_scope", time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.latest, keyOf(scope))
	delete(m.history, keyOf(scope))
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordStoreOp(op, time.Since(start).Seconds())
}
