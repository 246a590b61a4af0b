package repository

import (
	"context"
	"embed"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ladderhq/ladder/internal/domain/model"
	"github.com/ladderhq/ladder/pkg/metrics"
)

//go:embed schema.sql
var schema embed.FS

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// OpenPG connects a pool to the given DSN.
func OpenPG(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PGStore{pool: pool}, nil
}

// Migrate applies the embedded schema.
func (s *PGStore) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, string(sqlBytes))
	return err
}

// Close releases the pool.
func (s *PGStore) Close() { s.pool.Close() }

func (s *PGStore) UpsertLatest(ctx context.Context, rec model.PlayerPeriodRecord) error {
	defer observe("upsert_latest", time.Now())

	_, err := s.pool.Exec(ctx, `
		INSERT INTO rating_latest
		    (player_id, scope_type, scope_id, rating, rd, volatility,
		     games_played, last_period_end, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (player_id, scope_type, scope_id) DO UPDATE
		   SET rating = EXCLUDED.rating,
		       rd = EXCLUDED.rd,
		       volatility = EXCLUDED.volatility,
		       games_played = EXCLUDED.games_played,
		       last_period_end = EXCLUDED.last_period_end,
		       updated_at = EXCLUDED.updated_at
	`, rec.PlayerID, string(rec.Scope.Type), rec.Scope.GameID,
		rec.State.Rating, rec.State.RD, rec.State.Volatility,
		rec.GamesPlayed, rec.LastPeriodEnd, rec.UpdatedAt)
	if err != nil {
		metrics.RecordStoreError("upsert_latest")
	}
	return err
}

func (s *PGStore) AppendHistory(ctx context.Context, pt model.RatingHistoryPoint) error {
	defer observe("append_history", time.Now())

	_, err := s.pool.Exec(ctx, `
		INSERT INTO rating_history
		    (player_id, scope_type, scope_id, period_end, rating, rd,
		     volatility, period_games, wins, losses, draws)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (player_id, scope_type, scope_id, period_end) DO UPDATE
		   SET rating = EXCLUDED.rating,
		       rd = EXCLUDED.rd,
		       volatility = EXCLUDED.volatility,
		       period_games = EXCLUDED.period_games,
		       wins = EXCLUDED.wins,
		       losses = EXCLUDED.losses,
		       draws = EXCLUDED.draws
	`, pt.PlayerID, string(pt.Scope.Type), pt.Scope.GameID, pt.PeriodEnd,
		pt.State.Rating, pt.State.RD, pt.State.Volatility,
		pt.PeriodGames, pt.Wins, pt.Losses, pt.Draws)
	if err != nil {
		metrics.RecordStoreError("append_history")
	}
	return err
}

func (s *PGStore) LatestSnapshot(ctx context.Context, scope model.Scope) (map[string]model.PlayerPeriodRecord, error) {
	defer observe("latest_snapshot", time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT player_id, rating, rd, volatility, games_played,
		       last_period_end, updated_at
		  FROM rating_latest
		 WHERE scope_type = $1 AND scope_id = $2
	`, string(scope.Type), scope.GameID)
	if err != nil {
		metrics.RecordStoreError("latest_snapshot")
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]model.PlayerPeriodRecord)
	for rows.Next() {
		rec := model.PlayerPeriodRecord{Scope: scope}
		if err := rows.Scan(&rec.PlayerID, &rec.State.Rating, &rec.State.RD,
			&rec.State.Volatility, &rec.GamesPlayed,
			&rec.LastPeriodEnd, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out[rec.PlayerID] = rec
	}
	return out, rows.Err()
}

func (s *PGStore) Scopes(ctx context.Context) ([]model.Scope, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT scope_type, scope_id
		  FROM rating_latest
		 ORDER BY scope_type, scope_id
	`)
	if err != nil {
		metrics.RecordStoreError("scopes")
		return nil, err
	}
	defer rows.Close()

	var out []model.Scope
	for rows.Next() {
		var scopeType, gameID string
		if err := rows.Scan(&scopeType, &gameID); err != nil {
			return nil, err
		}
		out = append(out, model.Scope{Type: model.ScopeType(scopeType), GameID: gameID})
	}
	return out, rows.Err()
}

func (s *PGStore) Leaderboard(ctx context.Context, scope model.Scope, minGames, limit int) ([]model.PlayerPeriodRecord, error) {
	defer observe("leaderboard", time.Now())

	if limit < 1 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT player_id, rating, rd, volatility, games_played,
		       last_period_end, updated_at
		  FROM rating_latest
		 WHERE scope_type = $1 AND scope_id = $2 AND games_played >= $3
		 ORDER BY rating DESC, games_played DESC, player_id ASC
		 LIMIT $4
	`, string(scope.Type), scope.GameID, minGames, limit)
	if err != nil {
		metrics.RecordStoreError("leaderboard")
		return nil, err
	}
	defer rows.Close()
	return scanLatest(rows, scope)
}

func (s *PGStore) PlayerRatings(ctx context.Context, playerID string) ([]model.PlayerPeriodRecord, error) {
	defer observe("player_ratings", time.Now())

	rows, err := s.pool.Query(ctx, `
		SELECT scope_type, scope_id, rating, rd, volatility, games_played,
		       last_period_end, updated_at
		  FROM rating_latest
		 WHERE player_id = $1
		 ORDER BY scope_type, scope_id
	`, playerID)
	if err != nil {
		metrics.RecordStoreError("player_ratings")
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerPeriodRecord
	for rows.Next() {
		rec := model.PlayerPeriodRecord{PlayerID: playerID}
		var scopeType string
		if err := rows.Scan(&scopeType, &rec.Scope.GameID, &rec.State.Rating,
			&rec.State.RD, &rec.State.Volatility, &rec.GamesPlayed,
			&rec.LastPeriodEnd, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Scope.Type = model.ScopeType(scopeType)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *PGStore) PlayerRatingHistory(ctx context.Context, playerID string, scope model.Scope, maxPoints int) ([]model.RatingHistoryPoint, error) {
	defer observe("player_history", time.Now())

	query := `
		SELECT period_end, rating, rd, volatility, period_games,
		       wins, losses, draws
		  FROM rating_history
		 WHERE player_id = $1 AND scope_type = $2 AND scope_id = $3
		 ORDER BY period_end ASC`
	args := []any{playerID, string(scope.Type), scope.GameID}
	if maxPoints > 0 {
		// Cap to the most recent points, then restore ascending order.
		query = `
		SELECT * FROM (
			SELECT period_end, rating, rd, volatility, period_games,
			       wins, losses, draws
			  FROM rating_history
			 WHERE player_id = $1 AND scope_type = $2 AND scope_id = $3
			 ORDER BY period_end DESC
			 LIMIT $4
		) recent
		 ORDER BY period_end ASC`
		args = append(args, maxPoints)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		metrics.RecordStoreError("player_history")
		return nil, err
	}
	defer rows.Close()

	var out []model.RatingHistoryPoint
	for rows.Next() {
		pt := model.RatingHistoryPoint{PlayerID: playerID, Scope: scope}
		if err := rows.Scan(&pt.PeriodEnd, &pt.State.Rating, &pt.State.RD,
			&pt.State.Volatility, &pt.PeriodGames,
			&pt.Wins, &pt.Losses, &pt.Draws); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (s *PGStore) ResetScope(ctx context.Context, scope model.Scope) error {
	defer observe("reset_scope", time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	for _, table := range []string{"rating_history", "rating_latest"} {
		if _, err := tx.Exec(ctx,
			`DELETE FROM `+table+` WHERE scope_type = $1 AND scope_id = $2`,
			string(scope.Type), scope.GameID); err != nil {
			metrics.RecordStoreError("reset_scope")
			return err
		}
	}
	return tx.Commit(ctx)
}

func scanLatest(rows pgx.Rows, scope model.Scope) ([]model.PlayerPeriodRecord, error) {
	var out []model.PlayerPeriodRecord
	for rows.Next() {
		rec := model.PlayerPeriodRecord{Scope: scope}
		if err := rows.Scan(&rec.PlayerID, &rec.State.Rating, &rec.State.RD,
			&rec.State.Volatility, &rec.GamesPlayed,
			&rec.LastPeriodEnd, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
