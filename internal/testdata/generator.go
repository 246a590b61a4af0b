// Package testdata generates synthetic contest history files for local
// backfill runs and load experiments.
package testdata

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"time"
)

// Generation shape constants.
const (
	minContestSize   = 2
	contestSizeRange = 6 // contests have 2 to 7 placed participants
	unplacedChance   = 0.05
)

// Config shapes the generated dataset.
type Config struct {
	Players  int
	Games    []string
	Months   int
	PerMonth int // contests per month
	Start    time.Time
	Seed     int64
}

// contestLine mirrors the JSONL contest export consumed by the engine.
type contestLine struct {
	ContestID string       `json:"contest_id"`
	GameID    string       `json:"game_id"`
	StartTime time.Time    `json:"start_time"`
	Results   []resultLine `json:"results"`
}

type resultLine struct {
	PlayerID string `json:"player_id"`
	Place    *int   `json:"place"`
}

// Write emits one JSONL contest line per generated contest. Each player has
// a hidden strength so leaderboards converge toward a stable order, which
// makes generated datasets useful for eyeballing rating output.
func Write(w io.Writer, cfg Config) error {
	if cfg.Players < minContestSize {
		return fmt.Errorf("need at least %d players, got %d", minContestSize, cfg.Players)
	}
	if len(cfg.Games) == 0 {
		cfg.Games = []string{"darts"}
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	strength := make(map[string]float64, cfg.Players)
	players := make([]string, cfg.Players)
	for i := range players {
		players[i] = fmt.Sprintf("player-%03d", i+1)
		strength[players[i]] = rng.NormFloat64()
	}

	enc := json.NewEncoder(w)
	start := cfg.Start.UTC()
	contest := 0
	for month := 0; month < cfg.Months; month++ {
		for n := 0; n < cfg.PerMonth; n++ {
			contest++
			size := minContestSize + rng.Intn(contestSizeRange)
			if size > len(players) {
				size = len(players)
			}
			rng.Shuffle(len(players), func(i, j int) {
				players[i], players[j] = players[j], players[i]
			})
			field := append([]string(nil), players[:size]...)

			// Noisy performance draw; better draws place earlier.
			perf := make(map[string]float64, len(field))
			for _, id := range field {
				perf[id] = strength[id] + rng.NormFloat64()
			}
			sort.Slice(field, func(i, j int) bool { return perf[field[i]] > perf[field[j]] })

			line := contestLine{
				ContestID: fmt.Sprintf("contest-%05d", contest),
				GameID:    cfg.Games[rng.Intn(len(cfg.Games))],
				StartTime: start.AddDate(0, month, 0).Add(time.Duration(rng.Intn(27*24)) * time.Hour),
			}
			for i, id := range field {
				place := i + 1
				r := resultLine{PlayerID: id, Place: &place}
				if rng.Float64() < unplacedChance {
					r.Place = nil
				}
				line.Results = append(line.Results, r)
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
	}
	return nil
}
