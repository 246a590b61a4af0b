package contests

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// contestLine is one JSONL record: a contest plus its placements.
type contestLine struct {
	ContestID string    `json:"contest_id"`
	GameID    string    `json:"game_id"`
	StartTime time.Time `json:"start_time"`
	Results   []struct {
		PlayerID string `json:"player_id"`
		Place    *int   `json:"place"`
	} `json:"results"`
}

// JSONLSource is a file-backed Source for CLI runs and local replays. Each
// line holds one contest with its placement results.
type JSONLSource struct {
	contests []Contest
	results  map[string][]Placement
}

// OpenJSONL loads a contest export file into memory.
func OpenJSONL(path string) (*JSONLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src := &JSONLSource{results: make(map[string][]Placement)}

	s := bufio.NewScanner(f)
	// Allow larger lines than the default 64K.
	s.Buffer(make([]byte, 0, 1024*1024), 8*1024*1024)

	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var c contestLine
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("invalid contest line: %w", err)
		}
		src.contests = append(src.contests, Contest{
			ID:        c.ContestID,
			GameID:    c.GameID,
			StartTime: c.StartTime.UTC(),
		})
		placements := make([]Placement, 0, len(c.Results))
		for _, r := range c.Results {
			placements = append(placements, Placement{PlayerID: r.PlayerID, Place: r.Place})
		}
		src.results[c.ContestID] = placements
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	sort.Slice(src.contests, func(i, j int) bool {
		return src.contests[i].StartTime.Before(src.contests[j].StartTime)
	})
	return src, nil
}

func (s *JSONLSource) ContestsInPeriod(_ context.Context, start, end time.Time) ([]Contest, error) {
	var out []Contest
	for _, c := range s.contests {
		if !c.StartTime.Before(start) && c.StartTime.Before(end) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *JSONLSource) ContestResults(_ context.Context, contestID string) ([]Placement, error) {
	placements, ok := s.results[contestID]
	if !ok {
		return nil, fmt.Errorf("unknown contest %q", contestID)
	}
	return placements, nil
}

func (s *JSONLSource) EarliestContestDate(_ context.Context) (time.Time, error) {
	if len(s.contests) == 0 {
		return time.Time{}, ErrNoContests
	}
	return s.contests[0].StartTime, nil
}
