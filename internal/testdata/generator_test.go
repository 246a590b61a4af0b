package testdata

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ladderhq/ladder/internal/adapters/contests"
)

func testConfig() Config {
	return Config{
		Players:  20,
		Games:    []string{"darts", "pool"},
		Months:   3,
		PerMonth: 10,
		Start:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Seed:     42,
	}
}

func TestWriteProducesLoadableDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contests.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Write(f, testConfig()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	src, err := contests.OpenJSONL(path)
	if err != nil {
		t.Fatalf("OpenJSONL: %v", err)
	}
	ctx := context.Background()

	earliest, err := src.EarliestContestDate(ctx)
	if err != nil {
		t.Fatalf("EarliestContestDate: %v", err)
	}
	if earliest.Before(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)) ||
		!earliest.Before(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("earliest contest %v outside first month", earliest)
	}

	for month := time.January; month <= time.March; month++ {
		start := time.Date(2024, month, 1, 0, 0, 0, 0, time.UTC)
		cs, err := src.ContestsInPeriod(ctx, start, start.AddDate(0, 1, 0))
		if err != nil {
			t.Fatalf("ContestsInPeriod: %v", err)
		}
		if len(cs) != 10 {
			t.Fatalf("month %v: got %d contests, want 10", month, len(cs))
		}
		for _, c := range cs {
			if c.GameID != "darts" && c.GameID != "pool" {
				t.Fatalf("contest %s has unexpected game %q", c.ID, c.GameID)
			}
			placements, err := src.ContestResults(ctx, c.ID)
			if err != nil {
				t.Fatalf("ContestResults(%s): %v", c.ID, err)
			}
			if len(placements) < 2 {
				t.Fatalf("contest %s has %d participants, want at least 2", c.ID, len(placements))
			}
			seen := make(map[int]bool)
			for _, p := range placements {
				if !p.Placed() {
					continue
				}
				if seen[*p.Place] {
					t.Fatalf("contest %s repeats place %d", c.ID, *p.Place)
				}
				seen[*p.Place] = true
			}
		}
	}
}

func TestWriteDeterministicForSeed(t *testing.T) {
	var a, b bytes.Buffer
	if err := Write(&a, testConfig()); err != nil {
		t.Fatal(err)
	}
	if err := Write(&b, testConfig()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("same seed produced different datasets")
	}
}

func TestWriteRejectsTinyPlayerPool(t *testing.T) {
	cfg := testConfig()
	cfg.Players = 1
	if err := Write(&bytes.Buffer{}, cfg); err == nil {
		t.Fatal("expected error for single-player pool")
	}
}
