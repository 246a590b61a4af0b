// Command gen-contests writes a synthetic contest JSONL file for local
// backfill runs.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ladderhq/ladder/internal/testdata"
)

func main() {
	var (
		out      = flag.String("out", "contests.jsonl", "output file")
		players  = flag.Int("players", 40, "number of players")
		games    = flag.String("games", "darts,pool,pinball", "comma-separated game ids")
		months   = flag.Int("months", 18, "number of months of history")
		perMonth = flag.Int("per-month", 25, "contests per month")
		start    = flag.String("start", "2023-01", "first month as YYYY-MM")
		seed     = flag.Int64("seed", 1, "random seed")
	)
	flag.Parse()

	startTime, err := time.Parse("2006-01", *start)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gen-contests: bad -start:", err)
		os.Exit(1)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(os.Stderr, "gen-contests:", err)
		os.Exit(1)
	}
	defer f.Close()

	err = testdata.Write(f, testdata.Config{
		Players:  *players,
		Games:    strings.Split(*games, ","),
		Months:   *months,
		PerMonth: *perMonth,
		Start:    startTime,
		Seed:     *seed,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "gen-contests:", err)
		os.Exit(1)
	}
}
