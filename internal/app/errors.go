package app

import "errors"

// ErrBackfillInProgress reports a full backfill requested while another run
// holds the scope. Concurrent backfills would corrupt the chronological
// fold, so only one run may be in flight.
var ErrBackfillInProgress = errors.New("backfill already in progress")
