package trigger

import (
	"sync"
	"time"
)

const (
	// staleAfter is how long an idle entry survives before pruning.
	staleAfter = 60 * time.Second

	// sweepEvery paces the prune pass. Sweeps piggyback on inserts, so a
	// fully idle table holds at most one stale entry per button.
	sweepEvery = 30 * time.Second
)

// debounceTable tracks the last accepted press per button. Rejected
// presses do not refresh the entry, so a held-down or bouncing button
// cannot starve itself forever.
type debounceTable struct {
	window time.Duration

	mu    sync.Mutex
	last  map[int]time.Time
	swept time.Time
}

func newDebounceTable(window time.Duration) *debounceTable {
	return &debounceTable{
		window: window,
		last:   make(map[int]time.Time),
	}
}

// press reports whether a press observed at now falls inside the window
// since the last accepted press of the same button. Accepted presses
// update the table; rejected ones return the elapsed interval.
func (d *debounceTable) press(id int, now time.Time) (time.Duration, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.last[id]; ok {
		if since := now.Sub(last); since < d.window {
			return since, true
		}
	}
	d.last[id] = now
	d.sweepLocked(now)
	return 0, false
}

func (d *debounceTable) sweepLocked(now time.Time) {
	if now.Sub(d.swept) < sweepEvery {
		return
	}
	d.swept = now
	for id, t := range d.last {
		if now.Sub(t) > staleAfter {
			delete(d.last, id)
		}
	}
}

// size reports the number of tracked buttons.
func (d *debounceTable) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.last)
}
