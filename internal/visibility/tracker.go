// Package visibility decides which feed row is the active index from a
// stream of viewport membership events.
//
// A row becomes active only after it has stayed at or above the visible
// percent threshold for the minimum view time. Dropping below the threshold
// never clears the active index; only another row qualifying replaces it.
package visibility

import (
	"time"
)

const (
	DefaultPercentThreshold = 50
	DefaultMinimumViewTime  = 300 * time.Millisecond
)

type Config struct {
	PercentThreshold float64
	MinimumViewTime  time.Duration
}

func DefaultConfig() Config {
	return Config{
		PercentThreshold: DefaultPercentThreshold,
		MinimumViewTime:  DefaultMinimumViewTime,
	}
}

// Event reports one row's membership in the viewport.
type Event struct {
	Index   int     `json:"index"`
	Visible bool    `json:"visible"`
	Percent float64 `json:"percent"`
}

type candidate struct {
	since time.Time
	seq   uint64
}

type Tracker struct {
	cfg        Config
	length     int
	active     int
	hasActive  bool
	candidates map[int]candidate
	seq        uint64
}

func NewTracker(cfg Config, length int) *Tracker {
	if cfg.PercentThreshold <= 0 || cfg.PercentThreshold > 100 {
		cfg.PercentThreshold = DefaultPercentThreshold
	}
	if cfg.MinimumViewTime < 0 {
		cfg.MinimumViewTime = 0
	}
	return &Tracker{
		cfg:        cfg,
		length:     length,
		candidates: make(map[int]candidate),
	}
}

func (t *Tracker) Active() (int, bool) {
	return t.active, t.hasActive
}

// SetLength bounds the accepted indices. Shrinking the feed below the active
// index clears it.
func (t *Tracker) SetLength(n int) {
	t.length = n
	for i := range t.candidates {
		if i >= n {
			delete(t.candidates, i)
		}
	}
	if t.hasActive && t.active >= n {
		t.active, t.hasActive = 0, false
	}
}

// Observe applies a batch of simultaneous events in order and then advances
// to now. Rows first seen earlier in the batch win ties.
func (t *Tracker) Observe(now time.Time, batch []Event) (int, bool) {
	for _, ev := range batch {
		if ev.Index < 0 || ev.Index >= t.length {
			continue
		}
		if !t.qualifies(ev) {
			delete(t.candidates, ev.Index)
			continue
		}
		if t.hasActive && ev.Index == t.active {
			continue
		}
		if _, tracked := t.candidates[ev.Index]; tracked {
			continue
		}
		t.seq++
		t.candidates[ev.Index] = candidate{since: now, seq: t.seq}
	}
	return t.Advance(now)
}

// Advance promotes the earliest-detected candidate that has been visible for
// the minimum view time. It reports whether the active index changed.
func (t *Tracker) Advance(now time.Time) (int, bool) {
	winner := -1
	var best uint64
	for i, c := range t.candidates {
		if now.Sub(c.since) < t.cfg.MinimumViewTime {
			continue
		}
		if winner == -1 || c.seq < best {
			winner, best = i, c.seq
		}
	}
	if winner == -1 {
		return t.active, false
	}

	// Other rows that also qualified lost the tie.
	for i, c := range t.candidates {
		if now.Sub(c.since) >= t.cfg.MinimumViewTime {
			delete(t.candidates, i)
		}
	}
	t.active, t.hasActive = winner, true
	return t.active, true
}

// NextDeadline returns when the oldest pending candidate will have been
// visible long enough to be promoted.
func (t *Tracker) NextDeadline() (time.Time, bool) {
	var next time.Time
	found := false
	for _, c := range t.candidates {
		d := c.since.Add(t.cfg.MinimumViewTime)
		if !found || d.Before(next) {
			next, found = d, true
		}
	}
	return next, found
}

func (t *Tracker) Pending() int {
	return len(t.candidates)
}

func (t *Tracker) qualifies(ev Event) bool {
	return ev.Visible && ev.Percent >= t.cfg.PercentThreshold
}
