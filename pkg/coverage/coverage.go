// Package coverage implements the Coverage Set: an ordered, normalized set
// of half-open time intervals recording which wall-clock time has already
// been covered by collected trace data.
package coverage

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nop-infra/imonitor-go/pkg/persistence"
)

// Interval is a half-open time range [Start, End). It marshals to/from
// JSON as a two-element array of RFC3339 strings, matching the on-disk
// coverage file format.
type Interval struct {
	Start time.Time
	End   time.Time
}

// MarshalJSON encodes the interval as ["start_rfc3339", "end_rfc3339"].
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{
		iv.Start.UTC().Format(time.RFC3339),
		iv.End.UTC().Format(time.RFC3339),
	})
}

// UnmarshalJSON decodes an interval from ["start_rfc3339", "end_rfc3339"].
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	start, err := time.Parse(time.RFC3339, pair[0])
	if err != nil {
		return fmt.Errorf("coverage: invalid interval start %q: %w", pair[0], err)
	}
	end, err := time.Parse(time.RFC3339, pair[1])
	if err != nil {
		return fmt.Errorf("coverage: invalid interval end %q: %w", pair[1], err)
	}
	iv.Start, iv.End = start, end
	return nil
}

// Set is the Coverage Set: pairwise non-overlapping, non-touching
// intervals ordered by Start, with on-disk persistence. Safe for
// concurrent use by multiple writers (Trace Streamer, Archive Backfiller)
// and one reader (Archive Backfiller's Gaps call).
type Set struct {
	mu      sync.RWMutex
	covered []Interval
	store   *persistence.Store[[]Interval]
}

// NewSet creates an empty Coverage Set persisted at path.
func NewSet(path string) *Set {
	return &Set{store: persistence.NewStore[[]Interval](path)}
}

// Load reads the persisted intervals from disk into the set, replacing
// any current contents. A missing file yields an empty set.
func (s *Set) Load() error {
	intervals, ok, err := s.store.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		s.covered = nil
		return nil
	}
	s.covered = intervals
	sortIntervals(s.covered)
	return nil
}

// Save persists the current intervals to disk.
func (s *Set) Save() error {
	s.mu.RLock()
	snapshot := append([]Interval(nil), s.covered...)
	s.mu.RUnlock()
	return s.store.Save(snapshot)
}

// Add merges [start, end) into the set, combining it with any interval it
// overlaps or touches (!(end < existing.Start || start > existing.End)).
func (s *Set) Add(start, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := Interval{Start: start, End: end}
	kept := s.covered[:0:0]

	for _, existing := range s.covered {
		if merged.End.Before(existing.Start) || merged.Start.After(existing.End) {
			kept = append(kept, existing)
			continue
		}
		if existing.Start.Before(merged.Start) {
			merged.Start = existing.Start
		}
		if existing.End.After(merged.End) {
			merged.End = existing.End
		}
	}

	kept = append(kept, merged)
	sortIntervals(kept)
	s.covered = kept
}

// Gaps returns the ordered list of intervals missing between the earliest
// Start and the latest End of the set. An empty or single-interval set has
// no gaps.
func (s *Set) Gaps() []Interval {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.covered) == 0 {
		return nil
	}

	cursor := s.covered[0].Start

	var gaps []Interval
	for _, r := range s.covered {
		if r.Start.After(cursor) {
			gaps = append(gaps, Interval{Start: cursor, End: r.Start})
		}
		if r.End.After(cursor) {
			cursor = r.End
		}
	}

	return gaps
}

// Intervals returns a snapshot of the current normalized intervals.
func (s *Set) Intervals() []Interval {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Interval(nil), s.covered...)
}

func sortIntervals(intervals []Interval) {
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
}
