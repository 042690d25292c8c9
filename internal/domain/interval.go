package domain

import (
	"sort"
	"time"
)

// BusyInterval is an occupied [Start, End) time range.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval length, zero for degenerate intervals.
func (i BusyInterval) Duration() time.Duration {
	if !i.End.After(i.Start) {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two half-open intervals intersect.
func (i BusyInterval) Overlaps(other BusyInterval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// NormalizeIntervals sorts and merges busy intervals into a minimal
// non-overlapping sequence covering the same union of time. Touching
// intervals merge; zero-width intervals (end <= start) are dropped.
// Ties on start keep their original order. The input is not modified.
func NormalizeIntervals(intervals []BusyInterval) []BusyInterval {
	valid := make([]BusyInterval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.End.After(iv.Start) {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.SliceStable(valid, func(a, b int) bool {
		return valid[a].Start.Before(valid[b].Start)
	})

	merged := []BusyInterval{valid[0]}
	for _, iv := range valid[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// OverlapsAny reports whether the candidate intersects any interval in the
// set. The set does not need to be normalized.
func OverlapsAny(candidate BusyInterval, set []BusyInterval) bool {
	for _, iv := range set {
		if !iv.End.After(iv.Start) {
			continue
		}
		if candidate.Overlaps(iv) {
			return true
		}
	}
	return false
}
