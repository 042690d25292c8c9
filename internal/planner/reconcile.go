package planner

import (
	"strings"
	"time"
	"unicode"

	"github.com/tazhate/planbot/internal/domain"
)

const (
	// endpointTolerance is the per-endpoint delta under which two event
	// times count as the same.
	endpointTolerance = 2 * time.Minute
	// durationTolerance bounds the duration difference for overlap-based
	// time similarity.
	durationTolerance = 5 * time.Minute
	// minOverlapRatio of the shorter duration for overlap-based similarity.
	minOverlapRatio = 0.85
	// minSubstringLen guards the substring tier of title similarity.
	minSubstringLen = 4
)

// ReconcileResult is the deduplicated external view: external events with
// recognized duplicates removed, plus the matched keys for auditing.
type ReconcileResult struct {
	Events  []domain.CalendarEvent
	Matched map[domain.EventKey]string // event key -> activity ID
}

// Reconcile matches externally fetched events against internally planned
// blocks so the display layer renders each real-world event once.
//
// An activity carrying a complete external reference is matched to the
// event with that exact key unconditionally, regardless of time or title
// drift. Remaining blocks fall through to fuzzy matching against non-all-day
// events with parseable times: an event is eligible when its times and
// title are both similar to the block's (see timesSimilar, titlesSimilar),
// and the eligible event minimizing |start delta| + |end delta| is claimed.
// Matching is greedy in block order with no reassignment, and injective in
// both directions. Re-running on identical inputs yields identical results.
func Reconcile(external []domain.CalendarEvent, blocks []domain.ScheduledBlock) ReconcileResult {
	result := ReconcileResult{Matched: make(map[domain.EventKey]string)}

	byKey := make(map[domain.EventKey]int, len(external))
	for i, e := range external {
		byKey[e.Key()] = i
	}
	claimed := make(map[int]bool, len(external))

	// Pass 1: exact external-reference matches. Explicit linkage wins even
	// when the synced copy has drifted.
	matchedBlock := make([]bool, len(blocks))
	for bi, b := range blocks {
		if b.Activity == nil || !b.Activity.External.Complete() {
			continue
		}
		idx, ok := byKey[b.Activity.External.Key()]
		if !ok || claimed[idx] {
			continue
		}
		claimed[idx] = true
		matchedBlock[bi] = true
		result.Matched[external[idx].Key()] = b.Activity.ID
	}

	// Pass 2: fuzzy matching for the rest. First-processed block wins any
	// contention for an event.
	for bi, b := range blocks {
		if matchedBlock[bi] || b.Activity == nil {
			continue
		}
		best := -1
		var bestScore time.Duration
		for i, e := range external {
			if claimed[i] || e.AllDay || !e.HasTimes() {
				continue
			}
			if !timesSimilar(b.Start, b.End, e.Start, e.End) {
				continue
			}
			if !titlesSimilar(b.Activity.Title, e.Title) {
				continue
			}
			score := absDuration(b.Start.Sub(e.Start)) + absDuration(b.End.Sub(e.End))
			if best == -1 || score < bestScore {
				best = i
				bestScore = score
			}
		}
		if best >= 0 {
			claimed[best] = true
			result.Matched[external[best].Key()] = b.Activity.ID
		}
	}

	for i, e := range external {
		if !claimed[i] {
			result.Events = append(result.Events, e)
		}
	}
	return result
}

// timesSimilar accepts either near-identical endpoints or substantial
// overlap with near-identical durations.
func timesSimilar(blockStart, blockEnd, eventStart, eventEnd time.Time) bool {
	startDelta := absDuration(blockStart.Sub(eventStart))
	endDelta := absDuration(blockEnd.Sub(eventEnd))
	if startDelta <= endpointTolerance && endDelta <= endpointTolerance {
		return true
	}

	overlapStart := maxTime(blockStart, eventStart)
	overlapEnd := minTime(blockEnd, eventEnd)
	if !overlapEnd.After(overlapStart) {
		return false
	}
	overlap := overlapEnd.Sub(overlapStart)

	blockDur := blockEnd.Sub(blockStart)
	eventDur := eventEnd.Sub(eventStart)
	shorter := blockDur
	if eventDur < shorter {
		shorter = eventDur
	}
	if shorter <= 0 {
		return false
	}

	durDelta := absDuration(blockDur - eventDur)
	return float64(overlap) >= minOverlapRatio*float64(shorter) && durDelta <= durationTolerance
}

// titlesSimilar compares normalized titles: equality, or containment when
// the contained title is at least minSubstringLen characters.
func titlesSimilar(a, b string) bool {
	na := normalizeTitle(a)
	nb := normalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if len(na) >= minSubstringLen && strings.Contains(nb, na) {
		return true
	}
	if len(nb) >= minSubstringLen && strings.Contains(na, nb) {
		return true
	}
	return false
}

// normalizeTitle lower-cases and collapses non-alphanumeric runs to single
// spaces.
func normalizeTitle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
