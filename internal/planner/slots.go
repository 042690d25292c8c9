package planner

import (
	"time"

	"github.com/tazhate/planbot/internal/domain"
)

// slotStep is the scan granularity.
const slotStep = 15 * time.Minute

// slotRequest describes one window search. busy must already be normalized.
type slotRequest struct {
	duration     time.Duration
	startAt      time.Time
	horizonDays  int
	mode         string
	availability domain.WeekAvailability
	busy         []domain.BusyInterval
	loc          *time.Location
}

// nextQuarter snaps t forward to the next quarter-hour boundary. Times
// already on a boundary are returned unchanged.
func nextQuarter(t time.Time) time.Time {
	aligned := t.Truncate(slotStep)
	if aligned.Equal(t) {
		return t
	}
	return aligned.Add(slotStep)
}

// collectSlots scans day offsets 0..horizonDays in (day, window, time)
// order and accumulates up to limit non-conflicting candidate intervals of
// the requested duration. Accepted candidates join the working busy set so
// later candidates never overlap earlier ones. First-fit only: there is no
// lookahead and no best-fit ranking, which keeps results deterministic for
// a given snapshot.
func collectSlots(req slotRequest, limit int) []domain.BusyInterval {
	if limit <= 0 || req.duration <= 0 {
		return nil
	}

	loc := req.loc
	if loc == nil {
		loc = time.Local
	}
	startAt := req.startAt.In(loc)
	busy := req.busy

	var found []domain.BusyInterval
	for off := 0; off <= req.horizonDays; off++ {
		day := startAt.AddDate(0, 0, off)
		avail := req.availability.Resolve(day.Weekday())
		if !avail.Enabled {
			continue
		}

		for _, w := range avail.Windows(req.mode) {
			winStart, winEnd, ok := w.Clip(day, loc)
			if !ok {
				continue
			}

			// The snap applies to the live cursor only; a window reached
			// from its start scans from the raw window start.
			cursor := winStart
			if off == 0 && startAt.After(cursor) {
				cursor = nextQuarter(startAt)
			}

			for !cursor.Add(req.duration).After(winEnd) {
				cand := domain.BusyInterval{Start: cursor, End: cursor.Add(req.duration)}
				if !domain.OverlapsAny(cand, busy) {
					found = append(found, cand)
					busy = append(busy, cand)
					if len(found) == limit {
						return found
					}
				}
				cursor = cursor.Add(slotStep)
			}
		}
	}
	return found
}

// findNextSlot returns the earliest feasible placement for the request, or
// false when the whole horizon is exhausted.
func findNextSlot(req slotRequest) (domain.BusyInterval, bool) {
	slots := collectSlots(req, 1)
	if len(slots) == 0 {
		return domain.BusyInterval{}, false
	}
	return slots[0], true
}
