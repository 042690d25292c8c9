// Package planner implements the scheduling engine: pure, synchronous
// placement of activities into availability windows and reconciliation of
// externally synced calendar events against internally planned blocks.
// It performs no I/O; callers supply consistent snapshots per invocation.
package planner

import (
	"strings"

	"github.com/tazhate/planbot/internal/domain"
)

// Work-keyword vocabularies for domain inference. The batch scheduler and
// the daily planner historically used different lists; both are kept so
// each call site preserves its observed behavior. Order matters: the first
// containment hit wins.
var (
	ScheduleWorkKeywords = []string{
		"meeting", "deadline", "client", "standup", "roadmap",
		"review", "sprint", "report", "interview", "presentation",
	}

	DailyWorkKeywords = []string{
		"meeting", "deadline", "client", "standup", "roadmap",
		"sync", "1:1", "okr", "launch", "demo",
		"review", "sprint", "report", "interview", "presentation",
		"email", "proposal", "retro",
	}
)

// InferDomain resolves an activity's scheduling domain. An explicit domain
// on the activity always wins. Otherwise the activity title concatenated
// with its goal title is scanned, case-insensitively, for the vocabulary's
// keywords; the first hit yields "work", no hit yields "personal". The
// heuristic is deliberately over-inclusive: ambiguous items lean toward
// work-hours availability.
func InferDomain(a *domain.Activity, goal *domain.Goal, vocabulary []string) string {
	if a == nil {
		return domain.ModePersonal
	}
	if a.Domain != "" {
		return a.Domain
	}

	text := a.Title
	if goal != nil {
		text += " " + goal.Title
	}
	text = strings.ToLower(text)

	for _, kw := range vocabulary {
		if strings.Contains(text, kw) {
			return domain.ModeWork
		}
	}
	return domain.ModePersonal
}
