package service

import (
	"sort"
	"time"

	"github.com/tazhate/planbot/internal/domain"
)

// RankingService orders schedulable activities for the daily planner. The
// planner only consumes the resulting order; the criteria live here so
// they can change without touching the scheduling search.
type RankingService struct{}

func NewRankingService() *RankingService {
	return &RankingService{}
}

// Rank returns open activities ordered by due date (earliest first,
// undated last), then shorter estimates, then creation time. Ties fall
// back to ID so the order is total and stable across calls.
func (s *RankingService) Rank(activities []*domain.Activity, anchor time.Time, limit int) []*domain.Activity {
	ranked := make([]*domain.Activity, 0, len(activities))
	for _, a := range activities {
		if a.IsOpen() {
			ranked = append(ranked, a)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := dueSortKey(ranked[i], anchor), dueSortKey(ranked[j], anchor)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		ei, ej := ranked[i].Estimate(1), ranked[j].Estimate(1)
		if ei != ej {
			return ei < ej
		}
		if !ranked[i].CreatedAt.Equal(ranked[j].CreatedAt) {
			return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
		}
		return ranked[i].ID < ranked[j].ID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// dueSortKey places undated activities a year past the anchor so anything
// with a real due date ranks ahead of them.
func dueSortKey(a *domain.Activity, anchor time.Time) time.Time {
	if a.ScheduledDate == "" {
		return anchor.AddDate(1, 0, 0)
	}
	due, err := time.Parse("2006-01-02", a.ScheduledDate)
	if err != nil {
		return anchor.AddDate(1, 0, 0)
	}
	return due
}
