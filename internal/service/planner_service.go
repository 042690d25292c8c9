package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tazhate/planbot/internal/clients/caldav"
	"github.com/tazhate/planbot/internal/domain"
	"github.com/tazhate/planbot/internal/planner"
	"github.com/tazhate/planbot/internal/storage"
)

const providerCalDAV = "caldav"

// PlannerService assembles snapshots for the scheduling engine and applies
// its results: it fetches busy time and events over CalDAV, runs the pure
// planner, pushes accepted proposals back as calendar events, and builds
// the reconciled agenda view. All engine calls happen on data already in
// memory; this service owns every I/O boundary around the engine.
type PlannerService struct {
	storage  *storage.Storage
	caldav   *caldav.Client
	ranking  *RankingService
	timezone *time.Location

	horizonDays   int
	maxDailyItems int
}

func NewPlannerService(s *storage.Storage, client *caldav.Client, ranking *RankingService, tz *time.Location, horizonDays, maxDailyItems int) *PlannerService {
	if tz == nil {
		tz = time.UTC
	}
	return &PlannerService{
		storage:       s,
		caldav:        client,
		ranking:       ranking,
		timezone:      tz,
		horizonDays:   horizonDays,
		maxDailyItems: maxDailyItems,
	}
}

func (s *PlannerService) IsCalendarConfigured() bool {
	return s.caldav != nil && s.caldav.IsConfigured()
}

// newPlanner builds an engine instance from stored availability and
// preferences. Storage errors degrade to built-in defaults: a broken
// settings row must not stop planning.
func (s *PlannerService) newPlanner() *planner.Planner {
	availability, err := s.storage.GetAvailability()
	if err != nil {
		log.Printf("Warning: load availability: %v", err)
		availability = nil
	}
	prefs, err := s.storage.GetCalendarPrefs()
	if err != nil {
		log.Printf("Warning: load calendar prefs: %v", err)
		prefs = domain.CalendarPrefs{}
	}
	return &planner.Planner{
		Availability:  availability,
		Prefs:         prefs,
		Location:      s.timezone,
		HorizonDays:   s.horizonDays,
		MaxDailyItems: s.maxDailyItems,
	}
}

// fetchEvents returns external events on the read calendars within
// [from, to). A failing calendar is logged and skipped so one broken
// calendar never hides the rest.
func (s *PlannerService) fetchEvents(ctx context.Context, from, to time.Time) []domain.CalendarEvent {
	if !s.IsCalendarConfigured() {
		return nil
	}

	prefs, err := s.storage.GetCalendarPrefs()
	if err != nil {
		log.Printf("Warning: load calendar prefs: %v", err)
		return nil
	}

	var events []domain.CalendarEvent
	for _, calID := range prefs.ReadCalendarIDs {
		fetched, err := s.caldav.GetEvents(ctx, calID, from, to)
		if err != nil {
			log.Printf("Warning: fetch events from %s: %v", calID, err)
			continue
		}
		for _, e := range fetched {
			events = append(events, domain.CalendarEvent{
				Provider:   providerCalDAV,
				AccountID:  s.caldav.AccountID(),
				CalendarID: calID,
				EventID:    e.UID,
				Title:      e.Summary,
				Start:      e.StartTime,
				End:        e.EndTime,
				AllDay:     e.AllDay,
				Location:   e.Location,
			})
		}
	}
	return events
}

// busyByCalendar derives per-calendar busy intervals from fetched events.
// All-day events do not block slots.
func busyByCalendar(events []domain.CalendarEvent) map[string][]domain.BusyInterval {
	busy := make(map[string][]domain.BusyInterval)
	for _, e := range events {
		if e.AllDay || !e.HasTimes() {
			continue
		}
		busy[e.CalendarID] = append(busy[e.CalendarID], domain.BusyInterval{Start: e.Start, End: e.End})
	}
	return busy
}

func flattenBusy(byCalendar map[string][]domain.BusyInterval) []domain.BusyInterval {
	var all []domain.BusyInterval
	for _, set := range byCalendar {
		all = append(all, set...)
	}
	return domain.NormalizeIntervals(all)
}

// ProposeSchedule runs the multi-day allocator over the open backlog.
func (s *PlannerService) ProposeSchedule(ctx context.Context) ([]domain.ProposedEvent, error) {
	activities, err := s.storage.ListActivities(false)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	goals, err := s.storage.ListGoals()
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	now := time.Now().In(s.timezone)
	p := s.newPlanner()
	events := s.fetchEvents(ctx, now.AddDate(0, 0, -1), now.AddDate(0, 0, p.HorizonDays+2))

	return p.ProposeSchedule(activities, goals, busyByCalendar(events)), nil
}

// ProposeDailyPlan builds the plan for one day from the ranked backlog.
func (s *PlannerService) ProposeDailyPlan(ctx context.Context, day time.Time) (domain.DailyPlan, error) {
	activities, err := s.storage.ListActivities(false)
	if err != nil {
		return domain.DailyPlan{}, fmt.Errorf("list activities: %w", err)
	}
	goals, err := s.storage.ListGoals()
	if err != nil {
		return domain.DailyPlan{}, fmt.Errorf("list goals: %w", err)
	}
	dismissed, err := s.storage.ListDismissed(day)
	if err != nil {
		log.Printf("Warning: load dismissals: %v", err)
		dismissed = nil
	}

	ranked := s.ranking.Rank(activities, day, 0)
	events := s.fetchEvents(ctx, day.AddDate(0, 0, -1), day.AddDate(0, 0, 2))

	p := s.newPlanner()
	return p.ProposeDailyPlan(day, ranked, goals, flattenBusy(busyByCalendar(events)), dismissed), nil
}

// SuggestSlots lists candidate slots for one activity.
func (s *PlannerService) SuggestSlots(ctx context.Context, activityID string, limit int) ([]domain.BusyInterval, error) {
	a, err := s.storage.GetActivity(activityID)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if a == nil {
		return nil, fmt.Errorf("activity not found")
	}
	goals, err := s.storage.ListGoals()
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	now := time.Now().In(s.timezone)
	p := s.newPlanner()
	events := s.fetchEvents(ctx, now.AddDate(0, 0, -1), now.AddDate(0, 0, p.HorizonDays+2))

	return p.ProposeSlots(a, goals[a.GoalID], now, flattenBusy(busyByCalendar(events)), limit), nil
}

// CommitProposals pushes proposals to the calendar and records the
// resulting external references. A failed push leaves that activity
// unscheduled and retryable; the rest of the batch continues.
func (s *PlannerService) CommitProposals(ctx context.Context, proposals []domain.ProposedEvent) (int, error) {
	if !s.IsCalendarConfigured() {
		return 0, fmt.Errorf("CalDAV not configured")
	}

	committed := 0
	for _, pr := range proposals {
		event := &caldav.Event{
			Summary:   pr.Title,
			StartTime: pr.Start,
			EndTime:   pr.End,
		}
		if err := s.caldav.CreateEvent(ctx, pr.CalendarID, event); err != nil {
			log.Printf("Warning: push event for %s: %v", pr.ActivityID, err)
			continue
		}

		start := pr.Start
		if err := s.storage.UpdateActivitySchedule(pr.ActivityID, &start); err != nil {
			log.Printf("Warning: record schedule for %s: %v", pr.ActivityID, err)
		}
		ref := &domain.ExternalRef{
			Provider:   providerCalDAV,
			AccountID:  s.caldav.AccountID(),
			CalendarID: pr.CalendarID,
			EventID:    event.UID,
		}
		if err := s.storage.UpdateActivityExternalRef(pr.ActivityID, ref); err != nil {
			log.Printf("Warning: record external ref for %s: %v", pr.ActivityID, err)
		}
		committed++
	}
	return committed, nil
}

// Agenda is the reconciled display view for a date range: internally
// planned blocks plus external events with duplicates of those blocks
// removed.
type Agenda struct {
	Blocks []domain.ScheduledBlock
	Events []domain.CalendarEvent
}

// BuildAgenda fetches the range and reconciles external events against
// scheduled activity blocks so each real-world event appears once.
func (s *PlannerService) BuildAgenda(ctx context.Context, from, to time.Time) (Agenda, error) {
	activities, err := s.storage.ListActivities(true)
	if err != nil {
		return Agenda{}, fmt.Errorf("list activities: %w", err)
	}

	var blocks []domain.ScheduledBlock
	for _, a := range activities {
		if a.ScheduledAt == nil {
			continue
		}
		start := a.ScheduledAt.In(s.timezone)
		if start.Before(from) || !start.Before(to) {
			continue
		}
		end := start.Add(time.Duration(a.Estimate(1)) * time.Minute)
		blocks = append(blocks, domain.ScheduledBlock{Activity: a, Start: start, End: end})
	}

	external := s.fetchEvents(ctx, from, to)
	res := planner.Reconcile(external, blocks)

	return Agenda{Blocks: blocks, Events: res.Events}, nil
}

// DiscoverCalendars lists calendars available on the account.
func (s *PlannerService) DiscoverCalendars(ctx context.Context) ([]caldav.Calendar, error) {
	if !s.IsCalendarConfigured() {
		return nil, fmt.Errorf("CalDAV not configured")
	}
	return s.caldav.DiscoverCalendars(ctx)
}

// SetDefaultCalendar records the fallback target for new events. The
// calendar also joins the read list so its events count as busy time.
func (s *PlannerService) SetDefaultCalendar(id string) error {
	prefs, err := s.storage.GetCalendarPrefs()
	if err != nil {
		return fmt.Errorf("load calendar prefs: %w", err)
	}
	prefs.DefaultCalendarID = id
	prefs.ReadCalendarIDs = appendCalendar(prefs.ReadCalendarIDs, id)
	return s.storage.SetCalendarPrefs(prefs)
}

// SetDomainCalendar maps a scheduling domain to its target calendar.
func (s *PlannerService) SetDomainCalendar(mode, id string) error {
	if mode != domain.ModeWork && mode != domain.ModePersonal {
		return fmt.Errorf("unknown domain %q", mode)
	}
	prefs, err := s.storage.GetCalendarPrefs()
	if err != nil {
		return fmt.Errorf("load calendar prefs: %w", err)
	}
	if prefs.DomainCalendars == nil {
		prefs.DomainCalendars = make(map[string]string)
	}
	prefs.DomainCalendars[mode] = id
	prefs.ReadCalendarIDs = appendCalendar(prefs.ReadCalendarIDs, id)
	return s.storage.SetCalendarPrefs(prefs)
}

// AddReadCalendar adds a calendar to the busy-time and agenda sources.
func (s *PlannerService) AddReadCalendar(id string) error {
	prefs, err := s.storage.GetCalendarPrefs()
	if err != nil {
		return fmt.Errorf("load calendar prefs: %w", err)
	}
	prefs.ReadCalendarIDs = appendCalendar(prefs.ReadCalendarIDs, id)
	return s.storage.SetCalendarPrefs(prefs)
}

// SetDayAvailability replaces one weekday's planning windows wholesale.
func (s *PlannerService) SetDayAvailability(wd time.Weekday, day domain.DayAvailability) error {
	return s.storage.SetAvailability(wd, day)
}

func appendCalendar(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
