package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tazhate/planbot/internal/clients/todoist"
	"github.com/tazhate/planbot/internal/domain"
	"github.com/tazhate/planbot/internal/storage"
)

// ActivityService manages the activity backlog and imports from Todoist.
type ActivityService struct {
	storage *storage.Storage
	todoist *todoist.Client
}

func NewActivityService(s *storage.Storage, todoistClient *todoist.Client) *ActivityService {
	return &ActivityService{storage: s, todoist: todoistClient}
}

func (s *ActivityService) Create(title string, estimateMinutes int, dueDate, goalID string) (*domain.Activity, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("activity title cannot be empty")
	}
	if goalID != "" {
		goals, err := s.storage.ListGoals()
		if err != nil {
			return nil, fmt.Errorf("list goals: %w", err)
		}
		if goals[goalID] == nil {
			return nil, fmt.Errorf("goal %s not found", goalID)
		}
	}

	a := &domain.Activity{
		Title:           title,
		Status:          domain.StatusTodo,
		EstimateMinutes: estimateMinutes,
		ScheduledDate:   dueDate,
		GoalID:          goalID,
	}
	if err := s.storage.CreateActivity(a); err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	return a, nil
}

// CreateGoal adds a goal; its title feeds domain inference for any
// activity linked to it.
func (s *ActivityService) CreateGoal(title, arcID string) (*domain.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("goal title cannot be empty")
	}
	g := &domain.Goal{Title: title, ArcID: arcID}
	if err := s.storage.CreateGoal(g); err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (s *ActivityService) Get(id string) (*domain.Activity, error) {
	return s.storage.GetActivity(id)
}

func (s *ActivityService) ListOpen() ([]*domain.Activity, error) {
	return s.storage.ListActivities(false)
}

func (s *ActivityService) Goals() (map[string]*domain.Goal, error) {
	return s.storage.ListGoals()
}

func (s *ActivityService) MarkDone(id string) error {
	a, err := s.storage.GetActivity(id)
	if err != nil {
		return fmt.Errorf("get activity: %w", err)
	}
	if a == nil {
		return fmt.Errorf("activity not found")
	}

	if err := s.storage.UpdateActivityStatus(id, domain.StatusDone); err != nil {
		return err
	}

	// Close the mirrored Todoist task too, best effort.
	if a.TodoistID != "" && s.todoist != nil && s.todoist.IsConfigured() {
		if err := s.todoist.CloseTask(a.TodoistID); err != nil {
			log.Printf("Warning: failed to close Todoist task %s: %v", a.TodoistID, err)
		}
	}
	return nil
}

// SetStatus moves an activity to an arbitrary status. Unlike MarkDone it
// never touches the mirrored Todoist task.
func (s *ActivityService) SetStatus(id string, status domain.Status) error {
	a, err := s.storage.GetActivity(id)
	if err != nil {
		return fmt.Errorf("get activity: %w", err)
	}
	if a == nil {
		return fmt.Errorf("activity not found")
	}
	return s.storage.UpdateActivityStatus(id, status)
}

// Dismiss excludes an activity from today's daily plan suggestions.
func (s *ActivityService) Dismiss(id string, day time.Time) error {
	a, err := s.storage.GetActivity(id)
	if err != nil {
		return fmt.Errorf("get activity: %w", err)
	}
	if a == nil {
		return fmt.Errorf("activity not found")
	}
	return s.storage.DismissActivity(id, day)
}

// ImportResult summarizes one Todoist import pass.
type ImportResult struct {
	Added   int
	Skipped int
	Errors  []string
}

// ImportFromTodoist pulls open Todoist tasks into the backlog. Recurring
// tasks and tasks already imported are skipped; a bad record is reported
// and never aborts the rest of the pass.
func (s *ActivityService) ImportFromTodoist() (*ImportResult, error) {
	if s.todoist == nil || !s.todoist.IsConfigured() {
		return nil, fmt.Errorf("Todoist not configured")
	}

	tasks, err := s.todoist.GetTasks("")
	if err != nil {
		return nil, fmt.Errorf("get Todoist tasks: %w", err)
	}

	result := &ImportResult{}
	for _, t := range tasks {
		if t.IsCompleted || (t.Due != nil && t.Due.IsRecurring) {
			result.Skipped++
			continue
		}

		existing, err := s.storage.GetActivityByTodoistID(t.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("lookup %s: %v", t.ID, err))
			continue
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		a := &domain.Activity{
			Title:           t.Content,
			Status:          domain.StatusTodo,
			EstimateMinutes: t.Duration.Minutes(),
			TodoistID:       t.ID,
		}
		if t.Due != nil {
			a.ScheduledDate = t.Due.Date
		}

		if err := s.storage.CreateActivity(a); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("import %s: %v", t.ID, err))
			continue
		}
		result.Added++
	}

	return result, nil
}
