package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tazhate/planbot/config"
	"github.com/tazhate/planbot/internal/domain"
	"github.com/tazhate/planbot/internal/service"
)

type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

// Scheduler runs the recurring jobs: the morning auto-plan, the hourly
// Todoist import, and nothing else. Engine invocations stay serialized
// inside cron's single run loop, so two planning passes never race on the
// same calendars.
type Scheduler struct {
	cron            *cron.Cron
	cfg             *config.Config
	plannerService  *service.PlannerService
	activityService *service.ActivityService
	sender          MessageSender
}

func New(cfg *config.Config, plannerSvc *service.PlannerService, activitySvc *service.ActivityService) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:            c,
		cfg:             cfg,
		plannerService:  plannerSvc,
		activityService: activitySvc,
	}
}

func (s *Scheduler) SetSender(sender MessageSender) {
	s.sender = sender
}

func (s *Scheduler) Start(ctx context.Context) error {
	h, m, ok := domain.ParseClock(s.cfg.MorningTime)
	if !ok {
		return fmt.Errorf("invalid MORNING_TIME %q", s.cfg.MorningTime)
	}
	morningSpec := fmt.Sprintf("%d %d * * *", m, h)
	if _, err := s.cron.AddFunc(morningSpec, s.morningPlan); err != nil {
		return fmt.Errorf("add morning plan: %w", err)
	}

	if _, err := s.cron.AddFunc("@hourly", s.importActivities); err != nil {
		return fmt.Errorf("add activity import: %w", err)
	}

	s.cron.Start()
	log.Printf("Scheduler started (TZ: %s, morning plan at %s)", s.cfg.Timezone, s.cfg.MorningTime)

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

// morningPlan builds today's plan and reports it to the owner.
func (s *Scheduler) morningPlan() {
	if s.sender == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	day := time.Now().In(s.cfg.Timezone)
	plan, err := s.plannerService.ProposeDailyPlan(ctx, day)
	if err != nil {
		log.Printf("Error building morning plan: %v", err)
		return
	}

	text := "Good morning!\n\n"
	if len(plan.Proposals) == 0 {
		text += "Nothing to place today."
	} else {
		text += fmt.Sprintf("Plan for today (%d items):\n", len(plan.Proposals))
		for _, p := range plan.Proposals {
			text += fmt.Sprintf("  %s-%s  %s\n", p.Start.Format("15:04"), p.End.Format("15:04"), p.Title)
		}
	}
	if len(plan.UnplacedDue) > 0 {
		text += fmt.Sprintf("\n⚠️ %d due item(s) did not fit:\n", len(plan.UnplacedDue))
		for _, a := range plan.UnplacedDue {
			text += "  • " + a.Title + "\n"
		}
	}

	if err := s.sender.SendMessage(s.cfg.OwnerTelegramID, text); err != nil {
		log.Printf("Error sending morning plan: %v", err)
	}
}

// importActivities pulls new Todoist tasks into the backlog.
func (s *Scheduler) importActivities() {
	res, err := s.activityService.ImportFromTodoist()
	if err != nil {
		// Not configured is the normal quiet case.
		return
	}
	if res.Added > 0 {
		log.Printf("Todoist import: %d added, %d skipped", res.Added, res.Skipped)
	}
	for _, e := range res.Errors {
		log.Printf("Todoist import error: %s", e)
	}
}
