package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/planbot/internal/domain"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	switch cmd {
	case "start", "help":
		b.cmdHelp(chatID)
	case "add":
		b.cmdAdd(chatID, args)
	case "list":
		b.cmdList(chatID)
	case "done":
		b.cmdDone(chatID, args)
	case "status":
		b.cmdStatus(chatID, args)
	case "skip":
		b.cmdSkip(chatID, args)
	case "goal":
		b.cmdGoal(chatID, args)
	case "goals":
		b.cmdGoals(chatID)
	case "plan":
		b.cmdPlan(ctx, chatID)
	case "schedule":
		b.cmdSchedule(ctx, chatID)
	case "slots":
		b.cmdSlots(ctx, chatID, args)
	case "agenda":
		b.cmdAgenda(ctx, chatID)
	case "calendars":
		b.cmdCalendars(ctx, chatID)
	case "setcalendar":
		b.cmdSetCalendar(chatID, args)
	case "watch":
		b.cmdWatch(chatID, args)
	case "hours":
		b.cmdHours(chatID, args)
	default:
		b.SendMessage(chatID, "Unknown command. /help for the list")
	}
}

func (b *Bot) cmdHelp(chatID int64) {
	text := `<b>Commands:</b>

<b>Planning</b>
/plan — plan today
/schedule — propose placements for the open backlog
/slots ID — candidate slots for one activity
/agenda — today's agenda (deduplicated)

<b>Activities</b>
/add title [due:2026-09-01] [est:45] [goal:ID] — add an activity
/list — open activities
/done ID — mark done
/status ID done|todo|in_progress|cancelled — change status
/skip ID — leave out of today's plan
/goal title [arc:ID] — add a goal
/goals — list goals

<b>Setup</b>
/calendars — list calendars on the account
/setcalendar [work|personal] ID — default or per-domain target calendar
/watch ID — also read this calendar for busy time
/hours mon 09:00-17:00 18:00-21:00 — work then personal windows
/hours sun off — disable a day`

	b.SendMessage(chatID, text)
}

func (b *Bot) cmdAdd(chatID int64, args string) {
	title, estimate, due, goalID, err := parseAddArgs(args)
	if err != nil {
		b.SendMessage(chatID, err.Error())
		return
	}
	if title == "" {
		b.SendMessage(chatID, "Usage: /add Prepare quarterly report [due:2026-09-01] [est:45] [goal:ID]")
		return
	}

	a, err := b.activityService.Create(title, estimate, due, goalID)
	if err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	b.SendMessage(chatID, fmt.Sprintf("Added <b>%s</b> (id %s)", a.Title, a.ID))
}

// parseAddArgs splits /add arguments into the title and the optional
// due:/est:/goal: tokens, which may appear anywhere in the text.
func parseAddArgs(args string) (title string, estimate int, due, goalID string, err error) {
	var words []string
	for _, tok := range strings.Fields(args) {
		switch {
		case strings.HasPrefix(tok, "due:"):
			due = strings.TrimPrefix(tok, "due:")
			if _, perr := time.Parse("2006-01-02", due); perr != nil {
				return "", 0, "", "", fmt.Errorf("bad due date %q, want due:YYYY-MM-DD", due)
			}
		case strings.HasPrefix(tok, "est:"):
			n, perr := strconv.Atoi(strings.TrimPrefix(tok, "est:"))
			if perr != nil || n <= 0 {
				return "", 0, "", "", fmt.Errorf("bad estimate %q, want est:minutes", tok)
			}
			estimate = n
		case strings.HasPrefix(tok, "goal:"):
			goalID = strings.TrimPrefix(tok, "goal:")
		default:
			words = append(words, tok)
		}
	}
	return strings.Join(words, " "), estimate, due, goalID, nil
}

func (b *Bot) cmdList(chatID int64) {
	activities, err := b.activityService.ListOpen()
	if err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	if len(activities) == 0 {
		b.SendMessage(chatID, "Backlog is empty")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Open activities:</b>\n")
	for _, a := range activities {
		line := fmt.Sprintf("• %s (id %s", a.Title, a.ID)
		if a.ScheduledDate != "" {
			line += ", due " + a.ScheduledDate
		}
		if a.ScheduledAt != nil {
			line += ", planned " + a.ScheduledAt.Format("02.01 15:04")
		}
		sb.WriteString(line + ")\n")
	}
	b.SendMessage(chatID, sb.String())
}

func (b *Bot) cmdDone(chatID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Usage: /done ID")
		return
	}
	if err := b.activityService.MarkDone(args); err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	b.SendMessage(chatID, "Done ✅")
}

func (b *Bot) cmdStatus(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.SendMessage(chatID, "Usage: /status ID done|todo|in_progress|cancelled")
		return
	}
	status := domain.ParseStatus(fields[1])
	if err := b.activityService.SetStatus(fields[0], status); err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	b.SendMessage(chatID, fmt.Sprintf("Status set to %s", status))
}

func (b *Bot) cmdGoal(chatID int64, args string) {
	var arcID string
	var words []string
	for _, tok := range strings.Fields(args) {
		if strings.HasPrefix(tok, "arc:") {
			arcID = strings.TrimPrefix(tok, "arc:")
			continue
		}
		words = append(words, tok)
	}
	title := strings.Join(words, " ")
	if title == "" {
		b.SendMessage(chatID, "Usage: /goal Ship the Q4 roadmap [arc:ID]")
		return
	}

	g, err := b.activityService.CreateGoal(title, arcID)
	if err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	b.SendMessage(chatID, fmt.Sprintf("Added goal <b>%s</b> (id %s)", g.Title, g.ID))
}

func (b *Bot) cmdGoals(chatID int64) {
	goals, err := b.activityService.Goals()
	if err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	if len(goals) == 0 {
		b.SendMessage(chatID, "No goals yet. /goal title to add one")
		return
	}

	ids := make([]string, 0, len(goals))
	for id := range goals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	sb.WriteString("<b>Goals:</b>\n")
	for _, id := range ids {
		g := goals[id]
		line := fmt.Sprintf("• %s (id %s", g.Title, g.ID)
		if g.ArcID != "" {
			line += ", arc " + g.ArcID
		}
		sb.WriteString(line + ")\n")
	}
	b.SendMessage(chatID, sb.String())
}

func (b *Bot) cmdSkip(chatID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Usage: /skip ID")
		return
	}
	day := time.Now().In(b.cfg.Timezone)
	if err := b.activityService.Dismiss(args, day); err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	b.SendMessage(chatID, "Skipped for today")
}

func (b *Bot) cmdPlan(ctx context.Context, chatID int64) {
	day := time.Now().In(b.cfg.Timezone)
	plan, err := b.plannerService.ProposeDailyPlan(ctx, day)
	if err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}

	if len(plan.Proposals) == 0 && len(plan.UnplacedDue) == 0 {
		b.SendMessage(chatID, "Nothing to place today")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Plan for today:</b>\n")
	for _, p := range plan.Proposals {
		sb.WriteString(fmt.Sprintf("%s-%s  %s\n", p.Start.Format("15:04"), p.End.Format("15:04"), p.Title))
	}
	if len(plan.UnplacedDue) > 0 {
		sb.WriteString("\n⚠️ <b>Due today but did not fit:</b>\n")
		for _, a := range plan.UnplacedDue {
			sb.WriteString("• " + a.Title + "\n")
		}
	}
	b.SendMessage(chatID, sb.String())
}

func (b *Bot) cmdSchedule(ctx context.Context, chatID int64) {
	proposals, err := b.plannerService.ProposeSchedule(ctx)
	if err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	if len(proposals) == 0 {
		b.SendMessage(chatID, "Nothing to schedule")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Proposed placements:</b>\n")
	for _, p := range proposals {
		sb.WriteString(fmt.Sprintf("%s %s-%s  %s [%s]\n",
			p.Start.Format("Mon 02.01"), p.Start.Format("15:04"), p.End.Format("15:04"), p.Title, p.Domain))
	}

	committed, err := b.plannerService.CommitProposals(ctx, proposals)
	if err != nil {
		sb.WriteString("\nNot pushed to calendar: " + err.Error())
	} else {
		sb.WriteString(fmt.Sprintf("\nPushed %d event(s) to the calendar", committed))
	}
	b.SendMessage(chatID, sb.String())
}

func (b *Bot) cmdSlots(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.SendMessage(chatID, "Usage: /slots ID")
		return
	}

	slots, err := b.plannerService.SuggestSlots(ctx, args, 5)
	if err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	if len(slots) == 0 {
		b.SendMessage(chatID, "No free slots in the horizon")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Candidate slots:</b>\n")
	for _, s := range slots {
		sb.WriteString(fmt.Sprintf("%s %s-%s\n",
			s.Start.Format("Mon 02.01"), s.Start.Format("15:04"), s.End.Format("15:04")))
	}
	b.SendMessage(chatID, sb.String())
}

func (b *Bot) cmdAgenda(ctx context.Context, chatID int64) {
	now := time.Now().In(b.cfg.Timezone)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, b.cfg.Timezone)
	to := from.AddDate(0, 0, 1)

	agenda, err := b.plannerService.BuildAgenda(ctx, from, to)
	if err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}

	if len(agenda.Blocks) == 0 && len(agenda.Events) == 0 {
		b.SendMessage(chatID, "Nothing on the agenda today")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Today:</b>\n")
	for _, bl := range agenda.Blocks {
		sb.WriteString(fmt.Sprintf("%s-%s  %s\n", bl.Start.Format("15:04"), bl.End.Format("15:04"), bl.Activity.Title))
	}
	for _, e := range agenda.Events {
		sb.WriteString(fmt.Sprintf("%s  %s\n", e.FormatTime(), e.Title))
	}
	b.SendMessage(chatID, sb.String())
}

func (b *Bot) cmdCalendars(ctx context.Context, chatID int64) {
	calendars, err := b.plannerService.DiscoverCalendars(ctx)
	if err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	if len(calendars) == 0 {
		b.SendMessage(chatID, "No calendars found")
		return
	}

	var sb strings.Builder
	sb.WriteString("<b>Calendars:</b>\n")
	for _, c := range calendars {
		sb.WriteString(fmt.Sprintf("• %s\n  <code>%s</code>\n", c.DisplayName, c.ID))
	}
	b.SendMessage(chatID, sb.String())
}

func (b *Bot) cmdSetCalendar(chatID int64, args string) {
	fields := strings.Fields(args)
	switch len(fields) {
	case 1:
		if err := b.plannerService.SetDefaultCalendar(fields[0]); err != nil {
			b.SendMessage(chatID, "Failed: "+err.Error())
			return
		}
		b.SendMessage(chatID, "Default calendar set")
	case 2:
		if err := b.plannerService.SetDomainCalendar(fields[0], fields[1]); err != nil {
			b.SendMessage(chatID, "Failed: "+err.Error())
			return
		}
		b.SendMessage(chatID, fmt.Sprintf("Calendar for %s set", fields[0]))
	default:
		b.SendMessage(chatID, "Usage: /setcalendar [work|personal] ID (IDs from /calendars)")
	}
}

func (b *Bot) cmdWatch(chatID int64, args string) {
	if args == "" || len(strings.Fields(args)) != 1 {
		b.SendMessage(chatID, "Usage: /watch ID (IDs from /calendars)")
		return
	}
	if err := b.plannerService.AddReadCalendar(args); err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	b.SendMessage(chatID, "Calendar added to busy-time sources")
}

func (b *Bot) cmdHours(chatID int64, args string) {
	const usage = "Usage: /hours mon 09:00-17:00 [18:00-21:00] (work, then personal) or /hours sun off"

	fields := strings.Fields(args)
	if len(fields) < 2 {
		b.SendMessage(chatID, usage)
		return
	}
	wd, ok := parseWeekday(fields[0])
	if !ok {
		b.SendMessage(chatID, usage)
		return
	}

	day := domain.DayAvailability{}
	if fields[1] != "off" {
		day.Enabled = true
		for i, f := range fields[1:] {
			w, ok := parseWindow(f)
			if !ok {
				b.SendMessage(chatID, fmt.Sprintf("Bad window %q. %s", f, usage))
				return
			}
			if i == 0 {
				day.Work = append(day.Work, w)
			} else {
				day.Personal = append(day.Personal, w)
			}
		}
	}

	if err := b.plannerService.SetDayAvailability(wd, day); err != nil {
		b.SendMessage(chatID, "Failed: "+err.Error())
		return
	}
	if day.Enabled {
		b.SendMessage(chatID, fmt.Sprintf("Hours for %s updated", wd))
	} else {
		b.SendMessage(chatID, fmt.Sprintf("%s disabled for planning", wd))
	}
}

func parseWeekday(s string) (time.Weekday, bool) {
	switch strings.ToLower(s) {
	case "sun", "sunday":
		return time.Sunday, true
	case "mon", "monday":
		return time.Monday, true
	case "tue", "tuesday":
		return time.Tuesday, true
	case "wed", "wednesday":
		return time.Wednesday, true
	case "thu", "thursday":
		return time.Thursday, true
	case "fri", "friday":
		return time.Friday, true
	case "sat", "saturday":
		return time.Saturday, true
	}
	return time.Sunday, false
}

// parseWindow parses "HH:MM-HH:MM" with start strictly before end.
func parseWindow(s string) (domain.TimeWindow, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return domain.TimeWindow{}, false
	}
	sh, sm, ok := domain.ParseClock(parts[0])
	if !ok {
		return domain.TimeWindow{}, false
	}
	eh, em, ok := domain.ParseClock(parts[1])
	if !ok {
		return domain.TimeWindow{}, false
	}
	if eh*60+em <= sh*60+sm {
		return domain.TimeWindow{}, false
	}
	return domain.TimeWindow{Start: parts[0], End: parts[1]}, true
}
