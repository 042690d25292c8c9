package bot

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tazhate/planbot/config"
	"github.com/tazhate/planbot/internal/service"
)

type Bot struct {
	api             *tgbotapi.BotAPI
	cfg             *config.Config
	activityService *service.ActivityService
	plannerService  *service.PlannerService
}

func New(cfg *config.Config, activitySvc *service.ActivityService, plannerSvc *service.PlannerService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("Authorized as @%s", api.Self.UserName)

	bot := &Bot{
		api:             api,
		cfg:             cfg,
		activityService: activitySvc,
		plannerService:  plannerSvc,
	}

	// Set bot commands (menu button)
	bot.setCommands()

	return bot, nil
}

func (b *Bot) setCommands() {
	commands := []tgbotapi.BotCommand{
		{Command: "plan", Description: "Plan today"},
		{Command: "schedule", Description: "Propose placements for the backlog"},
		{Command: "agenda", Description: "Today's agenda"},
		{Command: "add", Description: "Add an activity"},
		{Command: "list", Description: "List open activities"},
		{Command: "help", Description: "Command reference"},
	}

	cfg := tgbotapi.NewSetMyCommands(commands...)
	if _, err := b.api.Request(cfg); err != nil {
		log.Printf("Failed to set commands: %v", err)
	}
}

func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	msg := update.Message
	if !b.cfg.IsAllowedUser(msg.From.ID) {
		return
	}

	b.handleCommand(ctx, msg)
}

func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	_, err := b.api.Send(msg)
	return err
}
