package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tazhate/planbot/config"
	"github.com/tazhate/planbot/internal/bot"
	"github.com/tazhate/planbot/internal/clients/caldav"
	"github.com/tazhate/planbot/internal/clients/todoist"
	"github.com/tazhate/planbot/internal/scheduler"
	"github.com/tazhate/planbot/internal/service"
	"github.com/tazhate/planbot/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer store.Close()

	caldavClient := caldav.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword)
	todoistClient := todoist.NewClient(cfg.TodoistToken)
	if cfg.TodoistProjectID != "" {
		todoistClient.SetProjectID(cfg.TodoistProjectID)
	}

	activitySvc := service.NewActivityService(store, todoistClient)
	rankingSvc := service.NewRankingService()
	plannerSvc := service.NewPlannerService(store, caldavClient, rankingSvc, cfg.Timezone, cfg.PlanHorizonDays, cfg.MaxDailyItems)

	tgBot, err := bot.New(cfg, activitySvc, plannerSvc)
	if err != nil {
		log.Fatalf("Failed to init bot: %v", err)
	}

	sched := scheduler.New(cfg, plannerSvc, activitySvc)
	sched.SetSender(tgBot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Printf("Scheduler error: %v", err)
		}
	}()

	go func() {
		if err := tgBot.Start(ctx); err != nil {
			log.Printf("Bot error: %v", err)
		}
	}()

	log.Println("PlanBot started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	cancel()
	sched.Stop()
	time.Sleep(time.Second)
}
