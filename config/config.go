package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	TelegramToken   string
	OwnerTelegramID int64
	DatabasePath    string
	Timezone        *time.Location
	MorningTime     string

	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string

	TodoistToken     string
	TodoistProjectID string

	PlanHorizonDays int
	MaxDailyItems   int
}

func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	ownerID, err := strconv.ParseInt(os.Getenv("OWNER_TELEGRAM_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("OWNER_TELEGRAM_ID is required and must be a number")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/planbot.db"
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "Europe/Moscow"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	morningTime := os.Getenv("MORNING_TIME")
	if morningTime == "" {
		morningTime = "08:00"
	}

	horizonDays := 7
	if v := os.Getenv("PLAN_HORIZON_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid PLAN_HORIZON_DAYS: %q", v)
		}
		horizonDays = n
	}

	maxDailyItems := 5
	if v := os.Getenv("MAX_DAILY_ITEMS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid MAX_DAILY_ITEMS: %q", v)
		}
		maxDailyItems = n
	}

	return &Config{
		TelegramToken:    token,
		OwnerTelegramID:  ownerID,
		DatabasePath:     dbPath,
		Timezone:         tz,
		MorningTime:      morningTime,
		CalDAVURL:        os.Getenv("CALDAV_URL"),
		CalDAVUsername:   os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword:   os.Getenv("CALDAV_PASSWORD"),
		TodoistToken:     os.Getenv("TODOIST_TOKEN"),
		TodoistProjectID: os.Getenv("TODOIST_PROJECT_ID"),
		PlanHorizonDays:  horizonDays,
		MaxDailyItems:    maxDailyItems,
	}, nil
}

func (c *Config) IsAllowedUser(telegramID int64) bool {
	return telegramID == c.OwnerTelegramID
}
