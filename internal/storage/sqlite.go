package storage

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tazhate/planbot/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS goals (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			arc_id TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'todo',
			scheduled_at DATETIME,
			scheduled_date TEXT DEFAULT '',
			estimate_minutes INTEGER DEFAULT 0,
			domain TEXT DEFAULT '',
			goal_id TEXT DEFAULT '',
			calendar_id TEXT DEFAULT '',
			ext_provider TEXT DEFAULT '',
			ext_account_id TEXT DEFAULT '',
			ext_calendar_id TEXT DEFAULT '',
			ext_event_id TEXT DEFAULT '',
			todoist_id TEXT DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_status ON activities(status)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_scheduled_date ON activities(scheduled_date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_todoist ON activities(todoist_id)`,
		// Per-weekday availability overrides; a missing weekday falls back
		// to the built-in default.
		`CREATE TABLE IF NOT EXISTS availability (
			weekday INTEGER PRIMARY KEY,
			data TEXT NOT NULL
		)`,
		// Single-row calendar preference blob.
		`CREATE TABLE IF NOT EXISTS calendar_prefs (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL
		)`,
		// Daily-plan dismissals: activity X skipped for day Y.
		`CREATE TABLE IF NOT EXISTS dismissals (
			activity_id TEXT NOT NULL,
			day TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (activity_id, day)
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// Ignore "duplicate column" errors for ALTER TABLE
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("exec migration: %w", err)
			}
		}
	}
	return nil
}

func newID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// === Activities ===

func (s *Storage) CreateActivity(a *domain.Activity) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.Status == "" {
		a.Status = domain.StatusTodo
	}
	ext := a.External
	if ext == nil {
		ext = &domain.ExternalRef{}
	}
	_, err := s.db.Exec(
		`INSERT INTO activities (id, title, status, scheduled_at, scheduled_date, estimate_minutes, domain, goal_id, calendar_id, ext_provider, ext_account_id, ext_calendar_id, ext_event_id, todoist_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Status, a.ScheduledAt, a.ScheduledDate, a.EstimateMinutes,
		a.Domain, a.GoalID, a.CalendarID,
		ext.Provider, ext.AccountID, ext.CalendarID, ext.EventID, a.TodoistID,
	)
	if err != nil {
		return err
	}
	a.CreatedAt = time.Now()
	return nil
}

const activityColumns = `id, title, status, scheduled_at, scheduled_date, estimate_minutes, domain, goal_id, calendar_id, ext_provider, ext_account_id, ext_calendar_id, ext_event_id, todoist_id, created_at, updated_at`

func scanActivity(row interface{ Scan(...any) error }) (*domain.Activity, error) {
	a := &domain.Activity{}
	ext := domain.ExternalRef{}
	var scheduledAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.Title, &a.Status, &scheduledAt, &a.ScheduledDate, &a.EstimateMinutes,
		&a.Domain, &a.GoalID, &a.CalendarID,
		&ext.Provider, &ext.AccountID, &ext.CalendarID, &ext.EventID, &a.TodoistID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		a.ScheduledAt = &t
	}
	if ext != (domain.ExternalRef{}) {
		a.External = &ext
	}
	return a, nil
}

func (s *Storage) GetActivity(id string) (*domain.Activity, error) {
	a, err := scanActivity(s.db.QueryRow(
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *Storage) GetActivityByTodoistID(todoistID string) (*domain.Activity, error) {
	a, err := scanActivity(s.db.QueryRow(
		`SELECT `+activityColumns+` FROM activities WHERE todoist_id = ?`, todoistID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func (s *Storage) ListActivities(includeClosed bool) ([]*domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities`
	if !includeClosed {
		query += ` WHERE status NOT IN ('done', 'cancelled')`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (s *Storage) UpdateActivityStatus(id string, status domain.Status) error {
	_, err := s.db.Exec(
		`UPDATE activities SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	return err
}

func (s *Storage) UpdateActivitySchedule(id string, scheduledAt *time.Time) error {
	_, err := s.db.Exec(
		`UPDATE activities SET scheduled_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		scheduledAt, id,
	)
	return err
}

// UpdateActivityExternalRef records the external event created from an
// activity; set once after a proposal is pushed to the calendar.
func (s *Storage) UpdateActivityExternalRef(id string, ref *domain.ExternalRef) error {
	if ref == nil {
		ref = &domain.ExternalRef{}
	}
	_, err := s.db.Exec(
		`UPDATE activities SET ext_provider = ?, ext_account_id = ?, ext_calendar_id = ?, ext_event_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		ref.Provider, ref.AccountID, ref.CalendarID, ref.EventID, id,
	)
	return err
}

func (s *Storage) DeleteActivity(id string) error {
	_, err := s.db.Exec(`DELETE FROM activities WHERE id = ?`, id)
	return err
}

// === Goals ===

func (s *Storage) CreateGoal(g *domain.Goal) error {
	if g.ID == "" {
		g.ID = newID()
	}
	_, err := s.db.Exec(`INSERT INTO goals (id, title, arc_id) VALUES (?, ?, ?)`, g.ID, g.Title, g.ArcID)
	if err != nil {
		return err
	}
	g.CreatedAt = time.Now()
	return nil
}

func (s *Storage) ListGoals() (map[string]*domain.Goal, error) {
	rows, err := s.db.Query(`SELECT id, title, arc_id, created_at FROM goals`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := make(map[string]*domain.Goal)
	for rows.Next() {
		g := &domain.Goal{}
		if err := rows.Scan(&g.ID, &g.Title, &g.ArcID, &g.CreatedAt); err != nil {
			return nil, err
		}
		goals[g.ID] = g
	}
	return goals, rows.Err()
}

// === Availability ===

// GetAvailability returns the stored per-weekday overrides. Weekdays
// without a row are absent from the map; the planner falls back to the
// built-in default for them. Malformed rows are skipped.
func (s *Storage) GetAvailability() (domain.WeekAvailability, error) {
	rows, err := s.db.Query(`SELECT weekday, data FROM availability`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	week := make(domain.WeekAvailability)
	for rows.Next() {
		var weekday int
		var data string
		if err := rows.Scan(&weekday, &data); err != nil {
			return nil, err
		}
		if weekday < 0 || weekday > 6 {
			continue
		}
		var day domain.DayAvailability
		if err := json.Unmarshal([]byte(data), &day); err != nil {
			continue
		}
		week[time.Weekday(weekday)] = day
	}
	return week, rows.Err()
}

// SetAvailability replaces one weekday's availability wholesale.
func (s *Storage) SetAvailability(weekday time.Weekday, day domain.DayAvailability) error {
	data, err := json.Marshal(day)
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO availability (weekday, data) VALUES (?, ?)
		 ON CONFLICT(weekday) DO UPDATE SET data = excluded.data`,
		int(weekday), string(data),
	)
	return err
}

// === Calendar preferences ===

func (s *Storage) GetCalendarPrefs() (domain.CalendarPrefs, error) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM calendar_prefs WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return domain.CalendarPrefs{}, nil
	}
	if err != nil {
		return domain.CalendarPrefs{}, err
	}
	var prefs domain.CalendarPrefs
	if err := json.Unmarshal([]byte(data), &prefs); err != nil {
		// Malformed prefs degrade to defaults rather than aborting.
		return domain.CalendarPrefs{}, nil
	}
	return prefs, nil
}

func (s *Storage) SetCalendarPrefs(prefs domain.CalendarPrefs) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO calendar_prefs (id, data) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		string(data),
	)
	return err
}

// === Dismissals ===

func (s *Storage) DismissActivity(activityID string, day time.Time) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO dismissals (activity_id, day) VALUES (?, ?)`,
		activityID, day.Format("2006-01-02"),
	)
	return err
}

func (s *Storage) ListDismissed(day time.Time) (map[string]bool, error) {
	rows, err := s.db.Query(
		`SELECT activity_id FROM dismissals WHERE day = ?`,
		day.Format("2006-01-02"),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dismissed := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dismissed[id] = true
	}
	return dismissed, rows.Err()
}
