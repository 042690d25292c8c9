package todoist

import "time"

// Task is a Todoist task as returned by the REST API.
type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id,omitempty"`
	Content     string    `json:"content"`
	Description string    `json:"description,omitempty"`
	Priority    int       `json:"priority,omitempty"` // 1 (normal) to 4 (urgent)
	Due         *Due      `json:"due,omitempty"`
	Duration    *Duration `json:"duration,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	IsCompleted bool      `json:"is_completed,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Due holds due date info.
type Due struct {
	String      string `json:"string,omitempty"`   // Human readable
	Date        string `json:"date,omitempty"`     // YYYY-MM-DD
	DateTime    string `json:"datetime,omitempty"` // RFC3339
	IsRecurring bool   `json:"is_recurring,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
}

// Duration is the task's estimated effort.
type Duration struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit"` // "minute" or "day"
}

// Minutes converts the duration to minutes, zero when unusable.
func (d *Duration) Minutes() int {
	if d == nil || d.Amount <= 0 {
		return 0
	}
	switch d.Unit {
	case "minute":
		return d.Amount
	case "day":
		return d.Amount * 24 * 60
	default:
		return 0
	}
}
