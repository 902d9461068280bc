package domain

import "github.com/shopspring/decimal"

// Task statuses.
const (
	TaskStatusActive   = "ACTIVE"
	TaskStatusInactive = "INACTIVE"
)

// TaskStatuses is the cycle order used by the task form.
var TaskStatuses = []string{TaskStatusActive, TaskStatusInactive}

// Task is an earning task offered to users. A zero ID means "create".
type Task struct {
	ID           int64           `json:"id,omitempty"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	TaskType     string          `json:"taskType"`
	RewardAmount decimal.Decimal `json:"rewardAmount"`
	DailyLimit   int             `json:"dailyLimit"`
	Status       string          `json:"status"`
}

// IsNew reports whether the task has not been stored yet.
func (t Task) IsNew() bool {
	return t.ID == 0
}
