package models

import "time"

// Task is owned by exactly one user; OwnerID never changes after creation.
type Task struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     string    `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Sortable task fields, keyed by their JSON names.
const (
	TaskSortCreatedAt   = "createdAt"
	TaskSortUpdatedAt   = "updatedAt"
	TaskSortDescription = "description"
	TaskSortCompleted   = "completed"
)

// TaskQuery narrows a task listing. A nil Completed means no filter, a zero
// Limit means no limit.
type TaskQuery struct {
	Completed *bool
	SortField string
	SortDesc  bool
	Limit     int
	Skip      int
}
