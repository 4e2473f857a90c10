package model

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

var TaskStatuses = []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted}

func (s TaskStatus) Valid() bool {
	for _, known := range TaskStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	UserID      string     `json:"userId"`
	ParentID    *string    `json:"parentId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// OwnedBy reports whether userID owns the task.
func (t *Task) OwnedBy(userID string) bool {
	return t.UserID == userID
}
