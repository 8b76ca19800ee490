package domain

import (
	"fmt"
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskPending  TaskStatus = "pending"
	TaskInReview TaskStatus = "in_review"
	TaskDone     TaskStatus = "done"
)

// ParseTaskStatus validates a raw status string.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskPending, TaskInReview, TaskDone:
		return TaskStatus(s), nil
	default:
		return "", fmt.Errorf("unknown task status %q", s)
	}
}

// Task is a unit of work assigned to a user. Tasks are strictly scoped
// to their owner; no cross-user visibility exists outside reports.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      TaskStatus
	Deadline    time.Time // zero when no deadline is set
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch is a partial update to a task.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Deadline    *time.Time
}

// TaskLog is a progress note attached to a task.
type TaskLog struct {
	ID        string
	TaskID    string
	Author    string // display name of whoever wrote the note
	Text      string
	CreatedAt time.Time
}

// Summary aggregates a user's task progress. Score weights completed
// work over work still in review.
type Summary struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	InReview int `json:"in_review"`
	Done     int `json:"done"`
	Score    int `json:"score"`
}

// Scored returns the summary with its score recomputed from the counts.
func (s Summary) Scored() Summary {
	s.Score = s.Done*10 + s.InReview*5
	return s
}
