package domain

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusPending     TaskStatus = "pending"
	StatusOnHold      TaskStatus = "onHold"
	StatusInProgress  TaskStatus = "inProgress"
	StatusUnderReview TaskStatus = "underReview"
	StatusCompleted   TaskStatus = "completed"
)

// Valid reports whether s is one of the known workflow states.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusOnHold, StatusInProgress, StatusUnderReview, StatusCompleted:
		return true
	}
	return false
}

// Task belongs to exactly one project. A task resolved from a request path
// is only usable if its ProjectID matches the project resolved from the
// same path.
type Task struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StatusChange is an audit entry recording who moved a task to a status.
type StatusChange struct {
	ID        string
	TaskID    string
	UserID    string
	Status    TaskStatus
	CreatedAt time.Time
}
