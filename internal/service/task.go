package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/crowdwork/taskd/internal/domain"
	"github.com/crowdwork/taskd/internal/store"
	"github.com/crowdwork/taskd/pkg/idx"
)

var ErrBadStatus = errors.New("bad_status")

// TaskService manages tasks inside a project, including the per-task status
// change history.
type TaskService struct {
	Store store.Store
}

// Create adds a task to a project in the pending state.
func (s *TaskService) Create(ctx context.Context, projectID, name, description string) (domain.Task, error) {
	now := time.Now().UTC()
	t := domain.Task{
		ID:          idx.New().String(),
		ProjectID:   projectID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Tasks().CreateTask(ctx, t); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// ListByProject returns all tasks of a project.
func (s *TaskService) ListByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	return s.Store.Tasks().ListTasksByProject(ctx, projectID)
}

// Get fetches a task by ID.
func (s *TaskService) Get(ctx context.Context, taskID string) (domain.Task, error) {
	return s.Store.Tasks().GetTaskByID(ctx, taskID)
}

// Update rewrites a task's name and description. Status changes go through
// UpdateStatus so the history stays complete.
func (s *TaskService) Update(ctx context.Context, taskID, name, description string) (domain.Task, error) {
	t, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	t.Name = strings.TrimSpace(name)
	t.Description = strings.TrimSpace(description)
	t.UpdatedAt = time.Now().UTC()

	if err := s.Store.Tasks().UpdateTask(ctx, t); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

// Delete removes a task and its notes and status history.
func (s *TaskService) Delete(ctx context.Context, taskID string) error {
	return s.Store.Tasks().DeleteTask(ctx, taskID)
}

// UpdateStatus moves a task to a new status and records who moved it. The
// status write and the history append share one transaction.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID, userID string, status domain.TaskStatus) (domain.Task, error) {
	if !status.Valid() {
		return domain.Task{}, ErrBadStatus
	}

	t, err := s.Store.Tasks().GetTaskByID(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	now := time.Now().UTC()
	change := domain.StatusChange{
		ID:        idx.New().String(),
		TaskID:    taskID,
		UserID:    userID,
		Status:    status,
		CreatedAt: now,
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tasks().UpdateTaskStatus(ctx, taskID, status); err != nil {
			return err
		}
		return tx.Tasks().AppendStatusChange(ctx, change)
	})
	if err != nil {
		return domain.Task{}, err
	}

	t.Status = status
	t.UpdatedAt = now
	return t, nil
}

// StatusLog returns a task's status changes, oldest first.
func (s *TaskService) StatusLog(ctx context.Context, taskID string) ([]domain.StatusChange, error) {
	return s.Store.Tasks().ListStatusChanges(ctx, taskID)
}
