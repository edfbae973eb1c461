package sqlite

import (
	"context"

	"github.com/crowdwork/taskd/internal/domain"
)

type tasksRepo struct {
	q querier
}

const taskColumns = `id, project_id, name, description, status, created_at, updated_at`

func (r *tasksRepo) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, name, description, status)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Name, t.Description, t.Status)
	return err
}

func (r *tasksRepo) GetTaskByID(ctx context.Context, id string) (domain.Task, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (r *tasksRepo) ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = ? ORDER BY created_at, id`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *tasksRepo) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE tasks SET name = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		t.Name, t.Description, t.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *tasksRepo) DeleteTask(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *tasksRepo) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, taskID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *tasksRepo) AppendStatusChange(ctx context.Context, c domain.StatusChange) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO task_status_log (id, task_id, user_id, status) VALUES (?, ?, ?, ?)`,
		c.ID, c.TaskID, c.UserID, c.Status)
	return err
}

func (r *tasksRepo) ListStatusChanges(ctx context.Context, taskID string) ([]domain.StatusChange, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, task_id, user_id, status, created_at
		 FROM task_status_log WHERE task_id = ? ORDER BY created_at, id`,
		taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []domain.StatusChange
	for rows.Next() {
		var c domain.StatusChange
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	return t, nil
}
