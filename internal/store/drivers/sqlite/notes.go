package sqlite

import (
	"context"

	"github.com/crowdwork/taskd/internal/domain"
)

type notesRepo struct {
	q querier
}

func (r *notesRepo) CreateNote(ctx context.Context, n domain.Note) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO notes (id, task_id, author_id, content) VALUES (?, ?, ?, ?)`,
		n.ID, n.TaskID, n.AuthorID, n.Content)
	return err
}

func (r *notesRepo) GetNoteByID(ctx context.Context, id string) (domain.Note, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, task_id, author_id, content, created_at FROM notes WHERE id = ?`, id)

	var n domain.Note
	err := row.Scan(&n.ID, &n.TaskID, &n.AuthorID, &n.Content, &n.CreatedAt)
	if err != nil {
		return domain.Note{}, mapNotFound(err)
	}
	return n, nil
}

func (r *notesRepo) ListNotesByTask(ctx context.Context, taskID string) ([]domain.Note, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, task_id, author_id, content, created_at
		 FROM notes WHERE task_id = ? ORDER BY created_at, id`,
		taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.TaskID, &n.AuthorID, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *notesRepo) DeleteNote(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
