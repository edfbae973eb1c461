package sqlite

import (
	"context"

	"github.com/crowdwork/taskd/internal/domain"
)

type projectsRepo struct {
	q querier
}

const projectColumns = `id, project_name, client_name, description, manager_id, created_at, updated_at`

func (r *projectsRepo) CreateProject(ctx context.Context, p domain.Project) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO projects (id, project_name, client_name, description, manager_id)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.ProjectName, p.ClientName, p.Description, p.ManagerID)
	return err
}

func (r *projectsRepo) GetProjectByID(ctx context.Context, id string) (domain.Project, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (r *projectsRepo) ListProjectsForUser(ctx context.Context, userID string) ([]domain.Project, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE manager_id = ?
		    OR id IN (SELECT project_id FROM project_members WHERE user_id = ?)
		 ORDER BY created_at DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *projectsRepo) UpdateProject(ctx context.Context, p domain.Project) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE projects
		 SET project_name = ?, client_name = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.ProjectName, p.ClientName, p.Description, p.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *projectsRepo) DeleteProject(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *projectsRepo) AddMember(ctx context.Context, projectID, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id) VALUES (?, ?)`,
		projectID, userID)
	return mapConflict(err)
}

func (r *projectsRepo) RemoveMember(ctx context.Context, projectID, userID string) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *projectsRepo) ListMembers(ctx context.Context, projectID string) ([]domain.User, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT u.id, u.email, u.name, u.password_hash, u.confirmed, u.created_at, u.updated_at
		 FROM users u
		 JOIN project_members pm ON pm.user_id = u.id
		 WHERE pm.project_id = ?
		 ORDER BY pm.created_at`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

func (r *projectsRepo) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.ProjectName, &p.ClientName, &p.Description, &p.ManagerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Project{}, mapNotFound(err)
	}
	return p, nil
}
