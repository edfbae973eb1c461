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

var (
	ErrMemberExists   = errors.New("member_exists")
	ErrMemberNotFound = errors.New("member_not_found")
)

// ProjectService manages projects and their collaborator lists. Who may
// call which operation is decided at the transport layer; this service
// assumes the caller is already authorized.
type ProjectService struct {
	Store store.Store
}

// Create makes a new project owned by managerID.
func (s *ProjectService) Create(ctx context.Context, managerID, name, clientName, description string) (domain.Project, error) {
	now := time.Now().UTC()
	p := domain.Project{
		ID:          idx.New().String(),
		ProjectName: strings.TrimSpace(name),
		ClientName:  strings.TrimSpace(clientName),
		Description: strings.TrimSpace(description),
		ManagerID:   managerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.Projects().CreateProject(ctx, p); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// List returns every project the user manages or collaborates on.
func (s *ProjectService) List(ctx context.Context, userID string) ([]domain.Project, error) {
	return s.Store.Projects().ListProjectsForUser(ctx, userID)
}

// Get fetches a project by ID.
func (s *ProjectService) Get(ctx context.Context, projectID string) (domain.Project, error) {
	return s.Store.Projects().GetProjectByID(ctx, projectID)
}

// Update rewrites a project's descriptive fields.
func (s *ProjectService) Update(ctx context.Context, projectID, name, clientName, description string) (domain.Project, error) {
	p, err := s.Store.Projects().GetProjectByID(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	p.ProjectName = strings.TrimSpace(name)
	p.ClientName = strings.TrimSpace(clientName)
	p.Description = strings.TrimSpace(description)
	p.UpdatedAt = time.Now().UTC()

	if err := s.Store.Projects().UpdateProject(ctx, p); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// Delete removes a project. Tasks, memberships, status history and notes go
// with it via foreign keys.
func (s *ProjectService) Delete(ctx context.Context, projectID string) error {
	return s.Store.Projects().DeleteProject(ctx, projectID)
}

// FindMemberByEmail locates a user to invite by their email address.
func (s *ProjectService) FindMemberByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// AddMember puts a user on the project's collaborator list. The manager and
// existing collaborators cannot be added again.
func (s *ProjectService) AddMember(ctx context.Context, project domain.Project, userID string) error {
	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if project.IsManager(userID) {
		return ErrMemberExists
	}

	if err := s.Store.Projects().AddMember(ctx, project.ID, userID); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrMemberExists
		}
		return err
	}
	return nil
}

// RemoveMember drops a user from the collaborator list.
func (s *ProjectService) RemoveMember(ctx context.Context, projectID, userID string) error {
	if err := s.Store.Projects().RemoveMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	return nil
}

// Team lists the project's collaborators, manager excluded.
func (s *ProjectService) Team(ctx context.Context, projectID string) ([]domain.User, error) {
	return s.Store.Projects().ListMembers(ctx, projectID)
}
