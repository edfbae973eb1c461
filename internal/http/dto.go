package http

import (
	"time"

	"github.com/crowdwork/taskd/internal/domain"
)

// Response DTOs. Field names follow the JSON shape the web client consumes.

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type projectResponse struct {
	ID          string    `json:"id"`
	ProjectName string    `json:"projectName"`
	ClientName  string    `json:"clientName"`
	Description string    `json:"description"`
	Manager     string    `json:"manager"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProjectResponse(p domain.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		ProjectName: p.ProjectName,
		ClientName:  p.ClientName,
		Description: p.Description,
		Manager:     p.ManagerID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type projectDetailResponse struct {
	projectResponse
	Tasks []taskResponse `json:"tasks"`
}

type taskResponse struct {
	ID          string            `json:"id"`
	Project     string            `json:"project"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      domain.TaskStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func toTaskResponse(t domain.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Project:     t.ProjectID,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskResponses(tasks []domain.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

type statusChangeResponse struct {
	User   string            `json:"user"`
	Status domain.TaskStatus `json:"status"`
	At     time.Time         `json:"at"`
}

type taskDetailResponse struct {
	taskResponse
	CompletedBy []statusChangeResponse `json:"completedBy"`
	Notes       []noteResponse         `json:"notes"`
}

type noteResponse struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNoteResponse(n domain.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Task:      n.TaskID,
		Content:   n.Content,
		CreatedBy: n.AuthorID,
		CreatedAt: n.CreatedAt,
	}
}

func toNoteResponses(notes []domain.Note) []noteResponse {
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	return out
}
