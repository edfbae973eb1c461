package http

import (
	"net/http"

	"github.com/crowdwork/taskd/internal/service"
	"github.com/crowdwork/taskd/pkg/httpx"
	"github.com/crowdwork/taskd/pkg/slogx"
)

// ProjectHandler serves project CRUD. Resolution and authorization happen
// in the middleware chain; handlers read resolved entities off the context.
type ProjectHandler struct {
	ProjectService *service.ProjectService
	TaskService    *service.TaskService
}

func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectName string `json:"projectName"`
		ClientName  string `json:"clientName"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.ProjectName, "project name is required")
	errs.requireNonEmpty(req.ClientName, "client name is required")
	errs.requireNonEmpty(req.Description, "description is required")
	if errs.write(w) {
		return
	}

	_, err := h.ProjectService.Create(r.Context(), userFrom(r.Context()).ID,
		req.ProjectName, req.ClientName, req.Description)
	if err != nil {
		slogx.FromContext(r.Context()).Error("create project failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "could not create the project")
		return
	}
	httpx.WriteMessage(w, "Project created")
}

func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.ProjectService.List(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		slogx.FromContext(r.Context()).Error("list projects failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	project := projectFrom(r.Context())

	tasks, err := h.TaskService.ListByProject(r.Context(), project.ID)
	if err != nil {
		slogx.FromContext(r.Context()).Error("list project tasks failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, projectDetailResponse{
		projectResponse: toProjectResponse(project),
		Tasks:           toTaskResponses(tasks),
	})
}

func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectName string `json:"projectName"`
		ClientName  string `json:"clientName"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.ProjectName, "project name is required")
	errs.requireNonEmpty(req.ClientName, "client name is required")
	errs.requireNonEmpty(req.Description, "description is required")
	if errs.write(w) {
		return
	}

	_, err := h.ProjectService.Update(r.Context(), projectFrom(r.Context()).ID,
		req.ProjectName, req.ClientName, req.Description)
	if err != nil {
		slogx.FromContext(r.Context()).Error("update project failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	httpx.WriteMessage(w, "Project updated")
}

func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.ProjectService.Delete(r.Context(), projectFrom(r.Context()).ID); err != nil {
		slogx.FromContext(r.Context()).Error("delete project failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	httpx.WriteMessage(w, "Project deleted")
}
