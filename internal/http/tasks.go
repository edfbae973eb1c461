package http

import (
	"errors"
	"net/http"

	"github.com/crowdwork/taskd/internal/domain"
	"github.com/crowdwork/taskd/internal/service"
	"github.com/crowdwork/taskd/pkg/httpx"
	"github.com/crowdwork/taskd/pkg/slogx"
)

// TaskHandler serves task CRUD and status moves under a project.
type TaskHandler struct {
	TaskService *service.TaskService
	NoteService *service.NoteService
}

func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.Name, "task name is required")
	errs.requireNonEmpty(req.Description, "task description is required")
	if errs.write(w) {
		return
	}

	_, err := h.TaskService.Create(r.Context(), projectFrom(r.Context()).ID,
		req.Name, req.Description)
	if err != nil {
		slogx.FromContext(r.Context()).Error("create task failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	httpx.WriteMessage(w, "Task created")
}

func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.TaskService.ListByProject(r.Context(), projectFrom(r.Context()).ID)
	if err != nil {
		slogx.FromContext(r.Context()).Error("list tasks failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// HandleGet returns the task with its status history and notes, the full
// detail view the board uses.
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	task := taskFrom(ctx)

	changes, err := h.TaskService.StatusLog(ctx, task.ID)
	if err != nil {
		slogx.FromContext(ctx).Error("list status changes failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	notes, err := h.NoteService.ListByTask(ctx, task.ID)
	if err != nil {
		slogx.FromContext(ctx).Error("list task notes failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}

	completedBy := make([]statusChangeResponse, 0, len(changes))
	for _, c := range changes {
		completedBy = append(completedBy, statusChangeResponse{
			User:   c.UserID,
			Status: c.Status,
			At:     c.CreatedAt,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, taskDetailResponse{
		taskResponse: toTaskResponse(task),
		CompletedBy:  completedBy,
		Notes:        toNoteResponses(notes),
	})
}

func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.Name, "task name is required")
	errs.requireNonEmpty(req.Description, "task description is required")
	if errs.write(w) {
		return
	}

	_, err := h.TaskService.Update(r.Context(), taskFrom(r.Context()).ID,
		req.Name, req.Description)
	if err != nil {
		slogx.FromContext(r.Context()).Error("update task failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	httpx.WriteMessage(w, "Task updated")
}

func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.Delete(r.Context(), taskFrom(r.Context()).ID); err != nil {
		slogx.FromContext(r.Context()).Error("delete task failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	httpx.WriteMessage(w, "Task deleted")
}

func (h *TaskHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.Status, "status is required")
	if errs.write(w) {
		return
	}

	ctx := r.Context()
	_, err := h.TaskService.UpdateStatus(ctx, taskFrom(ctx).ID, userFrom(ctx).ID,
		domain.TaskStatus(req.Status))
	switch {
	case errors.Is(err, service.ErrBadStatus):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid status")
	case err != nil:
		slogx.FromContext(ctx).Error("update task status failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "Task updated")
	}
}
