package http

import (
	"errors"
	"net/http"

	"github.com/crowdwork/taskd/internal/service"
	"github.com/crowdwork/taskd/internal/store"
	"github.com/crowdwork/taskd/pkg/httpx"
	"github.com/crowdwork/taskd/pkg/slogx"
)

// NoteHandler serves the notes under a task.
type NoteHandler struct {
	NoteService *service.NoteService
}

func (h *NoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.Content, "note content is required")
	if errs.write(w) {
		return
	}

	ctx := r.Context()
	_, err := h.NoteService.Create(ctx, taskFrom(ctx).ID, userFrom(ctx).ID, req.Content)
	if err != nil {
		slogx.FromContext(ctx).Error("create note failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	httpx.WriteMessage(w, "Note created")
}

func (h *NoteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	notes, err := h.NoteService.ListByTask(r.Context(), taskFrom(r.Context()).ID)
	if err != nil {
		slogx.FromContext(r.Context()).Error("list notes failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toNoteResponses(notes))
}

func (h *NoteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	err := h.NoteService.Delete(ctx, r.PathValue("noteID"), userFrom(ctx).ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "note not found")
	case errors.Is(err, service.ErrNotNoteAuthor):
		httpx.WriteError(w, http.StatusUnauthorized, msgNotAllowed)
	case err != nil:
		slogx.FromContext(ctx).Error("delete note failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "Note deleted")
	}
}
