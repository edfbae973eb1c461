package http

import (
	"errors"
	"net/http"

	"github.com/crowdwork/taskd/internal/service"
	"github.com/crowdwork/taskd/pkg/httpx"
	"github.com/crowdwork/taskd/pkg/slogx"
)

// TeamHandler serves the project collaborator endpoints.
type TeamHandler struct {
	ProjectService *service.ProjectService
}

// HandleFind looks up a user to invite by email. Separate from HandleAdd so
// the client can show who it found before committing.
func (h *TeamHandler) HandleFind(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireEmail(req.Email)
	if errs.write(w) {
		return
	}

	user, err := h.ProjectService.FindMemberByEmail(r.Context(), req.Email)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user not found")
	case err != nil:
		slogx.FromContext(r.Context()).Error("find member failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
	}
}

func (h *TeamHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	team, err := h.ProjectService.Team(r.Context(), projectFrom(r.Context()).ID)
	if err != nil {
		slogx.FromContext(r.Context()).Error("list team failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}

	out := make([]userResponse, 0, len(team))
	for _, u := range team {
		out = append(out, toUserResponse(u))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *TeamHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var errs fieldErrors
	errs.requireNonEmpty(req.ID, "user id is required")
	if errs.write(w) {
		return
	}

	err := h.ProjectService.AddMember(r.Context(), projectFrom(r.Context()), req.ID)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrMemberExists):
		httpx.WriteError(w, http.StatusConflict, "user is already on the project")
	case err != nil:
		slogx.FromContext(r.Context()).Error("add member failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "Member added to the project")
	}
}

func (h *TeamHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	err := h.ProjectService.RemoveMember(r.Context(), projectFrom(r.Context()).ID,
		r.PathValue("userID"))
	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		httpx.WriteError(w, http.StatusConflict, "user is not on the project")
	case err != nil:
		slogx.FromContext(r.Context()).Error("remove member failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server error")
	default:
		httpx.WriteMessage(w, "Member removed from the project")
	}
}
