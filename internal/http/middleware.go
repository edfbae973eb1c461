package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/crowdwork/taskd/internal/store"
	"github.com/crowdwork/taskd/pkg/httpx"
	"github.com/crowdwork/taskd/pkg/slogx"
)

// The authorization chain runs per request, outermost first:
//
//	session check -> user load -> project resolve -> membership check
//	-> task resolve (+ project match) -> manager check
//
// Membership and manager failures surface as 404 rather than 403 so a
// caller probing IDs cannot tell "exists but not yours" from "does not
// exist".
const msgNotAllowed = "action not allowed"

// requireUser loads the principal behind the verified session claims. A
// session whose user has since been deleted is treated as unauthorized.
func (rt *Router) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := httpx.UserIDFromCtx(ctx)
		if userID == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "not authorized")
			return
		}

		user, err := rt.store.Users().GetUserByID(ctx, userID)
		if err != nil {
			slogx.FromContext(ctx).Warn("session user load failed", "user_id", userID, "err", err)
			httpx.WriteError(w, http.StatusUnauthorized, "not authorized")
			return
		}

		ctx = context.WithValue(ctx, ctxKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveProject loads the project named by the {projectID} path segment.
func (rt *Router) resolveProject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		project, err := rt.store.Projects().GetProjectByID(ctx, r.PathValue("projectID"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				httpx.WriteError(w, http.StatusNotFound, "project not found")
				return
			}
			slogx.FromContext(ctx).Error("project resolve failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server error")
			return
		}

		ctx = context.WithValue(ctx, ctxKeyProject, project)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireMembership admits the project's manager and team members only.
func (rt *Router) requireMembership(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		user := userFrom(ctx)
		project := projectFrom(ctx)

		if !project.IsManager(user.ID) {
			ok, err := rt.store.Projects().IsMember(ctx, project.ID, user.ID)
			if err != nil {
				slogx.FromContext(ctx).Error("membership check failed", "err", err)
				httpx.WriteError(w, http.StatusInternalServerError, "server error")
				return
			}
			if !ok {
				httpx.WriteError(w, http.StatusNotFound, msgNotAllowed)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// resolveTask loads the task named by {taskID} and verifies it belongs to
// the already-resolved project. A task ID from a different project is
// indistinguishable from an unknown one.
func (rt *Router) resolveTask(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		task, err := rt.store.Tasks().GetTaskByID(ctx, r.PathValue("taskID"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				httpx.WriteError(w, http.StatusNotFound, "task not found")
				return
			}
			slogx.FromContext(ctx).Error("task resolve failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server error")
			return
		}

		if task.ProjectID != projectFrom(ctx).ID {
			httpx.WriteError(w, http.StatusNotFound, msgNotAllowed)
			return
		}

		ctx = context.WithValue(ctx, ctxKeyTask, task)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireManager restricts the route to the project's manager.
func (rt *Router) requireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if !projectFrom(ctx).IsManager(userFrom(ctx).ID) {
			httpx.WriteError(w, http.StatusNotFound, msgNotAllowed)
			return
		}

		next.ServeHTTP(w, r)
	})
}
