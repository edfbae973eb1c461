package http

import (
	"context"

	"github.com/crowdwork/taskd/internal/domain"
)

type ctxKey string

const (
	ctxKeyUser    ctxKey = "user"
	ctxKeyProject ctxKey = "project"
	ctxKeyTask    ctxKey = "task"
)

// userFrom returns the authenticated user placed in the context by the
// session middleware. Handlers behind that middleware may assume it is set.
func userFrom(ctx context.Context) domain.User {
	u, _ := ctx.Value(ctxKeyUser).(domain.User)
	return u
}

func projectFrom(ctx context.Context) domain.Project {
	p, _ := ctx.Value(ctxKeyProject).(domain.Project)
	return p
}

func taskFrom(ctx context.Context) domain.Task {
	t, _ := ctx.Value(ctxKeyTask).(domain.Task)
	return t
}
