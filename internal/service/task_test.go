package service

import (
	"context"
	"testing"

	"github.com/crowdwork/taskd/internal/domain"
	"github.com/crowdwork/taskd/internal/store"
	"github.com/stretchr/testify/require"
)

func TestTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	manager := seedUser(t, st, "manager@example.com", true)

	projects := &ProjectService{Store: st}
	tasks := &TaskService{Store: st}

	p, err := projects.Create(ctx, manager.ID, "Backend", "", "")
	require.NoError(t, err)

	task, err := tasks.Create(ctx, p.ID, "Set up CI", "GitHub Actions pipeline")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, task.Status)

	listed, err := tasks.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	updated, err := tasks.Update(ctx, task.ID, "Set up CI/CD", "Actions plus deploys")
	require.NoError(t, err)
	require.Equal(t, "Set up CI/CD", updated.Name)

	require.NoError(t, tasks.Delete(ctx, task.ID))
	_, err = tasks.Get(ctx, task.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTaskStatusHistory(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	manager := seedUser(t, st, "manager@example.com", true)
	member := seedUser(t, st, "member@example.com", true)

	projects := &ProjectService{Store: st}
	tasks := &TaskService{Store: st}

	p, err := projects.Create(ctx, manager.ID, "Backend", "", "")
	require.NoError(t, err)
	task, err := tasks.Create(ctx, p.ID, "Write docs", "")
	require.NoError(t, err)

	_, err = tasks.UpdateStatus(ctx, task.ID, member.ID, domain.TaskStatus("bogus"))
	require.ErrorIs(t, err, ErrBadStatus)

	moved, err := tasks.UpdateStatus(ctx, task.ID, member.ID, domain.StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, moved.Status)

	_, err = tasks.UpdateStatus(ctx, task.ID, manager.ID, domain.StatusCompleted)
	require.NoError(t, err)

	log, err := tasks.StatusLog(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, log, 2)
	require.Equal(t, domain.StatusInProgress, log[0].Status)
	require.Equal(t, member.ID, log[0].UserID)
	require.Equal(t, domain.StatusCompleted, log[1].Status)
	require.Equal(t, manager.ID, log[1].UserID)
}

func TestProjectDeletionCascades(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	manager := seedUser(t, st, "manager@example.com", true)

	projects := &ProjectService{Store: st}
	tasks := &TaskService{Store: st}
	notes := &NoteService{Store: st}

	p, err := projects.Create(ctx, manager.ID, "Doomed", "", "")
	require.NoError(t, err)
	task, err := tasks.Create(ctx, p.ID, "Doomed task", "")
	require.NoError(t, err)
	_, err = notes.Create(ctx, task.ID, manager.ID, "doomed note")
	require.NoError(t, err)

	require.NoError(t, projects.Delete(ctx, p.ID))

	_, err = tasks.Get(ctx, task.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	remaining, err := notes.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}
