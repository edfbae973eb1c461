package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoteAuthorOnlyDeletion(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	manager := seedUser(t, st, "manager@example.com", true)
	member := seedUser(t, st, "member@example.com", true)

	projects := &ProjectService{Store: st}
	tasks := &TaskService{Store: st}
	notes := &NoteService{Store: st}

	p, err := projects.Create(ctx, manager.ID, "Backend", "", "")
	require.NoError(t, err)
	task, err := tasks.Create(ctx, p.ID, "Review PR", "")
	require.NoError(t, err)

	n, err := notes.Create(ctx, task.ID, member.ID, "  looks good to me  ")
	require.NoError(t, err)
	require.Equal(t, "looks good to me", n.Content)

	// Even the project manager cannot delete someone else's note.
	require.ErrorIs(t, notes.Delete(ctx, n.ID, manager.ID), ErrNotNoteAuthor)
	require.NoError(t, notes.Delete(ctx, n.ID, member.ID))

	remaining, err := notes.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}
