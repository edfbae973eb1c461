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

var ErrNotNoteAuthor = errors.New("not_note_author")

// NoteService manages the free-form notes attached to tasks. Any member can
// write a note; only its author can delete it.
type NoteService struct {
	Store store.Store
}

// Create attaches a note to a task.
func (s *NoteService) Create(ctx context.Context, taskID, authorID, content string) (domain.Note, error) {
	n := domain.Note{
		ID:        idx.New().String(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.Notes().CreateNote(ctx, n); err != nil {
		return domain.Note{}, err
	}
	return n, nil
}

// ListByTask returns a task's notes, oldest first.
func (s *NoteService) ListByTask(ctx context.Context, taskID string) ([]domain.Note, error) {
	return s.Store.Notes().ListNotesByTask(ctx, taskID)
}

// Delete removes a note if callerID wrote it.
func (s *NoteService) Delete(ctx context.Context, noteID, callerID string) error {
	n, err := s.Store.Notes().GetNoteByID(ctx, noteID)
	if err != nil {
		return err
	}
	if n.AuthorID != callerID {
		return ErrNotNoteAuthor
	}
	return s.Store.Notes().DeleteNote(ctx, noteID)
}
