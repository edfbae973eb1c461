package domain

import "time"

// Note is a comment on a task. Only its author may delete it.
type Note struct {
	ID        string
	TaskID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
