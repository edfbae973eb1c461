package store

import (
	"context"
	"errors"
	"time"

	"github.com/crowdwork/taskd/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement it. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users
	Tokens() Tokens
	Projects() Projects
	Tasks() Tasks
	Notes() Notes

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Multi-record
	// sequences (confirm account, consume reset token) go through here so a
	// partial failure never leaves a principal confirmed with a still-valid
	// token or vice versa.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by case-normalized email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// SetConfirmed flips the confirmed flag and bumps updated_at.
	SetConfirmed(ctx context.Context, userID string, confirmed bool) error

	// UpdatePasswordHash sets the password_hash (bcrypt) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateProfile mutates name and email. Returns ErrAlreadyExists when
	// the email is owned by a different user.
	UpdateProfile(ctx context.Context, userID, name, email string) error
}

type Tokens interface {
	// CreateToken stores a new ephemeral token record.
	CreateToken(ctx context.Context, t domain.Token) error

	// GetTokenByHash returns the token record by fingerprint, expired or
	// not. Expiry is a domain rule (Token.Expired); the service layer
	// collapses expired records to ErrNotFound.
	GetTokenByHash(ctx context.Context, hash string) (domain.Token, error)

	// DeleteTokenByHash removes the token, consuming it. When no row was
	// deleted it returns ErrNotFound, which is how a second concurrent
	// consumer observes the race.
	DeleteTokenByHash(ctx context.Context, hash string) error

	// DeleteTokensForUser removes every token for a user, enforcing the
	// one-active-code policy before a fresh issue.
	DeleteTokensForUser(ctx context.Context, userID string) error

	// DeleteExpiredTokens is housekeeping for rows past expiry.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

type Projects interface {
	// CreateProject inserts a new project with its manager set.
	CreateProject(ctx context.Context, p domain.Project) error

	// GetProjectByID returns a project by id.
	GetProjectByID(ctx context.Context, id string) (domain.Project, error)

	// ListProjectsForUser returns projects the user manages or belongs to.
	ListProjectsForUser(ctx context.Context, userID string) ([]domain.Project, error)

	// UpdateProject mutates name/client/description and bumps updated_at.
	UpdateProject(ctx context.Context, p domain.Project) error

	// DeleteProject removes the project; tasks and notes cascade per schema.
	DeleteProject(ctx context.Context, id string) error

	// AddMember adds a user to the team. Returns ErrAlreadyExists for
	// duplicates.
	AddMember(ctx context.Context, projectID, userID string) error

	// RemoveMember removes a team member; ErrNotFound when absent.
	RemoveMember(ctx context.Context, projectID, userID string) error

	// ListMembers returns the team, managers excluded.
	ListMembers(ctx context.Context, projectID string) ([]domain.User, error)

	// IsMember reports whether the user is on the project's team.
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
}

type Tasks interface {
	CreateTask(ctx context.Context, t domain.Task) error
	GetTaskByID(ctx context.Context, id string) (domain.Task, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, id string) error

	// UpdateTaskStatus moves the task and appends an audit entry in one
	// statement pair; callers wrap it in a transaction when needed.
	UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) error
	AppendStatusChange(ctx context.Context, c domain.StatusChange) error
	ListStatusChanges(ctx context.Context, taskID string) ([]domain.StatusChange, error)
}

type Notes interface {
	CreateNote(ctx context.Context, n domain.Note) error
	GetNoteByID(ctx context.Context, id string) (domain.Note, error)
	ListNotesByTask(ctx context.Context, taskID string) ([]domain.Note, error)
	DeleteNote(ctx context.Context, id string) error
}
