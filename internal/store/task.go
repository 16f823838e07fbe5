package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
)

// TaskFilter narrows a task listing. Zero-valued fields are ignored.
// Status and Priority filter by equality; DueAfter and DueBefore bound the
// due date inclusively and may be set independently.
type TaskFilter struct {
	Status    domain.TaskStatus
	Priority  domain.TaskPriority
	DueAfter  time.Time
	DueBefore time.Time
}

// TaskSort orders a task listing by a single field. Field names are
// whitelisted by the store implementation; an empty or unknown field falls
// back to creation time. Ascending is the default direction.
type TaskSort struct {
	Field      string
	Descending bool
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task to the store.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List returns tasks matching the filter, ordered per sort. No
	// ownership narrowing happens here; callers restrict access upstream.
	List(ctx context.Context, filter TaskFilter, sort TaskSort) ([]*domain.Task, error)

	// Update persists the full task record.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID. Hard delete.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByAssignee returns all tasks assigned to the given user.
	FindByAssignee(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// FindByAssignees returns all tasks assigned to any of the given users.
	// An empty id list yields an empty result.
	FindByAssignees(ctx context.Context, userIDs []uuid.UUID) ([]*domain.Task, error)

	// FindAll returns every task in the store. Used by the global
	// analytics view.
	FindAll(ctx context.Context) ([]*domain.Task, error)

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskStore
}
