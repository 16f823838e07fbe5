package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/store"
)

// taskSortColumns whitelists the sortable columns for task listings. Keys
// are the caller-facing field names, values the actual column names. Sort
// input never reaches the SQL string directly.
var taskSortColumns = map[string]string{
	"title":     "title",
	"dueDate":   "due_date",
	"priority":  "priority",
	"status":    "status",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// PostgresTaskStore implements the store.TaskStore interface using a
// PostgreSQL database.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface.
func NewPostgresTaskStore(db store.DBTX, log *slog.Logger) *PostgresTaskStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: log.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore at compile time.
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx returns a new TaskStore instance that uses the provided transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create saves a new task to the database.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during creation",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, title, description, due_date, priority, status,
		                   created_by, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.DueDate, task.Priority,
		task.Status, task.CreatedBy, assigneeValue(task.AssignedTo),
		task.CreatedAt, task.UpdatedAt)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	log.Debug("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("created_by", task.CreatedBy.String()))
	return nil
}

// GetByID retrieves a task by its unique ID. Returns store.ErrTaskNotFound
// if the task does not exist.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := taskSelect + ` WHERE id = $1`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

// List returns tasks matching the filter, ordered per sort. Filter fields
// are combined with AND; zero-valued fields are skipped. The sort field is
// resolved against a whitelist, falling back to creation time.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskFilter, sort store.TaskSort) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildTaskFilter(filter)
	query := taskSelect + where + ` ORDER BY ` + buildTaskOrder(sort)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// Update persists the full task record. Returns store.ErrTaskNotFound if
// the task does not exist.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $2, description = $3, due_date = $4, priority = $5,
		    status = $6, assigned_to = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		task.ID, task.Title, task.Description, task.DueDate, task.Priority,
		task.Status, assigneeValue(task.AssignedTo), task.UpdatedAt)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			log.Debug("task not found for update",
				slog.String("task_id", task.ID.String()))
		}
		return err
	}

	log.Debug("task updated successfully", slog.String("task_id", task.ID.String()))
	return nil
}

// Delete removes a task from the database by its ID. Returns
// store.ErrTaskNotFound if the task does not exist.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Debug("task deleted successfully", slog.String("task_id", id.String()))
	return nil
}

// FindByAssignee returns all tasks assigned to the given user, ordered by
// due date.
func (s *PostgresTaskStore) FindByAssignee(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := taskSelect + ` WHERE assigned_to = $1 ORDER BY due_date ASC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to find tasks by assignee",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// FindByAssignees returns all tasks assigned to any of the given users.
// An empty id list yields an empty result.
func (s *PostgresTaskStore) FindByAssignees(ctx context.Context, userIDs []uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(userIDs) == 0 {
		return []*domain.Task{}, nil
	}

	placeholders := make([]string, len(userIDs))
	args := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`%s WHERE assigned_to IN (%s) ORDER BY due_date ASC`,
		taskSelect, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to find tasks by assignees",
			slog.String("error", err.Error()),
			slog.Int("assignee_count", len(userIDs)))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

// FindAll returns every task in the store, ordered by creation time.
func (s *PostgresTaskStore) FindAll(ctx context.Context) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, taskSelect+` ORDER BY created_at ASC`)
	if err != nil {
		log.Error("failed to load all tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTasks(rows)
}

const taskSelect = `
	SELECT id, title, description, due_date, priority, status,
	       created_by, assigned_to, created_at, updated_at
	FROM tasks`

// buildTaskFilter converts a TaskFilter into a WHERE clause and its
// positional arguments. Returns an empty clause when nothing filters.
func buildTaskFilter(filter store.TaskFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	next := func() string { return fmt.Sprintf("$%d", len(args)+1) }

	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, "status = "+next())
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		clauses = append(clauses, "priority = "+next())
	}
	if !filter.DueAfter.IsZero() {
		args = append(args, filter.DueAfter)
		clauses = append(clauses, "due_date >= "+next())
	}
	if !filter.DueBefore.IsZero() {
		args = append(args, filter.DueBefore)
		clauses = append(clauses, "due_date <= "+next())
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// buildTaskOrder resolves a TaskSort to an ORDER BY body using only
// whitelisted column names.
func buildTaskOrder(sort store.TaskSort) string {
	column, ok := taskSortColumns[sort.Field]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if sort.Descending {
		direction = "DESC"
	}
	return column + " " + direction
}

// assigneeValue converts the optional assignee pointer to a driver-friendly
// nullable value.
func assigneeValue(assignedTo *uuid.UUID) uuid.NullUUID {
	if assignedTo == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *assignedTo, Valid: true}
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var assignedTo uuid.NullUUID
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Priority,
		&task.Status,
		&task.CreatedBy,
		&assignedTo,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		id := assignedTo.UUID
		task.AssignedTo = &id
	}
	return &task, nil
}

func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return tasks, nil
}
