package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/domain/policy"
	"github.com/taskhive/taskhive-api/internal/notify"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/store"
)

// CreateTaskInput carries the caller-supplied fields for a new task.
// Priority defaults to Low when empty; Status always starts as Pending.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    domain.TaskPriority
}

// TaskService orchestrates task lifecycle operations: authorization gate,
// persistence, then notification fan-out. Notification delivery is
// fire-and-forget and never affects the operation result.
type TaskService interface {
	// Create creates a new task owned by the actor. Only admins and
	// managers may create tasks. Emits taskCreated to the creator.
	Create(ctx context.Context, actor domain.Actor, input CreateTaskInput) (*domain.Task, error)

	// List returns tasks matching the filter, ordered per sort. No
	// per-caller ownership narrowing is applied at this layer.
	List(ctx context.Context, filter store.TaskFilter, sort store.TaskSort) ([]*domain.Task, error)

	// Get returns the task if the actor is its creator or an admin.
	Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error)

	// Update applies the provided fields to the task. Only the creator and
	// admins may update. Emits taskUpdated to the creator and, when the
	// task is assigned, to the assignee.
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// Delete removes the task. Only the creator and admins may delete.
	// Emits taskDeleted to the creator before the record is removed.
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error

	// Assign sets the task's assignee. Admins assign freely; managers only
	// within their own team's membership. Emits taskAssigned to the target.
	Assign(ctx context.Context, actor domain.Actor, taskID, targetUserID uuid.UUID) (*domain.Task, error)

	// ViewAssigned returns all tasks assigned to the actor. Self-scoped by
	// construction, so no further authorization applies.
	ViewAssigned(ctx context.Context, actor domain.Actor) ([]*domain.Task, error)
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	taskStore store.TaskStore
	userStore store.UserStore
	teamStore store.TeamStore
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskStore store.TaskStore,
	userStore store.UserStore,
	teamStore store.TeamStore,
	notifier notify.Notifier,
	log *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, domain.NewValidationError("taskStore", "cannot be nil", domain.ErrValidation)
	}
	if userStore == nil {
		return nil, domain.NewValidationError("userStore", "cannot be nil", domain.ErrValidation)
	}
	if teamStore == nil {
		return nil, domain.NewValidationError("teamStore", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	return &taskServiceImpl{
		taskStore: taskStore,
		userStore: userStore,
		teamStore: teamStore,
		notifier:  notifier,
		logger:    log.With(slog.String("component", "task_service")),
	}, nil
}

// Create implements TaskService.Create.
func (s *taskServiceImpl) Create(
	ctx context.Context,
	actor domain.Actor,
	input CreateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Input validation runs before the role check.
	task, err := domain.NewTask(input.Title, input.Description, input.DueDate, input.Priority, actor.ID)
	if err != nil {
		return nil, err
	}

	if !policy.CanCreateTask(actor.Role) {
		log.Warn("task creation denied",
			slog.String("actor_id", actor.ID.String()),
			slog.String("actor_role", string(actor.Role)))
		return nil, ErrAccessDenied
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		if isValidationError(err) {
			return nil, err
		}
		return nil, NewTaskServiceError("create", "failed to persist task", err)
	}

	s.notifier.Notify(actor.ID, notify.EventTaskCreated, notify.Payload{
		Message: fmt.Sprintf("Task %q created successfully.", task.Title),
	})

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("created_by", actor.ID.String()))
	return task, nil
}

// List implements TaskService.List.
func (s *taskServiceImpl) List(
	ctx context.Context,
	filter store.TaskFilter,
	sort store.TaskSort,
) ([]*domain.Task, error) {
	tasks, err := s.taskStore.List(ctx, filter, sort)
	if err != nil {
		return nil, NewTaskServiceError("list", "failed to query tasks", err)
	}
	return tasks, nil
}

// Get implements TaskService.Get.
func (s *taskServiceImpl) Get(
	ctx context.Context,
	actor domain.Actor,
	id uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTaskServiceError("get", "failed to load task", err)
	}

	if !policy.CanReadTask(actor, task) {
		log.Warn("task read denied",
			slog.String("task_id", id.String()),
			slog.String("actor_id", actor.ID.String()))
		return nil, ErrAccessDenied
	}

	return task, nil
}

// Update implements TaskService.Update.
func (s *taskServiceImpl) Update(
	ctx context.Context,
	actor domain.Actor,
	id uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTaskServiceError("update", "failed to load task", err)
	}

	if !policy.CanMutateTask(actor, task) {
		log.Warn("task update denied",
			slog.String("task_id", id.String()),
			slog.String("actor_id", actor.ID.String()))
		return nil, ErrAccessDenied
	}

	if err := task.Apply(update); err != nil {
		return nil, err
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		if store.IsNotFoundError(err) || isValidationError(err) {
			return nil, err
		}
		return nil, NewTaskServiceError("update", "failed to persist task", err)
	}

	s.notifier.Notify(task.CreatedBy, notify.EventTaskUpdated, notify.Payload{
		Message: fmt.Sprintf("Task %q updated successfully.", task.Title),
	})
	if task.AssignedTo != nil {
		s.notifier.Notify(*task.AssignedTo, notify.EventTaskUpdated, notify.Payload{
			Message: fmt.Sprintf("Task %q has been updated.", task.Title),
		})
	}

	log.Info("task updated",
		slog.String("task_id", task.ID.String()),
		slog.String("actor_id", actor.ID.String()))
	return task, nil
}

// Delete implements TaskService.Delete. The deletion notice goes out before
// the record is removed; losing the race between the two is acceptable.
func (s *taskServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewTaskServiceError("delete", "failed to load task", err)
	}

	if !policy.CanMutateTask(actor, task) {
		log.Warn("task delete denied",
			slog.String("task_id", id.String()),
			slog.String("actor_id", actor.ID.String()))
		return ErrAccessDenied
	}

	s.notifier.Notify(task.CreatedBy, notify.EventTaskDeleted, notify.Payload{
		Message: fmt.Sprintf("Task %q has been deleted.", task.Title),
	})

	if err := s.taskStore.Delete(ctx, id); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewTaskServiceError("delete", "failed to delete task", err)
	}

	log.Info("task deleted",
		slog.String("task_id", id.String()),
		slog.String("actor_id", actor.ID.String()))
	return nil
}

// Assign implements TaskService.Assign.
func (s *taskServiceImpl) Assign(
	ctx context.Context,
	actor domain.Actor,
	taskID, targetUserID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTaskServiceError("assign", "failed to load task", err)
	}

	if !policy.CanAssignTask(actor.Role) {
		log.Warn("task assignment denied",
			slog.String("task_id", taskID.String()),
			slog.String("actor_id", actor.ID.String()),
			slog.String("actor_role", string(actor.Role)))
		return nil, ErrAccessDenied
	}

	if _, err := s.userStore.GetByID(ctx, targetUserID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTaskServiceError("assign", "failed to load target user", err)
	}

	// Managers may only assign within their own team's membership.
	if actor.Role == domain.RoleManager {
		team, err := s.teamStore.GetByManager(ctx, actor.ID)
		if err != nil {
			if store.IsNotFoundError(err) {
				log.Warn("manager has no team, assignment denied",
					slog.String("actor_id", actor.ID.String()))
				return nil, ErrAccessDenied
			}
			return nil, NewTaskServiceError("assign", "failed to load manager's team", err)
		}
		if !team.HasMember(targetUserID) {
			log.Warn("assignment target outside manager's team",
				slog.String("actor_id", actor.ID.String()),
				slog.String("target_user_id", targetUserID.String()),
				slog.String("team_id", team.ID.String()))
			return nil, ErrAccessDenied
		}
	}

	task.AssignedTo = &targetUserID
	task.UpdatedAt = time.Now().UTC()

	if err := s.taskStore.Update(ctx, task); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTaskServiceError("assign", "failed to persist assignment", err)
	}

	s.notifier.Notify(targetUserID, notify.EventTaskAssigned, notify.Payload{
		Message: fmt.Sprintf("You have been assigned the task: %q.", task.Title),
	})

	log.Info("task assigned",
		slog.String("task_id", task.ID.String()),
		slog.String("assigned_to", targetUserID.String()),
		slog.String("actor_id", actor.ID.String()))
	return task, nil
}

// ViewAssigned implements TaskService.ViewAssigned.
func (s *taskServiceImpl) ViewAssigned(ctx context.Context, actor domain.Actor) ([]*domain.Task, error) {
	tasks, err := s.taskStore.FindByAssignee(ctx, actor.ID)
	if err != nil {
		return nil, NewTaskServiceError("view_assigned", "failed to query assigned tasks", err)
	}
	return tasks, nil
}

// isValidationError reports whether err is a domain validation failure that
// should surface to the caller unchanged.
func isValidationError(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve) || errors.Is(err, domain.ErrValidation)
}
