package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/domain/policy"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/store"
)

// TaskAnalytics is the derived completion/pending/overdue triple. A task
// counts as completed iff its status is Completed; as overdue iff its status
// is Pending and its due date has passed; as pending iff its status is
// Pending and its due date has not passed. InProgress tasks fall into none
// of the buckets.
type TaskAnalytics struct {
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// AnalyticsService derives task analytics from current store state. Results
// are always computed fresh; there is no caching layer.
type AnalyticsService interface {
	// GetTaskAnalytics classifies all tasks assigned to userID, or every
	// task in the store when userID is nil (the global view).
	GetTaskAnalytics(ctx context.Context, userID *uuid.UUID) (*TaskAnalytics, error)

	// GetTeamTaskAnalytics classifies all tasks assigned to any member of
	// the team. Fails with NotFound if the team is missing and with
	// AccessDenied unless the actor is a team member or an admin.
	GetTeamTaskAnalytics(ctx context.Context, actor domain.Actor, teamID uuid.UUID) (*TaskAnalytics, error)
}

// analyticsServiceImpl implements the AnalyticsService interface.
type analyticsServiceImpl struct {
	taskStore store.TaskStore
	teamStore store.TeamStore
	logger    *slog.Logger
	timeFunc  func() time.Time // Injectable for testing
}

// NewAnalyticsService creates a new AnalyticsService.
// It returns an error if any of the required dependencies are nil.
func NewAnalyticsService(
	taskStore store.TaskStore,
	teamStore store.TeamStore,
	log *slog.Logger,
) (AnalyticsService, error) {
	if taskStore == nil {
		return nil, domain.NewValidationError("taskStore", "cannot be nil", domain.ErrValidation)
	}
	if teamStore == nil {
		return nil, domain.NewValidationError("teamStore", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	return &analyticsServiceImpl{
		taskStore: taskStore,
		teamStore: teamStore,
		logger:    log.With(slog.String("component", "analytics_service")),
		timeFunc:  time.Now,
	}, nil
}

// GetTaskAnalytics implements AnalyticsService.GetTaskAnalytics.
func (s *analyticsServiceImpl) GetTaskAnalytics(
	ctx context.Context,
	userID *uuid.UUID,
) (*TaskAnalytics, error) {
	var tasks []*domain.Task
	var err error

	if userID != nil {
		tasks, err = s.taskStore.FindByAssignee(ctx, *userID)
	} else {
		tasks, err = s.taskStore.FindAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks for analytics: %w", err)
	}

	return s.classify(tasks), nil
}

// GetTeamTaskAnalytics implements AnalyticsService.GetTeamTaskAnalytics.
func (s *analyticsServiceImpl) GetTeamTaskAnalytics(
	ctx context.Context,
	actor domain.Actor,
	teamID uuid.UUID,
) (*TaskAnalytics, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	team, err := s.teamStore.GetByID(ctx, teamID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load team for analytics: %w", err)
	}

	if !policy.CanReadTeamAnalytics(actor, team) {
		log.Warn("team analytics read denied",
			slog.String("team_id", teamID.String()),
			slog.String("actor_id", actor.ID.String()))
		return nil, ErrAccessDenied
	}

	tasks, err := s.taskStore.FindByAssignees(ctx, team.Members)
	if err != nil {
		return nil, fmt.Errorf("failed to load team tasks for analytics: %w", err)
	}

	return s.classify(tasks), nil
}

// classify buckets tasks by the canonical status values. The comparison is
// exact; no case folding happens here.
func (s *analyticsServiceImpl) classify(tasks []*domain.Task) *TaskAnalytics {
	now := s.timeFunc()

	analytics := &TaskAnalytics{}
	for _, task := range tasks {
		switch task.Status {
		case domain.StatusCompleted:
			analytics.Completed++
		case domain.StatusPending:
			if task.DueDate.Before(now) {
				analytics.Overdue++
			} else {
				analytics.Pending++
			}
		}
	}
	return analytics
}
