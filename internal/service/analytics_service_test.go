package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/store"
)

type analyticsFixture struct {
	svc       *analyticsServiceImpl
	taskStore *fakeTaskStore
	teamStore *fakeTeamStore
	now       time.Time
}

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()
	taskStore := newFakeTaskStore()
	teamStore := newFakeTeamStore()

	svc, err := NewAnalyticsService(taskStore, teamStore, nil)
	require.NoError(t, err)

	impl := svc.(*analyticsServiceImpl)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	impl.timeFunc = func() time.Time { return now }

	return &analyticsFixture{svc: impl, taskStore: taskStore, teamStore: teamStore, now: now}
}

// seedAnalyticsTask inserts a task with the given status, due date, and
// optional assignee, bypassing service-level authorization.
func seedAnalyticsTask(
	t *testing.T,
	tasks *fakeTaskStore,
	status domain.TaskStatus,
	dueDate time.Time,
	assignedTo *uuid.UUID,
) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("Analyze", "Crunch numbers", dueDate, domain.PriorityLow, uuid.New())
	require.NoError(t, err)
	task.Status = status
	task.AssignedTo = assignedTo
	require.NoError(t, tasks.Create(context.Background(), task))
	return task
}

func TestAnalyticsService_GetTaskAnalytics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("classifies completed, pending, and overdue", func(t *testing.T) {
		t.Parallel()
		fx := newAnalyticsFixture(t)
		userID := uuid.New()
		past := fx.now.Add(-48 * time.Hour)
		future := fx.now.Add(48 * time.Hour)

		seedAnalyticsTask(t, fx.taskStore, domain.StatusCompleted, past, &userID)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusCompleted, future, &userID)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusPending, future, &userID)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusPending, past, &userID)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusPending, past, &userID)

		analytics, err := fx.svc.GetTaskAnalytics(ctx, &userID)
		require.NoError(t, err)
		assert.Equal(t, 2, analytics.Completed)
		assert.Equal(t, 1, analytics.Pending)
		assert.Equal(t, 2, analytics.Overdue)
	})

	t.Run("InProgress tasks land in no bucket", func(t *testing.T) {
		t.Parallel()
		fx := newAnalyticsFixture(t)
		userID := uuid.New()

		seedAnalyticsTask(t, fx.taskStore, domain.StatusInProgress, fx.now.Add(-time.Hour), &userID)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusInProgress, fx.now.Add(time.Hour), &userID)

		analytics, err := fx.svc.GetTaskAnalytics(ctx, &userID)
		require.NoError(t, err)
		assert.Equal(t, &TaskAnalytics{}, analytics)
	})

	t.Run("nil user id yields the global view", func(t *testing.T) {
		t.Parallel()
		fx := newAnalyticsFixture(t)
		a := uuid.New()
		b := uuid.New()

		seedAnalyticsTask(t, fx.taskStore, domain.StatusCompleted, fx.now, &a)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusCompleted, fx.now, &b)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusCompleted, fx.now, nil)

		analytics, err := fx.svc.GetTaskAnalytics(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, analytics.Completed)
	})

	t.Run("scoped view counts only the user's assignments", func(t *testing.T) {
		t.Parallel()
		fx := newAnalyticsFixture(t)
		mine := uuid.New()
		other := uuid.New()

		seedAnalyticsTask(t, fx.taskStore, domain.StatusCompleted, fx.now, &mine)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusCompleted, fx.now, &other)

		analytics, err := fx.svc.GetTaskAnalytics(ctx, &mine)
		require.NoError(t, err)
		assert.Equal(t, 1, analytics.Completed)
	})
}

func TestAnalyticsService_GetTeamTaskAnalytics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("aggregates across team members", func(t *testing.T) {
		t.Parallel()
		fx := newAnalyticsFixture(t)
		m1 := uuid.New()
		m2 := uuid.New()
		outsider := uuid.New()

		team, err := domain.NewTeam("Eng", uuid.New(), []uuid.UUID{m1, m2})
		require.NoError(t, err)
		require.NoError(t, fx.teamStore.Create(ctx, team))

		seedAnalyticsTask(t, fx.taskStore, domain.StatusCompleted, fx.now, &m1)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusPending, fx.now.Add(time.Hour), &m2)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusPending, fx.now.Add(-time.Hour), &m2)
		seedAnalyticsTask(t, fx.taskStore, domain.StatusCompleted, fx.now, &outsider)

		actor := domain.Actor{ID: m1, Role: domain.RoleUser}
		analytics, err := fx.svc.GetTeamTaskAnalytics(ctx, actor, team.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, analytics.Completed)
		assert.Equal(t, 1, analytics.Pending)
		assert.Equal(t, 1, analytics.Overdue)
	})

	t.Run("admin may read any team", func(t *testing.T) {
		t.Parallel()
		fx := newAnalyticsFixture(t)

		team, err := domain.NewTeam("Eng", uuid.New(), nil)
		require.NoError(t, err)
		require.NoError(t, fx.teamStore.Create(ctx, team))

		actor := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
		_, err = fx.svc.GetTeamTaskAnalytics(ctx, actor, team.ID)
		assert.NoError(t, err)
	})

	t.Run("non-member is denied", func(t *testing.T) {
		t.Parallel()
		fx := newAnalyticsFixture(t)

		team, err := domain.NewTeam("Eng", uuid.New(), []uuid.UUID{uuid.New()})
		require.NoError(t, err)
		require.NoError(t, fx.teamStore.Create(ctx, team))

		actor := domain.Actor{ID: uuid.New(), Role: domain.RoleUser}
		_, err = fx.svc.GetTeamTaskAnalytics(ctx, actor, team.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("unknown team is not found", func(t *testing.T) {
		t.Parallel()
		fx := newAnalyticsFixture(t)

		actor := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
		_, err := fx.svc.GetTeamTaskAnalytics(ctx, actor, uuid.New())
		assert.ErrorIs(t, err, store.ErrTeamNotFound)
	})
}
