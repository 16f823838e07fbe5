package policy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhive/taskhive-api/internal/domain"
)

func newTask(t *testing.T, createdBy uuid.UUID) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("Title", "Description", time.Now().Add(time.Hour), domain.PriorityLow, createdBy)
	require.NoError(t, err)
	return task
}

func TestCanCreateTask(t *testing.T) {
	t.Parallel()

	assert.True(t, CanCreateTask(domain.RoleAdmin))
	assert.True(t, CanCreateTask(domain.RoleManager))
	assert.False(t, CanCreateTask(domain.RoleUser))
	assert.False(t, CanCreateTask(domain.Role("Superuser")))
}

func TestCanReadTask(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	assignee := uuid.New()
	task := newTask(t, creator)
	task.AssignedTo = &assignee

	assert.True(t, CanReadTask(domain.Actor{ID: creator, Role: domain.RoleManager}, task))
	assert.True(t, CanReadTask(domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}, task))

	// The assignee is deliberately excluded from read access.
	assert.False(t, CanReadTask(domain.Actor{ID: assignee, Role: domain.RoleUser}, task))
	assert.False(t, CanReadTask(domain.Actor{ID: uuid.New(), Role: domain.RoleManager}, task))
}

func TestCanMutateTask(t *testing.T) {
	t.Parallel()

	creator := uuid.New()
	task := newTask(t, creator)

	assert.True(t, CanMutateTask(domain.Actor{ID: creator, Role: domain.RoleUser}, task))
	assert.True(t, CanMutateTask(domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}, task))
	assert.False(t, CanMutateTask(domain.Actor{ID: uuid.New(), Role: domain.RoleManager}, task))
}

func TestCanAssignTask(t *testing.T) {
	t.Parallel()

	assert.True(t, CanAssignTask(domain.RoleAdmin))
	assert.True(t, CanAssignTask(domain.RoleManager))
	assert.False(t, CanAssignTask(domain.RoleUser))
}

func TestCanCreateTeam(t *testing.T) {
	t.Parallel()

	assert.True(t, CanCreateTeam(domain.RoleAdmin))
	assert.False(t, CanCreateTeam(domain.RoleManager))
	assert.False(t, CanCreateTeam(domain.RoleUser))
}

func TestCanMutateTeam(t *testing.T) {
	t.Parallel()

	managerID := uuid.New()
	team, err := domain.NewTeam("Eng", managerID, nil)
	require.NoError(t, err)

	assert.True(t, CanMutateTeam(domain.Actor{ID: managerID, Role: domain.RoleManager}, team))
	assert.True(t, CanMutateTeam(domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}, team))
	assert.False(t, CanMutateTeam(domain.Actor{ID: uuid.New(), Role: domain.RoleManager}, team))
}

func TestCanReadTeamAnalytics(t *testing.T) {
	t.Parallel()

	managerID := uuid.New()
	memberID := uuid.New()
	team, err := domain.NewTeam("Eng", managerID, []uuid.UUID{memberID})
	require.NoError(t, err)

	assert.True(t, CanReadTeamAnalytics(domain.Actor{ID: memberID, Role: domain.RoleUser}, team))
	assert.True(t, CanReadTeamAnalytics(domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}, team))

	// The manager is not implicitly a member.
	assert.False(t, CanReadTeamAnalytics(domain.Actor{ID: managerID, Role: domain.RoleManager}, team))
	assert.False(t, CanReadTeamAnalytics(domain.Actor{ID: uuid.New(), Role: domain.RoleUser}, team))
}
