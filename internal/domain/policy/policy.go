// Package policy contains the authorization decision functions for task and
// team operations. Every function is pure: inputs are pre-fetched records
// and the acting identity, the output is a single allow/deny boolean, and
// no function performs I/O. Callers translate a deny into an access-denied
// failure.
package policy

import (
	"github.com/taskhive/taskhive-api/internal/domain"
)

// CanCreateTask reports whether a user with the given role may create tasks.
// Only admins and managers create tasks.
func CanCreateTask(role domain.Role) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleUser:
		return false
	}
	return false
}

// CanReadTask reports whether the actor may read the task. Read access is
// limited to the creator and admins; the assignee is deliberately not
// granted read access here.
func CanReadTask(actor domain.Actor, task *domain.Task) bool {
	return actor.ID == task.CreatedBy || actor.Role == domain.RoleAdmin
}

// CanMutateTask reports whether the actor may update or delete the task.
// Only the creator and admins may mutate.
func CanMutateTask(actor domain.Actor, task *domain.Task) bool {
	return actor.ID == task.CreatedBy || actor.Role == domain.RoleAdmin
}

// CanAssignTask reports whether a user with the given role may assign tasks
// at all. Managers carry a further constraint checked by the task service:
// the target user must belong to a team the manager manages.
func CanAssignTask(role domain.Role) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleUser:
		return false
	}
	return false
}

// CanCreateTeam reports whether a user with the given role may create teams.
// Team creation is admin-only; manager and member resolution is validated
// separately by the team service.
func CanCreateTeam(role domain.Role) bool {
	return role == domain.RoleAdmin
}

// CanMutateTeam reports whether the actor may add/remove members or delete
// the team. Allowed for admins and the team's own manager.
func CanMutateTeam(actor domain.Actor, team *domain.Team) bool {
	return actor.Role == domain.RoleAdmin || actor.ID == team.ManagerID
}

// CanReadTeamAnalytics reports whether the actor may read the team's task
// analytics. Allowed for team members and admins. The manager is not a
// member unless explicitly listed.
func CanReadTeamAnalytics(actor domain.Actor, team *domain.Team) bool {
	return team.HasMember(actor.ID) || actor.Role == domain.RoleAdmin
}
