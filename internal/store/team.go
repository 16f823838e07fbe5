package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
)

// TeamStore defines the interface for team data persistence, including
// the membership relation.
type TeamStore interface {
	// Create saves a new team together with its initial members.
	// Returns ErrTeamNameExists if the name is already taken.
	Create(ctx context.Context, team *domain.Team) error

	// GetByID retrieves a team (members included) by its unique ID.
	// Returns ErrTeamNotFound if the team does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error)

	// GetByManager retrieves the team managed by the given user.
	// Returns ErrTeamNotFound if the user manages no team.
	GetByManager(ctx context.Context, managerID uuid.UUID) (*domain.Team, error)

	// AddMember appends a user to the team's membership.
	// Returns ErrMemberExists if the user is already a member.
	AddMember(ctx context.Context, teamID, userID uuid.UUID) error

	// RemoveMember removes a user from the team's membership. Removing a
	// user who is not a member is a no-op, not an error.
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error

	// Delete removes a team and its membership rows. Hard delete.
	// Returns ErrTeamNotFound if the team does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new TeamStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TeamStore
}
