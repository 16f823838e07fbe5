package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Team groups users under a single manager. The manager must reference a
// user with the Manager role; members are plain users. Membership order is
// stable for display but carries no meaning.
type Team struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	ManagerID uuid.UUID   `json:"manager_id"`
	Members   []uuid.UUID `json:"members"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TeamDetail is a team with its manager and member identities resolved to
// display-safe user summaries.
type TeamDetail struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Manager   UserSummary   `json:"manager"`
	Members   []UserSummary `json:"members"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewTeam creates a new Team with a generated ID and current timestamps.
func NewTeam(name string, managerID uuid.UUID, members []uuid.UUID) (*Team, error) {
	now := time.Now().UTC()
	team := &Team{
		ID:        uuid.New(),
		Name:      name,
		ManagerID: managerID,
		Members:   members,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := team.Validate(); err != nil {
		return nil, err
	}

	return team, nil
}

// Validate checks that the team record is internally consistent.
func (t *Team) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(t.Name) == "" {
		return NewValidationError("name", "cannot be empty", nil)
	}
	if t.ManagerID == uuid.Nil {
		return NewValidationError("managerId", "cannot be empty", ErrInvalidID)
	}
	for _, m := range t.Members {
		if m == uuid.Nil {
			return NewValidationError("members", "member ids cannot be empty", ErrInvalidID)
		}
	}
	return nil
}

// HasMember reports whether the given user is listed in the team's members.
// The manager is not implicitly a member.
func (t *Team) HasMember(userID uuid.UUID) bool {
	for _, m := range t.Members {
		if m == userID {
			return true
		}
	}
	return false
}
