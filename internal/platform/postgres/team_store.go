package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/store"
)

// PostgresTeamStore implements the store.TeamStore interface using a
// PostgreSQL database. Membership lives in the team_members join table and
// is loaded alongside the team row.
type PostgresTeamStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTeamStore creates a new PostgreSQL implementation of the
// TeamStore interface.
func NewPostgresTeamStore(db store.DBTX, log *slog.Logger) *PostgresTeamStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresTeamStore{
		db:     db,
		logger: log.With(slog.String("component", "team_store")),
	}
}

// Ensure PostgresTeamStore implements store.TeamStore at compile time.
var _ store.TeamStore = (*PostgresTeamStore)(nil)

// WithTx returns a new TeamStore instance that uses the provided transaction.
func (s *PostgresTeamStore) WithTx(tx *sql.Tx) store.TeamStore {
	return &PostgresTeamStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create saves a new team together with its initial members. Returns
// store.ErrTeamNameExists if the name is already taken. Callers needing the
// team row and membership rows written atomically should run this through
// store.RunInTransaction and WithTx.
func (s *PostgresTeamStore) Create(ctx context.Context, team *domain.Team) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := team.Validate(); err != nil {
		log.Warn("team validation failed during creation",
			slog.String("error", err.Error()),
			slog.String("team_id", team.ID.String()))
		return err
	}

	query := `
		INSERT INTO teams (id, name, manager_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		team.ID, team.Name, team.ManagerID, team.CreatedAt, team.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate name during team creation",
				slog.String("team_id", team.ID.String()))
			return store.ErrTeamNameExists
		}
		log.Error("failed to create team",
			slog.String("error", err.Error()),
			slog.String("team_id", team.ID.String()))
		return MapError(err)
	}

	for _, memberID := range team.Members {
		if err := s.insertMember(ctx, team.ID, memberID); err != nil {
			// Re-adding the same member twice in the initial list is
			// harmless; anything else bubbles up.
			if errors.Is(err, store.ErrMemberExists) {
				continue
			}
			return err
		}
	}

	log.Debug("team created successfully",
		slog.String("team_id", team.ID.String()),
		slog.Int("member_count", len(team.Members)))
	return nil
}

// GetByID retrieves a team (members included) by its unique ID. Returns
// store.ErrTeamNotFound if the team does not exist.
func (s *PostgresTeamStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, manager_id, created_at, updated_at
		FROM teams
		WHERE id = $1
	`
	team, err := scanTeam(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("team not found", slog.String("team_id", id.String()))
			return nil, store.ErrTeamNotFound
		}
		log.Error("failed to get team by ID",
			slog.String("error", err.Error()),
			slog.String("team_id", id.String()))
		return nil, MapError(err)
	}

	if err := s.loadMembers(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// GetByManager retrieves the team managed by the given user. Returns
// store.ErrTeamNotFound if the user manages no team.
func (s *PostgresTeamStore) GetByManager(ctx context.Context, managerID uuid.UUID) (*domain.Team, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, manager_id, created_at, updated_at
		FROM teams
		WHERE manager_id = $1
	`
	team, err := scanTeam(s.db.QueryRowContext(ctx, query, managerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no team for manager",
				slog.String("manager_id", managerID.String()))
			return nil, store.ErrTeamNotFound
		}
		log.Error("failed to get team by manager",
			slog.String("error", err.Error()),
			slog.String("manager_id", managerID.String()))
		return nil, MapError(err)
	}

	if err := s.loadMembers(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// AddMember appends a user to the team's membership. Returns
// store.ErrMemberExists if the user is already a member.
func (s *PostgresTeamStore) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.insertMember(ctx, teamID, userID); err != nil {
		return err
	}

	log.Debug("team member added",
		slog.String("team_id", teamID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// RemoveMember removes a user from the team's membership. Removing a user
// who is not a member is a no-op, not an error.
func (s *PostgresTeamStore) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	_, err := s.db.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		log.Error("failed to remove team member",
			slog.String("error", err.Error()),
			slog.String("team_id", teamID.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	log.Debug("team member removed",
		slog.String("team_id", teamID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// Delete removes a team by its ID. Membership rows go with it via the
// ON DELETE CASCADE constraint on team_members. Returns
// store.ErrTeamNotFound if the team does not exist.
func (s *PostgresTeamStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete team",
			slog.String("error", err.Error()),
			slog.String("team_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTeamNotFound); err != nil {
		return err
	}

	log.Debug("team deleted successfully", slog.String("team_id", id.String()))
	return nil
}

func (s *PostgresTeamStore) insertMember(ctx context.Context, teamID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`
	_, err := s.db.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrMemberExists
		}
		if IsForeignKeyViolation(err) {
			// Either the team or the user is gone.
			return store.ErrNotFound
		}
		log.Error("failed to insert team member",
			slog.String("error", err.Error()),
			slog.String("team_id", teamID.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}
	return nil
}

// loadMembers fills team.Members from the join table, ordered by insertion.
func (s *PostgresTeamStore) loadMembers(ctx context.Context, team *domain.Team) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id
		FROM team_members
		WHERE team_id = $1
		ORDER BY added_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, team.ID)
	if err != nil {
		log.Error("failed to load team members",
			slog.String("error", err.Error()),
			slog.String("team_id", team.ID.String()))
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	members := []uuid.UUID{}
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return MapError(err)
		}
		members = append(members, userID)
	}
	if err := rows.Err(); err != nil {
		return MapError(err)
	}

	team.Members = members
	return nil
}

func scanTeam(row rowScanner) (*domain.Team, error) {
	var team domain.Team
	err := row.Scan(
		&team.ID,
		&team.Name,
		&team.ManagerID,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &team, nil
}
