package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/domain/policy"
	"github.com/taskhive/taskhive-api/internal/notify"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/store"
)

// CreateTeamInput carries the caller-supplied fields for a new team.
type CreateTeamInput struct {
	Name      string
	ManagerID uuid.UUID
	MemberIDs []uuid.UUID
}

// TeamService orchestrates team lifecycle operations. Team creation is
// admin-only; membership changes and deletion are open to admins and the
// team's own manager.
type TeamService interface {
	// Create creates a team after resolving the manager and every listed
	// member. The designated manager must hold the Manager role. Emits one
	// notification to the manager and one to each member.
	Create(ctx context.Context, actor domain.Actor, input CreateTeamInput) (*domain.Team, error)

	// AddMember appends a user to the team. Fails with a conflict when the
	// user is already a member. Notifies the new member and the manager.
	AddMember(ctx context.Context, actor domain.Actor, teamID, memberID uuid.UUID) (*domain.Team, error)

	// RemoveMember removes a user from the team. Removing an absent user is
	// idempotent. Notifies the removed member and the manager.
	RemoveMember(ctx context.Context, actor domain.Actor, teamID, memberID uuid.UUID) (*domain.Team, error)

	// GetTeam returns the team with manager and member identities resolved
	// to display-safe user summaries.
	GetTeam(ctx context.Context, id uuid.UUID) (*domain.TeamDetail, error)

	// Delete removes the team. Notifies the manager and every former member.
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
}

// teamServiceImpl implements the TeamService interface.
type teamServiceImpl struct {
	db        *sql.DB
	teamStore store.TeamStore
	userStore store.UserStore
	notifier  notify.Notifier
	logger    *slog.Logger
	runTx     func(ctx context.Context, fn store.TxFn) error // Injectable for testing
}

// NewTeamService creates a new TeamService.
// It returns an error if any of the required dependencies are nil.
func NewTeamService(
	db *sql.DB,
	teamStore store.TeamStore,
	userStore store.UserStore,
	notifier notify.Notifier,
	log *slog.Logger,
) (TeamService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if teamStore == nil {
		return nil, domain.NewValidationError("teamStore", "cannot be nil", domain.ErrValidation)
	}
	if userStore == nil {
		return nil, domain.NewValidationError("userStore", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	return &teamServiceImpl{
		db:        db,
		teamStore: teamStore,
		userStore: userStore,
		notifier:  notifier,
		logger:    log.With(slog.String("component", "team_service")),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
	}, nil
}

// Create implements TeamService.Create. The team row and its membership
// rows are written in one transaction; notification fan-out happens after
// the commit and is not part of the atomic unit.
func (s *teamServiceImpl) Create(
	ctx context.Context,
	actor domain.Actor,
	input CreateTeamInput,
) (*domain.Team, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !policy.CanCreateTeam(actor.Role) {
		log.Warn("team creation denied",
			slog.String("actor_id", actor.ID.String()),
			slog.String("actor_role", string(actor.Role)))
		return nil, ErrAccessDenied
	}

	manager, err := s.userStore.GetByID(ctx, input.ManagerID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, domain.NewValidationError("managerId", "invalid manager ID or role", domain.ErrValidation)
		}
		return nil, NewTeamServiceError("create", "failed to load manager", err)
	}
	if manager.Role != domain.RoleManager {
		return nil, domain.NewValidationError("managerId", "invalid manager ID or role", domain.ErrValidation)
	}

	members, err := s.userStore.GetByIDs(ctx, input.MemberIDs)
	if err != nil {
		return nil, NewTeamServiceError("create", "failed to resolve members", err)
	}
	if len(members) != len(uniqueIDs(input.MemberIDs)) {
		return nil, domain.NewValidationError("memberIds", "some members do not exist", domain.ErrValidation)
	}

	team, err := domain.NewTeam(input.Name, input.ManagerID, input.MemberIDs)
	if err != nil {
		return nil, err
	}

	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.teamStore.WithTx(tx).Create(ctx, team)
	})
	if err != nil {
		if store.IsDuplicateError(err) {
			return nil, err
		}
		return nil, NewTeamServiceError("create", "failed to persist team", err)
	}

	s.notifier.Notify(team.ManagerID, notify.EventTeamCreated, notify.Payload{
		Message: fmt.Sprintf("Your team %q has been created successfully!", team.Name),
	})
	for _, memberID := range team.Members {
		s.notifier.Notify(memberID, notify.EventTeamCreated, notify.Payload{
			Message: fmt.Sprintf("You have been added to the team %q!", team.Name),
		})
	}

	log.Info("team created",
		slog.String("team_id", team.ID.String()),
		slog.String("manager_id", team.ManagerID.String()),
		slog.Int("member_count", len(team.Members)))
	return team, nil
}

// AddMember implements TeamService.AddMember.
func (s *teamServiceImpl) AddMember(
	ctx context.Context,
	actor domain.Actor,
	teamID, memberID uuid.UUID,
) (*domain.Team, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	team, err := s.teamStore.GetByID(ctx, teamID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTeamServiceError("add_member", "failed to load team", err)
	}

	if !policy.CanMutateTeam(actor, team) {
		log.Warn("team mutation denied",
			slog.String("team_id", teamID.String()),
			slog.String("actor_id", actor.ID.String()))
		return nil, ErrAccessDenied
	}

	if _, err := s.userStore.GetByID(ctx, memberID); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTeamServiceError("add_member", "failed to load user", err)
	}

	if err := s.teamStore.AddMember(ctx, teamID, memberID); err != nil {
		if store.IsDuplicateError(err) || store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTeamServiceError("add_member", "failed to persist membership", err)
	}
	team.Members = append(team.Members, memberID)

	s.notifier.Notify(memberID, notify.EventMemberAdded, notify.Payload{
		Message: fmt.Sprintf("You have been added to the team %q!", team.Name),
	})
	s.notifier.Notify(team.ManagerID, notify.EventMemberAdded, notify.Payload{
		Message: fmt.Sprintf("A new member has been added to your team %q.", team.Name),
	})

	log.Info("team member added",
		slog.String("team_id", teamID.String()),
		slog.String("member_id", memberID.String()))
	return team, nil
}

// RemoveMember implements TeamService.RemoveMember. Removing a user who is
// not a member succeeds without changing anything.
func (s *teamServiceImpl) RemoveMember(
	ctx context.Context,
	actor domain.Actor,
	teamID, memberID uuid.UUID,
) (*domain.Team, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	team, err := s.teamStore.GetByID(ctx, teamID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTeamServiceError("remove_member", "failed to load team", err)
	}

	if !policy.CanMutateTeam(actor, team) {
		log.Warn("team mutation denied",
			slog.String("team_id", teamID.String()),
			slog.String("actor_id", actor.ID.String()))
		return nil, ErrAccessDenied
	}

	if err := s.teamStore.RemoveMember(ctx, teamID, memberID); err != nil {
		return nil, NewTeamServiceError("remove_member", "failed to persist membership", err)
	}
	team.Members = withoutID(team.Members, memberID)

	s.notifier.Notify(memberID, notify.EventMemberRemoved, notify.Payload{
		Message: fmt.Sprintf("You have been removed from the team %q.", team.Name),
	})
	s.notifier.Notify(team.ManagerID, notify.EventMemberRemoved, notify.Payload{
		Message: fmt.Sprintf("A member has been removed from your team %q.", team.Name),
	})

	log.Info("team member removed",
		slog.String("team_id", teamID.String()),
		slog.String("member_id", memberID.String()))
	return team, nil
}

// GetTeam implements TeamService.GetTeam.
func (s *teamServiceImpl) GetTeam(ctx context.Context, id uuid.UUID) (*domain.TeamDetail, error) {
	team, err := s.teamStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTeamServiceError("get", "failed to load team", err)
	}

	manager, err := s.userStore.GetByID(ctx, team.ManagerID)
	if err != nil {
		return nil, NewTeamServiceError("get", "failed to resolve manager", err)
	}

	members, err := s.userStore.GetByIDs(ctx, team.Members)
	if err != nil {
		return nil, NewTeamServiceError("get", "failed to resolve members", err)
	}

	summaries := make([]domain.UserSummary, 0, len(members))
	for _, m := range members {
		summaries = append(summaries, m.Summary())
	}

	return &domain.TeamDetail{
		ID:        team.ID,
		Name:      team.Name,
		Manager:   manager.Summary(),
		Members:   summaries,
		CreatedAt: team.CreatedAt,
		UpdatedAt: team.UpdatedAt,
	}, nil
}

// Delete implements TeamService.Delete.
func (s *teamServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	team, err := s.teamStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewTeamServiceError("delete", "failed to load team", err)
	}

	if !policy.CanMutateTeam(actor, team) {
		log.Warn("team delete denied",
			slog.String("team_id", id.String()),
			slog.String("actor_id", actor.ID.String()))
		return ErrAccessDenied
	}

	if err := s.teamStore.Delete(ctx, id); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewTeamServiceError("delete", "failed to delete team", err)
	}

	s.notifier.Notify(team.ManagerID, notify.EventTeamDeleted, notify.Payload{
		Message: fmt.Sprintf("Your team %q has been deleted.", team.Name),
	})
	for _, memberID := range team.Members {
		s.notifier.Notify(memberID, notify.EventTeamDeleted, notify.Payload{
			Message: fmt.Sprintf("The team %q you were part of has been deleted.", team.Name),
		})
	}

	log.Info("team deleted",
		slog.String("team_id", id.String()),
		slog.String("actor_id", actor.ID.String()))
	return nil
}

// uniqueIDs returns ids with duplicates removed, preserving order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// withoutID returns ids with every occurrence of target removed.
func withoutID(ids []uuid.UUID, target uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}
