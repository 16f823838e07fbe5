package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/notify"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/service/auth"
	"github.com/taskhive/taskhive-api/internal/store"
)

// RegisterInput carries the caller-supplied fields for a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// TokenPair is an access/refresh token pair issued on login or refresh.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// ProfileUpdate is a partial profile mutation. Nil fields leave the current
// value unchanged.
type ProfileUpdate struct {
	Username *string
	Email    *string
}

// UserService handles account lifecycle: registration, authentication,
// profile management, and the admin-only user administration surface.
type UserService interface {
	// Register creates a new account. Admin accounts cannot be
	// self-registered. Emits userRegistered to the new user.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)

	// Authenticate verifies the credentials and, on success, issues a token
	// pair. The supplied role must match the account's role. All failure
	// modes return ErrInvalidCredentials. Emits userLoggedIn.
	Authenticate(ctx context.Context, email, password string, role domain.Role) (*domain.User, *TokenPair, error)

	// Refresh exchanges a valid refresh token for a fresh token pair.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)

	// GetProfile returns the user's own record.
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateProfile applies the provided profile fields. Emits
	// profileUpdated to the user.
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*domain.User, error)

	// ChangePassword verifies the current password and replaces it with the
	// new one, which must satisfy the password policy. Emits passwordChanged.
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error

	// Delete removes an account. Admin only.
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error

	// List returns all accounts. Admin only.
	List(ctx context.Context, actor domain.Actor) ([]*domain.User, error)
}

// userServiceImpl implements the UserService interface.
type userServiceImpl struct {
	userStore  store.UserStore
	jwtService auth.JWTService
	hasher     auth.PasswordHasher
	verifier   auth.PasswordVerifier
	notifier   notify.Notifier
	logger     *slog.Logger
}

// NewUserService creates a new UserService.
// It returns an error if any of the required dependencies are nil.
func NewUserService(
	userStore store.UserStore,
	jwtService auth.JWTService,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	notifier notify.Notifier,
	log *slog.Logger,
) (UserService, error) {
	if userStore == nil {
		return nil, domain.NewValidationError("userStore", "cannot be nil", domain.ErrValidation)
	}
	if jwtService == nil {
		return nil, domain.NewValidationError("jwtService", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if verifier == nil {
		return nil, domain.NewValidationError("verifier", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	return &userServiceImpl{
		userStore:  userStore,
		jwtService: jwtService,
		hasher:     hasher,
		verifier:   verifier,
		notifier:   notifier,
		logger:     log.With(slog.String("component", "user_service")),
	}, nil
}

// Register implements UserService.Register.
func (s *userServiceImpl) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if input.Role == domain.RoleAdmin {
		log.Warn("admin self-registration attempt rejected")
		return nil, ErrAdminRegistration
	}

	user, err := domain.NewUser(input.Username, input.Email, input.Password, input.Role)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		return nil, NewUserServiceError("register", "failed to hash password", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.userStore.Create(ctx, user); err != nil {
		if store.IsDuplicateError(err) || isValidationError(err) {
			return nil, err
		}
		return nil, NewUserServiceError("register", "failed to persist user", err)
	}

	s.notifier.Notify(user.ID, notify.EventUserRegistered, notify.Payload{
		Message: fmt.Sprintf("Welcome, %s! You have successfully registered.", user.Username),
	})

	log.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))
	return user, nil
}

// Authenticate implements UserService.Authenticate. The unknown-email,
// wrong-password, and role-mismatch cases are deliberately indistinguishable
// to the caller.
func (s *userServiceImpl) Authenticate(
	ctx context.Context,
	email, password string,
	role domain.Role,
) (*domain.User, *TokenPair, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, NewUserServiceError("authenticate", "failed to load user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("password mismatch", slog.String("user_id", user.ID.String()))
		return nil, nil, ErrInvalidCredentials
	}

	if user.Role != role {
		log.Debug("role mismatch on login", slog.String("user_id", user.ID.String()))
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}

	s.notifier.Notify(user.ID, notify.EventUserLoggedIn, notify.Payload{
		Message: fmt.Sprintf("Hello %s, you have successfully logged in.", user.Username),
	})

	log.Info("user authenticated", slog.String("user_id", user.ID.String()))
	return user, pair, nil
}

// Refresh implements UserService.Refresh. The account is re-checked so a
// deleted user cannot mint new tokens, and the role is re-read from the
// store so a role change takes effect on the next refresh.
func (s *userServiceImpl) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userStore.GetByID(ctx, claims.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, auth.ErrInvalidRefreshToken
		}
		return nil, NewUserServiceError("refresh", "failed to load user", err)
	}

	return s.issueTokens(ctx, user.ID, user.Role)
}

// GetProfile implements UserService.GetProfile.
func (s *userServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewUserServiceError("get_profile", "failed to load user", err)
	}
	return user, nil
}

// UpdateProfile implements UserService.UpdateProfile.
func (s *userServiceImpl) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	update ProfileUpdate,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewUserServiceError("update_profile", "failed to load user", err)
	}

	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	user.UpdatedAt = time.Now().UTC()

	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.userStore.Update(ctx, user); err != nil {
		if store.IsDuplicateError(err) || store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewUserServiceError("update_profile", "failed to persist user", err)
	}

	s.notifier.Notify(user.ID, notify.EventProfileUpdated, notify.Payload{
		Message: "Your profile has been updated successfully.",
	})

	log.Info("profile updated", slog.String("user_id", user.ID.String()))
	return user, nil
}

// ChangePassword implements UserService.ChangePassword.
func (s *userServiceImpl) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	currentPassword, newPassword string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewUserServiceError("change_password", "failed to load user", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, currentPassword); err != nil {
		return ErrInvalidCredentials
	}

	if err := domain.ValidatePasswordPolicy(newPassword); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return NewUserServiceError("change_password", "failed to hash password", err)
	}
	user.HashedPassword = hashed
	user.UpdatedAt = time.Now().UTC()

	if err := s.userStore.Update(ctx, user); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewUserServiceError("change_password", "failed to persist user", err)
	}

	s.notifier.Notify(user.ID, notify.EventPasswordChanged, notify.Payload{
		Message: "Your password has been updated successfully.",
	})

	log.Info("password changed", slog.String("user_id", user.ID.String()))
	return nil
}

// Delete implements UserService.Delete.
func (s *userServiceImpl) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if actor.Role != domain.RoleAdmin {
		log.Warn("user delete denied",
			slog.String("actor_id", actor.ID.String()),
			slog.String("actor_role", string(actor.Role)))
		return ErrAccessDenied
	}

	if err := s.userStore.Delete(ctx, id); err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewUserServiceError("delete", "failed to delete user", err)
	}

	log.Info("user deleted",
		slog.String("user_id", id.String()),
		slog.String("actor_id", actor.ID.String()))
	return nil
}

// List implements UserService.List.
func (s *userServiceImpl) List(ctx context.Context, actor domain.Actor) ([]*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, ErrAccessDenied
	}

	users, err := s.userStore.List(ctx)
	if err != nil {
		return nil, NewUserServiceError("list", "failed to query users", err)
	}
	return users, nil
}

func (s *userServiceImpl) issueTokens(
	ctx context.Context,
	userID uuid.UUID,
	role domain.Role,
) (*TokenPair, error) {
	access, err := s.jwtService.GenerateToken(ctx, userID, role)
	if err != nil {
		return nil, NewUserServiceError("authenticate", "failed to issue access token", err)
	}
	refresh, err := s.jwtService.GenerateRefreshToken(ctx, userID, role)
	if err != nil {
		return nil, NewUserServiceError("authenticate", "failed to issue refresh token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
