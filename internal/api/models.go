package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"     validate:"required,oneof=Admin Manager User"`
}

// LoginRequest defines the payload for the user login endpoint. The role
// must match the account's role; a mismatch fails like a wrong password.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
	Role     string `json:"role"     validate:"required,oneof=Admin Manager User"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`

	// AccessToken is the JWT token used for API authorization. The JSON
	// field stays "token" for client compatibility.
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the display-safe projection of a user account.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// UpdateProfileRequest defines the payload for profile updates. Omitted
// fields leave the current value unchanged.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1,max=64"`
	Email    *string `json:"email,omitempty"    validate:"omitempty,email"`
}

// ChangePasswordRequest defines the payload for the password change endpoint.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
}

// CreateTaskRequest defines the payload for task creation. Priority
// defaults to Low when omitted.
type CreateTaskRequest struct {
	Title       string    `json:"title"       validate:"required"`
	Description string    `json:"description" validate:"required"`
	DueDate     time.Time `json:"due_date"    validate:"required"`
	Priority    string    `json:"priority"    validate:"omitempty,oneof=Low Medium High"`
}

// UpdateTaskRequest defines the payload for partial task updates. Omitted
// fields leave the current value unchanged.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"       validate:"omitempty,min=1"`
	Description *string    `json:"description,omitempty" validate:"omitempty,min=1"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    *string    `json:"priority,omitempty"    validate:"omitempty,oneof=Low Medium High"`
	Status      *string    `json:"status,omitempty"      validate:"omitempty,oneof=Pending InProgress Completed"`
}

// toTaskUpdate converts the request into the domain-level partial update.
func (r UpdateTaskRequest) toTaskUpdate() domain.TaskUpdate {
	update := domain.TaskUpdate{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
	}
	if r.Priority != nil {
		p := domain.TaskPriority(*r.Priority)
		update.Priority = &p
	}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		update.Status = &s
	}
	return update
}

// AssignTaskRequest defines the payload for the task assignment endpoint.
type AssignTaskRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// TaskResponse is the wire representation of a task.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     time.Time  `json:"due_date"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func newTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    string(task.Priority),
		Status:      string(task.Status),
		AssignedTo:  task.AssignedTo,
		CreatedBy:   task.CreatedBy,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func newTaskListResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, newTaskResponse(task))
	}
	return out
}

// CreateTeamRequest defines the payload for team creation.
type CreateTeamRequest struct {
	Name      string      `json:"name"       validate:"required,min=1,max=128"`
	ManagerID uuid.UUID   `json:"manager_id" validate:"required"`
	MemberIDs []uuid.UUID `json:"member_ids"`
}

// AddMemberRequest defines the payload for the team membership endpoints.
type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// TeamResponse is the wire representation of a team with unresolved member IDs.
type TeamResponse struct {
	ID        uuid.UUID   `json:"id"`
	Name      string      `json:"name"`
	ManagerID uuid.UUID   `json:"manager_id"`
	Members   []uuid.UUID `json:"members"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func newTeamResponse(team *domain.Team) TeamResponse {
	return TeamResponse{
		ID:        team.ID,
		Name:      team.Name,
		ManagerID: team.ManagerID,
		Members:   team.Members,
		CreatedAt: team.CreatedAt,
		UpdatedAt: team.UpdatedAt,
	}
}
