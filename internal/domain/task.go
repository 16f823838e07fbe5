package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskPriority is the closed set of task priorities.
type TaskPriority string

// Possible priority values. Tasks default to PriorityLow.
const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// Valid reports whether the priority is one of the known values.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TaskStatus is the closed set of task statuses. The analytics engine
// compares against these canonical values exactly; status strings are
// case-sensitive throughout.
type TaskStatus string

// Possible status values. Tasks default to StatusPending.
const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "InProgress"
	StatusCompleted  TaskStatus = "Completed"
)

// Valid reports whether the status is one of the known values.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Task represents a unit of work tracked by the system.
// CreatedBy is set once at creation and never changes afterwards.
// AssignedTo is nil until the task is assigned.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueDate     time.Time    `json:"due_date"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedBy   uuid.UUID    `json:"created_by"`
	AssignedTo  *uuid.UUID   `json:"assigned_to,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTask creates a new Task owned by createdBy with a generated ID,
// Pending status, and current timestamps. An empty priority defaults to Low.
func NewTask(title, description string, dueDate time.Time, priority TaskPriority, createdBy uuid.UUID) (*Task, error) {
	if priority == "" {
		priority = PriorityLow
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Priority:    priority,
		Status:      StatusPending,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks that the task record is internally consistent.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "cannot be empty", nil)
	}
	if strings.TrimSpace(t.Description) == "" {
		return NewValidationError("description", "cannot be empty", nil)
	}
	if t.DueDate.IsZero() {
		return NewValidationError("dueDate", "cannot be empty", nil)
	}
	if !t.Priority.Valid() {
		return NewValidationError("priority", "must be one of Low, Medium, High", ErrInvalidPriority)
	}
	if !t.Status.Valid() {
		return NewValidationError("status", "must be one of Pending, InProgress, Completed", ErrInvalidStatus)
	}
	if t.CreatedBy == uuid.Nil {
		return NewValidationError("createdBy", "cannot be empty", ErrInvalidID)
	}
	return nil
}

// TaskUpdate is a partial task mutation. Nil fields leave the current
// value unchanged; there is no way to clear a field through an update.
type TaskUpdate struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
}

// Apply copies the provided fields onto the task and bumps UpdatedAt.
// CreatedBy and AssignedTo are never touched by an update.
func (t *Task) Apply(update TaskUpdate) error {
	if update.Title != nil {
		t.Title = *update.Title
	}
	if update.Description != nil {
		t.Description = *update.Description
	}
	if update.DueDate != nil {
		t.DueDate = *update.DueDate
	}
	if update.Priority != nil {
		t.Priority = *update.Priority
	}
	if update.Status != nil {
		t.Status = *update.Status
	}
	t.UpdatedAt = time.Now().UTC()
	return t.Validate()
}
