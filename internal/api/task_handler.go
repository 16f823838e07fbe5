package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/store"
)

// TaskHandler handles task lifecycle and analytics API requests.
type TaskHandler struct {
	taskService      service.TaskService
	analyticsService service.AnalyticsService
	logger           *slog.Logger
}

// NewTaskHandler creates a new TaskHandler with the given dependencies.
func NewTaskHandler(
	taskService service.TaskService,
	analyticsService service.AnalyticsService,
	log *slog.Logger,
) *TaskHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TaskHandler{
		taskService:      taskService,
		analyticsService: analyticsService,
		logger:           log.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActorFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.Create(r.Context(), actor, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    domain.TaskPriority(req.Priority),
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, newTaskResponse(task))
}

// ListTasks handles GET /tasks. Filtering and sorting come from query
// parameters; no per-caller ownership narrowing is applied.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := getActorFromContext(r); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter, sort, err := parseTaskQuery(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	tasks, err := h.taskService.List(r.Context(), filter, sort)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskListResponse(tasks))
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), actor, id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// UpdateTask handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.Update(r.Context(), actor, id, req.toTaskUpdate())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, id, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("task deleted",
		slog.String("task_id", id.String()),
		slog.String("deleted_by", actor.ID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// AssignTask handles POST /tasks/{id}/assign.
func (h *TaskHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req AssignTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	task, err := h.taskService.Assign(r.Context(), actor, id, req.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// AssignedTasks handles GET /tasks/assigned, the actor's own assignments.
func (h *TaskHandler) AssignedTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActorFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	tasks, err := h.taskService.ViewAssigned(r.Context(), actor)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskListResponse(tasks))
}

// UserAnalytics handles GET /tasks/analytics. Without a user_id query
// parameter it returns the global classification across every task.
func (h *TaskHandler) UserAnalytics(w http.ResponseWriter, r *http.Request) {
	if _, ok := getActorFromContext(r); !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var userID *uuid.UUID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			HandleAPIError(w, r,
				domain.NewValidationError("user_id", "has invalid format", domain.ErrInvalidID), "")
			return
		}
		userID = &id
	}

	analytics, err := h.analyticsService.GetTaskAnalytics(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, analytics)
}

// TeamAnalytics handles GET /tasks/analytics/team/{id}.
func (h *TaskHandler) TeamAnalytics(w http.ResponseWriter, r *http.Request) {
	actor, teamID, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	analytics, err := h.analyticsService.GetTeamTaskAnalytics(r.Context(), actor, teamID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, analytics)
}

// parseTaskQuery builds the store filter and sort from query parameters.
// Unknown sort fields fall back to creation time at the store layer.
func parseTaskQuery(r *http.Request) (store.TaskFilter, store.TaskSort, error) {
	q := r.URL.Query()

	filter := store.TaskFilter{}
	if status := q.Get("status"); status != "" {
		s := domain.TaskStatus(status)
		if !s.Valid() {
			return filter, store.TaskSort{},
				domain.NewValidationError("status", "is not a valid task status", domain.ErrInvalidStatus)
		}
		filter.Status = s
	}
	if priority := q.Get("priority"); priority != "" {
		p := domain.TaskPriority(priority)
		if !p.Valid() {
			return filter, store.TaskSort{},
				domain.NewValidationError("priority", "is not a valid task priority", domain.ErrInvalidPriority)
		}
		filter.Priority = p
	}
	if raw := q.Get("due_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, store.TaskSort{},
				domain.NewValidationError("due_after", "must be an RFC 3339 timestamp", domain.ErrValidation)
		}
		filter.DueAfter = t
	}
	if raw := q.Get("due_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, store.TaskSort{},
				domain.NewValidationError("due_before", "must be an RFC 3339 timestamp", domain.ErrValidation)
		}
		filter.DueBefore = t
	}

	sort := store.TaskSort{
		Field:      q.Get("sort_by"),
		Descending: q.Get("order") == "desc",
	}

	return filter, sort, nil
}
