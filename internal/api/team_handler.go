package api

import (
	"log/slog"
	"net/http"

	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
	"github.com/taskhive/taskhive-api/internal/service"
)

// TeamHandler handles team lifecycle API requests.
type TeamHandler struct {
	teamService service.TeamService
	logger      *slog.Logger
}

// NewTeamHandler creates a new TeamHandler with the given dependencies.
func NewTeamHandler(teamService service.TeamService, log *slog.Logger) *TeamHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TeamHandler{
		teamService: teamService,
		logger:      log.With(slog.String("component", "team_handler")),
	}
}

// CreateTeam handles POST /teams. Admin only.
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	actor, ok := getActorFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateTeamRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	team, err := h.teamService.Create(r.Context(), actor, service.CreateTeamInput{
		Name:      req.Name,
		ManagerID: req.ManagerID,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, newTeamResponse(team))
}

// GetTeam handles GET /teams/{id}, returning the team with resolved
// manager and member summaries.
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	_, id, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	detail, err := h.teamService.GetTeam(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, detail)
}

// AddMember handles POST /teams/{id}/members.
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	actor, teamID, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	team, err := h.teamService.AddMember(r.Context(), actor, teamID, req.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTeamResponse(team))
}

// RemoveMember handles DELETE /teams/{id}/members/{userId}. Removing a
// user who is not a member succeeds without effect.
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, teamID, ok := handleActorAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	memberID, err := getPathUUID(r, "userId")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	team, err := h.teamService.RemoveMember(r.Context(), actor, teamID, memberID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTeamResponse(team))
}

// DeleteTeam handles DELETE /teams/{id}.
func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, id, ok := handleActorAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	if err := h.teamService.Delete(r.Context(), actor, id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("team deleted",
		slog.String("team_id", id.String()),
		slog.String("deleted_by", actor.ID.String()))
	w.WriteHeader(http.StatusNoContent)
}
