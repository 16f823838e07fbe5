package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/service"
	"github.com/taskhive/taskhive-api/internal/store"
)

// Stub services with function fields so each test overrides only the
// operations it exercises.

type stubUserService struct {
	registerFn       func(ctx context.Context, input service.RegisterInput) (*domain.User, error)
	authenticateFn   func(ctx context.Context, email, password string, role domain.Role) (*domain.User, *service.TokenPair, error)
	refreshFn        func(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	getProfileFn     func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	updateProfileFn  func(ctx context.Context, userID uuid.UUID, update service.ProfileUpdate) (*domain.User, error)
	changePasswordFn func(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	deleteFn         func(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	listFn           func(ctx context.Context, actor domain.Actor) ([]*domain.User, error)
}

func (s *stubUserService) Register(ctx context.Context, input service.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, input)
}

func (s *stubUserService) Authenticate(
	ctx context.Context,
	email, password string,
	role domain.Role,
) (*domain.User, *service.TokenPair, error) {
	return s.authenticateFn(ctx, email, password, role)
}

func (s *stubUserService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubUserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.getProfileFn(ctx, userID)
}

func (s *stubUserService) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	update service.ProfileUpdate,
) (*domain.User, error) {
	return s.updateProfileFn(ctx, userID, update)
}

func (s *stubUserService) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	currentPassword, newPassword string,
) error {
	return s.changePasswordFn(ctx, userID, currentPassword, newPassword)
}

func (s *stubUserService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	return s.deleteFn(ctx, actor, id)
}

func (s *stubUserService) List(ctx context.Context, actor domain.Actor) ([]*domain.User, error) {
	return s.listFn(ctx, actor)
}

type stubTaskService struct {
	createFn       func(ctx context.Context, actor domain.Actor, input service.CreateTaskInput) (*domain.Task, error)
	listFn         func(ctx context.Context, filter store.TaskFilter, sort store.TaskSort) ([]*domain.Task, error)
	getFn          func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error)
	updateFn       func(ctx context.Context, actor domain.Actor, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)
	deleteFn       func(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	assignFn       func(ctx context.Context, actor domain.Actor, taskID, targetUserID uuid.UUID) (*domain.Task, error)
	viewAssignedFn func(ctx context.Context, actor domain.Actor) ([]*domain.Task, error)
}

func (s *stubTaskService) Create(
	ctx context.Context,
	actor domain.Actor,
	input service.CreateTaskInput,
) (*domain.Task, error) {
	return s.createFn(ctx, actor, input)
}

func (s *stubTaskService) List(
	ctx context.Context,
	filter store.TaskFilter,
	sort store.TaskSort,
) ([]*domain.Task, error) {
	return s.listFn(ctx, filter, sort)
}

func (s *stubTaskService) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.Task, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubTaskService) Update(
	ctx context.Context,
	actor domain.Actor,
	id uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	return s.updateFn(ctx, actor, id, update)
}

func (s *stubTaskService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	return s.deleteFn(ctx, actor, id)
}

func (s *stubTaskService) Assign(
	ctx context.Context,
	actor domain.Actor,
	taskID, targetUserID uuid.UUID,
) (*domain.Task, error) {
	return s.assignFn(ctx, actor, taskID, targetUserID)
}

func (s *stubTaskService) ViewAssigned(ctx context.Context, actor domain.Actor) ([]*domain.Task, error) {
	return s.viewAssignedFn(ctx, actor)
}

type stubTeamService struct {
	createFn       func(ctx context.Context, actor domain.Actor, input service.CreateTeamInput) (*domain.Team, error)
	addMemberFn    func(ctx context.Context, actor domain.Actor, teamID, memberID uuid.UUID) (*domain.Team, error)
	removeMemberFn func(ctx context.Context, actor domain.Actor, teamID, memberID uuid.UUID) (*domain.Team, error)
	getTeamFn      func(ctx context.Context, id uuid.UUID) (*domain.TeamDetail, error)
	deleteFn       func(ctx context.Context, actor domain.Actor, id uuid.UUID) error
}

func (s *stubTeamService) Create(
	ctx context.Context,
	actor domain.Actor,
	input service.CreateTeamInput,
) (*domain.Team, error) {
	return s.createFn(ctx, actor, input)
}

func (s *stubTeamService) AddMember(
	ctx context.Context,
	actor domain.Actor,
	teamID, memberID uuid.UUID,
) (*domain.Team, error) {
	return s.addMemberFn(ctx, actor, teamID, memberID)
}

func (s *stubTeamService) RemoveMember(
	ctx context.Context,
	actor domain.Actor,
	teamID, memberID uuid.UUID,
) (*domain.Team, error) {
	return s.removeMemberFn(ctx, actor, teamID, memberID)
}

func (s *stubTeamService) GetTeam(ctx context.Context, id uuid.UUID) (*domain.TeamDetail, error) {
	return s.getTeamFn(ctx, id)
}

func (s *stubTeamService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	return s.deleteFn(ctx, actor, id)
}

type stubAnalyticsService struct {
	userFn func(ctx context.Context, userID *uuid.UUID) (*service.TaskAnalytics, error)
	teamFn func(ctx context.Context, actor domain.Actor, teamID uuid.UUID) (*service.TaskAnalytics, error)
}

func (s *stubAnalyticsService) GetTaskAnalytics(
	ctx context.Context,
	userID *uuid.UUID,
) (*service.TaskAnalytics, error) {
	return s.userFn(ctx, userID)
}

func (s *stubAnalyticsService) GetTeamTaskAnalytics(
	ctx context.Context,
	actor domain.Actor,
	teamID uuid.UUID,
) (*service.TaskAnalytics, error) {
	return s.teamFn(ctx, actor, teamID)
}

// Request builders

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asActor attaches an authenticated actor to the request context, mirroring
// what the auth middleware does.
func asActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(shared.SetActor(req.Context(), actor))
}

// withPathParam attaches a chi route parameter to the request context.
func withPathParam(req *http.Request, key, value string) *http.Request {
	return withPathParams(req, key, value)
}

// withPathParams attaches key/value pairs as chi route parameters.
func withPathParams(req *http.Request, pairs ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(pairs); i += 2 {
		rctx.URLParams.Add(pairs[i], pairs[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody unmarshals the recorded response body into v.
func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), v))
}
