package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/notify"
	"github.com/taskhive/taskhive-api/internal/service/auth"
	"github.com/taskhive/taskhive-api/internal/store"
)

// In-memory store fakes shared by the service tests. They implement the
// store interfaces with map-backed state and the same sentinel errors the
// postgres implementations return.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := []*domain.User{}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if user, ok := f.users[id]; ok {
			cp := *user
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUserStore) Update(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	for id, existing := range f.users {
		if id != user.ID && existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) List(ctx context.Context) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.User{}
	for _, user := range f.users {
		cp := *user
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return f }

type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	failNext error // when set, the next operation returns this error once
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (f *fakeTaskStore) takeFailure() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

func (f *fakeTaskStore) List(ctx context.Context, filter store.TaskFilter, sort store.TaskSort) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Task{}
	for _, task := range f.tasks {
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		if !filter.DueAfter.IsZero() && task.DueDate.Before(filter.DueAfter) {
			continue
		}
		if !filter.DueBefore.IsZero() && task.DueDate.After(filter.DueBefore) {
			continue
		}
		cp := *task
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if _, ok := f.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) FindByAssignee(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Task{}
	for _, task := range f.tasks {
		if task.AssignedTo != nil && *task.AssignedTo == userID {
			cp := *task
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) FindByAssignees(ctx context.Context, userIDs []uuid.UUID) ([]*domain.Task, error) {
	members := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		members[id] = struct{}{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Task{}
	for _, task := range f.tasks {
		if task.AssignedTo == nil {
			continue
		}
		if _, ok := members[*task.AssignedTo]; ok {
			cp := *task
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) FindAll(ctx context.Context) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Task{}
	for _, task := range f.tasks {
		cp := *task
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

type fakeTeamStore struct {
	mu    sync.Mutex
	teams map[uuid.UUID]*domain.Team
}

func newFakeTeamStore() *fakeTeamStore {
	return &fakeTeamStore{teams: make(map[uuid.UUID]*domain.Team)}
}

func copyTeam(t *domain.Team) *domain.Team {
	cp := *t
	cp.Members = append([]uuid.UUID{}, t.Members...)
	return &cp
}

func (f *fakeTeamStore) Create(ctx context.Context, team *domain.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.teams {
		if existing.Name == team.Name {
			return store.ErrTeamNameExists
		}
	}
	f.teams[team.ID] = copyTeam(team)
	return nil
}

func (f *fakeTeamStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[id]
	if !ok {
		return nil, store.ErrTeamNotFound
	}
	return copyTeam(team), nil
}

func (f *fakeTeamStore) GetByManager(ctx context.Context, managerID uuid.UUID) (*domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, team := range f.teams {
		if team.ManagerID == managerID {
			return copyTeam(team), nil
		}
	}
	return nil, store.ErrTeamNotFound
}

func (f *fakeTeamStore) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[teamID]
	if !ok {
		return store.ErrTeamNotFound
	}
	if team.HasMember(userID) {
		return store.ErrMemberExists
	}
	team.Members = append(team.Members, userID)
	return nil
}

func (f *fakeTeamStore) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[teamID]
	if !ok {
		return store.ErrTeamNotFound
	}
	members := team.Members[:0]
	for _, m := range team.Members {
		if m != userID {
			members = append(members, m)
		}
	}
	team.Members = members
	return nil
}

func (f *fakeTeamStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[id]; !ok {
		return store.ErrTeamNotFound
	}
	delete(f.teams, id)
	return nil
}

func (f *fakeTeamStore) WithTx(tx *sql.Tx) store.TeamStore { return f }

// recordingNotifier captures every notification synchronously so tests can
// assert on exact fan-out without timing concerns.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(userID uuid.UUID, event string, payload notify.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notify.Notification{UserID: userID, Event: event, Payload: payload})
}

func (r *recordingNotifier) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

func (r *recordingNotifier) sentTo(userID uuid.UUID) []notify.Notification {
	out := []notify.Notification{}
	for _, n := range r.all() {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// fakeHasher hashes by prefixing; Compare checks the prefix relation.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

// fakeJWTService issues predictable token strings keyed by user and type.
type fakeJWTService struct {
	mu     sync.Mutex
	issued map[string]auth.Claims
}

func newFakeJWTService() *fakeJWTService {
	return &fakeJWTService{issued: make(map[string]auth.Claims)}
}

func (f *fakeJWTService) GenerateToken(ctx context.Context, userID uuid.UUID, role domain.Role) (string, error) {
	return f.issue(userID, role, "access")
}

func (f *fakeJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID, role domain.Role) (string, error) {
	return f.issue(userID, role, "refresh")
}

func (f *fakeJWTService) issue(userID uuid.UUID, role domain.Role, tokenType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := fmt.Sprintf("%s-%s-%d", tokenType, userID, len(f.issued))
	f.issued[token] = auth.Claims{UserID: userID, Role: role, TokenType: tokenType}
	return token, nil
}

func (f *fakeJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return f.lookup(tokenString, "access", auth.ErrInvalidToken)
}

func (f *fakeJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return f.lookup(tokenString, "refresh", auth.ErrInvalidRefreshToken)
}

func (f *fakeJWTService) lookup(token, tokenType string, invalidErr error) (*auth.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims, ok := f.issued[token]
	if !ok {
		return nil, invalidErr
	}
	if claims.TokenType != tokenType {
		return nil, auth.ErrWrongTokenType
	}
	cp := claims
	return &cp, nil
}
