package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
	"github.com/taskhive/taskhive-api/internal/service/auth"
)

// stubJWTService validates a single known token.
type stubJWTService struct {
	token  string
	claims *auth.Claims
	err    error
}

func (s *stubJWTService) GenerateToken(ctx context.Context, userID uuid.UUID, role domain.Role) (string, error) {
	return s.token, nil
}

func (s *stubJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, auth.ErrInvalidToken
	}
	return s.claims, nil
}

func (s *stubJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID, role domain.Role) (string, error) {
	return s.token, nil
}

func (s *stubJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	return s.ValidateToken(ctx, token)
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	jwtService := &stubJWTService{
		token:  "valid-token",
		claims: &auth.Claims{UserID: userID, Role: domain.RoleManager},
	}

	nextActor := func(t *testing.T) (http.Handler, *domain.Actor) {
		captured := &domain.Actor{}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := shared.GetActor(r.Context())
			require.True(t, ok)
			*captured = actor
			w.WriteHeader(http.StatusOK)
		}), captured
	}

	t.Run("valid token puts the actor in context", func(t *testing.T) {
		t.Parallel()
		next, captured := nextActor(t)
		handler := NewAuthMiddleware(jwtService).Authenticate(next)

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, userID, captured.ID)
		assert.Equal(t, domain.RoleManager, captured.Role)
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		t.Parallel()
		handler := NewAuthMiddleware(jwtService).Authenticate(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not run")
			}))

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("malformed header is unauthorized", func(t *testing.T) {
		t.Parallel()
		handler := NewAuthMiddleware(jwtService).Authenticate(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not run")
			}))

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Token valid-token")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		t.Parallel()
		expired := &stubJWTService{err: auth.ErrExpiredToken}
		handler := NewAuthMiddleware(expired).Authenticate(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not run")
			}))

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer stale")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("refresh token on an API route is rejected", func(t *testing.T) {
		t.Parallel()
		wrongType := &stubJWTService{err: auth.ErrWrongTokenType}
		handler := NewAuthMiddleware(wrongType).Authenticate(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("next handler should not run")
			}))

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer refresh-token")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}
