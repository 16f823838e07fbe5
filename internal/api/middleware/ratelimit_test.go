package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
)

func limitedRequest(actor domain.Actor) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	return req.WithContext(shared.SetActor(req.Context(), actor))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_Limit(t *testing.T) {
	t.Parallel()

	t.Run("requests within the budget pass", func(t *testing.T) {
		t.Parallel()
		handler := NewRateLimitMiddleware().Limit(okHandler())
		actor := domain.Actor{ID: uuid.New(), Role: domain.RoleUser}

		for i := 0; i < 100; i++ {
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, limitedRequest(actor))
			assert.Equal(t, http.StatusOK, recorder.Code, "request %d should pass", i)
		}
	})

	t.Run("requests beyond the budget are rejected", func(t *testing.T) {
		t.Parallel()
		handler := NewRateLimitMiddleware().Limit(okHandler())
		actor := domain.Actor{ID: uuid.New(), Role: domain.RoleUser}

		for i := 0; i < 100; i++ {
			handler.ServeHTTP(httptest.NewRecorder(), limitedRequest(actor))
		}

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, limitedRequest(actor))
		assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	})

	t.Run("admins have a larger budget", func(t *testing.T) {
		t.Parallel()
		handler := NewRateLimitMiddleware().Limit(okHandler())
		actor := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

		for i := 0; i < 200; i++ {
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, limitedRequest(actor))
			assert.Equal(t, http.StatusOK, recorder.Code, "request %d should pass", i)
		}

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, limitedRequest(actor))
		assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	})

	t.Run("budgets are tracked per user", func(t *testing.T) {
		t.Parallel()
		handler := NewRateLimitMiddleware().Limit(okHandler())
		exhausted := domain.Actor{ID: uuid.New(), Role: domain.RoleUser}
		fresh := domain.Actor{ID: uuid.New(), Role: domain.RoleUser}

		for i := 0; i < 101; i++ {
			handler.ServeHTTP(httptest.NewRecorder(), limitedRequest(exhausted))
		}

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, limitedRequest(fresh))
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("unauthenticated requests pass through", func(t *testing.T) {
		t.Parallel()
		handler := NewRateLimitMiddleware().Limit(okHandler())

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestRateLimitMiddleware_Close(t *testing.T) {
	t.Parallel()

	m := NewRateLimitMiddleware()
	handler := m.Limit(okHandler())
	actor := domain.Actor{ID: uuid.New(), Role: domain.RoleUser}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, limitedRequest(actor))
	assert.Equal(t, http.StatusOK, recorder.Code)

	m.Close()
	m.Close()

	// Enforcement keeps working after the sweep is stopped.
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, limitedRequest(actor))
	assert.Equal(t, http.StatusOK, recorder.Code)
}
