package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/taskhive/taskhive-api/internal/api/shared"
	"github.com/taskhive/taskhive-api/internal/domain"
)

// rateLimitWindow is the reference window the per-role budgets apply to.
const rateLimitWindow = 15 * time.Minute

// Per-role request budgets per window. Higher-privilege roles get more
// headroom since admin tooling tends to issue bursts of requests.
var roleBudgets = map[domain.Role]int{
	domain.RoleAdmin:   200,
	domain.RoleManager: 150,
	domain.RoleUser:    100,
}

// RateLimitMiddleware applies a per-user token bucket sized by the user's
// role. It must run after authentication; unauthenticated requests pass
// through untouched and are rejected downstream.
type RateLimitMiddleware struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*userLimiter

	done      chan struct{}
	closeOnce sync.Once
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimitMiddleware creates a new RateLimitMiddleware and starts a
// background sweep that evicts limiters idle for more than one window.
// Callers must Close it during shutdown.
func NewRateLimitMiddleware() *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		limiters: make(map[uuid.UUID]*userLimiter),
		done:     make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Close stops the background sweep. Enforcement keeps working for limiters
// already in the map. Safe to call more than once.
func (m *RateLimitMiddleware) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// Limit enforces the actor's rate budget, responding with 429 once the
// bucket is exhausted.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := shared.GetActor(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		if !m.limiterFor(actor).Allow() {
			shared.RespondWithError(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// limiterFor returns the actor's limiter, creating it on first use.
func (m *RateLimitMiddleware) limiterFor(actor domain.Actor) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ul, ok := m.limiters[actor.ID]; ok {
		ul.lastSeen = time.Now()
		return ul.limiter
	}

	budget, ok := roleBudgets[actor.Role]
	if !ok {
		budget = roleBudgets[domain.RoleUser]
	}

	ul := &userLimiter{
		limiter:  rate.NewLimiter(rate.Every(rateLimitWindow/time.Duration(budget)), budget),
		lastSeen: time.Now(),
	}
	m.limiters[actor.ID] = ul
	return ul.limiter
}

// sweep evicts limiters that have been idle for a full window.
func (m *RateLimitMiddleware) sweep() {
	ticker := time.NewTicker(rateLimitWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-rateLimitWindow)
			m.mu.Lock()
			for id, ul := range m.limiters {
				if ul.lastSeen.Before(cutoff) {
					delete(m.limiters, id)
				}
			}
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}
