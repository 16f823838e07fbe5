package notify

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChannel records everything sent to it.
type stubChannel struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (c *stubChannel) Send(event string, payload Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, Notification{Event: event, Payload: payload})
	return nil
}

func (c *stubChannel) messages() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.sent))
	copy(out, c.sent)
	return out
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	userID := uuid.New()
	first := &stubChannel{}
	second := &stubChannel{}

	registry.Register(userID, first)
	registry.Register(userID, second)

	ch, ok := registry.Get(userID)
	require.True(t, ok)
	assert.Same(t, second, ch.(*stubChannel))
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_UnregisterByChannelIdentity(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	userID := uuid.New()
	stale := &stubChannel{}
	current := &stubChannel{}

	registry.Register(userID, stale)
	registry.Register(userID, current)

	// Closing the stale connection must not evict the current one.
	registry.Unregister(stale)
	ch, ok := registry.Get(userID)
	require.True(t, ok)
	assert.Same(t, current, ch.(*stubChannel))

	registry.Unregister(current)
	_, ok = registry.Get(userID)
	assert.False(t, ok)
}

func TestRegistry_UnregisterUnknownIsNoOp(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(uuid.New(), &stubChannel{})

	assert.NotPanics(t, func() {
		registry.Unregister(&stubChannel{})
	})
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_Clear(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(uuid.New(), &stubChannel{})
	registry.Register(uuid.New(), &stubChannel{})

	registry.Clear()
	assert.Equal(t, 0, registry.Len())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := uuid.New()
			ch := &stubChannel{}
			registry.Register(userID, ch)
			registry.Get(userID)
			registry.Unregister(ch)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, registry.Len())
}
