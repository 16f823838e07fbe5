package notify

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// DispatcherConfig holds configuration options for the dispatcher.
type DispatcherConfig struct {
	// QueueSize determines the buffer size for the in-memory notification
	// queue. If zero or negative, defaults to 256.
	QueueSize int

	// WorkerCount determines how many concurrent delivery workers to start.
	// If zero or negative, defaults to 1.
	WorkerCount int
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:   256,
		WorkerCount: 4,
	}
}

// Dispatcher fans notifications out to registered channels from a pool of
// worker goroutines. Notify never blocks and never returns an error: if the
// queue is full or the recipient has no channel, the notification is
// dropped. That matches the delivery contract, which is best-effort only.
type Dispatcher struct {
	registry *Registry
	queue    chan Notification
	logger   *slog.Logger

	wg sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Ensure Dispatcher implements Notifier at compile time.
var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher over the given registry and starts its
// delivery workers. Callers must Close it during shutdown.
func NewDispatcher(registry *Registry, config DispatcherConfig, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "notify_dispatcher"))

	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
	}

	d := &Dispatcher{
		registry: registry,
		queue:    make(chan Notification, queueSize),
		logger:   logger,
	}

	for i := 0; i < workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	return d
}

// Notify enqueues a notification for asynchronous delivery. It returns
// immediately; a full queue or closed dispatcher drops the notification
// with a log line.
func (d *Dispatcher) Notify(userID uuid.UUID, event string, payload Payload) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Debug("notification dropped, dispatcher closed",
			slog.String("event", event),
			slog.String("user_id", userID.String()))
		return
	}

	n := Notification{UserID: userID, Event: event, Payload: payload}
	select {
	case d.queue <- n:
		d.mu.Unlock()
	default:
		d.mu.Unlock()
		d.logger.Warn("notification dropped, queue full",
			slog.String("event", event),
			slog.String("user_id", userID.String()),
			slog.Int("queue_cap", cap(d.queue)))
	}
}

// Close stops accepting notifications, drains the queue, and waits for all
// workers to finish. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("notification dispatcher closed")
}

// worker consumes notifications until the queue is closed and drained.
func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	log := d.logger.With(slog.Int("worker_id", id))
	log.Debug("notification worker started")

	for n := range d.queue {
		d.deliver(log, n)
	}

	log.Debug("notification worker stopped")
}

// deliver pushes one notification to its recipient's channel, if any.
// Recipients without a live channel and failed sends are both dropped;
// the caller already moved on.
func (d *Dispatcher) deliver(log *slog.Logger, n Notification) {
	ch, ok := d.registry.Get(n.UserID)
	if !ok {
		log.Debug("no channel for recipient, notification dropped",
			slog.String("event", n.Event),
			slog.String("user_id", n.UserID.String()))
		return
	}

	if err := ch.Send(n.Event, n.Payload); err != nil {
		log.Warn("notification delivery failed",
			slog.String("event", n.Event),
			slog.String("user_id", n.UserID.String()),
			slog.String("error", err.Error()))
	}
}
