package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/taskhive/taskhive-api/internal/notify"
	"github.com/taskhive/taskhive-api/internal/platform/logger"
)

const (
	// wsRegisterTimeout bounds how long a fresh connection may sit idle
	// before sending its registration message.
	wsRegisterTimeout = 10 * time.Second

	// wsWriteTimeout bounds a single notification write.
	wsWriteTimeout = 5 * time.Second
)

// wsRegisterMessage is the first message a client sends after connecting,
// binding the connection to a user's notification stream.
type wsRegisterMessage struct {
	UserID string `json:"userId"`
}

// wsEnvelope is the wire format for a pushed notification.
type wsEnvelope struct {
	Event string         `json:"event"`
	Data  notify.Payload `json:"data"`
}

// wsChannel adapts a websocket connection to the notify.Channel interface.
// Writes are serialized; gorilla/websocket allows only one concurrent writer.
type wsChannel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Send implements notify.Channel.
func (c *wsChannel) Send(event string, payload notify.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(wsEnvelope{Event: event, Data: payload})
}

// WSHandler upgrades connections on the websocket endpoint and registers
// them as notification delivery channels.
type WSHandler struct {
	registry *notify.Registry
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a new WSHandler with the given dependencies.
func NewWSHandler(registry *notify.Registry, log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: log.With(slog.String("component", "ws_handler")),
	}
}

// Serve handles GET /ws. The client must send a registration message
// naming its user ID; the connection then receives that user's
// notifications until it closes.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	userID, err := h.awaitRegistration(conn)
	if err != nil {
		log.Warn("websocket registration failed", slog.String("error", err.Error()))
		_ = conn.Close()
		return
	}

	ch := &wsChannel{conn: conn}
	h.registry.Register(userID, ch)
	log.Info("websocket channel registered", slog.String("user_id", userID.String()))

	// Drain inbound frames until the peer disconnects. Clients only ever
	// send the registration message; everything else is ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.registry.Unregister(ch)
	_ = conn.Close()
	log.Info("websocket channel unregistered", slog.String("user_id", userID.String()))
}

// awaitRegistration reads and parses the registration message.
func (h *WSHandler) awaitRegistration(conn *websocket.Conn) (uuid.UUID, error) {
	if err := conn.SetReadDeadline(time.Now().Add(wsRegisterTimeout)); err != nil {
		return uuid.Nil, err
	}

	var msg wsRegisterMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(msg.UserID)
	if err != nil {
		return uuid.Nil, err
	}

	// Clear the registration deadline; the read loop blocks indefinitely.
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}
