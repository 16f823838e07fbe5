// Package notify provides real-time notification fan-out: a registry that
// maps users to their live delivery channels and an asynchronous dispatcher
// that pushes event payloads to them without blocking the caller.
package notify

import "github.com/google/uuid"

// Event names pushed to connected clients. The event name travels alongside
// the payload so clients can route messages without inspecting the body.
const (
	EventTaskCreated     = "taskCreated"
	EventTaskUpdated     = "taskUpdated"
	EventTaskAssigned    = "taskAssigned"
	EventTaskDeleted     = "taskDeleted"
	EventTeamCreated     = "teamCreated"
	EventMemberAdded     = "memberAdded"
	EventMemberRemoved   = "memberRemoved"
	EventTeamDeleted     = "teamDeleted"
	EventUserRegistered  = "userRegistered"
	EventUserLoggedIn    = "userLoggedIn"
	EventProfileUpdated  = "profileUpdated"
	EventPasswordChanged = "passwordChanged"
)

// Payload is the body of a notification as delivered to clients.
type Payload struct {
	Message string `json:"message"`
}

// Notification is a single event addressed to a single user.
type Notification struct {
	UserID  uuid.UUID
	Event   string
	Payload Payload
}

// Channel is a live delivery endpoint for one user, typically a websocket
// connection. Send may fail if the underlying connection is gone; the
// dispatcher logs and drops such failures.
type Channel interface {
	Send(event string, payload Payload) error
}

// Notifier is the producer-side interface services use to emit events.
// Implementations must never block the caller and must swallow delivery
// failures; notification delivery is best-effort by contract.
type Notifier interface {
	Notify(userID uuid.UUID, event string, payload Payload)
}
