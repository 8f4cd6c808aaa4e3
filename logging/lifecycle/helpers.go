// Package lifecycle publishes session join/leave events through the
// logging router (§4.5, §7).
package lifecycle

import (
	"context"

	"arenasrv/logging"
)

const (
	// EventSessionConnected is emitted when a session is spawned into the
	// world.
	EventSessionConnected logging.EventType = "lifecycle.session_connected"
	// EventSessionDisconnected is emitted when a session is torn down.
	EventSessionDisconnected logging.EventType = "lifecycle.session_disconnected"
)

// SessionConnectedPayload captures spawn metadata for a new session.
type SessionConnectedPayload struct {
	PlayerID uint32  `json:"playerId"`
	SpawnX   float64 `json:"spawnX"`
	SpawnY   float64 `json:"spawnY"`
}

// SessionDisconnectedPayload captures the reason a session was torn down.
type SessionDisconnectedPayload struct {
	PlayerID uint32 `json:"playerId"`
	Reason   string `json:"reason"`
}

// SessionConnected publishes a session join event.
func SessionConnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload SessionConnectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionConnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  payload,
	})
}

// SessionDisconnected publishes a session teardown event.
func SessionDisconnected(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, payload SessionDisconnectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSessionDisconnected,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySession,
		Payload:  payload,
	})
}
