// Package session implements the session layer (§4.5, §4.6, §4.7): the
// per-connection state that bridges network tasks into the simulation,
// split into reader, writer, and sim-owned halves that communicate only
// through atomics and bounded channels.
package session

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"arenasrv/internal/replication"
	"arenasrv/internal/sim"
	"arenasrv/internal/telemetry"
	"arenasrv/internal/world"
)

// HeartbeatTimeout is the liveness window (§3, §7): a session that sends
// neither a heartbeat nor a command for this long is terminated with
// reason "idle".
const HeartbeatTimeout = 30 * time.Second

// outboundCapacity bounds each session's outbound sink (§5). Overflow is
// not drop-oldest here: a full sink means the client cannot keep up, and
// the session is disconnected rather than left to silently fall behind.
const outboundCapacity = 16

// DisconnectReason explains why a session was terminated (§7).
type DisconnectReason string

const (
	ReasonTransportClosed   DisconnectReason = "transport_closed"
	ReasonSlowConsumer      DisconnectReason = "slow_consumer"
	ReasonIdle              DisconnectReason = "idle"
	ReasonTransportError    DisconnectReason = "transport_error"
	ReasonProtocolViolation DisconnectReason = "protocol_violation"
)

// Session holds one connection's state (§4.5). The reader half (Inbound,
// lastHeartbeatAt) is written by the connection's read loop; the writer
// half (Outbound, disconnected, reason) is written by the write loop; View
// is touched only by Manager.RunTick on the sim goroutine. No field here
// is guarded by a mutex — crossing halves is atomics and channels only.
type Session struct {
	ID       replication.SessionID
	PlayerID uint32
	JoinedAt time.Time

	// TraceID correlates this session's log lines across the reader and
	// writer goroutines; it has no wire-visible meaning.
	TraceID string

	Inbound *sim.CommandBuffer

	Outbound chan replication.Outbound

	disconnected atomic.Bool
	reason       atomic.Value

	lastHeartbeatAt atomic.Int64

	// View is the sim-owned side table entry the replication dispatcher
	// reads and writes each tick (§4.7).
	View replication.SessionView
}

// New constructs a session bound to an already-spawned world entity. metrics
// is optional and, when set, records inbound ring buffer occupancy and
// overflow counts (commandBufferOccupancyMetricKey, commandBufferOverflowMetricKey).
func New(id replication.SessionID, playerID uint32, entity world.EntityID, now time.Time, metrics telemetry.Metrics) *Session {
	s := &Session{
		ID:       id,
		PlayerID: playerID,
		JoinedAt: now,
		TraceID:  uuid.NewString(),
		Inbound:  sim.NewCommandBuffer(sim.K_cmd, metrics),
		Outbound: make(chan replication.Outbound, outboundCapacity),
		View: replication.SessionView{
			ID:               id,
			PlayerID:         playerID,
			ControlledEntity: entity,
			NeedsFullSync:    true,
		},
	}
	s.Touch(now)
	return s
}

// Touch records a heartbeat, or any inbound frame, as proof of life.
func (s *Session) Touch(now time.Time) {
	s.lastHeartbeatAt.Store(now.UnixNano())
}

// LastHeartbeatAt reports the last time Touch was called.
func (s *Session) LastHeartbeatAt() time.Time {
	return time.Unix(0, s.lastHeartbeatAt.Load())
}

// Disconnected reports whether either half has flagged this session for
// teardown.
func (s *Session) Disconnected() bool { return s.disconnected.Load() }

// MarkDisconnected flags the session for teardown. Only the first call
// sets the reason; later calls are no-ops.
func (s *Session) MarkDisconnected(reason DisconnectReason) {
	if s.disconnected.CompareAndSwap(false, true) {
		s.reason.Store(reason)
	}
}

// DisconnectReason reports the reason passed to the first MarkDisconnected
// call, or "" if the session is still connected.
func (s *Session) DisconnectReason() DisconnectReason {
	if v := s.reason.Load(); v != nil {
		return v.(DisconnectReason)
	}
	return ""
}

// Send enqueues an outbound message. A full sink marks the session a slow
// consumer instead of blocking or dropping the message (§5, §7).
func (s *Session) Send(msg replication.Outbound) {
	select {
	case s.Outbound <- msg:
	default:
		s.MarkDisconnected(ReasonSlowConsumer)
	}
}
