package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"arenasrv/internal/replication"
	"arenasrv/internal/sim"
	"arenasrv/internal/telemetry"
	"arenasrv/internal/world"
	"arenasrv/logging"
	"arenasrv/logging/lifecycle"
)

// joinRequest is how Connect (called from an accept goroutine) hands a
// spawn request to RunTick (running on the sim goroutine), since only that
// goroutine may mutate the world (§5).
type joinRequest struct {
	reply chan *Session
}

// Manager owns the set of live sessions and drives the simulation engine
// one tick at a time. Connect, Lookup, and HandleFrame are safe to call
// from any goroutine; RunTick must only ever be called from the single sim
// goroutine (§4.5, §5).
type Manager struct {
	engine       *sim.Engine
	allocator    *world.NetworkIDAllocator
	nextPlayerID atomic.Uint32

	mu       sync.RWMutex
	sessions map[replication.SessionID]*Session

	joins chan joinRequest

	metrics   telemetry.Metrics
	publisher logging.Publisher
}

func NewManager(engine *sim.Engine) *Manager {
	return &Manager{
		engine:    engine,
		allocator: world.NewNetworkIDAllocator(),
		sessions:  make(map[replication.SessionID]*Session),
		joins:     make(chan joinRequest, sim.K_cmd*4),
		publisher: logging.NopPublisher(),
	}
}

// SetMetrics attaches a metrics sink recording inbound ring buffer occupancy
// and overflow counts for every session created afterward. Optional.
func (m *Manager) SetMetrics(metrics telemetry.Metrics) {
	m.metrics = metrics
}

// SetPublisher attaches a logging router so connect/disconnect lifecycle
// events are reported (§4.5, §7). Optional.
func (m *Manager) SetPublisher(publisher logging.Publisher) {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	m.publisher = publisher
}

// SpawnNPCs populates the world with wandering NPCs at startup
// (SPEC_FULL.md §3's expansion). Call it before the scheduler starts.
func (m *Manager) SpawnNPCs(count int) {
	m.engine.SpawnNPCs(count, m.allocator)
}

// Connect requests a new session and blocks until the next RunTick
// processes it (§4.5 rule 1: "request spawn in the world").
func (m *Manager) Connect() *Session {
	reply := make(chan *Session, 1)
	m.joins <- joinRequest{reply: reply}
	return <-reply
}

// SessionCount reports the number of live sessions, for diagnostics.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Lookup finds a live session by id, for the net listener to route an
// inbound frame to the right command buffer.
func (m *Manager) Lookup(id replication.SessionID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// HandleFrame stages a decoded command on the session's inbound ring
// buffer and records proof of life (§4.5 rule 2).
func (m *Manager) HandleFrame(s *Session, cmd sim.Command, now time.Time) {
	s.Touch(now)
	s.Inbound.Push(cmd)
}

// Heartbeat records proof of life without staging a command, for bare
// heartbeat frames (§6.2).
func (m *Manager) Heartbeat(s *Session, now time.Time) {
	s.Touch(now)
}

// Welcome builds the one-off welcome message for a freshly connected
// session (§4.5 rule 1, §6.3).
func (m *Manager) Welcome(s *Session) replication.Outbound {
	obj, _ := m.engine.Store().NetworkedObject(s.View.ControlledEntity)
	return replication.Welcome(obj.NetworkID, s.PlayerID)
}

// RunTick drains pending joins, sweeps disconnected or timed-out sessions,
// advances the simulation by one tick, and fans outbound messages out to
// each session's sink. It must be called from the sim goroutine only.
func (m *Manager) RunTick(now time.Time) {
	m.drainJoins(now)
	m.sweepDisconnected(now)

	m.mu.RLock()
	views := make([]*replication.SessionView, 0, len(m.sessions))
	commands := make(map[replication.SessionID][]sim.Command, len(m.sessions))
	byID := make(map[replication.SessionID]*Session, len(m.sessions))
	for id, s := range m.sessions {
		views = append(views, &s.View)
		commands[id] = s.Inbound.Drain()
		byID[id] = s
	}
	m.mu.RUnlock()

	if m.metrics != nil {
		m.metrics.Store("session_active_count", uint64(len(views)))
	}

	outbound := m.engine.Tick(views, commands, now, sim.Dt)
	for id, messages := range outbound {
		s, ok := byID[id]
		if !ok {
			continue
		}
		for _, msg := range messages {
			s.Send(msg)
		}
	}
}

func (m *Manager) drainJoins(now time.Time) {
	for {
		select {
		case req := <-m.joins:
			playerID := m.nextPlayerID.Add(1)
			entity := m.engine.SpawnPlayer(playerID)
			id := replication.SessionID(playerID)
			s := New(id, playerID, entity, now, m.metrics)
			m.mu.Lock()
			m.sessions[id] = s
			m.mu.Unlock()

			spawn, _ := m.engine.Store().Position(entity)
			lifecycle.SessionConnected(context.Background(), m.publisher, actorRef(playerID), lifecycle.SessionConnectedPayload{
				PlayerID: playerID,
				SpawnX:   spawn.X,
				SpawnY:   spawn.Y,
			})

			req.reply <- s
		default:
			return
		}
	}
}

func (m *Manager) sweepDisconnected(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if now.Sub(s.LastHeartbeatAt()) > HeartbeatTimeout {
			s.MarkDisconnected(ReasonIdle)
		}
		if !s.Disconnected() {
			continue
		}
		m.engine.DespawnPlayer(s.View.ControlledEntity)
		m.engine.Dispatcher().DropSession(id)
		close(s.Outbound)
		delete(m.sessions, id)

		lifecycle.SessionDisconnected(context.Background(), m.publisher, actorRef(s.PlayerID), lifecycle.SessionDisconnectedPayload{
			PlayerID: s.PlayerID,
			Reason:   string(s.DisconnectReason()),
		})
	}
}

func actorRef(playerID uint32) logging.EntityRef {
	return logging.EntityRef{ID: fmt.Sprintf("%d", playerID), Kind: logging.EntityKindSession}
}
