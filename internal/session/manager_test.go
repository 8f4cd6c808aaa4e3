package session

import (
	"testing"
	"time"

	"arenasrv/internal/replication"
	"arenasrv/internal/sim"
)

func newTestManager() *Manager {
	engine := sim.NewEngine(sim.Bounds{X: 1000, Y: 1000}, 100, nil)
	return NewManager(engine)
}

// connectSync drives one join to completion: Connect blocks until a
// RunTick call drains it, so the request is issued on its own goroutine
// and RunTick is driven from the test goroutine.
func connectSync(m *Manager, now time.Time) *Session {
	result := make(chan *Session, 1)
	go func() { result <- m.Connect() }()
	for {
		m.RunTick(now)
		select {
		case s := <-result:
			return s
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestConnectAssignsMonotonicPlayerID(t *testing.T) {
	m := newTestManager()
	first := connectSync(m, time.Unix(0, 0))
	second := connectSync(m, time.Unix(0, 0))

	if first.PlayerID != 1 || second.PlayerID != 2 {
		t.Fatalf("expected monotonic player ids 1, 2; got %d, %d", first.PlayerID, second.PlayerID)
	}
	if replication.SessionID(first.PlayerID) != first.ID {
		t.Fatalf("expected session id to equal player id, got %d vs %d", first.ID, first.PlayerID)
	}
}

func TestRunTickDeliversFullSyncOnJoin(t *testing.T) {
	m := newTestManager()
	s := connectSync(m, time.Unix(0, 0))

	m.RunTick(time.Unix(1, 0))

	select {
	case msg := <-s.Outbound:
		if msg.Type != replication.TypeFullSync {
			t.Fatalf("expected full sync, got %s", msg.Type)
		}
	default:
		t.Fatal("expected a full sync message to be queued after join")
	}
}

func TestHeartbeatTimeoutDisconnectsSession(t *testing.T) {
	m := newTestManager()
	s := connectSync(m, time.Unix(0, 0))

	m.RunTick(time.Unix(0, 0).Add(HeartbeatTimeout + time.Second))

	if _, ok := m.Lookup(s.ID); ok {
		t.Fatal("expected session to be removed after heartbeat timeout")
	}
	if s.DisconnectReason() != ReasonIdle {
		t.Fatalf("expected disconnect reason idle, got %s", s.DisconnectReason())
	}
}

func TestHandleFrameTouchesAndStagesCommand(t *testing.T) {
	m := newTestManager()
	s := connectSync(m, time.Unix(0, 0))

	before := s.LastHeartbeatAt()
	later := before.Add(5 * time.Second)
	m.HandleFrame(s, sim.Command{Type: sim.CommandMove, Move: sim.MoveCommand{DX: 1, DY: 0}}, later)

	if !s.LastHeartbeatAt().Equal(later) {
		t.Fatalf("expected heartbeat to be updated to %v, got %v", later, s.LastHeartbeatAt())
	}
	if s.Inbound.Len() != 1 {
		t.Fatalf("expected one staged command, got %d", s.Inbound.Len())
	}
}
