package session

import (
	"testing"
	"time"

	"arenasrv/internal/replication"
)

func TestSendMarksSlowConsumerWhenSinkFull(t *testing.T) {
	s := New(1, 1, 1, time.Unix(0, 0), nil)
	for i := 0; i < outboundCapacity; i++ {
		s.Send(replication.Outbound{Type: replication.TypeDelta})
	}
	if s.Disconnected() {
		t.Fatal("expected sink at capacity, not yet disconnected")
	}
	s.Send(replication.Outbound{Type: replication.TypeDelta})
	if !s.Disconnected() || s.DisconnectReason() != ReasonSlowConsumer {
		t.Fatalf("expected slow consumer disconnect, got disconnected=%v reason=%s", s.Disconnected(), s.DisconnectReason())
	}
}

func TestMarkDisconnectedFirstReasonWins(t *testing.T) {
	s := New(1, 1, 1, time.Unix(0, 0), nil)
	s.MarkDisconnected(ReasonIdle)
	s.MarkDisconnected(ReasonTransportError)
	if s.DisconnectReason() != ReasonIdle {
		t.Fatalf("expected first reason to stick, got %s", s.DisconnectReason())
	}
}

func TestTouchUpdatesLastHeartbeatAt(t *testing.T) {
	s := New(1, 1, 1, time.Unix(0, 0), nil)
	later := time.Unix(100, 0)
	s.Touch(later)
	if !s.LastHeartbeatAt().Equal(later) {
		t.Fatalf("expected LastHeartbeatAt to equal %v, got %v", later, s.LastHeartbeatAt())
	}
}
