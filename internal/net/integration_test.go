package net

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"arenasrv/internal/net/proto"
	"arenasrv/internal/replication"
	"arenasrv/internal/session"
	"arenasrv/internal/sim"
)

// TestIntegrationJoinMoveObserveDelta drives a full connect -> move ->
// observe-delta flow through the real websocket transport, per
// SPEC_FULL.md §10.4's higher-level testify-backed integration tests.
func TestIntegrationJoinMoveObserveDelta(t *testing.T) {
	engine := sim.NewEngine(sim.Bounds{X: 1000, Y: 1000}, 100, nil)
	manager := session.NewManager(engine)
	listener := NewListener(manager, nil, nil)

	server := httptest.NewServer(listener.Handler())
	defer server.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(sim.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				manager.RunTick(now)
			}
		}
	}()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, welcome, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(welcome), `"t":"w"`)

	_, fullSync, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(fullSync), `"t":"f"`)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"Move":{"direction":[1,0]}}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	sawDelta := false
	for i := 0; i < 30; i++ {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if strings.Contains(string(msg), `"t":"d"`) {
			sawDelta = true
			break
		}
	}
	require.True(t, sawDelta, "expected a delta update after moving")
}

// TestIntegrationOversizedFrameClosesWithProtocolViolation exercises §7's
// oversized-frame rule: a frame larger than proto.MaxFrameSize must close
// the session with reason "protocol_violation", distinct from a generic
// transport close.
func TestIntegrationOversizedFrameClosesWithProtocolViolation(t *testing.T) {
	engine := sim.NewEngine(sim.Bounds{X: 1000, Y: 1000}, 100, nil)
	manager := session.NewManager(engine)
	listener := NewListener(manager, nil, nil)

	server := httptest.NewServer(listener.Handler())
	defer server.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(sim.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				manager.RunTick(now)
			}
		}
	}()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	require.NoError(t, err)

	var s *session.Session
	require.Eventually(t, func() bool {
		s, _ = manager.Lookup(replication.SessionID(1))
		return s != nil
	}, time.Second, time.Millisecond)

	oversized := make([]byte, proto.MaxFrameSize+1)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, oversized))

	require.Eventually(t, func() bool {
		return s.Disconnected()
	}, time.Second, time.Millisecond)
	require.Equal(t, session.ReasonProtocolViolation, s.DisconnectReason())
}
