// Package net wires the websocket transport (§6) to the session layer: one
// reader goroutine and one writer goroutine per connection, bridging frames
// into internal/session's bounded queues.
package net

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"arenasrv/internal/net/proto"
	"arenasrv/internal/session"
	"arenasrv/internal/telemetry"
	"arenasrv/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Listener owns the HTTP surface (§6.5's /health plus /ws and a
// diagnostics endpoint) and hands every accepted connection off to the
// session manager.
type Listener struct {
	manager *session.Manager
	logger  telemetry.Logger
	metrics *logging.Metrics
}

// NewListener builds a Listener. metrics is optional; when set, its
// snapshot is exposed through /diagnostics.
func NewListener(manager *session.Manager, logger telemetry.Logger, metrics *logging.Metrics) *Listener {
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	return &Listener{manager: manager, logger: logger, metrics: metrics}
}

// Handler builds the HTTP mux this server listens on.
func (l *Listener) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", l.handleHealth)
	mux.HandleFunc("/diagnostics", l.handleDiagnostics)
	mux.HandleFunc("/ws", l.handleWebsocket)
	return mux
}

func (l *Listener) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (l *Listener) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sessions": l.manager.SessionCount(),
		"metrics":  l.metrics.Snapshot(),
	})
}

func (l *Listener) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.logger.Printf("websocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(proto.MaxFrameSize)

	s := l.manager.Connect()
	l.logger.Printf("session %d connected (trace=%s)", s.ID, s.TraceID)

	go l.writeLoop(conn, s)
	l.readLoop(conn, s)
	l.logger.Printf("session %d disconnected (trace=%s, reason=%s)", s.ID, s.TraceID, s.DisconnectReason())
}

// readLoop owns the session's reader half: every text frame is decoded and
// staged, and a transport error or close terminates the session (§7).
func (l *Listener) readLoop(conn *websocket.Conn, s *session.Session) {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				s.MarkDisconnected(session.ReasonProtocolViolation)
			} else {
				s.MarkDisconnected(session.ReasonTransportClosed)
			}
			return
		}
		cmd, isHeartbeat, ok, err := proto.DecodeClientFrame(data)
		if err != nil {
			l.logger.Printf("discarding malformed frame: %v", err)
			continue
		}
		if !ok {
			l.logger.Printf("discarding unrecognized frame: %s", data)
			continue
		}
		now := time.Now()
		if isHeartbeat {
			l.manager.Heartbeat(s, now)
			continue
		}
		l.manager.HandleFrame(s, cmd, now)
	}
}

// writeLoop owns the session's writer half: it sends the welcome message
// immediately, then drains Outbound until the channel is closed by the
// manager's disconnect sweep.
func (l *Listener) writeLoop(conn *websocket.Conn, s *session.Session) {
	defer conn.Close()

	welcome, err := proto.EncodeOutbound(l.manager.Welcome(s))
	if err == nil {
		if err := conn.WriteMessage(websocket.TextMessage, welcome); err != nil {
			s.MarkDisconnected(session.ReasonTransportError)
			return
		}
	}

	for msg := range s.Outbound {
		data, err := proto.EncodeOutbound(msg)
		if err != nil {
			l.logger.Printf("failed to encode outbound message: %v", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.MarkDisconnected(session.ReasonTransportError)
			return
		}
	}
}
