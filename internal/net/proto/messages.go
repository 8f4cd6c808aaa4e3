// Package proto implements the wire codec (§6.2, §6.3): decoding
// client→server command frames and encoding server→client replication
// messages as compact JSON.
package proto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"arenasrv/internal/replication"
	"arenasrv/internal/sim"
)

// MaxFrameSize is the oversized-frame cutoff (§7): a frame larger than this
// closes the session with reason "protocol violation".
const MaxFrameSize = 64 * 1024

type moveDirection struct {
	Move *struct {
		Direction [2]float64 `json:"direction"`
	} `json:"Move"`
	Stop json.RawMessage `json:"Stop"`
}

// DecodeClientFrame parses one client→server frame (§6.2). isHeartbeat is
// true for the bare "heartbeat" literal, which carries no command. ok is
// false, with a nil error, for any other JSON string (or null) and for a
// JSON object with neither a "Move" nor a "Stop" key: such frames are
// logged and discarded, not treated as a connection error. err is non-nil
// for invalid JSON and for JSON that cannot decode into that envelope (a
// number, an array, or a "Move" whose direction is not numeric).
func DecodeClientFrame(data []byte) (cmd sim.Command, isHeartbeat bool, ok bool, err error) {
	trimmed := bytes.TrimSpace(data)

	var literal string
	if json.Unmarshal(trimmed, &literal) == nil {
		switch literal {
		case "heartbeat":
			return sim.Command{}, true, true, nil
		case "Stop":
			return sim.Command{Type: sim.CommandStop}, false, true, nil
		default:
			return sim.Command{}, false, false, nil
		}
	}

	var envelope moveDirection
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return sim.Command{}, false, false, fmt.Errorf("proto: malformed frame: %w", err)
	}
	switch {
	case envelope.Move != nil:
		return sim.Command{
			Type: sim.CommandMove,
			Move: sim.MoveCommand{DX: envelope.Move.Direction[0], DY: envelope.Move.Direction[1]},
		}, false, true, nil
	case envelope.Stop != nil:
		return sim.Command{Type: sim.CommandStop}, false, true, nil
	default:
		return sim.Command{}, false, false, nil
	}
}

// wireEntry is one "u" array element (§6.3).
type wireEntry struct {
	NetworkID  uint32         `json:"i"`
	Components map[string]any `json:"c,omitempty"`
}

// wireMessage is the outbound envelope shared by every message type
// (§6.3).
type wireMessage struct {
	Type     string      `json:"t"`
	Entities []wireEntry `json:"u"`
	PlayerID *uint32     `json:"p,omitempty"`
}

// EncodeOutbound renders a replication.Outbound as the compact JSON shape
// clients expect.
func EncodeOutbound(msg replication.Outbound) ([]byte, error) {
	wire := wireMessage{Type: msg.Type, Entities: make([]wireEntry, len(msg.Entities))}
	for i, entry := range msg.Entities {
		wire.Entities[i] = wireEntry{NetworkID: entry.NetworkID, Components: entry.Components}
	}
	if msg.PlayerID != 0 {
		playerID := msg.PlayerID
		wire.PlayerID = &playerID
	}
	return json.Marshal(wire)
}
