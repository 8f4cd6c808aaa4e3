package sim

// CommandType is a closed sum type for session-originated intents (§4.4,
// design note §9's "variant types for commands, not stringly-typed
// dispatch").
type CommandType int

const (
	CommandStop CommandType = iota
	CommandMove
)

// MoveCommand carries the raw, possibly unnormalized direction vector from
// a client Move frame. Normalization happens in the input-ingest phase,
// not at parse time, so a zero-length vector can still be told apart from
// an explicit Stop when logging.
type MoveCommand struct {
	DX, DY float64
}

// Command is one queued intent, drained during phase (a) of a tick.
type Command struct {
	Type CommandType
	Move MoveCommand
}

// K_cmd is the maximum number of pending commands considered per session
// per tick (§4.4). It is also, per the expansion in SPEC_FULL.md §4.4, the
// capacity of the per-session inbound ring buffer: a burst beyond 8 frames
// between ticks drops the oldest rather than growing unbounded.
const K_cmd = 8

// FoldLastWins applies the last-wins policy over a batch of drained
// commands: only the most recent Move or Stop in the batch has any effect,
// since each command fully overwrites DesiredVelocity. ok is false if cmds
// is empty, meaning the session issued no new command this tick.
func FoldLastWins(cmds []Command) (Command, bool) {
	if len(cmds) == 0 {
		return Command{}, false
	}
	return cmds[len(cmds)-1], true
}
