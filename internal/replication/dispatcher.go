package replication

import (
	"time"

	"arenasrv/internal/world"
)

// Outbound message type identifiers (§6.3).
const (
	TypeWelcome  = "w"
	TypeFullSync = "f"
	TypeDelta    = "d"
	TypeRemoved  = "r"
)

const (
	// DefaultViewDistance is the Manhattan radius within which a session
	// receives updates about other entities (§4.7).
	DefaultViewDistance = 300.0
	// DefaultFullSyncPeriod is the maximum time between full syncs for an
	// otherwise idle session (§4.7).
	DefaultFullSyncPeriod = 3 * time.Second
)

// EntityEntry is one "u" array element of an outbound message (§6.3).
type EntityEntry struct {
	NetworkID  uint32
	Components map[string]any
}

// Outbound is a fully-built server-to-client message, ready for JSON
// encoding by internal/net.
type Outbound struct {
	Type     string
	Entities []EntityEntry
	PlayerID uint32 // 0 means absent; only "w" messages set this.
}

// SessionView is the slice of session state the dispatcher reads and
// writes. It is embedded in internal/session's Session type; the
// dispatcher never reaches into session internals beyond this struct.
type SessionView struct {
	ID               SessionID
	PlayerID         uint32
	ControlledEntity world.EntityID
	NeedsFullSync    bool
	LastFullSyncAt   time.Time
}

// Dispatcher runs the replication dispatch phase (§4.7) once per tick.
type Dispatcher struct {
	registry      *Registry
	snapshot      *Snapshot
	ViewDistance  float64
	FullSyncEvery time.Duration

	pendingRemovals []uint32
}

func NewDispatcher(registry *Registry, snapshot *Snapshot) *Dispatcher {
	return &Dispatcher{
		registry:      registry,
		snapshot:      snapshot,
		ViewDistance:  DefaultViewDistance,
		FullSyncEvery: DefaultFullSyncPeriod,
	}
}

// Welcome builds the one-off identity-exchange message sent right after a
// session connects (§4.5 rule 1, §6.3's welcome entry shape). It is not
// part of the per-tick Dispatch cycle.
func Welcome(networkID, playerID uint32) Outbound {
	return Outbound{
		Type:     TypeWelcome,
		PlayerID: playerID,
		Entities: []EntityEntry{{
			NetworkID: networkID,
			Components: map[string]any{
				"player_id":  playerID,
				"network_id": networkID,
			},
		}},
	}
}

// NotifyDespawn queues a removal notice for the entity's network id to be
// broadcast on the next Dispatch call, and purges its snapshot history
// (§4.7's removal notice).
func (d *Dispatcher) NotifyDespawn(id world.EntityID, networkID uint32) {
	d.pendingRemovals = append(d.pendingRemovals, networkID)
	d.snapshot.Purge(id)
}

// DropSession discards a session's replication state, on disconnect.
func (d *Dispatcher) DropSession(id SessionID) {
	d.snapshot.DropSession(id)
}

// Dispatch runs one tick of the replication dispatcher (§4.7) and returns
// every outbound message produced, per session. A session may receive zero,
// one, or two messages in a single tick (e.g. a removal notice and a full
// sync).
func (d *Dispatcher) Dispatch(store *world.Store, sessions []*SessionView, now time.Time) map[SessionID][]Outbound {
	out := make(map[SessionID][]Outbound)

	if len(d.pendingRemovals) > 0 {
		entries := make([]EntityEntry, 0, len(d.pendingRemovals))
		for _, networkID := range d.pendingRemovals {
			entries = append(entries, EntityEntry{NetworkID: networkID})
		}
		msg := Outbound{Type: TypeRemoved, Entities: entries}
		for _, session := range sessions {
			out[session.ID] = append(out[session.ID], msg)
		}
		d.pendingRemovals = nil
	}

	changed := d.changedEntities(store)

	for _, session := range sessions {
		viewerPos, ok := store.Position(session.ControlledEntity)
		if !ok {
			continue
		}
		if session.NeedsFullSync || now.Sub(session.LastFullSyncAt) >= d.FullSyncEvery {
			msg := d.buildFullSync(store, session, viewerPos)
			out[session.ID] = append(out[session.ID], msg)
			session.NeedsFullSync = false
			session.LastFullSyncAt = now
			continue
		}
		if msg, ok := d.buildDelta(store, session, viewerPos, changed); ok {
			out[session.ID] = append(out[session.ID], msg)
		}
	}
	return out
}

// changedEntities collects the union of entities with at least one changed
// networked component this tick, ready for the per-session delta pass.
func (d *Dispatcher) changedEntities(store *world.Store) map[world.EntityID]struct{} {
	changed := make(map[world.EntityID]struct{})
	store.IterChangedPosition(func(id world.EntityID, _ world.Position) bool {
		changed[id] = struct{}{}
		return true
	})
	store.IterChangedVelocity(func(id world.EntityID, _ world.Velocity) bool {
		changed[id] = struct{}{}
		return true
	})
	return changed
}

func (d *Dispatcher) buildFullSync(store *world.Store, session *SessionView, viewerPos world.Position) Outbound {
	entries := make([]EntityEntry, 0)
	store.IterNetworked(func(id world.EntityID, obj world.NetworkedObject) bool {
		if id != session.ControlledEntity && !withinView(store, id, viewerPos, d.ViewDistance) {
			return true
		}
		components := make(map[string]any)
		for _, view := range d.registry.Views() {
			fields, ok := view.Project(store, id)
			if !ok {
				continue
			}
			components[view.Shortcode] = view.Encode(fields)
			d.snapshot.Commit(session.ID, view.Shortcode, id, fields)
		}
		if len(components) == 0 {
			return true
		}
		entries = append(entries, EntityEntry{NetworkID: obj.NetworkID, Components: components})
		return true
	})
	return Outbound{Type: TypeFullSync, Entities: entries}
}

func (d *Dispatcher) buildDelta(store *world.Store, session *SessionView, viewerPos world.Position, changed map[world.EntityID]struct{}) (Outbound, bool) {
	entries := make([]EntityEntry, 0)
	for id := range changed {
		obj, ok := store.NetworkedObject(id)
		if !ok {
			continue
		}
		if id != session.ControlledEntity && !withinView(store, id, viewerPos, d.ViewDistance) {
			continue
		}
		components := make(map[string]any)
		for _, view := range d.registry.Views() {
			fields, ok := view.Project(store, id)
			if !ok {
				continue
			}
			if !d.snapshot.Diff(session.ID, view.Shortcode, id, fields, view.Thresholds) {
				continue
			}
			components[view.Shortcode] = view.Encode(fields)
			d.snapshot.Commit(session.ID, view.Shortcode, id, fields)
		}
		if len(components) == 0 {
			continue
		}
		entries = append(entries, EntityEntry{NetworkID: obj.NetworkID, Components: components})
	}
	if len(entries) == 0 {
		return Outbound{}, false
	}
	return Outbound{Type: TypeDelta, Entities: entries}, true
}

func withinView(store *world.Store, id world.EntityID, viewerPos world.Position, viewDistance float64) bool {
	pos, ok := store.Position(id)
	if !ok {
		return false
	}
	return absFloat(pos.X-viewerPos.X)+absFloat(pos.Y-viewerPos.Y) <= viewDistance
}
